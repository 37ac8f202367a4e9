package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config mirrors config/config.yaml.
type Config struct {
	Server    ServerConfig              `mapstructure:"server"`
	Database  DatabaseConfig            `mapstructure:"database"`
	Log       LogConfig                 `mapstructure:"log"`
	Reconcile ReconcileConfig           `mapstructure:"reconcile"`
	Sites     map[string]SiteConfig     `mapstructure:"sites"`     // keyed by site id
	Platforms map[string]PlatformConfig `mapstructure:"platforms"` // keyed by lower-case platform name
}

// ServerConfig configures the HTTP process.
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug/release/test
}

// DatabaseConfig configures the gorm connection pool.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LogConfig configures the logrus handle.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text/json
}

// ReconcileConfig tunes the reprocessing run.
type ReconcileConfig struct {
	Workers          int      `mapstructure:"workers"`           // dates processed concurrently
	CostTolerance    float64  `mapstructure:"cost_tolerance"`    // allowed |reported - stored|
	EnabledPlatforms []string `mapstructure:"enabled_platforms"` // platforms taking part in merges
}

// SiteConfig holds per-site settings.
type SiteConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// PlatformConfig holds one ad platform's credentials and transport settings.
type PlatformConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	AuthToken    string        `mapstructure:"auth_token"`
	AccountID    string        `mapstructure:"account_id"`
	SiteID       int64         `mapstructure:"site_id"` // site the account's spend is attributed to
	Timeout      int           `mapstructure:"timeout"` // seconds
	RetryCount   int           `mapstructure:"retry_count"`
	PollInterval time.Duration `mapstructure:"poll_interval"` // async report polling base delay
	PollAttempts int           `mapstructure:"poll_attempts"`
	Proxy        string        `mapstructure:"proxy"`
	Enabled      bool          `mapstructure:"-"` // set from reconcile.enabled_platforms
}

// LoadConfig loads config/config.yaml; secrets are overridden from .env / env.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom("")
}

// LoadConfigFrom loads the given file, or ./config/config.yaml when path is empty.
func LoadConfigFrom(path string) (*Config, error) {
	_ = godotenv.Load() // .env is optional

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
	}
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("reconcile.workers", 4)
	v.SetDefault("reconcile.cost_tolerance", 0.01)
}

// overrideFromEnv replaces secrets with environment values, env > yaml.
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	for name, p := range cfg.Platforms {
		prefix := strings.ToUpper(name)
		if v := os.Getenv(prefix + "_AUTH_TOKEN"); v != "" {
			p.AuthToken = v
		}
		if v := os.Getenv(prefix + "_PROXY"); v != "" {
			p.Proxy = v
		}
		cfg.Platforms[name] = p
	}
}

// PlatformEnabled reports whether the platform is listed under reconcile.enabled_platforms.
func (c *Config) PlatformEnabled(name string) bool {
	for _, p := range c.Reconcile.EnabledPlatforms {
		if strings.EqualFold(p, name) {
			return true
		}
	}
	return false
}

// SiteIDs lists the configured sites in ascending order, skipping keys that are not numeric.
func (c *Config) SiteIDs() []int64 {
	ids := make([]int64, 0, len(c.Sites))
	for k := range c.Sites {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// NewLogger builds the process logger from the log section.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	lvl, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	if strings.EqualFold(c.Log.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}
