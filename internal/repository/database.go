package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"AdAttribution/internal/config"
	"AdAttribution/internal/model"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDatabase connects to postgres, creating the target database when it
// does not exist yet, applies pool settings and migrates the owned tables.
func OpenDatabase(cfg config.DatabaseConfig, log logrus.FieldLogger) (*gorm.DB, error) {
	gormLogger := logger.Default.LogMode(logger.Warn)

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{Logger: gormLogger})
	if err != nil {
		if !strings.Contains(err.Error(), "does not exist") && !strings.Contains(err.Error(), "3D000") {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		log.Info("target database missing, creating it")
		if e := ensureDatabaseExists(cfg.DSN); e != nil {
			return nil, fmt.Errorf("create database: %w", e)
		}
		if db, err = gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{Logger: gormLogger}); err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// visits belongs to the analytics pipeline and is never migrated here
	if err := db.AutoMigrate(&model.PlatformCost{}, &model.AttributedVisit{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// ensureDatabaseExists connects to the postgres maintenance database and
// creates the DSN's database if missing. dsn must be URL-shaped.
func ensureDatabaseExists(dsn string) error {
	u, err := url.Parse(dsn)
	if err != nil {
		return err
	}
	dbname := strings.TrimSpace(strings.TrimPrefix(u.Path, "/"))
	if dbname == "" || dbname == "postgres" {
		return nil
	}
	u.Path = "/postgres"

	db, err := sql.Open("pgx", u.String())
	if err != nil {
		return err
	}
	defer db.Close()

	err = db.QueryRow("SELECT 1 FROM pg_database WHERE datname = $1", dbname).Scan(new(int))
	if errors.Is(err, sql.ErrNoRows) {
		_, err = db.Exec(`CREATE DATABASE "` + strings.ReplaceAll(dbname, `"`, `""`) + `"`)
	}
	return err
}
