package model

import "strings"

// PlatformType is the closed set of ad platforms that report cost.
type PlatformType string

const (
	PlatformAdWords     PlatformType = "AdWords"
	PlatformBing        PlatformType = "Bing"
	PlatformCriteo      PlatformType = "Criteo"
	PlatformFacebookAds PlatformType = "FacebookAds"
)

// SupportedPlatforms is the fixed processing order. A visit matched by an
// earlier platform is never offered to a later one.
var SupportedPlatforms = []PlatformType{
	PlatformAdWords,
	PlatformBing,
	PlatformCriteo,
	PlatformFacebookAds,
}

// ParsePlatform resolves a config key or URL segment (case-insensitive).
func ParsePlatform(s string) (PlatformType, bool) {
	s = strings.TrimSpace(s)
	for _, p := range SupportedPlatforms {
		if strings.EqualFold(string(p), s) {
			return p, true
		}
	}
	return "", false
}

// ConfigKey is the key used under `platforms:` in config.yaml.
func (p PlatformType) ConfigKey() string {
	return strings.ToLower(string(p))
}
