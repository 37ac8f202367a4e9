// Package adapter builds the closed set of platform adapters.
package adapter

import (
	"fmt"

	"AdAttribution/internal/adapter/adwords"
	"AdAttribution/internal/adapter/bing"
	"AdAttribution/internal/adapter/criteo"
	"AdAttribution/internal/adapter/facebookads"
	"AdAttribution/internal/config"
	"AdAttribution/internal/interfaces"
	"AdAttribution/internal/model"

	"github.com/sirupsen/logrus"
)

// Factory builds one platform's adapter from its config section.
type Factory func(cfg *config.PlatformConfig, costs interfaces.CostRepository, logger logrus.FieldLogger) interfaces.PlatformAdapter

// FactoryFor selects the constructor for platform.
func FactoryFor(platform model.PlatformType) (Factory, error) {
	switch platform {
	case model.PlatformAdWords:
		return adwords.NewAdWordsAdapter, nil
	case model.PlatformBing:
		return bing.NewBingAdapter, nil
	case model.PlatformCriteo:
		return criteo.NewCriteoAdapter, nil
	case model.PlatformFacebookAds:
		return facebookads.NewFacebookAdsAdapter, nil
	default:
		return nil, fmt.Errorf("unsupported platform %q", platform)
	}
}

// Build constructs one adapter per supported platform, in merge order.
// Platforms without a config section still get an adapter that reports inactive.
func Build(cfg *config.Config, costs interfaces.CostRepository, logger logrus.FieldLogger) ([]interfaces.PlatformAdapter, error) {
	out := make([]interfaces.PlatformAdapter, 0, len(model.SupportedPlatforms))
	for _, platform := range model.SupportedPlatforms {
		factory, err := FactoryFor(platform)
		if err != nil {
			return nil, err
		}
		pc := cfg.Platforms[platform.ConfigKey()]
		pc.Enabled = cfg.PlatformEnabled(string(platform))
		out = append(out, factory(&pc, costs, logger))
	}
	return out, nil
}
