package adapter

import (
	"context"
	"testing"

	"AdAttribution/internal/config"
	"AdAttribution/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopCosts struct{}

func (nopCosts) ReplaceRange(context.Context, model.PlatformType, string, string, []*model.PlatformCost) error {
	return nil
}

func (nopCosts) ListWindow(context.Context, model.PlatformType, int64, string) ([]model.CostRecord, error) {
	return nil, nil
}

func TestFactoryForRejectsUnknownPlatform(t *testing.T) {
	_, err := FactoryFor(model.PlatformType("Yahoo"))
	assert.Error(t, err)
	for _, p := range model.SupportedPlatforms {
		f, err := FactoryFor(p)
		require.NoError(t, err)
		assert.NotNil(t, f)
	}
}

func TestRegistryFollowsMergeOrder(t *testing.T) {
	cfg := &config.Config{
		Reconcile: config.ReconcileConfig{EnabledPlatforms: []string{"bing", "AdWords"}},
		Platforms: map[string]config.PlatformConfig{
			"adwords":     {BaseURL: "http://a", AccountID: "1", SiteID: 1},
			"bing":        {BaseURL: "http://b", AccountID: "2", SiteID: 1},
			"facebookads": {BaseURL: "http://f", AccountID: "3", SiteID: 1},
		},
	}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	reg, err := NewPlatformRegistry(cfg, nopCosts{}, logger)
	require.NoError(t, err)

	all := reg.Adapters()
	require.Len(t, all, 4)
	for i, a := range all {
		assert.Equal(t, model.SupportedPlatforms[i], a.Type())
	}

	var active []model.PlatformType
	for _, a := range all {
		if a.IsActive() {
			active = append(active, a.Type())
		}
	}
	assert.Equal(t, []model.PlatformType{model.PlatformAdWords, model.PlatformBing}, active)

	criteo, err := reg.GetAdapter(model.PlatformCriteo)
	require.NoError(t, err)
	assert.False(t, criteo.IsActive())
}
