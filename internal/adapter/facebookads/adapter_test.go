package facebookads

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"AdAttribution/internal/apperr"
	"AdAttribution/internal/config"
	"AdAttribution/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCosts struct {
	calls int
	rows  []*model.PlatformCost
}

func (r *recordingCosts) ReplaceRange(_ context.Context, _ model.PlatformType, _, _ string, rows []*model.PlatformCost) error {
	r.calls++
	r.rows = rows
	return nil
}

func (r *recordingCosts) ListWindow(context.Context, model.PlatformType, int64, string) ([]model.CostRecord, error) {
	return nil, nil
}

func newTestAdapter(t *testing.T, handler http.HandlerFunc) (*Adapter, *recordingCosts) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	costs := &recordingCosts{}
	cfg := &config.PlatformConfig{BaseURL: srv.URL, AccountID: "42", SiteID: 3, Timeout: 2, Enabled: true}
	return NewFacebookAdsAdapter(cfg, costs, logger).(*Adapter), costs
}

func TestImportFollowsPaging(t *testing.T) {
	a, costs := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/act_42/insights", r.URL.Path)
		assert.Equal(t, "adset", r.URL.Query().Get("level"))
		if r.URL.Query().Get("after") == "" {
			_, _ = w.Write([]byte(`{"data":[{"date_start":"2024-03-10","campaign_id":"c1","adset_id":"s1","clicks":"4","spend":"2.50",
				"actions":[{"action_type":"purchase","value":"2"},{"action_type":"link_click","value":"4"}],
				"action_values":[{"action_type":"purchase","value":"31.5"}]}],
				"paging":{"cursors":{"after":"p2"},"next":"https://graph/next"}}`))
			return
		}
		assert.Equal(t, "p2", r.URL.Query().Get("after"))
		_, _ = w.Write([]byte(`{"data":[{"date_start":"2024-03-11","campaign_id":"c1","adset_id":"s1","clicks":"0","spend":"0"}],"paging":{}}`))
	})

	require.NoError(t, a.Import(context.Background(), "2024-03-10", "2024-03-11"))
	require.Equal(t, 1, costs.calls)
	require.Len(t, costs.rows, 2)

	first := costs.rows[0]
	assert.Equal(t, int64(4), first.Clicks)
	assert.Equal(t, 2.5, first.Cost)
	assert.Equal(t, 2.0, first.Conversions)
	assert.Equal(t, 31.5, first.ConversionValue)
	assert.Equal(t, "s1", first.AdGroupID)
	assert.Equal(t, int64(3), first.SiteID)
}

func TestImportMalformedNumberIsParseError(t *testing.T) {
	a, costs := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"date_start":"2024-03-10","campaign_id":"c1","clicks":"4.5","spend":"1"}]}`))
	})

	err := a.Import(context.Background(), "2024-03-10", "2024-03-10")
	var ie *apperr.ImportError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, apperr.ImportParse, ie.Kind)
	assert.Zero(t, costs.calls)
}

func TestEnrichVisitUsesAdSet(t *testing.T) {
	a, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {})
	records := []model.CostRecord{{ExternalID: "f1", CampaignID: "c1", AdGroupID: "s1"}}
	v := model.VisitRecord{CampaignData: map[string]string{"aom_platform": "facebookads", "campaign_id": "c1", "adset_id": "s1"}}
	assert.True(t, a.EnrichVisit(&v, records))
	assert.Equal(t, "FacebookAds", v.PlatformHint)
	assert.Equal(t, "f1", v.PlatformRowRef)
}
