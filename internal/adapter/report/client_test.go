package report

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"AdAttribution/internal/apperr"
	"AdAttribution/internal/config"
	"AdAttribution/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(url string) *Client {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewClient(model.PlatformBing, &config.PlatformConfig{
		BaseURL:      url,
		AuthToken:    "secret",
		Timeout:      2,
		RetryCount:   2,
		PollInterval: time.Millisecond,
		PollAttempts: 5,
	}, logger)
}

func importKind(t *testing.T, err error) apperr.ImportKind {
	t.Helper()
	var ie *apperr.ImportError
	require.True(t, errors.As(err, &ie), "expected ImportError, got %v", err)
	assert.Equal(t, "Bing", ie.Platform)
	return ie.Kind
}

func TestGetJSONAuthFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := testClient(srv.URL).GetJSON(context.Background(), "/x", nil, &struct{}{})
	assert.Equal(t, apperr.ImportAuth, importKind(t, err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetJSONRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"value":7}`))
	}))
	defer srv.Close()

	var out struct {
		Value int `json:"value"`
	}
	require.NoError(t, testClient(srv.URL).GetJSON(context.Background(), "/x", nil, &out))
	assert.Equal(t, 7, out.Value)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetJSONNetworkFailureAfterRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := testClient(srv.URL).GetJSON(context.Background(), "/x", nil, &struct{}{})
	assert.Equal(t, apperr.ImportNetwork, importKind(t, err))
}

func TestGetJSONParseFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"value":`))
	}))
	defer srv.Close()

	err := testClient(srv.URL).GetJSON(context.Background(), "/x", nil, &struct{}{})
	assert.Equal(t, apperr.ImportParse, importKind(t, err))
}

func TestRunReportPollsUntilDone(t *testing.T) {
	var polls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/reports", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		_, _ = w.Write([]byte(`{"report_id":"r1"}`))
	})
	mux.HandleFunc("/reports/r1", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&polls, 1) < 3 {
			_, _ = w.Write([]byte(`{"status":"running"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"done"}`))
	})
	mux.HandleFunc("/reports/r1/rows", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"n":1},{"n":2}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	var rows []struct {
		N int `json:"n"`
	}
	require.NoError(t, testClient(srv.URL).RunReport(context.Background(), "/reports", map[string]string{"a": "b"}, &rows))
	assert.Len(t, rows, 2)
	assert.Equal(t, int32(3), atomic.LoadInt32(&polls))
}

func TestRunReportFailedJob(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/reports", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"report_id":"r1"}`))
	})
	mux.HandleFunc("/reports/r1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"failed","error":"quota"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	err := testClient(srv.URL).RunReport(context.Background(), "/reports", nil, &[]struct{}{})
	assert.Equal(t, apperr.ImportNetwork, importKind(t, err))
	assert.Contains(t, err.Error(), "quota")
}

func TestRowIDIsStable(t *testing.T) {
	a := RowID(model.PlatformAdWords, "acc", "c1", "g1", "2024-03-10")
	assert.Equal(t, a, RowID(model.PlatformAdWords, "acc", "c1", "g1", "2024-03-10"))
	assert.NotEqual(t, a, RowID(model.PlatformBing, "acc", "c1", "g1", "2024-03-10"))
	assert.Len(t, a, 32)
}

func TestEnrichVisit(t *testing.T) {
	records := []model.CostRecord{
		{ExternalID: "r-1", CampaignID: "c1", AdGroupID: "g1"},
		{ExternalID: "r-2", CampaignID: "c1", AdGroupID: "g2"},
	}

	v := model.VisitRecord{CampaignData: map[string]string{"aom_platform": "adwords", "campaign_id": "c1", "ad_group_id": "g2"}}
	assert.True(t, EnrichVisit(model.PlatformAdWords, &v, records, "ad_group_id"))
	assert.Equal(t, "AdWords", v.PlatformHint)
	assert.Equal(t, "r-2", v.PlatformRowRef)

	other := model.VisitRecord{CampaignData: map[string]string{"aom_platform": "Bing", "campaign_id": "c1"}}
	assert.False(t, EnrichVisit(model.PlatformAdWords, &other, records, "ad_group_id"))
	assert.Empty(t, other.PlatformRowRef)

	unknown := model.VisitRecord{CampaignData: map[string]string{"aom_platform": "AdWords", "campaign_id": "zz"}}
	assert.True(t, EnrichVisit(model.PlatformAdWords, &unknown, records, ""))
	assert.Equal(t, "AdWords", unknown.PlatformHint)
	assert.Empty(t, unknown.PlatformRowRef)

	already := model.VisitRecord{PlatformRowRef: "r-9", CampaignData: map[string]string{"aom_platform": "AdWords", "campaign_id": "c1"}}
	assert.False(t, EnrichVisit(model.PlatformAdWords, &already, records, ""))
	assert.Equal(t, "r-9", already.PlatformRowRef)
}
