package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"AdAttribution/internal/apperr"
	"AdAttribution/internal/model"
	"AdAttribution/internal/repository"
	"AdAttribution/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	got service.RunRequest
	err error
}

func (f *fakeRunner) Run(_ context.Context, req service.RunRequest) (*service.RunReport, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &service.RunReport{RunID: "r-1", Start: req.Start, End: req.End, VisitsIn: 4, VisitsOut: 4}, nil
}

type fakeImporter struct{ err error }

func (f *fakeImporter) Import(context.Context, string, string, string) error { return f.err }

type fakeLedger struct{}

func (fakeLedger) ListWindow(_ context.Context, siteID int64, date string) ([]*model.AttributedVisit, error) {
	return []*model.AttributedVisit{{SiteID: siteID, Date: date, Channel: "direct", UniqueHash: "visit-1"}}, nil
}

func (fakeLedger) ChannelSummary(_ context.Context, _ int64, from, to string) ([]repository.ChannelTotal, error) {
	return []repository.ChannelTotal{{Channel: "AdWords", RowCount: 2, Visits: 1, Cost: 9}}, nil
}

func newTestRouter(runner Runner, importer Importer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewRouter(NewReconcileHandler(runner, importer, logger), NewLedgerHandler(fakeLedger{}, logger), prometheus.NewRegistry())
}

func serve(r http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestReprocess(t *testing.T) {
	runner := &fakeRunner{}
	r := newTestRouter(runner, &fakeImporter{})

	w := serve(r, http.MethodPost, "/reprocess?start=2024-03-01&end=2024-03-07&site=1,2&site=5&skip_import=true")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []int64{1, 2, 5}, runner.got.Sites)
	assert.True(t, runner.got.SkipImport)

	var report service.RunReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "r-1", report.RunID)
	assert.Equal(t, 4, report.VisitsOut)
}

func TestReprocessValidation(t *testing.T) {
	r := newTestRouter(&fakeRunner{}, &fakeImporter{})

	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/reprocess?start=2024-03-01").Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/reprocess?start=2024-03-01&end=03/07/2024").Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/reprocess?start=2024-03-01&end=2024-03-02&site=x").Code)
}

func TestReprocessMissingCapability(t *testing.T) {
	runner := &fakeRunner{err: &apperr.ConfigurationError{Capability: "analytics visit log", Reason: "missing"}}
	r := newTestRouter(runner, &fakeImporter{})

	w := serve(r, http.MethodPost, "/reprocess?start=2024-03-01&end=2024-03-01")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestImportPlatformStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"ok", nil, http.StatusOK},
		{"unsupported", fmt.Errorf("%w: yahoo", service.ErrUnsupportedPlatform), http.StatusNotFound},
		{"inactive", &service.ErrPlatformInactive{Platform: model.PlatformCriteo}, http.StatusConflict},
		{"remote", &apperr.ImportError{Platform: "Bing", Kind: apperr.ImportAuth, Err: errors.New("401")}, http.StatusBadGateway},
		{"other", errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&fakeRunner{}, &fakeImporter{err: tc.err})
			w := serve(r, http.MethodPost, "/import/bing?start=2024-03-01&end=2024-03-02")
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}
}

func TestLedgerRoutes(t *testing.T) {
	r := newTestRouter(&fakeRunner{}, &fakeImporter{})

	w := serve(r, http.MethodGet, "/api/ledger/1?date=2024-03-10")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"unique_hash":"visit-1"`)

	w = serve(r, http.MethodGet, "/api/ledger/1/channels?from=2024-03-31&to=2024-03-01")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		From     string                    `json:"from"`
		Channels []repository.ChannelTotal `json:"channels"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "2024-03-01", body.From)
	require.Len(t, body.Channels, 1)
	assert.Equal(t, int64(2), body.Channels[0].RowCount)

	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/api/ledger/abc?date=2024-03-10").Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/api/ledger/1").Code)
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(&fakeRunner{}, &fakeImporter{})
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/healthz").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/metrics").Code)
}
