package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"AdAttribution/internal/apperr"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestClassifyError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"cancelled", fmt.Errorf("wrap: %w", context.Canceled), ReasonCancelled},
		{"auth", &apperr.ImportError{Kind: apperr.ImportAuth, Err: errors.New("401")}, ReasonAuth},
		{"parse", fmt.Errorf("x: %w", &apperr.ImportError{Kind: apperr.ImportParse, Err: errors.New("bad")}), ReasonParse},
		{"network", &apperr.ImportError{Kind: apperr.ImportNetwork, Err: errors.New("eof")}, ReasonNetwork},
		{"configuration", &apperr.ConfigurationError{SiteID: 3, Reason: "no timezone"}, ReasonConfig},
		{"unknown", errors.New("boom"), ReasonUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyError(tc.err))
		})
	}
}

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveImport("Bing", time.Second, nil)
	m.ObserveImport("Bing", time.Second, &apperr.ImportError{Kind: apperr.ImportAuth, Err: errors.New("401")})
	m.AddLedgerRows(3, 1, 2, 1)
	m.CostMismatch("AdWords")
	m.ObserveRun(10, 9, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.imports.WithLabelValues("Bing", OutcomeOK, "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.imports.WithLabelValues("Bing", OutcomeFailed, ReasonAuth)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ledgerRows.WithLabelValues("matched")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.conflicts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.costMismatches.WithLabelValues("AdWords")))
	assert.Equal(t, 9.0, testutil.ToFloat64(m.lastRunVisitOut))
}

func TestNilReceiverIsNoop(t *testing.T) {
	var m *ReconcileMetrics
	assert.NotPanics(t, func() {
		m.ObserveImport("Bing", time.Second, nil)
		m.ObserveWindow(time.Second, nil)
		m.SkipWindow(nil)
		m.AddLedgerRows(1, 1, 1, 0)
		m.CostMismatch("Bing")
		m.ObserveRun(1, 1, nil)
	})
}
