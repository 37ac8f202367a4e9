// Package metrics exposes reconciliation health as Prometheus series.
package metrics

import (
	"context"
	"errors"
	"time"

	"AdAttribution/internal/apperr"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeOK       = "ok"
	OutcomeFailed   = "failed"
	OutcomeSkipped  = "skipped"
	ReasonNetwork   = "network"
	ReasonAuth      = "auth"
	ReasonParse     = "parse"
	ReasonConfig    = "configuration"
	ReasonCancelled = "cancelled"
	ReasonUnknown   = "unknown"
)

// ReconcileMetrics groups the collectors written by imports and runs.
type ReconcileMetrics struct {
	imports         *prometheus.CounterVec
	importDuration  *prometheus.HistogramVec
	windows         *prometheus.CounterVec
	windowDuration  prometheus.Histogram
	ledgerRows      *prometheus.CounterVec
	conflicts       prometheus.Counter
	costMismatches  *prometheus.CounterVec
	runs            *prometheus.CounterVec
	lastRunVisitsIn prometheus.Gauge
	lastRunVisitOut prometheus.Gauge
}

// New registers the collectors on registerer; nil means the default registry.
func New(registerer prometheus.Registerer) *ReconcileMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	m := &ReconcileMetrics{
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adattribution_cost_imports_total",
			Help: "Cost imports by platform and outcome.",
		}, []string{"platform", "outcome", "reason"}),
		importDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "adattribution_cost_import_duration_seconds",
			Help:    "Cost import latency per platform.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"platform"}),
		windows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adattribution_windows_total",
			Help: "Reconciled (site, date) windows by outcome.",
		}, []string{"outcome", "reason"}),
		windowDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "adattribution_window_duration_seconds",
			Help:    "Time spent merging and writing one window.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ledgerRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adattribution_ledger_rows_total",
			Help: "Ledger rows written by kind (matched, synthetic, organic).",
		}, []string{"kind"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adattribution_ledger_conflicts_total",
			Help: "Ledger inserts skipped because the unique hash already existed.",
		}),
		costMismatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adattribution_cost_mismatches_total",
			Help: "Windows where stored cost differs from reported cost.",
		}, []string{"platform"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adattribution_runs_total",
			Help: "Reprocessing runs by outcome.",
		}, []string{"outcome"}),
		lastRunVisitsIn: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "adattribution_last_run_visits_in",
			Help: "Visits read by the last completed run.",
		}),
		lastRunVisitOut: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "adattribution_last_run_visits_out",
			Help: "Visits written to the ledger by the last completed run.",
		}),
	}
	registerer.MustRegister(
		m.imports, m.importDuration, m.windows, m.windowDuration, m.ledgerRows,
		m.conflicts, m.costMismatches, m.runs, m.lastRunVisitsIn, m.lastRunVisitOut,
	)
	return m
}

// ClassifyError maps an error onto a low-cardinality reason label.
func ClassifyError(err error) string {
	var ie *apperr.ImportError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ReasonCancelled
	case errors.As(err, &ie):
		switch ie.Kind {
		case apperr.ImportAuth:
			return ReasonAuth
		case apperr.ImportParse:
			return ReasonParse
		default:
			return ReasonNetwork
		}
	case apperr.IsConfiguration(err):
		return ReasonConfig
	default:
		return ReasonUnknown
	}
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailed
	}
	return OutcomeOK
}

// The methods below tolerate a nil receiver so callers may run without metrics.

// ObserveImport records one cost import and its outcome.
func (m *ReconcileMetrics) ObserveImport(platform string, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.imports.WithLabelValues(platform, outcome(err), ClassifyError(err)).Inc()
	m.importDuration.WithLabelValues(platform).Observe(took.Seconds())
}

// ObserveWindow records one (site, date) window.
func (m *ReconcileMetrics) ObserveWindow(took time.Duration, err error) {
	if m == nil {
		return
	}
	m.windows.WithLabelValues(outcome(err), ClassifyError(err)).Inc()
	m.windowDuration.Observe(took.Seconds())
}

// SkipWindow counts a site dropped before any window ran.
func (m *ReconcileMetrics) SkipWindow(err error) {
	if m == nil {
		return
	}
	m.windows.WithLabelValues(OutcomeSkipped, ClassifyError(err)).Inc()
}

// AddLedgerRows counts written ledger rows by kind.
func (m *ReconcileMetrics) AddLedgerRows(matched, synthetic, organic int, conflicts int64) {
	if m == nil {
		return
	}
	m.ledgerRows.WithLabelValues("matched").Add(float64(matched))
	m.ledgerRows.WithLabelValues("synthetic").Add(float64(synthetic))
	m.ledgerRows.WithLabelValues("organic").Add(float64(organic))
	m.conflicts.Add(float64(conflicts))
}

// CostMismatch counts a reported/stored cost discrepancy.
func (m *ReconcileMetrics) CostMismatch(platform string) {
	if m == nil {
		return
	}
	m.costMismatches.WithLabelValues(platform).Inc()
}

// ObserveRun closes a run and updates the last-run gauges.
func (m *ReconcileMetrics) ObserveRun(visitsIn, visitsOut int, err error) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		m.lastRunVisitsIn.Set(float64(visitsIn))
		m.lastRunVisitOut.Set(float64(visitsOut))
	}
}
