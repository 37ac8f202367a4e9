package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"AdAttribution/internal/apperr"
	"AdAttribution/internal/config"
	"AdAttribution/internal/dates"
	"AdAttribution/internal/interfaces"
	"AdAttribution/internal/metrics"
	"AdAttribution/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Failure stages recorded in RunReport.Failures.
const (
	StageImport   = "import"
	StageTimezone = "timezone"
	StageWindow   = "window"
)

// RunRequest selects what a reprocessing run covers. Start and End are
// inclusive site-local dates; End may precede Start.
type RunRequest struct {
	Start      string  `json:"start"`
	End        string  `json:"end"`
	Sites      []int64 `json:"sites,omitempty"` // empty means every configured site
	SkipImport bool    `json:"skip_import"`
}

// Failure is one non-fatal error collected during a run.
type Failure struct {
	Date     string `json:"date,omitempty"`
	SiteID   int64  `json:"site_id,omitempty"`
	Platform string `json:"platform,omitempty"`
	Stage    string `json:"stage"`
	Error    string `json:"error"`
}

// WindowReport is what one (site, date) window produced.
type WindowReport struct {
	SiteID        int64                                 `json:"site_id"`
	Date          string                                `json:"date"`
	VisitsIn      int                                   `json:"visits_in"`
	VisitsOut     int                                   `json:"visits_out"`
	Enriched      int                                   `json:"enriched"`
	Platforms     map[model.PlatformType]*PlatformStats `json:"platforms"`
	ReportedCost  map[string]string                     `json:"reported_cost"`
	StoredCost    map[string]string                     `json:"stored_cost"`
	Replace       *model.ReplaceStats                   `json:"replace"`
	Discrepancies []*apperr.DataInconsistency           `json:"discrepancies,omitempty"`
}

// DateReport groups the windows of one date.
type DateReport struct {
	Date    string          `json:"date"`
	Windows []*WindowReport `json:"windows"`
}

// RunReport summarises a reprocessing run.
type RunReport struct {
	RunID     string       `json:"run_id"`
	Start     string       `json:"start"`
	End       string       `json:"end"`
	Imported  []string     `json:"imported"`
	Stale     []string     `json:"stale,omitempty"` // import failed, merged from the last committed cost
	Dates     []DateReport `json:"dates"`
	VisitsIn  int          `json:"visits_in"`
	VisitsOut int          `json:"visits_out"`
	Failures  []Failure    `json:"failures"`
}

// Reconciler drives import and merge over a date range.
type Reconciler struct {
	cfg        *config.Config
	adapters   []interfaces.PlatformAdapter
	visits     interfaces.VisitSource
	costs      interfaces.CostRepository
	store      interfaces.AttributionStore
	normalizer *dates.Normalizer
	engine     *MatchingEngine
	metrics    *metrics.ReconcileMetrics
	logger     logrus.FieldLogger
}

// NewReconciler wires a reconciler. adapters must be in merge order; m may be nil.
func NewReconciler(
	cfg *config.Config,
	adapters []interfaces.PlatformAdapter,
	visits interfaces.VisitSource,
	costs interfaces.CostRepository,
	store interfaces.AttributionStore,
	m *metrics.ReconcileMetrics,
	logger logrus.FieldLogger,
) *Reconciler {
	return &Reconciler{
		cfg:        cfg,
		adapters:   adapters,
		visits:     visits,
		costs:      costs,
		store:      store,
		normalizer: dates.NewNormalizer(dates.NewConfigTimezones(cfg)),
		engine:     NewMatchingEngine(logger),
		metrics:    m,
		logger:     logger,
	}
}

// Run reprocesses every (site, date) window in the request. It aborts only
// when the date range is invalid or the visit source is unavailable; all
// other errors are collected into the report.
func (r *Reconciler) Run(ctx context.Context, req RunRequest) (*RunReport, error) {
	runID := uuid.NewString()
	log := r.logger.WithField("run_id", runID)

	dateList, err := dates.Between(req.Start, req.End)
	if err != nil {
		return nil, err
	}
	if err := r.visits.Available(ctx); err != nil {
		log.WithError(err).Error("visit source unavailable, aborting run")
		r.metrics.ObserveRun(0, 0, err)
		return nil, err
	}

	report := &RunReport{RunID: runID, Start: req.Start, End: req.End, Dates: make([]DateReport, len(dateList))}
	var mu sync.Mutex
	fail := func(f Failure) {
		mu.Lock()
		report.Failures = append(report.Failures, f)
		mu.Unlock()
	}

	merging := r.importPhase(ctx, log, req, dateList, report, fail)
	sites := r.sitesFor(log, req, dateList[0], fail)
	log.WithFields(logrus.Fields{
		"dates":     len(dateList),
		"sites":     sites,
		"platforms": report.Imported,
		"stale":     report.Stale,
	}).Info("reconciliation started")

	workers := r.cfg.Reconcile.Workers
	if workers <= 0 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, date := range dateList {
		i, date := i, date
		report.Dates[i].Date = date
		g.Go(func() error {
			for _, siteID := range sites {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				started := time.Now()
				wr, err := r.reconcileWindow(gctx, log, siteID, date, merging)
				r.metrics.ObserveWindow(time.Since(started), err)
				if err != nil {
					log.WithError(err).WithFields(logrus.Fields{"site_id": siteID, "date": date}).Error("window failed")
					fail(Failure{Date: date, SiteID: siteID, Stage: StageWindow, Error: err.Error()})
					continue
				}
				report.Dates[i].Windows = append(report.Dates[i].Windows, wr)
			}
			return nil
		})
	}
	waitErr := g.Wait()

	for _, d := range report.Dates {
		for _, w := range d.Windows {
			report.VisitsIn += w.VisitsIn
			report.VisitsOut += w.VisitsOut
		}
	}
	sort.SliceStable(report.Failures, func(a, b int) bool {
		fa, fb := report.Failures[a], report.Failures[b]
		if fa.Date != fb.Date {
			return fa.Date < fb.Date
		}
		return fa.SiteID < fb.SiteID
	})

	if waitErr == nil {
		waitErr = ctx.Err()
	}
	r.metrics.ObserveRun(report.VisitsIn, report.VisitsOut, waitErr)
	log.WithFields(logrus.Fields{
		"visits_in":  report.VisitsIn,
		"visits_out": report.VisitsOut,
		"failures":   len(report.Failures),
	}).Info("reconciliation finished")
	if waitErr != nil {
		return report, waitErr
	}
	return report, nil
}

// importPhase runs every active importer over the whole range before any
// merge starts and returns the adapters whose cost may be merged. A failed
// import commits nothing, so its platform is still merged against the cost
// rows of the last import that did commit.
func (r *Reconciler) importPhase(ctx context.Context, log logrus.FieldLogger, req RunRequest, dateList []string, report *RunReport, fail func(Failure)) []interfaces.PlatformAdapter {
	first, last := dateList[0], dateList[len(dateList)-1]
	if last < first {
		first, last = last, first
	}

	var merging []interfaces.PlatformAdapter
	for _, a := range r.adapters {
		if !a.IsActive() {
			continue
		}
		platform := string(a.Type())
		if !req.SkipImport {
			started := time.Now()
			err := a.Import(ctx, first, last)
			r.metrics.ObserveImport(platform, time.Since(started), err)
			if err != nil {
				log.WithError(err).WithField("platform", platform).Error("cost import failed, merging last committed cost")
				fail(Failure{Platform: platform, Stage: StageImport, Error: err.Error()})
				report.Stale = append(report.Stale, platform)
				merging = append(merging, a)
				continue
			}
		}
		merging = append(merging, a)
		report.Imported = append(report.Imported, platform)
	}
	return merging
}

// sitesFor resolves the run's sites and drops those without a usable timezone.
func (r *Reconciler) sitesFor(log logrus.FieldLogger, req RunRequest, firstDate string, fail func(Failure)) []int64 {
	candidates := req.Sites
	if len(candidates) == 0 {
		candidates = r.cfg.SiteIDs()
	}
	sites := make([]int64, 0, len(candidates))
	for _, siteID := range candidates {
		if _, _, err := r.normalizer.DayRange(siteID, firstDate); err != nil {
			log.WithError(err).WithField("site_id", siteID).Error("site skipped")
			r.metrics.SkipWindow(err)
			fail(Failure{SiteID: siteID, Stage: StageTimezone, Error: err.Error()})
			continue
		}
		sites = append(sites, siteID)
	}
	return sites
}

func (r *Reconciler) reconcileWindow(ctx context.Context, log logrus.FieldLogger, siteID int64, date string, adapters []interfaces.PlatformAdapter) (*WindowReport, error) {
	log = log.WithFields(logrus.Fields{"site_id": siteID, "date": date})

	startUTC, endUTC, err := r.normalizer.DayRange(siteID, date)
	if err != nil {
		return nil, err
	}
	visits, err := r.visits.GetVisits(ctx, siteID, startUTC, endUTC)
	if err != nil {
		return nil, fmt.Errorf("load visits: %w", err)
	}

	costs := make(map[model.PlatformType][]model.CostRecord, len(adapters))
	platforms := make([]model.PlatformType, 0, len(adapters))
	for _, a := range adapters {
		records, err := r.costs.ListWindow(ctx, a.Type(), siteID, date)
		if err != nil {
			return nil, fmt.Errorf("load %s cost: %w", a.Type(), err)
		}
		costs[a.Type()] = records
		platforms = append(platforms, a.Type())
	}

	enriched := 0
	for i := range visits {
		for _, a := range adapters {
			if a.EnrichVisit(&visits[i], costs[a.Type()]) {
				enriched++
				break
			}
		}
	}

	res, err := r.engine.Merge(Window{SiteID: siteID, Date: date, StartUTC: startUTC}, visits, costs, platforms)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	replace, err := r.store.ReplaceWindow(ctx, siteID, date, res.Rows)
	if err != nil {
		return nil, fmt.Errorf("replace ledger window: %w", err)
	}
	stored, err := r.store.CostTotals(ctx, siteID, date)
	if err != nil {
		return nil, fmt.Errorf("read stored cost: %w", err)
	}

	wr := &WindowReport{
		SiteID:       siteID,
		Date:         date,
		VisitsIn:     res.VisitsIn,
		VisitsOut:    res.VisitsOut,
		Enriched:     enriched,
		Platforms:    res.Stats,
		ReportedCost: make(map[string]string, len(platforms)),
		StoredCost:   make(map[string]string, len(platforms)),
		Replace:      replace,
	}
	tolerance := decimal.NewFromFloat(r.cfg.Reconcile.CostTolerance)
	matched, synthetic := 0, 0
	for _, p := range platforms {
		reported := decimal.Zero
		for _, rec := range costs[p] {
			if rec.Billable() {
				reported = reported.Add(decimal.NewFromFloat(rec.Cost))
			}
		}
		got := stored[string(p)]
		wr.ReportedCost[string(p)] = reported.StringFixed(2)
		wr.StoredCost[string(p)] = got.StringFixed(2)
		if reported.Sub(got).Abs().GreaterThan(tolerance) {
			inc := &apperr.DataInconsistency{
				SiteID:   siteID,
				Date:     date,
				Platform: string(p),
				Reported: reported.StringFixed(2),
				Stored:   got.StringFixed(2),
			}
			wr.Discrepancies = append(wr.Discrepancies, inc)
			r.metrics.CostMismatch(string(p))
			log.WithError(inc).Warn("reported and stored cost differ")
		}

		st := res.Stats[p]
		matched += st.MatchedRows
		synthetic += st.CreatedRows
		log.WithFields(logrus.Fields{
			"platform":        p,
			"visits_seen":     st.VisitsSeen,
			"cost_reported":   wr.ReportedCost[string(p)],
			"cost_stored":     wr.StoredCost[string(p)],
			"clicks_reported": st.ClicksReported,
			"matched_rows":    st.MatchedRows,
			"created_rows":    st.CreatedRows,
			"unmerged_clicks": st.UnmergedClicks,
		}).Info("platform reconciled")
	}
	r.metrics.AddLedgerRows(matched, synthetic, len(res.Rows)-matched-synthetic, replace.AlreadyPresent)

	log.WithFields(logrus.Fields{
		"visits_in":       res.VisitsIn,
		"visits_out":      res.VisitsOut,
		"enriched":        enriched,
		"rows":            len(res.Rows),
		"deleted":         replace.Deleted,
		"inserted":        replace.Inserted,
		"already_present": replace.AlreadyPresent,
	}).Info("window reconciled")
	return wr, nil
}

// IsFatal reports whether a Run error aborted the whole range.
func IsFatal(err error) bool {
	return err != nil && (apperr.IsConfiguration(err) || errors.Is(err, context.Canceled))
}
