// Command reprocess rebuilds the attribution ledger for a date range.
//
//	reprocess -start 2024-03-01 -end 2024-03-07 [-site 1,2] [-skip-import] [-config path]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"AdAttribution/internal/adapter"
	"AdAttribution/internal/config"
	"AdAttribution/internal/metrics"
	"AdAttribution/internal/repository"
	"AdAttribution/internal/service"

	"github.com/sirupsen/logrus"
)

func main() {
	start := flag.String("start", "", "first site-local date (YYYY-MM-DD), required")
	end := flag.String("end", "", "last site-local date (YYYY-MM-DD), required")
	sites := flag.String("site", "", "comma-separated site ids; default all configured sites")
	cfgPath := flag.String("config", "", "config file; default ./config/config.yaml")
	skipImport := flag.Bool("skip-import", false, "merge already imported cost without calling the platforms")
	flag.Parse()

	if *start == "" || *end == "" {
		fmt.Fprintln(os.Stderr, "both -start and -end are required")
		flag.Usage()
		os.Exit(2)
	}
	siteIDs, err := parseSites(*sites)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.LoadConfigFrom(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, cfg, logger, service.RunRequest{Start: *start, End: *end, Sites: siteIDs, SkipImport: *skipImport}))
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger, req service.RunRequest) int {
	db, err := repository.OpenDatabase(cfg.Database, logger)
	if err != nil {
		logger.WithError(err).Error("database unavailable")
		return 1
	}
	costs := repository.NewCostRepository(db)
	registry, err := adapter.NewPlatformRegistry(cfg, costs, logger)
	if err != nil {
		logger.WithError(err).Error("platform adapters")
		return 1
	}

	reconciler := service.NewReconciler(cfg, registry.Adapters(), repository.NewVisitRepository(db), costs,
		repository.NewAttributionRepository(db, logger), metrics.New(nil), logger)
	report, err := reconciler.Run(ctx, req)
	if err != nil {
		logger.WithError(err).Error("reprocess aborted")
		return 1
	}

	for _, f := range report.Failures {
		logger.WithFields(logrus.Fields{
			"date":     f.Date,
			"site_id":  f.SiteID,
			"platform": f.Platform,
			"stage":    f.Stage,
		}).Warn(f.Error)
	}
	logger.WithFields(logrus.Fields{
		"run_id":     report.RunID,
		"visits_in":  report.VisitsIn,
		"visits_out": report.VisitsOut,
		"failures":   len(report.Failures),
	}).Info("reprocess complete")
	if len(report.Failures) > 0 {
		return 3
	}
	return 0
}

func parseSites(raw string) ([]int64, error) {
	var out []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid site id %q", part)
		}
		out = append(out, id)
	}
	return out, nil
}
