package main

import (
	"fmt"
	"log"

	"AdAttribution/internal/adapter"
	"AdAttribution/internal/api"
	"AdAttribution/internal/config"
	"AdAttribution/internal/metrics"
	"AdAttribution/internal/repository"
	"AdAttribution/internal/service"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// 2. logging
	logger := cfg.NewLogger()
	logger.Info("config loaded")

	// 3. postgres, created and migrated on first start
	db, err := repository.OpenDatabase(cfg.Database, logger)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	logger.Info("postgres ready")

	// 4. stores and adapters
	costs := repository.NewCostRepository(db)
	ledger := repository.NewAttributionRepository(db, logger)
	visits := repository.NewVisitRepository(db)
	registry, err := adapter.NewPlatformRegistry(cfg, costs, logger)
	if err != nil {
		logger.Fatalf("platform adapters: %v", err)
	}
	m := metrics.New(nil)

	// 5. services
	reconciler := service.NewReconciler(cfg, registry.Adapters(), visits, costs, ledger, m, logger)
	importer := service.NewImportService(registry, m, logger)

	// 6. http
	gin.SetMode(cfg.Server.Mode)
	r := api.NewRouter(
		api.NewReconcileHandler(reconciler, importer, logger),
		api.NewLedgerHandler(ledger, logger),
		nil,
	)

	logger.Infof("listening on :%d (gin mode %s)", cfg.Server.Port, cfg.Server.Mode)
	if err := r.Run(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		logger.Fatalf("http server: %v", err)
	}
}
