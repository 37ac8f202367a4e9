package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"AdAttribution/internal/dates"
	"AdAttribution/internal/interfaces"
	"AdAttribution/internal/metrics"
	"AdAttribution/internal/model"

	"github.com/sirupsen/logrus"
)

// ErrUnsupportedPlatform is returned for names outside the supported set.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// ErrPlatformInactive is returned when importing a disabled or unconfigured platform.
type ErrPlatformInactive struct {
	Platform model.PlatformType
}

func (e *ErrPlatformInactive) Error() string {
	return fmt.Sprintf("platform %s is not active", e.Platform)
}

// AdapterLookup resolves a platform to its adapter; *adapter.PlatformRegistry implements it.
type AdapterLookup interface {
	GetAdapter(platform model.PlatformType) (interfaces.PlatformAdapter, error)
}

// ImportService runs a single platform's cost import on demand.
type ImportService struct {
	adapters AdapterLookup
	metrics  *metrics.ReconcileMetrics
	logger   logrus.FieldLogger
}

func NewImportService(adapters AdapterLookup, m *metrics.ReconcileMetrics, logger logrus.FieldLogger) *ImportService {
	return &ImportService{adapters: adapters, metrics: m, logger: logger}
}

// Import replaces the stored cost of platformName for [start, end].
func (s *ImportService) Import(ctx context.Context, platformName, start, end string) error {
	platform, ok := model.ParsePlatform(platformName)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedPlatform, platformName)
	}
	a, err := s.adapters.GetAdapter(platform)
	if err != nil || !a.IsActive() {
		return &ErrPlatformInactive{Platform: platform}
	}
	if _, err := dates.ParseDate(start); err != nil {
		return err
	}
	if _, err := dates.ParseDate(end); err != nil {
		return err
	}
	if end < start {
		start, end = end, start
	}

	started := time.Now()
	err = a.Import(ctx, start, end)
	s.metrics.ObserveImport(string(platform), time.Since(started), err)
	if err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"platform": platform,
		"start":    start,
		"end":      end,
		"took":     time.Since(started).String(),
	}).Info("cost import finished")
	return nil
}
