package interfaces

import (
	"context"
	"time"

	"AdAttribution/internal/model"

	"github.com/shopspring/decimal"
)

// CostImporter populates the cost-record store for one platform and a
// local-date range. Re-import replaces the range; it never appends.
type CostImporter interface {
	Import(ctx context.Context, startDate, endDate string) error
}

// PlatformAdapter is the capability set every supported platform implements.
type PlatformAdapter interface {
	CostImporter
	Type() model.PlatformType
	// IsActive reports whether the platform is enabled and configured.
	IsActive() bool
	// EnrichVisit attaches the platform hint and row reference to a visit
	// whose tracking params identify this platform. It reports whether the
	// visit was changed.
	EnrichVisit(visit *model.VisitRecord, records []model.CostRecord) bool
}

// CostRepository is the cost-record store shared by importers and the orchestrator.
type CostRepository interface {
	ReplaceRange(ctx context.Context, platform model.PlatformType, startDate, endDate string, rows []*model.PlatformCost) error
	ListWindow(ctx context.Context, platform model.PlatformType, siteID int64, date string) ([]model.CostRecord, error)
}

// VisitSource reads analytics visits; it must include the platform hint and
// platform-row reference when present.
type VisitSource interface {
	// Available reports whether the companion visit store is installed.
	Available(ctx context.Context) error
	GetVisits(ctx context.Context, siteID int64, utcStart, utcEnd time.Time) ([]model.VisitRecord, error)
}

// TimezoneLookup resolves a site's configured timezone.
type TimezoneLookup interface {
	Get(siteID int64) (*time.Location, error)
}

// AttributionStore persists the ledger one (site, date) window at a time.
type AttributionStore interface {
	// ReplaceWindow atomically swaps the stored window for rows.
	ReplaceWindow(ctx context.Context, siteID int64, date string, rows []*model.AttributedVisit) (*model.ReplaceStats, error)
	// CostTotals returns the stored cost per channel for the window.
	CostTotals(ctx context.Context, siteID int64, date string) (map[string]decimal.Decimal, error)
}
