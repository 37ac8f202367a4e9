package repository

import (
	"context"
	"fmt"

	"AdAttribution/internal/interfaces"
	"AdAttribution/internal/model"

	"gorm.io/gorm"
)

// CostRepository stores imported platform cost rows.
type CostRepository struct {
	db *gorm.DB
}

var _ interfaces.CostRepository = (*CostRepository)(nil)

func NewCostRepository(db *gorm.DB) *CostRepository {
	return &CostRepository{db: db}
}

// ReplaceRange swaps every row of platform dated within [startDate, endDate]
// for rows. Nothing is committed if any insert fails.
func (r *CostRepository) ReplaceRange(ctx context.Context, platform model.PlatformType, startDate, endDate string, rows []*model.PlatformCost) error {
	if endDate < startDate {
		startDate, endDate = endDate, startDate
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("platform = ? AND date >= ? AND date <= ?", platform, startDate, endDate).
			Delete(&model.PlatformCost{}).Error; err != nil {
			return fmt.Errorf("delete %s costs %s..%s: %w", platform, startDate, endDate, err)
		}
		if len(rows) == 0 {
			return nil
		}
		for _, row := range rows {
			row.ID = 0
			row.Platform = platform
		}
		if err := tx.CreateInBatches(rows, 200).Error; err != nil {
			return fmt.Errorf("insert %s costs: %w", platform, err)
		}
		return nil
	})
}

// ListWindow returns the platform's rows for one site and local date.
func (r *CostRepository) ListWindow(ctx context.Context, platform model.PlatformType, siteID int64, date string) ([]model.CostRecord, error) {
	var rows []*model.PlatformCost
	if err := r.db.WithContext(ctx).
		Where("platform = ? AND site_id = ? AND date = ?", platform, siteID, date).
		Order("external_id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list %s costs site=%d date=%s: %w", platform, siteID, date, err)
	}
	out := make([]model.CostRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.CostRecordFromDB(row))
	}
	return out, nil
}
