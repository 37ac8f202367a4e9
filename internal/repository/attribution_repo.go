package repository

import (
	"context"
	"fmt"
	"hash/fnv"

	"AdAttribution/internal/apperr"
	"AdAttribution/internal/interfaces"
	"AdAttribution/internal/model"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChannelTotal is one line of the per-channel ledger summary.
type ChannelTotal struct {
	Channel     string  `json:"channel"`
	RowCount    int64   `json:"rows"`
	Visits      int64   `json:"visits"`
	Cost        float64 `json:"cost"`
	Conversions int64   `json:"conversions"`
	Revenue     float64 `json:"revenue"`
}

// AttributionRepository is the ledger writer and its read side.
type AttributionRepository struct {
	db     *gorm.DB
	logger logrus.FieldLogger
}

var _ interfaces.AttributionStore = (*AttributionRepository)(nil)

func NewAttributionRepository(db *gorm.DB, logger logrus.FieldLogger) *AttributionRepository {
	return &AttributionRepository{db: db, logger: logger}
}

// ReplaceWindow deletes every ledger row of (siteID, date) and inserts rows
// in one transaction. A row whose unique_hash already exists (a concurrent
// run got there first) is counted as already present, not as an error.
func (r *AttributionRepository) ReplaceWindow(ctx context.Context, siteID int64, date string, rows []*model.AttributedVisit) (*model.ReplaceStats, error) {
	stats := &model.ReplaceStats{}

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("begin ledger transaction: %w", tx.Error)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	// serialise same-window replaces on postgres; the unique index covers the rest
	if tx.Dialector.Name() == "postgres" {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", windowLockKey(siteID, date)).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("lock window site=%d date=%s: %w", siteID, date, err)
		}
	}

	del := tx.Where("site_id = ? AND date = ?", siteID, date).Delete(&model.AttributedVisit{})
	if del.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("delete window site=%d date=%s: %w", siteID, date, del.Error)
	}
	stats.Deleted = del.RowsAffected

	for _, row := range rows {
		row.ID = 0
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "unique_hash"}},
			DoNothing: true,
		}).Create(row)
		if res.Error != nil {
			if !apperr.IsDuplicateKey(res.Error) {
				tx.Rollback()
				return nil, fmt.Errorf("insert ledger row %s: %w", row.UniqueHash, res.Error)
			}
		} else if res.RowsAffected > 0 {
			stats.Inserted++
			continue
		}
		stats.AlreadyPresent++
		r.logger.WithError(&apperr.StorageConflict{UniqueHash: row.UniqueHash}).
			WithFields(logrus.Fields{"site_id": siteID, "date": date}).
			Debug("ledger row already present")
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("commit window site=%d date=%s: %w", siteID, date, err)
	}
	return stats, nil
}

// CostTotals sums stored cost per channel for one window.
func (r *AttributionRepository) CostTotals(ctx context.Context, siteID int64, date string) (map[string]decimal.Decimal, error) {
	var totals []struct {
		Channel string
		Total   float64
	}
	err := r.db.WithContext(ctx).Model(&model.AttributedVisit{}).
		Select("channel, COALESCE(SUM(cost), 0) AS total").
		Where("site_id = ? AND date = ? AND cost IS NOT NULL", siteID, date).
		Group("channel").
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("sum ledger cost site=%d date=%s: %w", siteID, date, err)
	}
	out := make(map[string]decimal.Decimal, len(totals))
	for _, t := range totals {
		out[t.Channel] = decimal.NewFromFloat(t.Total)
	}
	return out, nil
}

// ListWindow returns the stored rows of one window.
func (r *AttributionRepository) ListWindow(ctx context.Context, siteID int64, date string) ([]*model.AttributedVisit, error) {
	var rows []*model.AttributedVisit
	if err := r.db.WithContext(ctx).
		Where("site_id = ? AND date = ?", siteID, date).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ChannelSummary aggregates the ledger per channel over [from, to].
func (r *AttributionRepository) ChannelSummary(ctx context.Context, siteID int64, from, to string) ([]ChannelTotal, error) {
	var out []ChannelTotal
	err := r.db.WithContext(ctx).Model(&model.AttributedVisit{}).
		Select(`channel,
			COUNT(*) AS row_count,
			COUNT(visit_id) AS visits,
			COALESCE(SUM(cost), 0) AS cost,
			COALESCE(SUM(conversions), 0) AS conversions,
			COALESCE(SUM(revenue), 0) AS revenue`).
		Where("site_id = ? AND date >= ? AND date <= ?", siteID, from, to).
		Group("channel").
		Order("channel ASC").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func windowLockKey(siteID int64, date string) int64 {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "attributed_visits:%d:%s", siteID, date)
	return int64(h.Sum64())
}
