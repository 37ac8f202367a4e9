package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"AdAttribution/internal/apperr"
	"AdAttribution/internal/interfaces"
	"AdAttribution/internal/model"

	"gorm.io/gorm"
)

// VisitCapability names the companion data source the run depends on.
const VisitCapability = "analytics visit log"

// VisitRepository reads the analytics visit mirror.
type VisitRepository struct {
	db *gorm.DB
}

var _ interfaces.VisitSource = (*VisitRepository)(nil)

func NewVisitRepository(db *gorm.DB) *VisitRepository {
	return &VisitRepository{db: db}
}

// Available fails with a ConfigurationError when the visit table is missing.
func (r *VisitRepository) Available(ctx context.Context) error {
	if !r.db.WithContext(ctx).Migrator().HasTable(&model.Visit{}) {
		return &apperr.ConfigurationError{Capability: VisitCapability, Reason: "table visits not found"}
	}
	return nil
}

// GetVisits returns the site's visits whose first action falls in
// [utcStart, utcEnd]. utcEnd is a whole second and covers its fractional part,
// so a day ending at 23:59:59 reaches up to the next midnight.
func (r *VisitRepository) GetVisits(ctx context.Context, siteID int64, utcStart, utcEnd time.Time) ([]model.VisitRecord, error) {
	until := utcEnd.UTC().Truncate(time.Second).Add(time.Second)
	var rows []*model.Visit
	if err := r.db.WithContext(ctx).
		Where("site_id = ? AND first_action_time >= ? AND first_action_time < ?", siteID, utcStart.UTC(), until).
		Order("first_action_time ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list visits site=%d: %w", siteID, err)
	}
	out := make([]model.VisitRecord, 0, len(rows))
	for _, v := range rows {
		out = append(out, toVisitRecord(v))
	}
	return out, nil
}

func toVisitRecord(v *model.Visit) model.VisitRecord {
	return model.VisitRecord{
		VisitID:         v.ID,
		VisitorID:       v.VisitorID,
		SiteID:          v.SiteID,
		FirstActionTime: v.FirstActionTime.UTC(),
		RefererType:     v.RefererType,
		RefererName:     v.RefererName,
		Campaign: model.CampaignFields{
			Name:    v.CampaignName,
			Keyword: v.CampaignKeyword,
			Source:  v.CampaignSource,
			Medium:  v.CampaignMedium,
			Content: v.CampaignContent,
			ID:      v.CampaignID,
		},
		CampaignData:   decodeParams(v.CampaignData),
		PlatformHint:   v.Platform,
		PlatformRowRef: v.PlatformRowRef,
		Conversions:    v.Conversions,
		Revenue:        v.Revenue,
	}
}

// decodeParams flattens the stored tracking params into strings; malformed
// blobs yield no params rather than failing the window.
func decodeParams(raw []byte) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	var generic map[string]interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil
	}
	out := make(map[string]string, len(generic))
	for k, v := range generic {
		if v == nil {
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}
