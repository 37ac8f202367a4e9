package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"AdAttribution/internal/channel"
	"AdAttribution/internal/model"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// Window is the (site, date) unit of reconciliation.
type Window struct {
	SiteID   int64
	Date     string    // site-local YYYY-MM-DD
	StartUTC time.Time // local midnight in UTC
}

// PlatformStats are diagnostics collected while merging one platform.
type PlatformStats struct {
	VisitsSeen     int     `json:"visits_seen"`
	CostReported   float64 `json:"cost_reported"`
	ClicksReported int64   `json:"clicks_reported"`
	MatchedRows    int     `json:"matched_rows"`
	CreatedRows    int     `json:"created_rows"`
	UnmergedClicks int64   `json:"unmerged_clicks"`
}

// MergeResult is the full ledger content computed for one window.
type MergeResult struct {
	Rows      []*model.AttributedVisit
	Stats     map[model.PlatformType]*PlatformStats
	VisitsIn  int
	VisitsOut int
}

// MatchingEngine joins platform cost records to analytics visits.
type MatchingEngine struct {
	logger logrus.FieldLogger
}

func NewMatchingEngine(logger logrus.FieldLogger) *MatchingEngine {
	return &MatchingEngine{logger: logger}
}

// Merge computes the ledger rows for a window. platforms must follow the
// fixed enumeration order; a visit taken by an earlier platform is not
// offered to a later one. Cost is split evenly across matched visits.
func (e *MatchingEngine) Merge(w Window, visits []model.VisitRecord, costs map[model.PlatformType][]model.CostRecord, platforms []model.PlatformType) (*MergeResult, error) {
	res := &MergeResult{
		Stats:    make(map[model.PlatformType]*PlatformStats, len(platforms)),
		VisitsIn: len(visits),
	}
	used := make([]bool, len(visits))
	log := e.logger.WithFields(logrus.Fields{"site_id": w.SiteID, "date": w.Date})

	for _, platform := range platforms {
		stats := &PlatformStats{}
		res.Stats[platform] = stats

		// 1. visits tagged for this platform and still in the pool
		var platformVisits []int
		for i := range visits {
			if !used[i] && strings.EqualFold(visits[i].PlatformHint, string(platform)) {
				platformVisits = append(platformVisits, i)
			}
		}
		stats.VisitsSeen = len(platformVisits)

		for _, record := range costs[platform] {
			if !record.Billable() {
				continue
			}
			stats.CostReported += record.Cost
			stats.ClicksReported += record.Clicks

			// 2. visits referencing this record
			var matching []int
			for _, i := range platformVisits {
				if !used[i] && visits[i].PlatformRowRef != "" && visits[i].PlatformRowRef == record.ExternalID {
					matching = append(matching, i)
				}
			}

			if len(matching) > 0 {
				// 3. even split across matched visits
				share := record.Cost / float64(len(matching))
				for _, i := range matching {
					row, err := attributedFromVisit(w, &visits[i], string(platform), &share, record.Payload)
					if err != nil {
						return nil, err
					}
					res.Rows = append(res.Rows, row)
					used[i] = true
				}
				stats.MatchedRows += len(matching)
				continue
			}

			// 4. no visit carries this cost: synthesize one row
			row, err := syntheticRow(w, string(platform), record)
			if err != nil {
				return nil, err
			}
			res.Rows = append(res.Rows, row)
			stats.CreatedRows++
			stats.UnmergedClicks += record.Clicks
		}

		log.WithFields(logrus.Fields{
			"platform":        platform,
			"visits_seen":     stats.VisitsSeen,
			"cost_reported":   stats.CostReported,
			"clicks_reported": stats.ClicksReported,
			"matched_rows":    stats.MatchedRows,
			"created_rows":    stats.CreatedRows,
			"unmerged_clicks": stats.UnmergedClicks,
		}).Debug("platform merged")
	}

	// catch-all: every visit no platform claimed
	for i := range visits {
		if used[i] {
			continue
		}
		v := &visits[i]
		ch := channel.Classify("", v.RefererType, v.Campaign.Name)
		row, err := attributedFromVisit(w, v, ch, nil, nil)
		if err != nil {
			return nil, err
		}
		res.Rows = append(res.Rows, row)
	}

	for _, row := range res.Rows {
		if row.VisitID != nil {
			res.VisitsOut++
		}
	}
	return res, nil
}

func attributedFromVisit(w Window, v *model.VisitRecord, ch string, cost *float64, platformData datatypes.JSON) (*model.AttributedVisit, error) {
	campaign, err := json.Marshal(v.Campaign)
	if err != nil {
		return nil, fmt.Errorf("encode campaign data for visit %d: %w", v.VisitID, err)
	}
	visitID := v.VisitID
	conversions := v.Conversions
	revenue := v.Revenue
	row := &model.AttributedVisit{
		SiteID:          w.SiteID,
		VisitID:         &visitID,
		VisitorID:       v.VisitorID,
		FirstActionTime: v.FirstActionTime.UTC(),
		Date:            w.Date,
		Channel:         ch,
		CampaignData:    datatypes.JSON(campaign),
		Conversions:     &conversions,
		Revenue:         &revenue,
		UniqueHash:      visitHash(v.VisitID),
	}
	if cost != nil {
		c := *cost
		row.Cost = &c
	}
	if len(platformData) > 0 {
		row.PlatformData = platformData
	}
	return row, nil
}

func syntheticRow(w Window, ch string, record model.CostRecord) (*model.AttributedVisit, error) {
	hash, err := syntheticHash(w.Date, ch, record.ExternalID, record.Payload)
	if err != nil {
		return nil, fmt.Errorf("hash %s row %s: %w", ch, record.ExternalID, err)
	}
	cost := record.Cost
	return &model.AttributedVisit{
		SiteID:          w.SiteID,
		FirstActionTime: w.StartUTC,
		Date:            w.Date,
		Channel:         ch,
		CampaignData:    datatypes.JSON("{}"),
		PlatformData:    record.Payload,
		Cost:            &cost,
		UniqueHash:      hash,
	}, nil
}
