package model

import (
	"time"

	"gorm.io/datatypes"
)

// Referer type codes as recorded by the analytics tracker.
const (
	RefererTypeDirect       = 1
	RefererTypeSearchEngine = 2
	RefererTypeWebsite      = 3
	RefererTypeCampaign     = 6
)

// CostRecord is the engine's view of one PlatformCost row.
type CostRecord struct {
	Platform        PlatformType
	ExternalID      string
	SiteID          int64
	Date            string
	CampaignID      string
	AdGroupID       string
	Clicks          int64
	Cost            float64
	Conversions     float64
	ConversionValue float64
	Payload         datatypes.JSON // full platform row, copied into synthetic ledger rows
}

// Billable reports whether the record must be represented in the ledger.
// Zero-click zero-cost rows are produced by some platforms and ignored.
func (c CostRecord) Billable() bool {
	return c.Clicks > 0 || c.Cost > 0
}

// VisitRecord is the engine's view of one analytics visit.
type VisitRecord struct {
	VisitID         uint64
	VisitorID       string
	SiteID          int64
	FirstActionTime time.Time // UTC
	RefererType     int
	RefererName     string
	Campaign        CampaignFields
	CampaignData    map[string]string // raw tracking params (aom_platform, campaign_id, ...)
	PlatformHint    string
	PlatformRowRef  string
	Conversions     int
	Revenue         float64
}

// CampaignFields is the structured campaign data stored on ledger rows.
type CampaignFields struct {
	Name    string `json:"campaign_name,omitempty"`
	Keyword string `json:"campaign_keyword,omitempty"`
	Source  string `json:"campaign_source,omitempty"`
	Medium  string `json:"campaign_medium,omitempty"`
	Content string `json:"campaign_content,omitempty"`
	ID      string `json:"campaign_id,omitempty"`
}

// CostRecordFromDB converts a stored row into the engine's value type.
func CostRecordFromDB(row *PlatformCost) CostRecord {
	return CostRecord{
		Platform:        row.Platform,
		ExternalID:      row.ExternalID,
		SiteID:          row.SiteID,
		Date:            row.Date,
		CampaignID:      row.CampaignID,
		AdGroupID:       row.AdGroupID,
		Clicks:          row.Clicks,
		Cost:            row.Cost,
		Conversions:     row.Conversions,
		ConversionValue: row.ConversionValue,
		Payload:         row.Payload,
	}
}

// ReplaceStats summarises one ledger window replacement.
type ReplaceStats struct {
	Deleted        int64 `json:"deleted"`
	Inserted       int64 `json:"inserted"`
	AlreadyPresent int64 `json:"already_present"` // rows skipped on unique_hash conflict
}
