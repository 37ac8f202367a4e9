package model

import (
	"time"

	"gorm.io/datatypes"
)

// PlatformCost is one platform-reported spend line as persisted by an importer.
type PlatformCost struct {
	ID              uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	Platform        PlatformType   `gorm:"column:platform;type:varchar(32);not null;uniqueIndex:uk_platform_cost_row,priority:1;index:idx_platform_cost_window,priority:1"`
	ExternalID      string         `gorm:"column:external_id;type:varchar(64);not null;uniqueIndex:uk_platform_cost_row,priority:2"` // stable platform-derived row id
	SiteID          int64          `gorm:"column:site_id;not null;index:idx_platform_cost_window,priority:2"`
	Date            string         `gorm:"column:date;type:varchar(10);not null;uniqueIndex:uk_platform_cost_row,priority:3;index:idx_platform_cost_window,priority:3"` // platform-local YYYY-MM-DD
	AccountID       string         `gorm:"column:account_id;type:varchar(64)"`
	CampaignID      string         `gorm:"column:campaign_id;type:varchar(64)"`
	CampaignName    string         `gorm:"column:campaign_name;type:varchar(256)"`
	AdGroupID       string         `gorm:"column:ad_group_id;type:varchar(64)"`
	AdGroupName     string         `gorm:"column:ad_group_name;type:varchar(256)"`
	Clicks          int64          `gorm:"column:clicks;not null;default:0"`
	Cost            float64        `gorm:"column:cost;type:numeric(18,6);not null;default:0"`
	Conversions     float64        `gorm:"column:conversions;type:numeric(18,6);not null;default:0"`
	ConversionValue float64        `gorm:"column:conversion_value;type:numeric(18,6);not null;default:0"`
	Payload         datatypes.JSON `gorm:"column:payload"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
}

// Visit mirrors the analytics visit log. It is written by the tracking
// pipeline; this service only reads it.
type Visit struct {
	ID              uint64         `gorm:"column:id;primaryKey"`
	VisitorID       string         `gorm:"column:visitor_id;type:varchar(32);not null"`
	SiteID          int64          `gorm:"column:site_id;not null;index:idx_visits_site_time,priority:1"`
	FirstActionTime time.Time      `gorm:"column:first_action_time;not null;index:idx_visits_site_time,priority:2"` // UTC
	RefererType     int            `gorm:"column:referer_type;not null;default:0"`
	RefererName     string         `gorm:"column:referer_name;type:varchar(256)"`
	CampaignName    string         `gorm:"column:campaign_name;type:varchar(256)"`
	CampaignKeyword string         `gorm:"column:campaign_keyword;type:varchar(256)"`
	CampaignSource  string         `gorm:"column:campaign_source;type:varchar(256)"`
	CampaignMedium  string         `gorm:"column:campaign_medium;type:varchar(256)"`
	CampaignContent string         `gorm:"column:campaign_content;type:varchar(256)"`
	CampaignID      string         `gorm:"column:campaign_id;type:varchar(128)"`
	CampaignData    datatypes.JSON `gorm:"column:campaign_data"` // raw tracking params
	// Platform hint and PlatformCost.ExternalID reference, both set at tracking time.
	Platform        string         `gorm:"column:platform;type:varchar(32)"`
	PlatformRowRef  string         `gorm:"column:platform_row_ref;type:varchar(64)"`
	Conversions     int            `gorm:"column:conversions;not null;default:0"`
	Revenue         float64        `gorm:"column:revenue;type:numeric(18,6);not null;default:0"`
}

// AttributedVisit is one row of the reconciled ledger.
type AttributedVisit struct {
	ID              uint64         `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	SiteID          int64          `json:"site_id" gorm:"column:site_id;not null;index:idx_attributed_site_date,priority:1;index:idx_attributed_site_channel_date,priority:1"`
	VisitID         *uint64        `json:"visit_id" gorm:"column:visit_id"`
	VisitorID       string         `json:"visitor_id" gorm:"column:visitor_id;type:varchar(32)"`
	FirstActionTime time.Time      `json:"first_action_time" gorm:"column:first_action_time;not null"`
	Date            string         `json:"date" gorm:"column:date;type:varchar(10);not null;index:idx_attributed_site_date,priority:2;index:idx_attributed_site_channel_date,priority:3"` // site-local
	Channel         string         `json:"channel" gorm:"column:channel;type:varchar(64);not null;index:idx_attributed_site_channel_date,priority:2"`
	CampaignData    datatypes.JSON `json:"campaign_data" gorm:"column:campaign_data"`
	PlatformData    datatypes.JSON `json:"platform_data,omitempty" gorm:"column:platform_data"`
	Cost            *float64       `json:"cost" gorm:"column:cost;type:numeric(18,6)"`
	Conversions     *int           `json:"conversions" gorm:"column:conversions"`
	Revenue         *float64       `json:"revenue" gorm:"column:revenue;type:numeric(18,6)"`
	UniqueHash      string         `json:"unique_hash" gorm:"column:unique_hash;type:varchar(128);not null;uniqueIndex:uk_attributed_unique_hash"`
	CreatedAt       time.Time      `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (PlatformCost) TableName() string    { return "platform_costs" }
func (Visit) TableName() string           { return "visits" }
func (AttributedVisit) TableName() string { return "attributed_visits" }
