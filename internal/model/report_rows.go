package model

import "encoding/json"

// AdWordsRow is one line of the AdWords ad-group performance report.
// Cost is reported in micros of the account currency.
type AdWordsRow struct {
	Date             string  `json:"date"`
	CampaignID       string  `json:"campaignId"`
	CampaignName     string  `json:"campaignName"`
	AdGroupID        string  `json:"adGroupId"`
	AdGroupName      string  `json:"adGroupName"`
	Clicks           int64   `json:"clicks"`
	CostMicros       int64   `json:"costMicros"`
	Conversions      float64 `json:"conversions"`
	ConversionsValue float64 `json:"conversionsValue"`
}

// BingRow is one line of the Bing ad-group performance report.
type BingRow struct {
	TimePeriod   string  `json:"TimePeriod"`
	CampaignID   string  `json:"CampaignId"`
	CampaignName string  `json:"CampaignName"`
	AdGroupID    string  `json:"AdGroupId"`
	AdGroupName  string  `json:"AdGroupName"`
	Clicks       int64   `json:"Clicks"`
	Spend        float64 `json:"Spend"`
	Conversions  float64 `json:"Conversions"`
	Revenue      float64 `json:"Revenue"`
}

// CriteoStatsResponse is the body of the Criteo statistics endpoint.
type CriteoStatsResponse struct {
	Rows []CriteoRow `json:"Rows"`
}

// CriteoRow is one campaign-day of Criteo statistics. Criteo has no ad groups.
type CriteoRow struct {
	Day            string  `json:"Day"`
	CampaignID     string  `json:"CampaignId"`
	CampaignName   string  `json:"CampaignName"`
	Clicks         int64   `json:"Clicks"`
	AdvertiserCost float64 `json:"AdvertiserCost"`
	Sales          float64 `json:"SalesPc30d"`
	Revenue        float64 `json:"RevenueGeneratedPc30d"`
}

// FacebookInsightsPage is one page of the Graph API insights edge.
type FacebookInsightsPage struct {
	Data   []FacebookInsight `json:"data"`
	Paging struct {
		Cursors struct {
			After string `json:"after"`
		} `json:"cursors"`
		Next string `json:"next"`
	} `json:"paging"`
}

// FacebookInsight is an ad-set day. The Graph API encodes numbers as strings.
type FacebookInsight struct {
	DateStart    string           `json:"date_start"`
	CampaignID   string           `json:"campaign_id"`
	CampaignName string           `json:"campaign_name"`
	AdSetID      string           `json:"adset_id"`
	AdSetName    string           `json:"adset_name"`
	Clicks       json.Number      `json:"clicks"`
	Spend        json.Number      `json:"spend"`
	Actions      []FacebookAction `json:"actions"`
	ActionValues []FacebookAction `json:"action_values"`
}

// FacebookAction is a typed counter attached to an insight.
type FacebookAction struct {
	ActionType string      `json:"action_type"`
	Value      json.Number `json:"value"`
}
