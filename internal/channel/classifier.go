// Package channel derives the channel label stored on ledger rows.
package channel

import "AdAttribution/internal/model"

const (
	Direct       = "direct"
	SearchEngine = "search_engine"
	Website      = "website"
	Campaign     = "campaign"
)

// Classify returns the platform name verbatim when one is given; otherwise
// it maps the referer type code. Unknown codes yield "".
//
// campaignName is accepted so callers pass the full visit context, but it
// does not refine the campaign channel.
func Classify(platform string, refererType int, campaignName string) string {
	_ = campaignName
	if platform != "" {
		return platform
	}
	switch refererType {
	case model.RefererTypeDirect:
		return Direct
	case model.RefererTypeSearchEngine:
		return SearchEngine
	case model.RefererTypeWebsite:
		return Website
	case model.RefererTypeCampaign:
		return Campaign
	default:
		return ""
	}
}
