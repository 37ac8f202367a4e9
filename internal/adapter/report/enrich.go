package report

import (
	"strings"

	"AdAttribution/internal/model"
)

// Tracking params appended to landing page URLs by the platforms' templates.
const (
	ParamPlatform   = "aom_platform"
	ParamCampaignID = "campaign_id"
)

// EnrichVisit resolves a visit tagged with aom_platform=<platform> to the cost
// row of the same campaign (and ad group when groupParam is given and present).
// Visits that already carry a row reference are left untouched.
func EnrichVisit(platform model.PlatformType, v *model.VisitRecord, records []model.CostRecord, groupParam string) bool {
	if v.PlatformRowRef != "" || !strings.EqualFold(v.CampaignData[ParamPlatform], string(platform)) {
		return false
	}
	campaignID := v.CampaignData[ParamCampaignID]
	groupID := ""
	if groupParam != "" {
		groupID = v.CampaignData[groupParam]
	}
	if campaignID != "" {
		for _, r := range records {
			if r.CampaignID != campaignID {
				continue
			}
			if groupID != "" && r.AdGroupID != groupID {
				continue
			}
			v.PlatformHint = string(platform)
			v.PlatformRowRef = r.ExternalID
			return true
		}
	}
	if v.PlatformHint == "" {
		v.PlatformHint = string(platform)
		return true
	}
	return false
}
