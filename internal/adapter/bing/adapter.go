// Package bing imports ad-group spend from the Bing Ads reporting API.
package bing

import (
	"context"
	"fmt"
	"net/url"

	"AdAttribution/internal/adapter/report"
	"AdAttribution/internal/apperr"
	"AdAttribution/internal/config"
	"AdAttribution/internal/interfaces"
	"AdAttribution/internal/model"

	"github.com/sirupsen/logrus"
)

const ParamAdGroupID = "ad_group_id"

// Adapter imports Bing cost and resolves Bing tracking params on visits.
type Adapter struct {
	cfg    *config.PlatformConfig
	client *report.Client
	costs  interfaces.CostRepository
	logger logrus.FieldLogger
}

func NewBingAdapter(cfg *config.PlatformConfig, costs interfaces.CostRepository, logger logrus.FieldLogger) interfaces.PlatformAdapter {
	return &Adapter{
		cfg:    cfg,
		client: report.NewClient(model.PlatformBing, cfg, logger),
		costs:  costs,
		logger: logger.WithField("platform", model.PlatformBing),
	}
}

func (a *Adapter) Type() model.PlatformType { return model.PlatformBing }

// IsActive reports whether the platform is enabled and fully configured.
func (a *Adapter) IsActive() bool {
	return a.cfg.Enabled && a.cfg.BaseURL != "" && a.cfg.AccountID != "" && a.cfg.SiteID > 0
}

// Import runs the daily ad-group performance report for [startDate, endDate]
// and replaces the stored range once the report is complete.
func (a *Adapter) Import(ctx context.Context, startDate, endDate string) error {
	var rows []model.BingRow
	path := fmt.Sprintf("/accounts/%s/reports/adgroup-performance", url.PathEscape(a.cfg.AccountID))
	request := map[string]interface{}{
		"Aggregation": "Daily",
		"StartDate":   startDate,
		"EndDate":     endDate,
	}
	if err := a.client.RunReport(ctx, path, request, &rows); err != nil {
		return err
	}

	records := make([]*model.PlatformCost, 0, len(rows))
	for _, r := range rows {
		if err := report.CheckRowDate(r.TimePeriod, startDate, endDate); err != nil {
			return &apperr.ImportError{Platform: string(model.PlatformBing), Kind: apperr.ImportParse, Err: err}
		}
		externalID := report.RowID(model.PlatformBing, a.cfg.AccountID, r.CampaignID, r.AdGroupID, r.TimePeriod)
		payload, err := report.Payload(map[string]interface{}{
			"external_id":   externalID,
			"date":          r.TimePeriod,
			"campaign_id":   r.CampaignID,
			"campaign_name": r.CampaignName,
			"ad_group_id":   r.AdGroupID,
			"ad_group_name": r.AdGroupName,
			"clicks":        r.Clicks,
			"cost":          r.Spend,
			"conversions":   r.Conversions,
			"revenue":       r.Revenue,
		})
		if err != nil {
			return &apperr.ImportError{Platform: string(model.PlatformBing), Kind: apperr.ImportParse, Err: err}
		}
		records = append(records, &model.PlatformCost{
			Platform:        model.PlatformBing,
			ExternalID:      externalID,
			SiteID:          a.cfg.SiteID,
			Date:            r.TimePeriod,
			AccountID:       a.cfg.AccountID,
			CampaignID:      r.CampaignID,
			CampaignName:    r.CampaignName,
			AdGroupID:       r.AdGroupID,
			AdGroupName:     r.AdGroupName,
			Clicks:          r.Clicks,
			Cost:            r.Spend,
			Conversions:     r.Conversions,
			ConversionValue: r.Revenue,
			Payload:         payload,
		})
	}

	if err := a.costs.ReplaceRange(ctx, model.PlatformBing, startDate, endDate, records); err != nil {
		return fmt.Errorf("store bing cost: %w", err)
	}
	a.logger.WithFields(logrus.Fields{"start": startDate, "end": endDate, "rows": len(records)}).Info("bing cost imported")
	return nil
}

// EnrichVisit points a tagged visit at its cost row.
func (a *Adapter) EnrichVisit(visit *model.VisitRecord, records []model.CostRecord) bool {
	return report.EnrichVisit(model.PlatformBing, visit, records, ParamAdGroupID)
}
