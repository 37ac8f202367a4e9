// Package adwords imports ad-group cost from the AdWords reporting API.
package adwords

import (
	"context"
	"fmt"
	"net/url"

	"AdAttribution/internal/adapter/report"
	"AdAttribution/internal/apperr"
	"AdAttribution/internal/config"
	"AdAttribution/internal/interfaces"
	"AdAttribution/internal/model"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ParamAdGroupID is the tracking param carrying the ad group id.
const ParamAdGroupID = "ad_group_id"

var reportFields = []string{
	"date", "campaignId", "campaignName", "adGroupId", "adGroupName",
	"clicks", "costMicros", "conversions", "conversionsValue",
}

// Adapter imports AdWords cost and resolves AdWords tracking params on visits.
type Adapter struct {
	cfg    *config.PlatformConfig
	client *report.Client
	costs  interfaces.CostRepository
	logger logrus.FieldLogger
}

func NewAdWordsAdapter(cfg *config.PlatformConfig, costs interfaces.CostRepository, logger logrus.FieldLogger) interfaces.PlatformAdapter {
	return &Adapter{
		cfg:    cfg,
		client: report.NewClient(model.PlatformAdWords, cfg, logger),
		costs:  costs,
		logger: logger.WithField("platform", model.PlatformAdWords),
	}
}

func (a *Adapter) Type() model.PlatformType { return model.PlatformAdWords }

// IsActive reports whether the platform is enabled and fully configured.
func (a *Adapter) IsActive() bool {
	return a.cfg.Enabled && a.cfg.BaseURL != "" && a.cfg.AccountID != "" && a.cfg.SiteID > 0
}

// Import runs the ad-group performance report for [startDate, endDate] and
// replaces the stored range with its rows.
func (a *Adapter) Import(ctx context.Context, startDate, endDate string) error {
	var rows []model.AdWordsRow
	path := fmt.Sprintf("/customers/%s/reports", url.PathEscape(a.cfg.AccountID))
	request := map[string]interface{}{
		"report_type": "AD_GROUP_PERFORMANCE",
		"start_date":  startDate,
		"end_date":    endDate,
		"fields":      reportFields,
	}
	if err := a.client.RunReport(ctx, path, request, &rows); err != nil {
		return err
	}

	records, err := a.convert(rows, startDate, endDate)
	if err != nil {
		return &apperr.ImportError{Platform: string(model.PlatformAdWords), Kind: apperr.ImportParse, Err: err}
	}
	if err := a.costs.ReplaceRange(ctx, model.PlatformAdWords, startDate, endDate, records); err != nil {
		return fmt.Errorf("store adwords cost: %w", err)
	}
	a.logger.WithFields(logrus.Fields{"start": startDate, "end": endDate, "rows": len(records)}).Info("adwords cost imported")
	return nil
}

func (a *Adapter) convert(rows []model.AdWordsRow, startDate, endDate string) ([]*model.PlatformCost, error) {
	out := make([]*model.PlatformCost, 0, len(rows))
	for _, r := range rows {
		if err := report.CheckRowDate(r.Date, startDate, endDate); err != nil {
			return nil, fmt.Errorf("row for campaign %s: %w", r.CampaignID, err)
		}
		cost, _ := decimal.New(r.CostMicros, -6).Float64()
		externalID := report.RowID(model.PlatformAdWords, a.cfg.AccountID, r.CampaignID, r.AdGroupID, r.Date)
		payload, err := report.Payload(map[string]interface{}{
			"external_id":       externalID,
			"date":              r.Date,
			"campaign_id":       r.CampaignID,
			"campaign_name":     r.CampaignName,
			"ad_group_id":       r.AdGroupID,
			"ad_group_name":     r.AdGroupName,
			"clicks":            r.Clicks,
			"cost":              cost,
			"conversions":       r.Conversions,
			"conversions_value": r.ConversionsValue,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, &model.PlatformCost{
			Platform:        model.PlatformAdWords,
			ExternalID:      externalID,
			SiteID:          a.cfg.SiteID,
			Date:            r.Date,
			AccountID:       a.cfg.AccountID,
			CampaignID:      r.CampaignID,
			CampaignName:    r.CampaignName,
			AdGroupID:       r.AdGroupID,
			AdGroupName:     r.AdGroupName,
			Clicks:          r.Clicks,
			Cost:            cost,
			Conversions:     r.Conversions,
			ConversionValue: r.ConversionsValue,
			Payload:         payload,
		})
	}
	return out, nil
}

// EnrichVisit points a tagged visit at its cost row.
func (a *Adapter) EnrichVisit(visit *model.VisitRecord, records []model.CostRecord) bool {
	return report.EnrichVisit(model.PlatformAdWords, visit, records, ParamAdGroupID)
}
