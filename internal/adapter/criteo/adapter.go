// Package criteo imports campaign cost from the Criteo statistics API.
package criteo

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

// Adapter imports Criteo cost and resolves Criteo tracking params on visits.
type Adapter struct {
	cfg    *config.PlatformConfig
	client *report.Client
	costs  interfaces.CostRepository
	logger logrus.FieldLogger
}

func NewCriteoAdapter(cfg *config.PlatformConfig, costs interfaces.CostRepository, logger logrus.FieldLogger) interfaces.PlatformAdapter {
	return &Adapter{
		cfg:    cfg,
		client: report.NewClient(model.PlatformCriteo, cfg, logger),
		costs:  costs,
		logger: logger.WithField("platform", model.PlatformCriteo),
	}
}

func (a *Adapter) Type() model.PlatformType { return model.PlatformCriteo }

// IsActive reports whether the platform is enabled and fully configured.
func (a *Adapter) IsActive() bool {
	return a.cfg.Enabled && a.cfg.BaseURL != "" && a.cfg.AccountID != "" && a.cfg.SiteID > 0
}

// Import reads the statistics endpoint synchronously; Criteo reports per
// campaign and day only.
func (a *Adapter) Import(ctx context.Context, startDate, endDate string) error {
	var resp model.CriteoStatsResponse
	path := fmt.Sprintf("/advertisers/%s/statistics", url.PathEscape(a.cfg.AccountID))
	query := url.Values{
		"startDate":  {startDate},
		"endDate":    {endDate},
		"dimensions": {"Day,CampaignId"},
		"currency":   {"EUR"},
	}
	if err := a.client.GetJSON(ctx, path, query, &resp); err != nil {
		return err
	}

	records := make([]*model.PlatformCost, 0, len(resp.Rows))
	for _, r := range resp.Rows {
		if err := report.CheckRowDate(r.Day, startDate, endDate); err != nil {
			return &apperr.ImportError{Platform: string(model.PlatformCriteo), Kind: apperr.ImportParse, Err: err}
		}
		externalID := report.RowID(model.PlatformCriteo, a.cfg.AccountID, r.CampaignID, r.Day)
		payload, err := report.Payload(map[string]interface{}{
			"external_id":   externalID,
			"date":          r.Day,
			"campaign_id":   r.CampaignID,
			"campaign_name": r.CampaignName,
			"clicks":        r.Clicks,
			"cost":          r.AdvertiserCost,
			"sales":         r.Sales,
			"revenue":       r.Revenue,
		})
		if err != nil {
			return &apperr.ImportError{Platform: string(model.PlatformCriteo), Kind: apperr.ImportParse, Err: err}
		}
		records = append(records, &model.PlatformCost{
			Platform:        model.PlatformCriteo,
			ExternalID:      externalID,
			SiteID:          a.cfg.SiteID,
			Date:            r.Day,
			AccountID:       a.cfg.AccountID,
			CampaignID:      r.CampaignID,
			CampaignName:    r.CampaignName,
			Clicks:          r.Clicks,
			Cost:            r.AdvertiserCost,
			Conversions:     r.Sales,
			ConversionValue: r.Revenue,
			Payload:         payload,
		})
	}

	if err := a.costs.ReplaceRange(ctx, model.PlatformCriteo, startDate, endDate, records); err != nil {
		return fmt.Errorf("store criteo cost: %w", err)
	}
	a.logger.WithFields(logrus.Fields{"start": startDate, "end": endDate, "rows": len(records)}).Info("criteo cost imported")
	return nil
}

// EnrichVisit points a tagged visit at its cost row.
func (a *Adapter) EnrichVisit(visit *model.VisitRecord, records []model.CostRecord) bool {
	return report.EnrichVisit(model.PlatformCriteo, visit, records, "")
}
