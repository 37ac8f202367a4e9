// Package facebookads imports ad-set spend from the Graph API insights edge.
package facebookads

import (
	"context"
	"encoding/json"
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

const (
	ParamAdSetID = "adset_id"

	purchaseAction = "purchase"
	maxPages       = 200
	insightFields  = "date_start,campaign_id,campaign_name,adset_id,adset_name,clicks,spend,actions,action_values"
)

// Adapter imports Facebook Ads cost and resolves Facebook Ads tracking params on visits.
type Adapter struct {
	cfg    *config.PlatformConfig
	client *report.Client
	costs  interfaces.CostRepository
	logger logrus.FieldLogger
}

func NewFacebookAdsAdapter(cfg *config.PlatformConfig, costs interfaces.CostRepository, logger logrus.FieldLogger) interfaces.PlatformAdapter {
	return &Adapter{
		cfg:    cfg,
		client: report.NewClient(model.PlatformFacebookAds, cfg, logger),
		costs:  costs,
		logger: logger.WithField("platform", model.PlatformFacebookAds),
	}
}

func (a *Adapter) Type() model.PlatformType { return model.PlatformFacebookAds }

// IsActive reports whether the platform is enabled and fully configured.
func (a *Adapter) IsActive() bool {
	return a.cfg.Enabled && a.cfg.BaseURL != "" && a.cfg.AccountID != "" && a.cfg.SiteID > 0
}

// Import walks every insights page for the range before storing anything.
func (a *Adapter) Import(ctx context.Context, startDate, endDate string) error {
	timeRange, _ := json.Marshal(map[string]string{"since": startDate, "until": endDate})
	path := fmt.Sprintf("/act_%s/insights", url.PathEscape(a.cfg.AccountID))

	var insights []model.FacebookInsight
	after := ""
	for page := 0; ; page++ {
		if page >= maxPages {
			return a.parseErr(fmt.Errorf("insights paging exceeded %d pages", maxPages))
		}
		query := url.Values{
			"level":          {"adset"},
			"time_increment": {"1"},
			"time_range":     {string(timeRange)},
			"fields":         {insightFields},
		}
		if after != "" {
			query.Set("after", after)
		}
		var resp model.FacebookInsightsPage
		if err := a.client.GetJSON(ctx, path, query, &resp); err != nil {
			return err
		}
		insights = append(insights, resp.Data...)
		if resp.Paging.Next == "" || resp.Paging.Cursors.After == "" {
			break
		}
		after = resp.Paging.Cursors.After
	}

	records := make([]*model.PlatformCost, 0, len(insights))
	for _, in := range insights {
		rec, err := a.convert(in, startDate, endDate)
		if err != nil {
			return a.parseErr(err)
		}
		records = append(records, rec)
	}

	if err := a.costs.ReplaceRange(ctx, model.PlatformFacebookAds, startDate, endDate, records); err != nil {
		return fmt.Errorf("store facebook cost: %w", err)
	}
	a.logger.WithFields(logrus.Fields{"start": startDate, "end": endDate, "rows": len(records)}).Info("facebook cost imported")
	return nil
}

func (a *Adapter) convert(in model.FacebookInsight, startDate, endDate string) (*model.PlatformCost, error) {
	if err := report.CheckRowDate(in.DateStart, startDate, endDate); err != nil {
		return nil, err
	}
	clicks, err := numberOrZero(in.Clicks).Int64()
	if err != nil {
		return nil, fmt.Errorf("clicks %q: %w", in.Clicks, err)
	}
	spend, err := decimal.NewFromString(string(numberOrZero(in.Spend)))
	if err != nil {
		return nil, fmt.Errorf("spend %q: %w", in.Spend, err)
	}
	conversions, err := actionTotal(in.Actions, purchaseAction)
	if err != nil {
		return nil, err
	}
	value, err := actionTotal(in.ActionValues, purchaseAction)
	if err != nil {
		return nil, err
	}
	cost, _ := spend.Float64()
	externalID := report.RowID(model.PlatformFacebookAds, a.cfg.AccountID, in.CampaignID, in.AdSetID, in.DateStart)
	payload, err := report.Payload(map[string]interface{}{
		"external_id":   externalID,
		"date":          in.DateStart,
		"campaign_id":   in.CampaignID,
		"campaign_name": in.CampaignName,
		"adset_id":      in.AdSetID,
		"adset_name":    in.AdSetName,
		"clicks":        clicks,
		"cost":          cost,
		"purchases":     conversions,
		"revenue":       value,
	})
	if err != nil {
		return nil, err
	}
	return &model.PlatformCost{
		Platform:        model.PlatformFacebookAds,
		ExternalID:      externalID,
		SiteID:          a.cfg.SiteID,
		Date:            in.DateStart,
		AccountID:       a.cfg.AccountID,
		CampaignID:      in.CampaignID,
		CampaignName:    in.CampaignName,
		AdGroupID:       in.AdSetID,
		AdGroupName:     in.AdSetName,
		Clicks:          clicks,
		Cost:            cost,
		Conversions:     conversions,
		ConversionValue: value,
		Payload:         payload,
	}, nil
}

func (a *Adapter) parseErr(err error) error {
	return &apperr.ImportError{Platform: string(model.PlatformFacebookAds), Kind: apperr.ImportParse, Err: err}
}

// EnrichVisit points a tagged visit at its cost row.
func (a *Adapter) EnrichVisit(visit *model.VisitRecord, records []model.CostRecord) bool {
	return report.EnrichVisit(model.PlatformFacebookAds, visit, records, ParamAdSetID)
}

func numberOrZero(n json.Number) json.Number {
	if n == "" {
		return "0"
	}
	return n
}

func actionTotal(actions []model.FacebookAction, actionType string) (float64, error) {
	total := decimal.Zero
	for _, act := range actions {
		if act.ActionType != actionType {
			continue
		}
		v, err := decimal.NewFromString(string(numberOrZero(act.Value)))
		if err != nil {
			return 0, fmt.Errorf("action %s value %q: %w", act.ActionType, act.Value, err)
		}
		total = total.Add(v)
	}
	f, _ := total.Float64()
	return f, nil
}
