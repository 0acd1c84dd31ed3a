package googleads

import (
	"context"
	"fmt"
	"time"

	"github.com/gomarble/admetrics/internal/domain"
	"github.com/gomarble/admetrics/internal/ingest"
	"github.com/gomarble/admetrics/internal/tokens"
)

// Fetcher adapts the Google Ads client to the sync pipeline.
type Fetcher struct {
	client *Client
	tokens tokens.Source
}

// NewFetcher creates a pipeline fetcher over the Google Ads client.
func NewFetcher(client *Client, tokens tokens.Source) *Fetcher {
	return &Fetcher{client: client, tokens: tokens}
}

// Platform implements ingest.Fetcher.
func (f *Fetcher) Platform() domain.Platform { return domain.PlatformGoogle }

// Fetch pulls campaigns and daily metrics for the integration's account.
func (f *Fetcher) Fetch(ctx context.Context, i *domain.Integration, from, to time.Time) (*ingest.CampaignData, error) {
	accessToken, err := f.tokens.ValidAccessToken(ctx, i)
	if err != nil {
		return nil, fmt.Errorf("google token: %w", err)
	}

	campaigns, err := f.client.ListCampaigns(ctx, accessToken, i.AccountID)
	if err != nil {
		return nil, fmt.Errorf("google campaigns: %w", err)
	}
	rows, err := f.client.DailyMetrics(ctx, accessToken, i.AccountID, from, to)
	if err != nil {
		return nil, fmt.Errorf("google metrics: %w", err)
	}

	data := &ingest.CampaignData{}
	for _, c := range campaigns {
		data.Campaigns = append(data.Campaigns, ingest.CampaignDTO{
			PlatformID: c.ID,
			Name:       c.Name,
			Status:     c.Status,
			Objective:  c.AdvertisingChannelType,
		})
	}
	for _, r := range rows {
		date, err := time.Parse("2006-01-02", r.Segments.Date)
		if err != nil {
			continue
		}
		data.Metrics = append(data.Metrics, ingest.MetricRowDTO{
			CampaignID:      r.Campaign.ID,
			Date:            date,
			Impressions:     parseInt64(r.Metrics.Impressions),
			Clicks:          parseInt64(r.Metrics.Clicks),
			Spend:           microsToUnits(r.Metrics.CostMicros),
			Conversions:     float64(r.Metrics.Conversions),
			ConversionValue: float64(r.Metrics.ConversionsValue),
		})
	}
	return data, nil
}
