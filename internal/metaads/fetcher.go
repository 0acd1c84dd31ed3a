package metaads

import (
	"context"
	"fmt"
	"time"

	"github.com/gomarble/admetrics/internal/domain"
	"github.com/gomarble/admetrics/internal/ingest"
	"github.com/gomarble/admetrics/internal/tokens"
)

// Fetcher adapts the Meta client to the sync pipeline.
type Fetcher struct {
	client *Client
	tokens tokens.Source
}

// NewFetcher creates a pipeline fetcher over the Meta client.
func NewFetcher(client *Client, tokens tokens.Source) *Fetcher {
	return &Fetcher{client: client, tokens: tokens}
}

// Platform implements ingest.Fetcher.
func (f *Fetcher) Platform() domain.Platform { return domain.PlatformMeta }

// Fetch pulls campaigns and daily insights for the integration's ad account.
func (f *Fetcher) Fetch(ctx context.Context, i *domain.Integration, from, to time.Time) (*ingest.CampaignData, error) {
	accessToken, err := f.tokens.ValidAccessToken(ctx, i)
	if err != nil {
		return nil, fmt.Errorf("meta token: %w", err)
	}

	campaigns, err := f.client.ListCampaigns(ctx, accessToken, i.AccountID)
	if err != nil {
		return nil, fmt.Errorf("meta campaigns: %w", err)
	}
	rows, err := f.client.DailyInsights(ctx, accessToken, i.AccountID, from, to)
	if err != nil {
		return nil, fmt.Errorf("meta insights: %w", err)
	}

	data := &ingest.CampaignData{}
	for _, c := range campaigns {
		data.Campaigns = append(data.Campaigns, ingest.CampaignDTO{
			PlatformID: c.ID,
			Name:       c.Name,
			Status:     c.Status,
			Objective:  c.Objective,
		})
	}
	for _, r := range rows {
		date, err := time.Parse("2006-01-02", r.DateStart)
		if err != nil {
			continue
		}
		data.Metrics = append(data.Metrics, ingest.MetricRowDTO{
			CampaignID:      r.CampaignID,
			Date:            date,
			Impressions:     parseInt64(r.Impressions),
			Clicks:          parseInt64(r.Clicks),
			Spend:           parseFloat(r.Spend),
			Conversions:     r.conversions(),
			ConversionValue: r.conversionValue(),
		})
	}
	return data, nil
}
