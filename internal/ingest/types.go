// Package ingest pulls campaign performance from the ad platforms and
// normalizes it into the canonical store.
package ingest

import (
	"context"
	"time"

	"github.com/gomarble/admetrics/internal/domain"
)

// CampaignDTO is a platform campaign as reported by its API, before
// normalization.
type CampaignDTO struct {
	PlatformID string
	Name       string
	Status     string
	Objective  string
}

// MetricRowDTO is one (campaign, day) performance row as reported by a
// platform API. Counters only; derived ratios are computed at write time.
type MetricRowDTO struct {
	CampaignID      string
	Date            time.Time
	Impressions     int64
	Clicks          int64
	Spend           float64
	Conversions     float64
	ConversionValue float64
}

// CampaignData is one fetch's worth of platform data for an integration.
type CampaignData struct {
	Campaigns []CampaignDTO
	Metrics   []MetricRowDTO
}

// Fetcher pulls campaigns and daily metrics for one platform.
type Fetcher interface {
	Platform() domain.Platform
	Fetch(ctx context.Context, i *domain.Integration, from, to time.Time) (*CampaignData, error)
}
