package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/gomarble/admetrics/internal/domain"
	"github.com/gomarble/admetrics/internal/metrics"
	"github.com/gomarble/admetrics/internal/pkg/logger"
)

// CampaignStore is the campaign persistence surface the normalizer needs.
type CampaignStore interface {
	Upsert(ctx context.Context, c *domain.Campaign) error
	GetByPlatformID(ctx context.Context, workspaceID string, platform domain.Platform, platformID string) (*domain.Campaign, error)
}

// MetricStore is the daily-metric persistence surface. The explicit
// find-then-write pair exists because the metric key has nullable columns.
type MetricStore interface {
	FindDailyKey(ctx context.Context, m *domain.DailyMetric) (string, error)
	Insert(ctx context.Context, m *domain.DailyMetric) error
	Update(ctx context.Context, id string, m *domain.DailyMetric) error
}

// Stats counts what one normalization pass did.
type Stats struct {
	CampaignsUpserted int
	MetricsInserted   int
	MetricsUpdated    int
	OrphansSkipped    int
}

// Normalizer writes platform fetch results into the canonical store.
type Normalizer struct {
	campaigns CampaignStore
	metrics   MetricStore
}

// NewNormalizer creates a Normalizer over the two stores.
func NewNormalizer(campaigns CampaignStore, metrics MetricStore) *Normalizer {
	return &Normalizer{campaigns: campaigns, metrics: metrics}
}

// NormalizeAndStore upserts campaigns first, then metric rows, so every
// metric written has its campaign in place. A metric row whose campaign is
// neither in the batch nor already in the store is an orphan: it is skipped
// with a warning rather than failing the batch. Running the same input twice
// leaves one row per key holding the values of the last call.
func (n *Normalizer) NormalizeAndStore(ctx context.Context, workspaceID string, platform domain.Platform, data *CampaignData) (Stats, error) {
	var stats Stats

	known := make(map[string]bool, len(data.Campaigns))
	for _, dto := range data.Campaigns {
		c := &domain.Campaign{
			WorkspaceID: workspaceID,
			Platform:    platform,
			PlatformID:  dto.PlatformID,
			Name:        dto.Name,
			Status:      dto.Status,
			Objective:   dto.Objective,
		}
		if err := n.campaigns.Upsert(ctx, c); err != nil {
			return stats, fmt.Errorf("upsert campaign %s: %w", dto.PlatformID, err)
		}
		known[dto.PlatformID] = true
		stats.CampaignsUpserted++
	}

	for _, row := range data.Metrics {
		if !known[row.CampaignID] {
			// Not in this batch; a campaign persisted by an earlier sync
			// still anchors its metric rows.
			_, err := n.campaigns.GetByPlatformID(ctx, workspaceID, platform, row.CampaignID)
			if errors.Is(err, domain.ErrNotFound) {
				logger.Warn("skipping metric row for unknown campaign",
					"workspace_id", workspaceID,
					"platform", string(platform),
					"campaign_id", row.CampaignID,
					"date", row.Date.Format("2006-01-02"))
				stats.OrphansSkipped++
				continue
			}
			if err != nil {
				return stats, fmt.Errorf("resolve campaign %s: %w", row.CampaignID, err)
			}
			known[row.CampaignID] = true
		}

		m := &domain.DailyMetric{
			WorkspaceID:     workspaceID,
			Platform:        platform,
			Date:            row.Date,
			CampaignID:      row.CampaignID,
			Impressions:     row.Impressions,
			Clicks:          row.Clicks,
			Spend:           row.Spend,
			Conversions:     row.Conversions,
			ConversionValue: row.ConversionValue,
			CTR:             metrics.CTR(row.Clicks, row.Impressions),
			CPC:             metrics.CPC(row.Spend, row.Clicks),
			CPA:             metrics.CPA(row.Spend, row.Conversions),
			ROAS:            metrics.ROAS(row.ConversionValue, row.Spend),
		}

		id, err := n.metrics.FindDailyKey(ctx, m)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			if err := n.metrics.Insert(ctx, m); err != nil {
				return stats, fmt.Errorf("insert metric %s/%s: %w", row.CampaignID, row.Date.Format("2006-01-02"), err)
			}
			stats.MetricsInserted++
		case err != nil:
			return stats, fmt.Errorf("find metric %s/%s: %w", row.CampaignID, row.Date.Format("2006-01-02"), err)
		default:
			if err := n.metrics.Update(ctx, id, m); err != nil {
				return stats, fmt.Errorf("update metric %s/%s: %w", row.CampaignID, row.Date.Format("2006-01-02"), err)
			}
			stats.MetricsUpdated++
		}
	}

	return stats, nil
}
