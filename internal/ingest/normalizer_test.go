package ingest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomarble/admetrics/internal/domain"
)

type memCampaignStore struct {
	upserts []domain.Campaign
}

func (s *memCampaignStore) Upsert(_ context.Context, c *domain.Campaign) error {
	c.ID = fmt.Sprintf("c-%d", len(s.upserts))
	s.upserts = append(s.upserts, *c)
	return nil
}

func (s *memCampaignStore) GetByPlatformID(_ context.Context, workspaceID string, platform domain.Platform, platformID string) (*domain.Campaign, error) {
	for i := range s.upserts {
		c := s.upserts[i]
		if c.WorkspaceID == workspaceID && c.Platform == platform && c.PlatformID == platformID {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

type memMetricStore struct {
	rows map[string]domain.DailyMetric
}

func newMemMetricStore() *memMetricStore {
	return &memMetricStore{rows: make(map[string]domain.DailyMetric)}
}

func (s *memMetricStore) key(m *domain.DailyMetric) string {
	return fmt.Sprintf("%s|%s|%s|%s", m.WorkspaceID, m.Platform, m.Date.Format("2006-01-02"), m.CampaignID)
}

func (s *memMetricStore) FindDailyKey(_ context.Context, m *domain.DailyMetric) (string, error) {
	if _, ok := s.rows[s.key(m)]; ok {
		return s.key(m), nil
	}
	return "", domain.ErrNotFound
}

func (s *memMetricStore) Insert(_ context.Context, m *domain.DailyMetric) error {
	s.rows[s.key(m)] = *m
	return nil
}

func (s *memMetricStore) Update(_ context.Context, id string, m *domain.DailyMetric) error {
	if _, ok := s.rows[id]; !ok {
		return domain.ErrNotFound
	}
	s.rows[id] = *m
	return nil
}

func sampleData() *CampaignData {
	return &CampaignData{
		Campaigns: []CampaignDTO{
			{PlatformID: "g-1", Name: "Brand Search", Status: "ENABLED", Objective: "SEARCH"},
		},
		Metrics: []MetricRowDTO{
			{
				CampaignID:      "g-1",
				Date:            time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC),
				Impressions:     1000,
				Clicks:          20,
				Spend:           5.0,
				Conversions:     2,
				ConversionValue: 150,
			},
		},
	}
}

func TestNormalizeAndStore_CampaignsBeforeMetrics(t *testing.T) {
	campaigns := &memCampaignStore{}
	metrics := newMemMetricStore()
	n := NewNormalizer(campaigns, metrics)

	stats, err := n.NormalizeAndStore(context.Background(), "ws-1", domain.PlatformGoogle, sampleData())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.CampaignsUpserted)
	assert.Equal(t, 1, stats.MetricsInserted)
	assert.Equal(t, 0, stats.OrphansSkipped)

	require.Len(t, campaigns.upserts, 1)
	assert.Equal(t, "Brand Search", campaigns.upserts[0].Name)
	require.Len(t, metrics.rows, 1)
}

func TestNormalizeAndStore_DerivedRatios(t *testing.T) {
	metrics := newMemMetricStore()
	n := NewNormalizer(&memCampaignStore{}, metrics)

	_, err := n.NormalizeAndStore(context.Background(), "ws-1", domain.PlatformGoogle, sampleData())
	require.NoError(t, err)

	for _, m := range metrics.rows {
		assert.Equal(t, 2.0, m.CTR)
		assert.Equal(t, 0.25, m.CPC)
		assert.Equal(t, 2.5, m.CPA)
		assert.Equal(t, 30.0, m.ROAS)
	}
}

func TestNormalizeAndStore_OrphanRowsSkipped(t *testing.T) {
	metrics := newMemMetricStore()
	n := NewNormalizer(&memCampaignStore{}, metrics)

	data := sampleData()
	data.Metrics = append(data.Metrics, MetricRowDTO{
		CampaignID: "deleted-campaign",
		Date:       time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC),
		Clicks:     5,
	})

	stats, err := n.NormalizeAndStore(context.Background(), "ws-1", domain.PlatformGoogle, data)
	require.NoError(t, err, "an orphan row must not fail the batch")

	assert.Equal(t, 1, stats.OrphansSkipped)
	assert.Equal(t, 1, stats.MetricsInserted)
	assert.Len(t, metrics.rows, 1)
}

func TestNormalizeAndStore_ResolvesCampaignsFromEarlierSyncs(t *testing.T) {
	campaigns := &memCampaignStore{}
	metrics := newMemMetricStore()
	n := NewNormalizer(campaigns, metrics)

	_, err := n.NormalizeAndStore(context.Background(), "ws-1", domain.PlatformGoogle, sampleData())
	require.NoError(t, err)

	// A later batch can carry metric rows for a campaign the current
	// listing omits; the stored campaign still anchors them.
	data := &CampaignData{
		Metrics: []MetricRowDTO{{
			CampaignID:  "g-1",
			Date:        time.Date(2026, 8, 4, 0, 0, 0, 0, time.UTC),
			Impressions: 500,
			Clicks:      10,
		}},
	}
	stats, err := n.NormalizeAndStore(context.Background(), "ws-1", domain.PlatformGoogle, data)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.OrphansSkipped)
	assert.Equal(t, 1, stats.MetricsInserted)
	assert.Len(t, metrics.rows, 2)
}

func TestNormalizeAndStore_Idempotent(t *testing.T) {
	metrics := newMemMetricStore()
	n := NewNormalizer(&memCampaignStore{}, metrics)

	_, err := n.NormalizeAndStore(context.Background(), "ws-1", domain.PlatformGoogle, sampleData())
	require.NoError(t, err)

	// Second run with revised counters updates the same row.
	data := sampleData()
	data.Metrics[0].Clicks = 25
	stats, err := n.NormalizeAndStore(context.Background(), "ws-1", domain.PlatformGoogle, data)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.MetricsInserted)
	assert.Equal(t, 1, stats.MetricsUpdated)
	require.Len(t, metrics.rows, 1)
	for _, m := range metrics.rows {
		assert.Equal(t, int64(25), m.Clicks, "last write wins")
		assert.Equal(t, 2.5, m.CTR, "ratios recomputed from the new counters")
	}
}

func TestNormalizeAndStore_EmptyBatch(t *testing.T) {
	n := NewNormalizer(&memCampaignStore{}, newMemMetricStore())

	stats, err := n.NormalizeAndStore(context.Background(), "ws-1", domain.PlatformMeta, &CampaignData{})
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}
