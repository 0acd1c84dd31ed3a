package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gomarble/admetrics/internal/domain"
)

// MetricRepo implements daily-metric persistence against PostgreSQL.
//
// The logical key (workspace, platform, date, campaign, ad_set, ad) contains
// nullable columns, so upserts are a find-then-write pair instead of
// ON CONFLICT. The sync pipeline is the only writer and runs under the
// scheduler lock, so the two statements do not race.
type MetricRepo struct{ db *sql.DB }

// NewMetricRepo creates a Postgres-backed metric repository.
func NewMetricRepo(db *sql.DB) *MetricRepo { return &MetricRepo{db: db} }

// FindDailyKey returns the row id for the metric's logical key, or
// domain.ErrNotFound. NULL ad_set_id/ad_id match nil pointers.
func (r *MetricRepo) FindDailyKey(ctx context.Context, m *domain.DailyMetric) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM ad_daily_metrics
		WHERE workspace_id = $1 AND platform = $2 AND date = $3
		  AND campaign_id = $4
		  AND ad_set_id IS NOT DISTINCT FROM $5
		  AND ad_id IS NOT DISTINCT FROM $6
	`, m.WorkspaceID, m.Platform, m.Date, m.CampaignID, m.AdSetID, m.AdID).Scan(&id)
	if err == sql.ErrNoRows {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find metric: %w", err)
	}
	return id, nil
}

// Insert writes a new daily metric row.
func (r *MetricRepo) Insert(ctx context.Context, m *domain.DailyMetric) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ad_daily_metrics
			(id, workspace_id, platform, date, campaign_id, ad_set_id, ad_id,
			 impressions, clicks, spend, conversions, conversion_value,
			 ctr, cpc, cpa, roas, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
	`, m.ID, m.WorkspaceID, m.Platform, m.Date, m.CampaignID, m.AdSetID, m.AdID,
		m.Impressions, m.Clicks, m.Spend, m.Conversions, m.ConversionValue,
		m.CTR, m.CPC, m.CPA, m.ROAS)
	if err != nil {
		return fmt.Errorf("insert metric: %w", err)
	}
	return nil
}

// Update overwrites the counters and derived ratios of an existing row.
func (r *MetricRepo) Update(ctx context.Context, id string, m *domain.DailyMetric) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE ad_daily_metrics SET
			impressions = $2, clicks = $3, spend = $4,
			conversions = $5, conversion_value = $6,
			ctr = $7, cpc = $8, cpa = $9, roas = $10,
			updated_at = NOW()
		WHERE id = $1
	`, id, m.Impressions, m.Clicks, m.Spend, m.Conversions, m.ConversionValue,
		m.CTR, m.CPC, m.CPA, m.ROAS)
	if err != nil {
		return fmt.Errorf("update metric: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SummarizeRange sums raw counters for a workspace over [from, to].
// An empty platform means all platforms.
func (r *MetricRepo) SummarizeRange(ctx context.Context, workspaceID string, platform domain.Platform, from, to time.Time) (*domain.MetricTotals, error) {
	q := `
		SELECT COALESCE(SUM(impressions),0), COALESCE(SUM(clicks),0),
		       COALESCE(SUM(spend),0), COALESCE(SUM(conversions),0),
		       COALESCE(SUM(conversion_value),0)
		FROM ad_daily_metrics
		WHERE workspace_id = $1 AND date BETWEEN $2 AND $3`
	args := []interface{}{workspaceID, from, to}
	if platform != "" {
		q += ` AND platform = $4`
		args = append(args, platform)
	}

	t := &domain.MetricTotals{}
	err := r.db.QueryRowContext(ctx, q, args...).Scan(
		&t.Impressions, &t.Clicks, &t.Spend, &t.Conversions, &t.ConversionValue,
	)
	if err != nil {
		return nil, fmt.Errorf("summarize range: %w", err)
	}
	return t, nil
}

// CampaignSummary is one campaign's totals for an aggregation window.
type CampaignSummary struct {
	CampaignID string
	Platform   domain.Platform
	Name       string
	Status     string
	Totals     domain.MetricTotals
}

// SummarizeByCampaign sums counters per campaign over [from, to], joining
// campaign names. Campaigns with no rows in the window are omitted. An empty
// platform means all platforms.
func (r *MetricRepo) SummarizeByCampaign(ctx context.Context, workspaceID string, platform domain.Platform, from, to time.Time) ([]CampaignSummary, error) {
	q := `
		SELECT m.campaign_id, m.platform,
		       COALESCE(c.name,''), COALESCE(c.status,''),
		       COALESCE(SUM(m.impressions),0), COALESCE(SUM(m.clicks),0),
		       COALESCE(SUM(m.spend),0), COALESCE(SUM(m.conversions),0),
		       COALESCE(SUM(m.conversion_value),0)
		FROM ad_daily_metrics m
		LEFT JOIN ad_campaigns c
		  ON c.workspace_id = m.workspace_id
		 AND c.platform = m.platform
		 AND c.platform_id = m.campaign_id
		WHERE m.workspace_id = $1 AND m.date BETWEEN $2 AND $3`
	args := []interface{}{workspaceID, from, to}
	if platform != "" {
		q += ` AND m.platform = $4`
		args = append(args, platform)
	}
	q += `
		GROUP BY m.campaign_id, m.platform, c.name, c.status
		ORDER BY SUM(m.spend) DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("summarize by campaign: %w", err)
	}
	defer rows.Close()

	var out []CampaignSummary
	for rows.Next() {
		var s CampaignSummary
		if err := rows.Scan(
			&s.CampaignID, &s.Platform, &s.Name, &s.Status,
			&s.Totals.Impressions, &s.Totals.Clicks, &s.Totals.Spend,
			&s.Totals.Conversions, &s.Totals.ConversionValue,
		); err != nil {
			return nil, fmt.Errorf("scan campaign summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DailyPoint is one day's totals in a trend series.
type DailyPoint struct {
	Date   time.Time
	Totals domain.MetricTotals
}

// DailyTrends sums counters per day over [from, to], oldest first. Days with
// no rows are absent from the result. An empty platform means all platforms.
func (r *MetricRepo) DailyTrends(ctx context.Context, workspaceID string, platform domain.Platform, from, to time.Time) ([]DailyPoint, error) {
	q := `
		SELECT date,
		       COALESCE(SUM(impressions),0), COALESCE(SUM(clicks),0),
		       COALESCE(SUM(spend),0), COALESCE(SUM(conversions),0),
		       COALESCE(SUM(conversion_value),0)
		FROM ad_daily_metrics
		WHERE workspace_id = $1 AND date BETWEEN $2 AND $3`
	args := []interface{}{workspaceID, from, to}
	if platform != "" {
		q += ` AND platform = $4`
		args = append(args, platform)
	}
	q += `
		GROUP BY date
		ORDER BY date`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("daily trends: %w", err)
	}
	defer rows.Close()

	var out []DailyPoint
	for rows.Next() {
		var p DailyPoint
		if err := rows.Scan(
			&p.Date, &p.Totals.Impressions, &p.Totals.Clicks, &p.Totals.Spend,
			&p.Totals.Conversions, &p.Totals.ConversionValue,
		); err != nil {
			return nil, fmt.Errorf("scan trend point: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// PlatformSummary is one platform's totals for an aggregation window.
type PlatformSummary struct {
	Platform domain.Platform
	Totals   domain.MetricTotals
}

// SummarizeByPlatform sums counters per platform over [from, to].
func (r *MetricRepo) SummarizeByPlatform(ctx context.Context, workspaceID string, from, to time.Time) ([]PlatformSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT platform,
		       COALESCE(SUM(impressions),0), COALESCE(SUM(clicks),0),
		       COALESCE(SUM(spend),0), COALESCE(SUM(conversions),0),
		       COALESCE(SUM(conversion_value),0)
		FROM ad_daily_metrics
		WHERE workspace_id = $1 AND date BETWEEN $2 AND $3
		GROUP BY platform
		ORDER BY platform
	`, workspaceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("summarize by platform: %w", err)
	}
	defer rows.Close()

	var out []PlatformSummary
	for rows.Next() {
		var s PlatformSummary
		if err := rows.Scan(
			&s.Platform, &s.Totals.Impressions, &s.Totals.Clicks, &s.Totals.Spend,
			&s.Totals.Conversions, &s.Totals.ConversionValue,
		); err != nil {
			return nil, fmt.Errorf("scan platform summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
