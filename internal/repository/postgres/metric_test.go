package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomarble/admetrics/internal/domain"
)

func testMetric() *domain.DailyMetric {
	return &domain.DailyMetric{
		WorkspaceID: "ws-1",
		Platform:    domain.PlatformGoogle,
		Date:        time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
		CampaignID:  "1234567890",
		Impressions: 1000,
		Clicks:      20,
		Spend:       5.0,
		Conversions: 2,
		CTR:         2.0,
		CPC:         0.25,
		CPA:         2.5,
	}
}

func TestMetricRepo_FindDailyKey_NullAdLevel(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	m := testMetric()

	// nil ad_set_id/ad_id must be passed as NULL, matched with
	// IS NOT DISTINCT FROM.
	mock.ExpectQuery(`SELECT id FROM ad_daily_metrics`).
		WithArgs(m.WorkspaceID, m.Platform, m.Date, m.CampaignID, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("row-1"))

	id, err := NewMetricRepo(db).FindDailyKey(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, "row-1", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricRepo_FindDailyKey_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id FROM ad_daily_metrics`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = NewMetricRepo(db).FindDailyKey(context.Background(), testMetric())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMetricRepo_InsertThenUpdate(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewMetricRepo(db)
	m := testMetric()

	mock.ExpectExec(`INSERT INTO ad_daily_metrics`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Insert(context.Background(), m))
	assert.NotEmpty(t, m.ID, "Insert assigns an id")

	mock.ExpectExec(`UPDATE ad_daily_metrics SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(context.Background(), m.ID, m))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricRepo_Update_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE ad_daily_metrics SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewMetricRepo(db).Update(context.Background(), "missing", testMetric())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMetricRepo_SummarizeRange(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 7, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(impressions\),0\)`).
		WithArgs("ws-1", from, to).
		WillReturnRows(sqlmock.NewRows(
			[]string{"impressions", "clicks", "spend", "conversions", "conversion_value"},
		).AddRow(10000, 250, 125.5, 12, 480.0))

	totals, err := NewMetricRepo(db).SummarizeRange(context.Background(), "ws-1", "", from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), totals.Impressions)
	assert.Equal(t, int64(250), totals.Clicks)
	assert.Equal(t, 125.5, totals.Spend)
	assert.Equal(t, 12.0, totals.Conversions)
	assert.Equal(t, 480.0, totals.ConversionValue)
}

func TestMetricRepo_SummarizeRange_EmptyWindow(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(impressions\),0\)`).
		WillReturnRows(sqlmock.NewRows(
			[]string{"impressions", "clicks", "spend", "conversions", "conversion_value"},
		).AddRow(0, 0, 0.0, 0.0, 0.0))

	totals, err := NewMetricRepo(db).SummarizeRange(context.Background(), "ws-1", "",
		time.Now().AddDate(0, 0, -7), time.Now())
	require.NoError(t, err)
	assert.Equal(t, &domain.MetricTotals{}, totals)
}

func TestMetricRepo_SummarizeByCampaign(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`LEFT JOIN ad_campaigns`).
		WillReturnRows(sqlmock.NewRows([]string{
			"campaign_id", "platform", "name", "status",
			"impressions", "clicks", "spend", "conversions", "conversion_value",
		}).
			AddRow("g-1", "google", "Brand Search", "ENABLED", 5000, 100, 80.0, 5, 200.0).
			AddRow("m-1", "meta", "Retargeting", "ACTIVE", 3000, 60, 45.0, 3, 150.0))

	out, err := NewMetricRepo(db).SummarizeByCampaign(context.Background(), "ws-1", "",
		time.Now().AddDate(0, 0, -7), time.Now())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Brand Search", out[0].Name)
	assert.Equal(t, domain.PlatformMeta, out[1].Platform)
	assert.Equal(t, 45.0, out[1].Totals.Spend)
}

func TestMetricRepo_DailyTrends(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	d1 := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`GROUP BY date`).
		WillReturnRows(sqlmock.NewRows([]string{
			"date", "impressions", "clicks", "spend", "conversions", "conversion_value",
		}).
			AddRow(d1, 1000, 20, 10.0, 1, 30.0).
			AddRow(d2, 1200, 25, 12.0, 2, 60.0))

	out, err := NewMetricRepo(db).DailyTrends(context.Background(), "ws-1", "", d1, d2)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.True(t, out[0].Date.Before(out[1].Date), "oldest first")
	assert.Equal(t, int64(1200), out[1].Totals.Impressions)
}

func TestMetricRepo_SummarizeByPlatform(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`GROUP BY platform`).
		WillReturnRows(sqlmock.NewRows([]string{
			"platform", "impressions", "clicks", "spend", "conversions", "conversion_value",
		}).
			AddRow("google", 5000, 100, 80.0, 5, 200.0).
			AddRow("meta", 3000, 60, 45.0, 3, 150.0))

	out, err := NewMetricRepo(db).SummarizeByPlatform(context.Background(), "ws-1",
		time.Now().AddDate(0, 0, -30), time.Now())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, domain.PlatformGoogle, out[0].Platform)
	assert.Equal(t, 80.0, out[0].Totals.Spend)
}
