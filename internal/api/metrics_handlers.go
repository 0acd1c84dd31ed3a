package api

import (
	"net/http"
	"time"

	"github.com/gomarble/admetrics/internal/domain"
	"github.com/gomarble/admetrics/internal/metrics"
	"github.com/gomarble/admetrics/internal/pkg/httputil"
)

// defaultWindowDays is used when the caller sends no date range.
const defaultWindowDays = 30

type summaryResponse struct {
	Impressions     int64   `json:"impressions"`
	Clicks          int64   `json:"clicks"`
	Spend           float64 `json:"spend"`
	Conversions     float64 `json:"conversions"`
	ConversionValue float64 `json:"conversionValue"`
	CTR             float64 `json:"ctr"`
	CPC             float64 `json:"cpc"`
	CPA             float64 `json:"cpa"`
	ROAS            float64 `json:"roas"`

	// Change vs the preceding window of equal length, as percentages.
	SpendChange       float64 `json:"spendChange"`
	ConversionsChange float64 `json:"conversionsChange"`
}

type campaignMetricsResponse struct {
	Campaigns []campaignMetrics `json:"campaigns"`
}

type campaignMetrics struct {
	PlatformID      string  `json:"platformId"`
	Name            string  `json:"name"`
	Platform        string  `json:"platform"`
	Status          string  `json:"status"`
	Impressions     int64   `json:"impressions"`
	Clicks          int64   `json:"clicks"`
	Spend           float64 `json:"spend"`
	Conversions     float64 `json:"conversions"`
	ConversionValue float64 `json:"conversionValue"`
	CTR             float64 `json:"ctr"`
	CPC             float64 `json:"cpc"`
	CPA             float64 `json:"cpa"`
	ROAS            float64 `json:"roas"`
}

type trendsResponse struct {
	Trends []trendPoint `json:"trends"`
}

type trendPoint struct {
	Date            string  `json:"date"`
	Impressions     int64   `json:"impressions"`
	Clicks          int64   `json:"clicks"`
	Spend           float64 `json:"spend"`
	Conversions     float64 `json:"conversions"`
	ConversionValue float64 `json:"conversionValue"`
	CTR             float64 `json:"ctr"`
	CPC             float64 `json:"cpc"`
}

// parseMetricsQuery reads the shared startDate/endDate/platform filters.
// Missing dates default to the last 30 days.
func parseMetricsQuery(r *http.Request) (from, to time.Time, platform domain.Platform, ok bool) {
	q := r.URL.Query()

	to = time.Now().UTC().Truncate(24 * time.Hour)
	from = to.AddDate(0, 0, -defaultWindowDays)

	if v := q.Get("startDate"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return from, to, "", false
		}
		from = t
	}
	if v := q.Get("endDate"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return from, to, "", false
		}
		to = t
	}

	platform = domain.Platform(q.Get("platform"))
	if platform != "" && !platform.Valid() {
		return from, to, "", false
	}
	return from, to, platform, true
}

func (s *Server) handleMetricsSummary(w http.ResponseWriter, r *http.Request) {
	from, to, platform, ok := parseMetricsQuery(r)
	if !ok {
		httputil.BadRequest(w, "invalid startDate, endDate or platform")
		return
	}

	totals, err := s.metrics.SummarizeRange(r.Context(), WorkspaceID(r), platform, from, to)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	// Preceding window of the same length, for period-over-period change.
	// Range queries are date-inclusive, so the previous window ends the day
	// before this one starts.
	window := to.Sub(from)
	prevTo := from.AddDate(0, 0, -1)
	previous, err := s.metrics.SummarizeRange(r.Context(), WorkspaceID(r), platform, prevTo.Add(-window), prevTo)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	httputil.OK(w, summaryResponse{
		Impressions:     totals.Impressions,
		Clicks:          totals.Clicks,
		Spend:           totals.Spend,
		Conversions:     totals.Conversions,
		ConversionValue: totals.ConversionValue,
		CTR:             metrics.CTR(totals.Clicks, totals.Impressions),
		CPC:             metrics.CPC(totals.Spend, totals.Clicks),
		CPA:             metrics.CPA(totals.Spend, totals.Conversions),
		ROAS:            metrics.ROAS(totals.ConversionValue, totals.Spend),

		SpendChange:       metrics.PercentChange(totals.Spend, previous.Spend),
		ConversionsChange: metrics.PercentChange(totals.Conversions, previous.Conversions),
	})
}

func (s *Server) handleMetricsCampaigns(w http.ResponseWriter, r *http.Request) {
	from, to, platform, ok := parseMetricsQuery(r)
	if !ok {
		httputil.BadRequest(w, "invalid startDate, endDate or platform")
		return
	}

	summaries, err := s.metrics.SummarizeByCampaign(r.Context(), WorkspaceID(r), platform, from, to)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	resp := campaignMetricsResponse{Campaigns: make([]campaignMetrics, 0, len(summaries))}
	for _, c := range summaries {
		resp.Campaigns = append(resp.Campaigns, campaignMetrics{
			PlatformID:      c.CampaignID,
			Name:            c.Name,
			Platform:        string(c.Platform),
			Status:          c.Status,
			Impressions:     c.Totals.Impressions,
			Clicks:          c.Totals.Clicks,
			Spend:           c.Totals.Spend,
			Conversions:     c.Totals.Conversions,
			ConversionValue: c.Totals.ConversionValue,
			CTR:             metrics.CTR(c.Totals.Clicks, c.Totals.Impressions),
			CPC:             metrics.CPC(c.Totals.Spend, c.Totals.Clicks),
			CPA:             metrics.CPA(c.Totals.Spend, c.Totals.Conversions),
			ROAS:            metrics.ROAS(c.Totals.ConversionValue, c.Totals.Spend),
		})
	}
	httputil.OK(w, resp)
}

func (s *Server) handleMetricsTrends(w http.ResponseWriter, r *http.Request) {
	from, to, platform, ok := parseMetricsQuery(r)
	if !ok {
		httputil.BadRequest(w, "invalid startDate, endDate or platform")
		return
	}

	points, err := s.metrics.DailyTrends(r.Context(), WorkspaceID(r), platform, from, to)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	resp := trendsResponse{Trends: make([]trendPoint, 0, len(points))}
	for _, p := range points {
		resp.Trends = append(resp.Trends, trendPoint{
			Date:            p.Date.Format("2006-01-02"),
			Impressions:     p.Totals.Impressions,
			Clicks:          p.Totals.Clicks,
			Spend:           p.Totals.Spend,
			Conversions:     p.Totals.Conversions,
			ConversionValue: p.Totals.ConversionValue,
			CTR:             metrics.CTR(p.Totals.Clicks, p.Totals.Impressions),
			CPC:             metrics.CPC(p.Totals.Spend, p.Totals.Clicks),
		})
	}
	httputil.OK(w, resp)
}
