// Package insights answers natural-language questions about ad performance
// by pairing a fixed metrics context block with a text-completion backend.
package insights

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gomarble/admetrics/internal/domain"
	"github.com/gomarble/admetrics/internal/metrics"
	"github.com/gomarble/admetrics/internal/repository/postgres"
)

// contextWindowDays is the aggregation window behind every answer.
const contextWindowDays = 30

// MetricsReader is the read surface the context builder needs.
type MetricsReader interface {
	SummarizeRange(ctx context.Context, workspaceID string, platform domain.Platform, from, to time.Time) (*domain.MetricTotals, error)
	SummarizeByPlatform(ctx context.Context, workspaceID string, from, to time.Time) ([]postgres.PlatformSummary, error)
}

// BuildContext renders the last-30-days performance block the completion
// backends receive alongside the user's question. The shape is fixed; the
// model prompt depends on it.
func BuildContext(ctx context.Context, reader MetricsReader, workspaceID string) (string, error) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -contextWindowDays)

	totals, err := reader.SummarizeRange(ctx, workspaceID, "", from, to)
	if err != nil {
		return "", fmt.Errorf("summarize range: %w", err)
	}
	byPlatform, err := reader.SummarizeByPlatform(ctx, workspaceID, from, to)
	if err != nil {
		return "", fmt.Errorf("summarize by platform: %w", err)
	}

	var b strings.Builder
	b.WriteString("Advertising performance for the last 30 days:\n")
	fmt.Fprintf(&b, "- Total spend: $%.2f\n", totals.Spend)
	fmt.Fprintf(&b, "- Impressions: %d\n", totals.Impressions)
	fmt.Fprintf(&b, "- Clicks: %d (CTR: %.2f%%)\n",
		totals.Clicks, metrics.CTR(totals.Clicks, totals.Impressions))
	fmt.Fprintf(&b, "- Conversions: %.1f (CPA: $%.2f)\n",
		totals.Conversions, metrics.CPA(totals.Spend, totals.Conversions))
	fmt.Fprintf(&b, "- Conversion value: $%.2f (ROAS: %.2f)\n",
		totals.ConversionValue, metrics.ROAS(totals.ConversionValue, totals.Spend))

	if len(byPlatform) > 0 {
		b.WriteString("\nBy platform:\n")
		for _, p := range byPlatform {
			fmt.Fprintf(&b, "- %s: spend $%.2f, conversions %.1f\n",
				p.Platform, p.Totals.Spend, p.Totals.Conversions)
		}
	}
	return b.String(), nil
}
