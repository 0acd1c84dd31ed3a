// Package googleads is a minimal Google Ads REST client covering the
// reporting queries the sync pipeline needs.
package googleads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gomarble/admetrics/internal/config"
	"github.com/gomarble/admetrics/internal/domain"
	"github.com/gomarble/admetrics/internal/pkg/httpretry"
)

// Client is a Google Ads API client. Access tokens are per-integration and
// passed per call.
type Client struct {
	baseURL        string
	developerToken string
	httpClient     httpretry.HTTPDoer
}

// NewClient creates a new Google Ads API client
func NewClient(cfg config.GoogleAdsConfig) *Client {
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		developerToken: cfg.DeveloperToken,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: cfg.Timeout(),
		}, 3),
	}
}

// search runs one GAQL query against a customer account, following page
// tokens until the result set is exhausted.
func (c *Client) search(ctx context.Context, accessToken, customerID, query string) ([]resultRow, error) {
	var rows []resultRow
	pageToken := ""

	for {
		body, err := json.Marshal(map[string]string{
			"query":     query,
			"pageToken": pageToken,
		})
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}

		url := fmt.Sprintf("%s/customers/%s/googleAds:search", c.baseURL, sanitizeCustomerID(customerID))
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+accessToken)
		req.Header.Set("developer-token", c.developerToken)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("executing request: %w", err)
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, fmt.Errorf("%w: google ads API status %d", domain.ErrAuth, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			var apiErr apiError
			if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
				return nil, fmt.Errorf("google ads API error (status %d): %s", resp.StatusCode, apiErr.Error.Message)
			}
			return nil, fmt.Errorf("google ads API error (status %d): %s", resp.StatusCode, string(respBody))
		}

		var page searchResponse
		if err := json.Unmarshal(respBody, &page); err != nil {
			return nil, fmt.Errorf("parsing response: %w", err)
		}
		rows = append(rows, page.Results...)

		if page.NextPageToken == "" {
			return rows, nil
		}
		pageToken = page.NextPageToken
	}
}

// ListCampaigns returns all non-removed campaigns in the account.
func (c *Client) ListCampaigns(ctx context.Context, accessToken, customerID string) ([]campaignFields, error) {
	const query = `
		SELECT campaign.id, campaign.name, campaign.status,
		       campaign.advertising_channel_type
		FROM campaign
		WHERE campaign.status != 'REMOVED'`

	rows, err := c.search(ctx, accessToken, customerID, query)
	if err != nil {
		return nil, err
	}

	out := make([]campaignFields, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Campaign)
	}
	return out, nil
}

// DailyMetrics returns per-campaign, per-day performance rows for the
// inclusive date range.
func (c *Client) DailyMetrics(ctx context.Context, accessToken, customerID string, from, to time.Time) ([]resultRow, error) {
	query := fmt.Sprintf(`
		SELECT campaign.id, segments.date,
		       metrics.impressions, metrics.clicks, metrics.cost_micros,
		       metrics.conversions, metrics.conversions_value
		FROM campaign
		WHERE campaign.status != 'REMOVED'
		  AND segments.date BETWEEN '%s' AND '%s'`,
		from.Format("2006-01-02"), to.Format("2006-01-02"))

	return c.search(ctx, accessToken, customerID, query)
}

// sanitizeCustomerID strips the dashes users paste from the Ads UI
// (123-456-7890 -> 1234567890).
func sanitizeCustomerID(id string) string {
	return strings.ReplaceAll(id, "-", "")
}
