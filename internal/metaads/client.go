// Package metaads is a minimal Meta Marketing API client covering the
// reporting calls the sync pipeline needs.
package metaads

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gomarble/admetrics/internal/config"
	"github.com/gomarble/admetrics/internal/domain"
	"github.com/gomarble/admetrics/internal/pkg/httpretry"
)

// Client is a Meta Graph API client. The Graph API authenticates with an
// access_token query parameter rather than a header.
type Client struct {
	graphURL   string
	httpClient httpretry.HTTPDoer
}

// NewClient creates a new Meta Marketing API client
func NewClient(cfg config.MetaAdsConfig) *Client {
	return &Client{
		graphURL: cfg.GraphURL(),
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: cfg.Timeout(),
		}, 3),
	}
}

// get fetches one Graph API URL and decodes into out.
func (c *Client) get(ctx context.Context, fullURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: graph API status %d", domain.ErrAuth, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			// Code 190 is an invalid or expired token regardless of status.
			if apiErr.Error.Code == 190 {
				return fmt.Errorf("%w: %s", domain.ErrAuth, apiErr.Error.Message)
			}
			return fmt.Errorf("graph API error (status %d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("graph API error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// ListCampaigns returns all campaigns in the ad account, following paging.
func (c *Client) ListCampaigns(ctx context.Context, accessToken, accountID string) ([]campaignRow, error) {
	params := url.Values{}
	params.Set("fields", "id,name,status,objective")
	params.Set("access_token", accessToken)
	params.Set("limit", "100")

	next := fmt.Sprintf("%s/%s/campaigns?%s", c.graphURL, adAccountPath(accountID), params.Encode())

	var out []campaignRow
	for next != "" {
		var page campaignsResponse
		if err := c.get(ctx, next, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Data...)
		next = page.Paging.Next
	}
	return out, nil
}

// DailyInsights returns campaign-level daily insight rows for the inclusive
// date range.
func (c *Client) DailyInsights(ctx context.Context, accessToken, accountID string, from, to time.Time) ([]insightRow, error) {
	timeRange, err := json.Marshal(map[string]string{
		"since": from.Format("2006-01-02"),
		"until": to.Format("2006-01-02"),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding time range: %w", err)
	}

	params := url.Values{}
	params.Set("level", "campaign")
	params.Set("fields", "campaign_id,impressions,clicks,spend,actions,action_values")
	params.Set("time_range", string(timeRange))
	params.Set("time_increment", "1")
	params.Set("access_token", accessToken)
	params.Set("limit", "500")

	next := fmt.Sprintf("%s/%s/insights?%s", c.graphURL, adAccountPath(accountID), params.Encode())

	var out []insightRow
	for next != "" {
		var page insightsResponse
		if err := c.get(ctx, next, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Data...)
		next = page.Paging.Next
	}
	return out, nil
}

// adAccountPath prefixes act_ unless the caller already did.
func adAccountPath(accountID string) string {
	if len(accountID) >= 4 && accountID[:4] == "act_" {
		return accountID
	}
	return "act_" + accountID
}
