package googleads

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomarble/admetrics/internal/config"
	"github.com/gomarble/admetrics/internal/domain"
)

type staticTokens string

func (s staticTokens) ValidAccessToken(context.Context, *domain.Integration) (string, error) {
	return string(s), nil
}

func TestFetcher_MapsCampaignsAndMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		if !strings.Contains(body["query"], "segments.date") {
			w.Write([]byte(`{"results":[
				{"campaign":{"id":"11","name":"Search","status":"ENABLED","advertisingChannelType":"SEARCH"}},
				{"campaign":{"id":"22","name":"Display","status":"PAUSED","advertisingChannelType":"DISPLAY"}}
			]}`))
			return
		}
		w.Write([]byte(`{"results":[
			{"campaign":{"id":"11"},"segments":{"date":"2026-08-03"},
			 "metrics":{"impressions":"1000","clicks":"20","costMicros":"5000000","conversions":2,"conversionsValue":150}},
			{"campaign":{"id":"11"},"segments":{"date":"bad-date"},
			 "metrics":{"impressions":"1","clicks":"1","costMicros":"1000000"}}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(config.GoogleAdsConfig{BaseURL: srv.URL, TimeoutSeconds: 5})
	f := NewFetcher(client, staticTokens("tok"))

	i := &domain.Integration{ID: "int-g", AccountID: "111", Platform: domain.PlatformGoogle}
	data, err := f.Fetch(context.Background(), i,
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, data.Campaigns, 2)
	assert.Equal(t, "SEARCH", data.Campaigns[0].Objective)

	require.Len(t, data.Metrics, 1, "rows with unparseable dates are dropped")
	m := data.Metrics[0]
	assert.Equal(t, "11", m.CampaignID)
	assert.Equal(t, 5.0, m.Spend)
	assert.Equal(t, 2.0, m.Conversions)
	assert.Equal(t, 150.0, m.ConversionValue)
}

// Conversion fields arrive string-encoded from some API surfaces; both the
// quoted and the plain number shape must decode, and garbage defaults to 0.
func TestFetcher_StringEncodedConversions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		if !strings.Contains(body["query"], "segments.date") {
			w.Write([]byte(`{"results":[
				{"campaign":{"id":"11","name":"Search","status":"ENABLED","advertisingChannelType":"SEARCH"}}
			]}`))
			return
		}
		w.Write([]byte(`{"results":[
			{"campaign":{"id":"11"},"segments":{"date":"2026-08-03"},
			 "metrics":{"impressions":"1000","clicks":"20","costMicros":"5000000","conversions":"2","conversionsValue":"100"}},
			{"campaign":{"id":"11"},"segments":{"date":"2026-08-04"},
			 "metrics":{"impressions":"10","clicks":"1","costMicros":"1000000","conversions":"garbage"}}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(config.GoogleAdsConfig{BaseURL: srv.URL, TimeoutSeconds: 5})
	f := NewFetcher(client, staticTokens("tok"))

	i := &domain.Integration{ID: "int-g", AccountID: "111", Platform: domain.PlatformGoogle}
	data, err := f.Fetch(context.Background(), i,
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, data.Metrics, 2)
	assert.Equal(t, 2.0, data.Metrics[0].Conversions)
	assert.Equal(t, 100.0, data.Metrics[0].ConversionValue)
	assert.Equal(t, 5.0, data.Metrics[0].Spend)
	assert.Equal(t, 0.0, data.Metrics[1].Conversions, "unparseable numerics default to zero")
	assert.Equal(t, 0.0, data.Metrics[1].ConversionValue, "missing numerics default to zero")
}
