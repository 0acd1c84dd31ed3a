package metaads

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomarble/admetrics/internal/config"
	"github.com/gomarble/admetrics/internal/domain"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.MetaAdsConfig{
		BaseURL:        baseURL,
		APIVersion:     "v18.0",
		TimeoutSeconds: 5,
	})
}

func TestListCampaigns_URLAndAuth(t *testing.T) {
	var gotPath, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.URL.Query().Get("access_token")
		w.Write([]byte(`{"data":[{"id":"m-1","name":"Retargeting","status":"ACTIVE","objective":"OUTCOME_SALES"}]}`))
	}))
	defer srv.Close()

	campaigns, err := newTestClient(srv.URL).ListCampaigns(context.Background(), "meta-token", "987")
	require.NoError(t, err)

	assert.Equal(t, "/v18.0/act_987/campaigns", gotPath)
	assert.Equal(t, "meta-token", gotToken, "token travels as a query param, not a header")
	require.Len(t, campaigns, 1)
	assert.Equal(t, "OUTCOME_SALES", campaigns[0].Objective)
}

func TestListCampaigns_AccountIDAlreadyPrefixed(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ListCampaigns(context.Background(), "tok", "act_987")
	require.NoError(t, err)
	assert.Equal(t, "/v18.0/act_987/campaigns", gotPath)
}

func TestListCampaigns_FollowsPaging(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("after") == "" {
			fmt.Fprintf(w, `{"data":[{"id":"m-1"}],"paging":{"next":"%s/v18.0/act_1/campaigns?after=cursor2&access_token=tok"}}`, srv.URL)
			return
		}
		w.Write([]byte(`{"data":[{"id":"m-2"}]}`))
	}))
	defer srv.Close()

	campaigns, err := newTestClient(srv.URL).ListCampaigns(context.Background(), "tok", "1")
	require.NoError(t, err)
	require.Len(t, campaigns, 2)
	assert.Equal(t, "m-2", campaigns[1].ID)
}

func TestDailyInsights_QueryShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "campaign", q.Get("level"))
		assert.Equal(t, "1", q.Get("time_increment"))

		var tr map[string]string
		require.NoError(t, json.Unmarshal([]byte(q.Get("time_range")), &tr))
		assert.Equal(t, "2026-08-01", tr["since"])
		assert.Equal(t, "2026-08-07", tr["until"])

		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).DailyInsights(context.Background(), "tok", "1",
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 7, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
}

func TestDailyInsights_ConversionActionRollup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{
			"campaign_id":"m-1",
			"date_start":"2026-08-03",
			"impressions":"2000",
			"clicks":"40",
			"spend":"45.67",
			"actions":[
				{"action_type":"purchase","value":"3"},
				{"action_type":"lead","value":"2"},
				{"action_type":"link_click","value":"40"},
				{"action_type":"add_to_cart","value":"5"}
			],
			"action_values":[
				{"action_type":"purchase","value":"150"},
				{"action_type":"add_to_cart","value":"999"}
			]
		}]}`))
	}))
	defer srv.Close()

	rows, err := newTestClient(srv.URL).DailyInsights(context.Background(), "tok", "1",
		time.Now().AddDate(0, 0, -7), time.Now())
	require.NoError(t, err)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, 10.0, r.conversions(), "purchase+lead+add_to_cart count, link_click does not")
	assert.Equal(t, 150.0, r.conversionValue(), "only the purchase entry of action_values carries revenue")
	assert.Equal(t, 45.67, parseFloat(r.Spend), "spend arrives as a decimal string")
}

func TestGet_TokenErrorCode190MapsToErrAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Error validating access token: Session has expired","type":"OAuthException","code":190}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ListCampaigns(context.Background(), "expired", "1")
	assert.ErrorIs(t, err, domain.ErrAuth)
}

func TestInsightRow_MissingActionsDefaultZero(t *testing.T) {
	r := insightRow{Impressions: "100", Clicks: "x"}
	assert.Equal(t, 0.0, r.conversions())
	assert.Equal(t, 0.0, r.conversionValue())
	assert.Equal(t, int64(0), parseInt64(r.Clicks))
}
