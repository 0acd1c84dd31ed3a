package metaads

import "strconv"

// The Graph API returns numeric insight fields as JSON strings.

type campaignsResponse struct {
	Data   []campaignRow `json:"data"`
	Paging paging        `json:"paging"`
}

type campaignRow struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Objective string `json:"objective"`
}

type insightsResponse struct {
	Data   []insightRow `json:"data"`
	Paging paging       `json:"paging"`
}

type insightRow struct {
	CampaignID   string        `json:"campaign_id"`
	DateStart    string        `json:"date_start"`
	Impressions  string        `json:"impressions"`
	Clicks       string        `json:"clicks"`
	Spend        string        `json:"spend"`
	Actions      []actionEntry `json:"actions"`
	ActionValues []actionEntry `json:"action_values"`
}

type actionEntry struct {
	ActionType string `json:"action_type"`
	Value      string `json:"value"`
}

type paging struct {
	Next string `json:"next"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// conversionActionTypes are the action types counted as conversions.
var conversionActionTypes = map[string]bool{
	"purchase":              true,
	"lead":                  true,
	"complete_registration": true,
	"add_to_cart":           true,
}

// conversions sums the conversion-type action counts.
func (r insightRow) conversions() float64 {
	var total float64
	for _, a := range r.Actions {
		if conversionActionTypes[a.ActionType] {
			total += parseFloat(a.Value)
		}
	}
	return total
}

// conversionValue takes only the purchase entry of action_values: leads and
// registrations carry no revenue.
func (r insightRow) conversionValue() float64 {
	for _, a := range r.ActionValues {
		if a.ActionType == "purchase" {
			return parseFloat(a.Value)
		}
	}
	return 0
}

// parseFloat tolerates missing or malformed numeric strings; platform rows
// never abort a sync over one bad field.
func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseInt64(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
