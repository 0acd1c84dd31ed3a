package googleads

import (
	"strconv"
	"strings"
)

// The Google Ads REST interface encodes int64 metric fields as JSON strings.

type searchResponse struct {
	Results       []resultRow `json:"results"`
	NextPageToken string      `json:"nextPageToken"`
}

type resultRow struct {
	Campaign campaignFields `json:"campaign"`
	Metrics  metricFields   `json:"metrics"`
	Segments segmentFields  `json:"segments"`
}

type campaignFields struct {
	ID                     string `json:"id"`
	Name                   string `json:"name"`
	Status                 string `json:"status"`
	AdvertisingChannelType string `json:"advertisingChannelType"`
}

type metricFields struct {
	Impressions      string     `json:"impressions"`
	Clicks           string     `json:"clicks"`
	CostMicros       string     `json:"costMicros"`
	Conversions      looseFloat `json:"conversions"`
	ConversionsValue looseFloat `json:"conversionsValue"`
}

// looseFloat decodes a metric the API serves either as a JSON number or as a
// quoted numeric string. Missing or malformed values decode to 0.
type looseFloat float64

func (f *looseFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = looseFloat(v)
	return nil
}

type segmentFields struct {
	Date string `json:"date"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// parseInt64 tolerates missing or malformed numeric strings; platform rows
// never abort a sync over one bad field.
func parseInt64(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// microsToUnits converts a micro-denominated currency string to units.
func microsToUnits(s string) float64 {
	return float64(parseInt64(s)) / 1e6
}
