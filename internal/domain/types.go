package domain

import "time"

// Platform identifies an advertising platform.
type Platform string

const (
	PlatformGoogle Platform = "google"
	PlatformMeta   Platform = "meta"
)

// Valid reports whether the platform tag is one we support.
func (p Platform) Valid() bool {
	return p == PlatformGoogle || p == PlatformMeta
}

// Integration is one OAuth-connected advertiser account. Token fields hold
// vault-encrypted blobs, never plaintext. An integration is unique per
// (workspace, platform, account id) and is soft-deleted via IsActive so that
// historical campaigns and metrics keep their linkage.
type Integration struct {
	ID             string
	WorkspaceID    string
	Platform       Platform
	AccountID      string
	AccountName    string
	AccessToken    string // encrypted
	RefreshToken   string // encrypted, empty if the platform has none
	TokenExpiresAt *time.Time
	Scopes         []string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Campaign is the platform-agnostic representation of an advertiser campaign.
// (WorkspaceID, Platform, PlatformID) is the only stable identity; name,
// status and objective are overwritten on every sync. Campaigns are never
// deleted - a removed campaign shows up as a status change.
type Campaign struct {
	ID          string
	WorkspaceID string
	Platform    Platform
	PlatformID  string
	Name        string
	Status      string
	Objective   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DailyMetric is one day's performance counters for a campaign, keyed by
// (workspace, platform, date, campaign, ad set, ad). AdSetID and AdID are
// reserved for finer granularity the pipeline does not populate yet; both are
// nil at campaign level. Derived ratios are computed at write time so stored
// rows are always self-consistent with their own counters.
type DailyMetric struct {
	ID              string
	WorkspaceID     string
	Platform        Platform
	Date            time.Time
	CampaignID      string
	AdSetID         *string
	AdID            *string
	Impressions     int64
	Clicks          int64
	Spend           float64
	Conversions     float64
	ConversionValue float64
	CTR             float64
	CPC             float64
	CPA             float64
	ROAS            float64
}

// MetricTotals holds summed raw counters for an aggregation window.
type MetricTotals struct {
	Impressions     int64
	Clicks          int64
	Spend           float64
	Conversions     float64
	ConversionValue float64
}
