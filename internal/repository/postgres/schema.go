package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema is idempotent: every statement is IF NOT EXISTS so Migrate can run
// on every boot.
const schema = `
CREATE TABLE IF NOT EXISTS workspaces (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS ad_integrations (
	id               UUID PRIMARY KEY,
	workspace_id     UUID NOT NULL,
	platform         TEXT NOT NULL,
	account_id       TEXT NOT NULL,
	account_name     TEXT NOT NULL DEFAULT '',
	access_token     TEXT NOT NULL,
	refresh_token    TEXT,
	token_expires_at TIMESTAMPTZ,
	scopes           TEXT NOT NULL DEFAULT '',
	is_active        BOOLEAN NOT NULL DEFAULT TRUE,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (workspace_id, platform, account_id)
);

CREATE TABLE IF NOT EXISTS ad_campaigns (
	id           UUID PRIMARY KEY,
	workspace_id UUID NOT NULL,
	platform     TEXT NOT NULL,
	platform_id  TEXT NOT NULL,
	name         TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT '',
	objective    TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (workspace_id, platform, platform_id)
);

CREATE TABLE IF NOT EXISTS ad_daily_metrics (
	id               UUID PRIMARY KEY,
	workspace_id     UUID NOT NULL,
	platform         TEXT NOT NULL,
	date             DATE NOT NULL,
	campaign_id      TEXT NOT NULL,
	ad_set_id        TEXT,
	ad_id            TEXT,
	impressions      BIGINT NOT NULL DEFAULT 0,
	clicks           BIGINT NOT NULL DEFAULT 0,
	spend            DOUBLE PRECISION NOT NULL DEFAULT 0,
	conversions      DOUBLE PRECISION NOT NULL DEFAULT 0,
	conversion_value DOUBLE PRECISION NOT NULL DEFAULT 0,
	ctr              DOUBLE PRECISION NOT NULL DEFAULT 0,
	cpc              DOUBLE PRECISION NOT NULL DEFAULT 0,
	cpa              DOUBLE PRECISION NOT NULL DEFAULT 0,
	roas             DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_integrations_workspace
	ON ad_integrations (workspace_id) WHERE is_active;
CREATE INDEX IF NOT EXISTS idx_campaigns_workspace
	ON ad_campaigns (workspace_id, platform);
CREATE INDEX IF NOT EXISTS idx_metrics_workspace_date
	ON ad_daily_metrics (workspace_id, date);
CREATE INDEX IF NOT EXISTS idx_metrics_campaign_date
	ON ad_daily_metrics (workspace_id, platform, campaign_id, date);
`

// Migrate applies the schema. ad_daily_metrics has no unique constraint on
// its logical key because ad_set_id and ad_id are nullable; upserts go
// through MetricRepo's find-then-write path instead of ON CONFLICT.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
