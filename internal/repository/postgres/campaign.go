package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/gomarble/admetrics/internal/domain"
)

// CampaignRepo implements campaign persistence against PostgreSQL.
type CampaignRepo struct{ db *sql.DB }

// NewCampaignRepo creates a Postgres-backed campaign repository.
func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

// Upsert inserts or updates a campaign keyed by
// (workspace, platform, platform_id) and fills in the row id.
func (r *CampaignRepo) Upsert(ctx context.Context, c *domain.Campaign) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO ad_campaigns
			(id, workspace_id, platform, platform_id, name, status, objective,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		ON CONFLICT (workspace_id, platform, platform_id) DO UPDATE SET
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			objective = EXCLUDED.objective,
			updated_at = NOW()
		RETURNING id
	`, c.ID, c.WorkspaceID, c.Platform, c.PlatformID, c.Name, c.Status, c.Objective).
		Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("upsert campaign: %w", err)
	}
	return nil
}

// GetByPlatformID looks a campaign up by its platform-native id.
func (r *CampaignRepo) GetByPlatformID(ctx context.Context, workspaceID string, platform domain.Platform, platformID string) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, workspace_id, platform, platform_id, name, status, objective,
		       created_at, updated_at
		FROM ad_campaigns
		WHERE workspace_id = $1 AND platform = $2 AND platform_id = $3
	`, workspaceID, platform, platformID).Scan(
		&c.ID, &c.WorkspaceID, &c.Platform, &c.PlatformID, &c.Name, &c.Status,
		&c.Objective, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

// ListByWorkspace returns all campaigns in a workspace, optionally filtered
// by platform.
func (r *CampaignRepo) ListByWorkspace(ctx context.Context, workspaceID string, platform domain.Platform) ([]domain.Campaign, error) {
	q := `
		SELECT id, workspace_id, platform, platform_id, name, status, objective,
		       created_at, updated_at
		FROM ad_campaigns
		WHERE workspace_id = $1`
	args := []interface{}{workspaceID}
	if platform != "" {
		q += ` AND platform = $2`
		args = append(args, platform)
	}
	q += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []domain.Campaign
	for rows.Next() {
		var c domain.Campaign
		if err := rows.Scan(
			&c.ID, &c.WorkspaceID, &c.Platform, &c.PlatformID, &c.Name, &c.Status,
			&c.Objective, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
