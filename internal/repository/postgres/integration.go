package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gomarble/admetrics/internal/domain"
)

// IntegrationRepo implements integration persistence against PostgreSQL.
type IntegrationRepo struct{ db *sql.DB }

// NewIntegrationRepo creates a Postgres-backed integration repository.
func NewIntegrationRepo(db *sql.DB) *IntegrationRepo { return &IntegrationRepo{db: db} }

const integrationColumns = `id, workspace_id, platform, account_id, account_name,
	access_token, COALESCE(refresh_token,''), token_expires_at, scopes,
	is_active, created_at, updated_at`

func scanIntegration(row interface{ Scan(...interface{}) error }) (*domain.Integration, error) {
	i := &domain.Integration{}
	var scopes string
	err := row.Scan(
		&i.ID, &i.WorkspaceID, &i.Platform, &i.AccountID, &i.AccountName,
		&i.AccessToken, &i.RefreshToken, &i.TokenExpiresAt, &scopes,
		&i.IsActive, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if scopes != "" {
		i.Scopes = strings.Split(scopes, " ")
	}
	return i, nil
}

// Get returns one integration by id, active or not.
func (r *IntegrationRepo) Get(ctx context.Context, id string) (*domain.Integration, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+integrationColumns+` FROM ad_integrations WHERE id = $1`, id)
	i, err := scanIntegration(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get integration: %w", err)
	}
	return i, nil
}

// ListByWorkspace returns every active integration in a workspace.
func (r *IntegrationRepo) ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Integration, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+integrationColumns+`
		 FROM ad_integrations
		 WHERE workspace_id = $1 AND is_active
		 ORDER BY created_at`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list integrations: %w", err)
	}
	defer rows.Close()

	var out []domain.Integration
	for rows.Next() {
		i, err := scanIntegration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan integration: %w", err)
		}
		out = append(out, *i)
	}
	return out, rows.Err()
}

// ListActiveByPlatform returns every active integration for one platform
// across all workspaces, in a stable order. The sync scheduler iterates this.
func (r *IntegrationRepo) ListActiveByPlatform(ctx context.Context, platform domain.Platform) ([]domain.Integration, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+integrationColumns+`
		 FROM ad_integrations
		 WHERE is_active AND platform = $1
		 ORDER BY workspace_id, created_at`, platform)
	if err != nil {
		return nil, fmt.Errorf("list active integrations: %w", err)
	}
	defer rows.Close()

	var out []domain.Integration
	for rows.Next() {
		i, err := scanIntegration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan integration: %w", err)
		}
		out = append(out, *i)
	}
	return out, rows.Err()
}

// Upsert inserts or replaces the integration keyed by
// (workspace, platform, account). Reconnecting an account overwrites its
// tokens and reactivates it.
func (r *IntegrationRepo) Upsert(ctx context.Context, i *domain.Integration) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO ad_integrations
			(id, workspace_id, platform, account_id, account_name,
			 access_token, refresh_token, token_expires_at, scopes,
			 is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7,''), $8, $9, TRUE, NOW(), NOW())
		ON CONFLICT (workspace_id, platform, account_id) DO UPDATE SET
			account_name = EXCLUDED.account_name,
			access_token = EXCLUDED.access_token,
			refresh_token = COALESCE(EXCLUDED.refresh_token, ad_integrations.refresh_token),
			token_expires_at = EXCLUDED.token_expires_at,
			scopes = EXCLUDED.scopes,
			is_active = TRUE,
			updated_at = NOW()
		RETURNING id
	`, i.ID, i.WorkspaceID, i.Platform, i.AccountID, i.AccountName,
		i.AccessToken, i.RefreshToken, i.TokenExpiresAt,
		strings.Join(i.Scopes, " ")).Scan(&i.ID)
	if err != nil {
		return fmt.Errorf("upsert integration: %w", err)
	}
	return nil
}

// UpdateTokens persists a refreshed access token and its expiry.
func (r *IntegrationRepo) UpdateTokens(ctx context.Context, id, accessToken string, expiresAt *time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE ad_integrations
		SET access_token = $2, token_expires_at = $3, updated_at = NOW()
		WHERE id = $1
	`, id, accessToken, expiresAt)
	if err != nil {
		return fmt.Errorf("update tokens: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Deactivate soft-deletes the integration. Campaigns and metrics keep their
// rows.
func (r *IntegrationRepo) Deactivate(ctx context.Context, workspaceID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE ad_integrations
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND workspace_id = $2
	`, id, workspaceID)
	if err != nil {
		return fmt.Errorf("deactivate integration: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
