package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomarble/admetrics/internal/domain"
)

func TestCampaignRepo_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO ad_campaigns`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("c-row-1"))

	c := &domain.Campaign{
		WorkspaceID: "ws-1",
		Platform:    domain.PlatformGoogle,
		PlatformID:  "1234567890",
		Name:        "Brand Search",
		Status:      "ENABLED",
	}
	require.NoError(t, NewCampaignRepo(db).Upsert(context.Background(), c))
	assert.Equal(t, "c-row-1", c.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCampaignRepo_GetByPlatformID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM ad_campaigns`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = NewCampaignRepo(db).GetByPlatformID(context.Background(),
		"ws-1", domain.PlatformMeta, "unknown")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCampaignRepo_ListByWorkspace_PlatformFilter(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM ad_campaigns`).
		WithArgs("ws-1", domain.PlatformMeta).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "workspace_id", "platform", "platform_id", "name", "status",
			"objective", "created_at", "updated_at",
		}).AddRow("c-1", "ws-1", "meta", "m-1", "Retargeting", "ACTIVE", "OUTCOME_SALES", now, now))

	out, err := NewCampaignRepo(db).ListByWorkspace(context.Background(), "ws-1", domain.PlatformMeta)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "OUTCOME_SALES", out[0].Objective)
}
