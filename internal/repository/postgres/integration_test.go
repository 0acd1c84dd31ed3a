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

func integrationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "workspace_id", "platform", "account_id", "account_name",
		"access_token", "refresh_token", "token_expires_at", "scopes",
		"is_active", "created_at", "updated_at",
	})
}

func TestIntegrationRepo_Get(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	expiry := time.Now().Add(time.Hour)
	mock.ExpectQuery(`FROM ad_integrations WHERE id`).
		WithArgs("int-1").
		WillReturnRows(integrationRows().AddRow(
			"int-1", "ws-1", "google", "123-456-7890", "Acme Ads",
			"enc-access", "enc-refresh", expiry, "https://www.googleapis.com/auth/adwords",
			true, time.Now(), time.Now(),
		))

	i, err := NewIntegrationRepo(db).Get(context.Background(), "int-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PlatformGoogle, i.Platform)
	assert.Equal(t, "enc-refresh", i.RefreshToken)
	require.NotNil(t, i.TokenExpiresAt)
	assert.Equal(t, []string{"https://www.googleapis.com/auth/adwords"}, i.Scopes)
}

func TestIntegrationRepo_Get_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM ad_integrations WHERE id`).
		WillReturnRows(integrationRows())

	_, err = NewIntegrationRepo(db).Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIntegrationRepo_Get_NoExpiry(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	// Meta integrations have no refresh token and no tracked expiry.
	mock.ExpectQuery(`FROM ad_integrations WHERE id`).
		WillReturnRows(integrationRows().AddRow(
			"int-2", "ws-1", "meta", "act_987", "Acme Meta",
			"enc-access", "", nil, "",
			true, time.Now(), time.Now(),
		))

	i, err := NewIntegrationRepo(db).Get(context.Background(), "int-2")
	require.NoError(t, err)
	assert.Nil(t, i.TokenExpiresAt)
	assert.Empty(t, i.RefreshToken)
	assert.Nil(t, i.Scopes)
}

func TestIntegrationRepo_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO ad_integrations`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("existing-id"))

	i := &domain.Integration{
		WorkspaceID: "ws-1",
		Platform:    domain.PlatformGoogle,
		AccountID:   "123-456-7890",
		AccessToken: "enc-access",
	}
	require.NoError(t, NewIntegrationRepo(db).Upsert(context.Background(), i))
	// Reconnect path: the conflict target row's id wins.
	assert.Equal(t, "existing-id", i.ID)
}

func TestIntegrationRepo_UpdateTokens(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	expiry := time.Now().Add(55 * time.Minute)
	mock.ExpectExec(`UPDATE ad_integrations`).
		WithArgs("int-1", "new-enc-access", &expiry).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewIntegrationRepo(db).UpdateTokens(context.Background(), "int-1", "new-enc-access", &expiry)
	assert.NoError(t, err)
}

func TestIntegrationRepo_Deactivate(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`SET is_active = FALSE`).
		WithArgs("int-1", "ws-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewIntegrationRepo(db).Deactivate(context.Background(), "ws-1", "int-1")
	assert.NoError(t, err)
}

func TestIntegrationRepo_Deactivate_WrongWorkspace(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`SET is_active = FALSE`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewIntegrationRepo(db).Deactivate(context.Background(), "ws-other", "int-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIntegrationRepo_ListActiveByPlatform(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`WHERE is_active AND platform`).
		WithArgs(domain.PlatformGoogle).
		WillReturnRows(integrationRows().
			AddRow("int-1", "ws-1", "google", "a1", "", "t1", "", nil, "", true, time.Now(), time.Now()).
			AddRow("int-3", "ws-2", "google", "a3", "", "t3", "", nil, "", true, time.Now(), time.Now()))

	out, err := NewIntegrationRepo(db).ListActiveByPlatform(context.Background(), domain.PlatformGoogle)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "ws-1", out[0].WorkspaceID)
	assert.Equal(t, "ws-2", out[1].WorkspaceID)
}
