package tokens

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/gomarble/admetrics/internal/domain"
	"github.com/gomarble/admetrics/internal/pkg/logger"
)

// GoogleSource serves Google access tokens, running the refresh-token grant
// when the stored token has no known expiry or expires within
// refreshThreshold. Refreshed tokens are re-encrypted and persisted before
// being returned.
type GoogleSource struct {
	store      Store
	vault      Vault
	oauth      oauth2.Config
	httpClient *http.Client
	now        func() time.Time
}

// NewGoogleSource creates a source using the app's OAuth client credentials.
func NewGoogleSource(store Store, vault Vault, clientID, clientSecret, tokenURL string) *GoogleSource {
	return &GoogleSource{
		store: store,
		vault: vault,
		oauth: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
		},
		now: time.Now,
	}
}

// ValidAccessToken returns a plaintext access token for the integration,
// refreshing first when needed. Refresh failure maps to domain.ErrAuth so
// callers can tell "reconnect the account" apart from transport trouble.
func (s *GoogleSource) ValidAccessToken(ctx context.Context, i *domain.Integration) (string, error) {
	if !s.needsRefresh(i) {
		token, err := s.vault.Decrypt(i.AccessToken)
		if err != nil {
			return "", fmt.Errorf("decrypt access token: %w", err)
		}
		return token, nil
	}
	return s.refresh(ctx, i)
}

// needsRefresh is true when the expiry is unknown or too close. An unknown
// expiry is treated as expired rather than trusted.
func (s *GoogleSource) needsRefresh(i *domain.Integration) bool {
	if i.TokenExpiresAt == nil {
		return true
	}
	return s.now().Add(refreshThreshold).After(*i.TokenExpiresAt)
}

func (s *GoogleSource) refresh(ctx context.Context, i *domain.Integration) (string, error) {
	if i.RefreshToken == "" {
		return "", fmt.Errorf("%w: integration %s has no refresh token", domain.ErrAuth, i.ID)
	}
	refreshToken, err := s.vault.Decrypt(i.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("decrypt refresh token: %w", err)
	}

	if s.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}
	tok, err := s.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		logger.Warn("google token refresh failed",
			"integration_id", i.ID,
			"error", err.Error())
		return "", fmt.Errorf("%w: refresh grant failed", domain.ErrAuth)
	}

	encrypted, err := s.vault.Encrypt(tok.AccessToken)
	if err != nil {
		return "", fmt.Errorf("encrypt refreshed token: %w", err)
	}
	var expiry *time.Time
	if !tok.Expiry.IsZero() {
		e := tok.Expiry
		expiry = &e
	}
	if err := s.store.UpdateTokens(ctx, i.ID, encrypted, expiry); err != nil {
		return "", fmt.Errorf("persist refreshed token: %w", err)
	}

	// Keep the in-memory copy current so the caller's later reads agree
	// with the database.
	i.AccessToken = encrypted
	i.TokenExpiresAt = expiry

	logger.Info("google access token refreshed", "integration_id", i.ID)
	return tok.AccessToken, nil
}
