package tokens

import (
	"context"
	"fmt"

	"github.com/gomarble/admetrics/internal/domain"
)

// MetaSource serves Meta access tokens. Meta issues long-lived user tokens
// with no refresh grant, so this source only decrypts. An expired token
// surfaces as an auth failure on the next API call and requires the user to
// reconnect.
type MetaSource struct {
	vault Vault
}

// NewMetaSource creates a decrypt-only token source.
func NewMetaSource(vault Vault) *MetaSource {
	return &MetaSource{vault: vault}
}

// ValidAccessToken decrypts and returns the stored token.
func (s *MetaSource) ValidAccessToken(_ context.Context, i *domain.Integration) (string, error) {
	token, err := s.vault.Decrypt(i.AccessToken)
	if err != nil {
		return "", fmt.Errorf("decrypt access token: %w", err)
	}
	return token, nil
}
