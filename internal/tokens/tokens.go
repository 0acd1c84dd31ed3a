// Package tokens produces valid plaintext access tokens for platform API
// calls, refreshing and re-persisting them when they are about to expire.
package tokens

import (
	"context"
	"time"

	"github.com/gomarble/admetrics/internal/domain"
)

// refreshThreshold is how close to expiry a token may get before it is
// refreshed instead of used.
const refreshThreshold = 5 * time.Minute

// Source yields a usable plaintext access token for an integration.
type Source interface {
	ValidAccessToken(ctx context.Context, i *domain.Integration) (string, error)
}

// Store is the persistence surface the sources need.
type Store interface {
	UpdateTokens(ctx context.Context, id, accessToken string, expiresAt *time.Time) error
}

// Vault decrypts stored token blobs and encrypts refreshed ones.
type Vault interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(encrypted string) (string, error)
}

// Manager routes token requests to the per-platform source.
type Manager struct {
	google Source
	meta   Source
}

// NewManager creates a Manager over the two platform sources.
func NewManager(google, meta Source) *Manager {
	return &Manager{google: google, meta: meta}
}

// ValidAccessToken dispatches on the integration's platform.
func (m *Manager) ValidAccessToken(ctx context.Context, i *domain.Integration) (string, error) {
	switch i.Platform {
	case domain.PlatformGoogle:
		return m.google.ValidAccessToken(ctx, i)
	case domain.PlatformMeta:
		return m.meta.ValidAccessToken(ctx, i)
	default:
		return "", domain.ErrAuth
	}
}
