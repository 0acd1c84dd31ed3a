package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomarble/admetrics/internal/domain"
)

type stubFetcher struct{ platform domain.Platform }

func (f stubFetcher) Platform() domain.Platform { return f.platform }
func (f stubFetcher) Fetch(context.Context, *domain.Integration, time.Time, time.Time) (*CampaignData, error) {
	return &CampaignData{}, nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(stubFetcher{platform: domain.PlatformGoogle})
	r.Register(stubFetcher{platform: domain.PlatformMeta})

	f, err := r.Get(domain.PlatformGoogle)
	require.NoError(t, err)
	assert.Equal(t, domain.PlatformGoogle, f.Platform())

	assert.ElementsMatch(t,
		[]domain.Platform{domain.PlatformGoogle, domain.PlatformMeta},
		r.Platforms())
}

func TestRegistry_UnknownPlatform(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get(domain.PlatformMeta)
	assert.Error(t, err)
}

func TestRegistry_ReplacesOnReRegister(t *testing.T) {
	r := NewRegistry()
	first := stubFetcher{platform: domain.PlatformGoogle}
	second := stubFetcher{platform: domain.PlatformGoogle}
	r.Register(first)
	r.Register(second)

	require.Len(t, r.Platforms(), 1)
}
