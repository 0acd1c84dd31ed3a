package ingest

import (
	"fmt"
	"sync"

	"github.com/gomarble/admetrics/internal/domain"
)

// Registry maps platforms to their fetchers. Registration happens at wiring
// time; lookups happen on every sync run.
type Registry struct {
	mu       sync.RWMutex
	fetchers map[domain.Platform]Fetcher
}

// NewRegistry creates an empty fetcher registry.
func NewRegistry() *Registry {
	return &Registry{fetchers: make(map[domain.Platform]Fetcher)}
}

// Register adds a fetcher under its platform tag, replacing any previous one.
func (r *Registry) Register(f Fetcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetchers[f.Platform()] = f
}

// Get returns the fetcher for a platform.
func (r *Registry) Get(platform domain.Platform) (Fetcher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.fetchers[platform]
	if !ok {
		return nil, fmt.Errorf("no fetcher registered for platform %q", platform)
	}
	return f, nil
}

// Platforms returns the registered platform tags.
func (r *Registry) Platforms() []domain.Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Platform, 0, len(r.fetchers))
	for p := range r.fetchers {
		out = append(out, p)
	}
	return out
}
