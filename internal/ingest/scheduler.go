package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gomarble/admetrics/internal/domain"
	"github.com/gomarble/admetrics/internal/pkg/distlock"
	"github.com/gomarble/admetrics/internal/pkg/logger"
)

// IntegrationLister is the integration read surface the scheduler needs.
type IntegrationLister interface {
	ListActiveByPlatform(ctx context.Context, platform domain.Platform) ([]domain.Integration, error)
}

// Scheduler periodically syncs every active integration of one platform.
// Fetches run sequentially with pacing between integrations so a workspace
// with many accounts does not hammer the provider. A per-integration failure
// is logged and skipped; the run continues.
type Scheduler struct {
	platform     domain.Platform
	fetcher      Fetcher
	normalizer   *Normalizer
	integrations IntegrationLister
	lock         distlock.DistLock

	interval time.Duration
	lookback time.Duration
	pacing   time.Duration

	runImmediately bool

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// SchedulerConfig wires a platform scheduler.
type SchedulerConfig struct {
	Fetcher        Fetcher
	Normalizer     *Normalizer
	Integrations   IntegrationLister
	Lock           distlock.DistLock
	Interval       time.Duration
	Lookback       time.Duration
	Pacing         time.Duration
	RunImmediately bool
}

// NewScheduler creates a scheduler for the fetcher's platform.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	return &Scheduler{
		platform:       cfg.Fetcher.Platform(),
		fetcher:        cfg.Fetcher,
		normalizer:     cfg.Normalizer,
		integrations:   cfg.Integrations,
		lock:           cfg.Lock,
		interval:       cfg.Interval,
		lookback:       cfg.Lookback,
		pacing:         cfg.Pacing,
		runImmediately: cfg.RunImmediately,
	}
}

// Start launches the sync loop. Returns an error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("scheduler already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.loop(ctx)

	logger.Info("sync scheduler started",
		"platform", string(s.platform),
		"interval", s.interval.String())
	return nil
}

// Stop signals the loop to exit and waits for it.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
	logger.Info("sync scheduler stopped", "platform", string(s.platform))
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	if s.runImmediately {
		s.RunOnce(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce executes one full sync pass under the overlap lock. If the lock is
// held elsewhere the pass is skipped, not queued.
func (s *Scheduler) RunOnce(ctx context.Context) {
	acquired, err := s.lock.Acquire(ctx)
	if err != nil {
		logger.Error("sync lock acquire failed",
			"platform", string(s.platform),
			"error", err.Error())
		return
	}
	if !acquired {
		logger.Warn("sync run skipped, previous run still holds the lock",
			"platform", string(s.platform))
		return
	}
	defer func() {
		if err := s.lock.Release(ctx); err != nil {
			logger.Error("sync lock release failed",
				"platform", string(s.platform),
				"error", err.Error())
		}
	}()

	integrations, err := s.integrations.ListActiveByPlatform(ctx, s.platform)
	if err != nil {
		logger.Error("listing integrations failed",
			"platform", string(s.platform),
			"error", err.Error())
		return
	}

	to := time.Now().UTC().Truncate(24 * time.Hour)
	from := to.Add(-s.lookback)

	logger.Info("sync run starting",
		"platform", string(s.platform),
		"integrations", fmt.Sprintf("%d", len(integrations)),
		"from", from.Format("2006-01-02"),
		"to", to.Format("2006-01-02"))

	for idx, integration := range integrations {
		if ctx.Err() != nil {
			return
		}
		if idx > 0 && s.pacing > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.pacing):
			}
		}

		if err := s.syncOne(ctx, &integration, from, to); err != nil {
			logger.Error("integration sync failed",
				"platform", string(s.platform),
				"integration_id", integration.ID,
				"workspace_id", integration.WorkspaceID,
				"error", err.Error())
		}
	}
}

func (s *Scheduler) syncOne(ctx context.Context, i *domain.Integration, from, to time.Time) error {
	data, err := s.fetcher.Fetch(ctx, i, from, to)
	if err != nil {
		return err
	}

	stats, err := s.normalizer.NormalizeAndStore(ctx, i.WorkspaceID, s.platform, data)
	if err != nil {
		return err
	}

	logger.Info("integration synced",
		"platform", string(s.platform),
		"integration_id", i.ID,
		"workspace_id", i.WorkspaceID,
		"campaigns", fmt.Sprintf("%d", stats.CampaignsUpserted),
		"inserted", fmt.Sprintf("%d", stats.MetricsInserted),
		"updated", fmt.Sprintf("%d", stats.MetricsUpdated),
		"orphans", fmt.Sprintf("%d", stats.OrphansSkipped))
	return nil
}
