// The worker binary runs only the sync schedulers, for deployments that
// separate the API surface from background ingestion.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gomarble/admetrics/internal/config"
	"github.com/gomarble/admetrics/internal/googleads"
	"github.com/gomarble/admetrics/internal/ingest"
	"github.com/gomarble/admetrics/internal/metaads"
	"github.com/gomarble/admetrics/internal/pkg/distlock"
	"github.com/gomarble/admetrics/internal/repository/postgres"
	"github.com/gomarble/admetrics/internal/tokens"
	"github.com/gomarble/admetrics/internal/vault"
)

func main() {
	log.Println("Starting AdMetrics sync worker...")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := postgres.Open(cfg.Database.URL, postgres.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Minute,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to database")

	tokenVault, err := vault.New(cfg.Encryption.TokenKey)
	if err != nil {
		log.Fatalf("Failed to initialize token vault: %v", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Printf("Warning: Redis connection failed: %v — falling back to PG advisory locks", err)
			redisClient.Close()
			redisClient = nil
		}
		pingCancel()
	}

	integrationRepo := postgres.NewIntegrationRepo(db)
	campaignRepo := postgres.NewCampaignRepo(db)
	metricRepo := postgres.NewMetricRepo(db)

	googleTokens := tokens.NewGoogleSource(integrationRepo, tokenVault,
		cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.TokenURL)
	metaTokens := tokens.NewMetaSource(tokenVault)
	tokenManager := tokens.NewManager(googleTokens, metaTokens)

	registry := ingest.NewRegistry()
	registry.Register(googleads.NewFetcher(googleads.NewClient(cfg.Google), tokenManager))
	registry.Register(metaads.NewFetcher(metaads.NewClient(cfg.Meta), tokenManager))

	normalizer := ingest.NewNormalizer(campaignRepo, metricRepo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var schedulers []*ingest.Scheduler
	for _, platform := range registry.Platforms() {
		fetcher, err := registry.Get(platform)
		if err != nil {
			log.Fatalf("Fetcher lookup failed for %s: %v", platform, err)
		}
		s := ingest.NewScheduler(ingest.SchedulerConfig{
			Fetcher:        fetcher,
			Normalizer:     normalizer,
			Integrations:   integrationRepo,
			Lock:           distlock.New(redisClient, db, "sync:"+string(fetcher.Platform()), 30*time.Minute),
			Interval:       cfg.Sync.Interval(),
			Lookback:       time.Duration(cfg.Sync.LookbackDays) * 24 * time.Hour,
			Pacing:         cfg.Sync.Pacing(),
			RunImmediately: cfg.Sync.RunImmediately,
		})
		if err := s.Start(ctx); err != nil {
			log.Fatalf("Failed to start %s sync scheduler: %v", fetcher.Platform(), err)
		}
		schedulers = append(schedulers, s)
		log.Printf("Sync scheduler started: platform=%s interval=%s", fetcher.Platform(), cfg.Sync.Interval())
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down worker...")
	cancel()
	for _, s := range schedulers {
		s.Stop()
	}
	if redisClient != nil {
		redisClient.Close()
	}
	log.Println("Worker stopped")
}
