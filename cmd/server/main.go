package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gomarble/admetrics/internal/api"
	"github.com/gomarble/admetrics/internal/config"
	"github.com/gomarble/admetrics/internal/googleads"
	"github.com/gomarble/admetrics/internal/ingest"
	"github.com/gomarble/admetrics/internal/insights"
	"github.com/gomarble/admetrics/internal/metaads"
	"github.com/gomarble/admetrics/internal/pkg/distlock"
	"github.com/gomarble/admetrics/internal/repository/postgres"
	"github.com/gomarble/admetrics/internal/tokens"
	"github.com/gomarble/admetrics/internal/vault"
)

// checkPortAvailable verifies that the target port is not already in use.
// This prevents confusion from stale processes occupying the port.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	log.Println("Starting AdMetrics API server...")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[config] DATABASE_URL env override active")
	}

	if err := checkPortAvailable(cfg.Server.GetHost(), cfg.Server.Port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	// Database
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

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := postgres.Migrate(migrateCtx, db); err != nil {
		migrateCancel()
		log.Fatalf("Failed to apply schema: %v", err)
	}
	migrateCancel()
	log.Println("Schema up to date")

	// Token vault
	tokenVault, err := vault.New(cfg.Encryption.TokenKey)
	if err != nil {
		log.Fatalf("Failed to initialize token vault: %v", err)
	}

	// Redis is optional; without it the sync lock falls back to PG advisory locks.
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Printf("Warning: Redis connection failed (%s): %v — falling back to PG advisory locks", cfg.Redis.Addr, err)
			redisClient.Close()
			redisClient = nil
		} else {
			log.Printf("Redis connected: %s (distributed locking enabled)", cfg.Redis.Addr)
		}
		pingCancel()
	} else {
		log.Println("Redis not configured — using PG advisory locks for sync overlap guard")
	}

	// Repositories
	integrationRepo := postgres.NewIntegrationRepo(db)
	campaignRepo := postgres.NewCampaignRepo(db)
	metricRepo := postgres.NewMetricRepo(db)

	// Token sources, one per platform
	googleTokens := tokens.NewGoogleSource(integrationRepo, tokenVault,
		cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.TokenURL)
	metaTokens := tokens.NewMetaSource(tokenVault)
	tokenManager := tokens.NewManager(googleTokens, metaTokens)

	// Platform fetchers
	googleFetcher := googleads.NewFetcher(googleads.NewClient(cfg.Google), tokenManager)
	metaFetcher := metaads.NewFetcher(metaads.NewClient(cfg.Meta), tokenManager)

	registry := ingest.NewRegistry()
	registry.Register(googleFetcher)
	registry.Register(metaFetcher)

	normalizer := ingest.NewNormalizer(campaignRepo, metricRepo)

	// One scheduler per registered platform; the distributed lock keeps a
	// second replica from running the same platform sync concurrently.
	ctx, cancel := context.WithCancel(context.Background())
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
		log.Printf("Sync scheduler started: platform=%s interval=%s lookback=%dd",
			fetcher.Platform(), cfg.Sync.Interval(), cfg.Sync.LookbackDays)
	}

	// Insights assistant
	var asker api.InsightsAsker
	if cfg.Insights.Enabled {
		var completer insights.Completer
		switch cfg.Insights.Provider {
		case "bedrock":
			bc, err := insights.NewBedrockCompleter(ctx, cfg.Insights.BedrockModel)
			if err != nil {
				log.Fatalf("Failed to initialize Bedrock completer: %v", err)
			}
			completer = bc
		default:
			completer = insights.NewOpenAICompleter(cfg.Insights.OpenAIKey, cfg.Insights.OpenAIModel)
		}
		asker = insights.NewService(metricRepo, completer)
		log.Printf("Insights assistant enabled (provider=%s)", cfg.Insights.Provider)
	} else {
		log.Println("Insights assistant disabled")
	}

	server := api.NewServer(cfg, metricRepo, integrationRepo, asker, tokenVault)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Println("All services initialized — server is ready")

	<-done
	log.Println("Shutting down...")

	cancel()
	for _, s := range schedulers {
		s.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	if redisClient != nil {
		redisClient.Close()
	}
	log.Println("Server stopped")
}
