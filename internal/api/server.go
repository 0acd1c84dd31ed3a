// Package api exposes the dashboard-facing HTTP surface: metric reads,
// OAuth connect flows, integration management and the insights assistant.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/gomarble/admetrics/internal/config"
	"github.com/gomarble/admetrics/internal/domain"
	"github.com/gomarble/admetrics/internal/repository/postgres"
)

// MetricsReader is the read surface the metrics endpoints need.
type MetricsReader interface {
	SummarizeRange(ctx context.Context, workspaceID string, platform domain.Platform, from, to time.Time) (*domain.MetricTotals, error)
	SummarizeByCampaign(ctx context.Context, workspaceID string, platform domain.Platform, from, to time.Time) ([]postgres.CampaignSummary, error)
	DailyTrends(ctx context.Context, workspaceID string, platform domain.Platform, from, to time.Time) ([]postgres.DailyPoint, error)
}

// IntegrationStore is the integration surface the OAuth and management
// endpoints need.
type IntegrationStore interface {
	ListByWorkspace(ctx context.Context, workspaceID string) ([]domain.Integration, error)
	Upsert(ctx context.Context, i *domain.Integration) error
	Deactivate(ctx context.Context, workspaceID, id string) error
}

// InsightsAsker answers natural-language questions for a workspace.
type InsightsAsker interface {
	Ask(ctx context.Context, workspaceID, question string) (string, error)
}

// TokenVault encrypts OAuth tokens before they reach the store.
type TokenVault interface {
	Encrypt(plaintext string) (string, error)
}

// Server holds the handler dependencies.
type Server struct {
	cfg          *config.Config
	metrics      MetricsReader
	integrations IntegrationStore
	insights     InsightsAsker
	vault        TokenVault

	// Overridable in tests.
	googleUserInfoURL string
	metaAuthURL       string
	httpClient        *http.Client
}

// NewServer wires the API server.
func NewServer(cfg *config.Config, metrics MetricsReader, integrations IntegrationStore, insights InsightsAsker, vault TokenVault) *Server {
	return &Server{
		cfg:               cfg,
		metrics:           metrics,
		integrations:      integrations,
		insights:          insights,
		vault:             vault,
		googleUserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		metaAuthURL:       "https://www.facebook.com/" + cfg.Meta.APIVersion + "/dialog/oauth",
		httpClient:        &http.Client{Timeout: 30 * time.Second},
	}
}

// Routes builds the router. Metric, integration and insights routes require
// the workspace header; OAuth callbacks do not, the workspace rides in the
// state parameter instead.
func (s *Server) Routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.cfg.Frontend.URL},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Workspace-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/oauth", func(r chi.Router) {
			r.With(RequireWorkspace).Get("/google", s.handleGoogleInitiate)
			r.With(RequireWorkspace).Get("/meta", s.handleMetaInitiate)
			r.Get("/google/callback", s.handleGoogleCallback)
			r.Get("/meta/callback", s.handleMetaCallback)
		})

		r.Route("/metrics", func(r chi.Router) {
			r.Use(RequireWorkspace)
			r.Get("/summary", s.handleMetricsSummary)
			r.Get("/campaigns", s.handleMetricsCampaigns)
			r.Get("/trends", s.handleMetricsTrends)
		})

		r.Route("/integrations", func(r chi.Router) {
			r.Use(RequireWorkspace)
			r.Get("/", s.handleListIntegrations)
			r.Delete("/{integrationID}", s.handleDisconnectIntegration)
		})

		r.With(RequireWorkspace).Post("/insights", s.handleInsights)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
