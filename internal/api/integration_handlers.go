package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gomarble/admetrics/internal/domain"
	"github.com/gomarble/admetrics/internal/pkg/httputil"
)

// integrationView never exposes token fields, encrypted or not.
type integrationView struct {
	ID          string    `json:"id"`
	Platform    string    `json:"platform"`
	AccountID   string    `json:"accountId"`
	AccountName string    `json:"accountName"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (s *Server) handleListIntegrations(w http.ResponseWriter, r *http.Request) {
	integrations, err := s.integrations.ListByWorkspace(r.Context(), WorkspaceID(r))
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	views := make([]integrationView, 0, len(integrations))
	for _, i := range integrations {
		views = append(views, integrationView{
			ID:          i.ID,
			Platform:    string(i.Platform),
			AccountID:   i.AccountID,
			AccountName: i.AccountName,
			IsActive:    i.IsActive,
			CreatedAt:   i.CreatedAt,
		})
	}
	httputil.OK(w, map[string][]integrationView{"integrations": views})
}

func (s *Server) handleDisconnectIntegration(w http.ResponseWriter, r *http.Request) {
	integrationID := chi.URLParam(r, "integrationID")
	if integrationID == "" {
		httputil.BadRequest(w, "Integration ID required")
		return
	}

	err := s.integrations.Deactivate(r.Context(), WorkspaceID(r), integrationID)
	if errors.Is(err, domain.ErrNotFound) {
		httputil.NotFound(w, "Integration not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"message": "Integration disconnected successfully"})
}
