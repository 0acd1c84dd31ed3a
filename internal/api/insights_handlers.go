package api

import (
	"net/http"
	"strings"

	"github.com/gomarble/admetrics/internal/pkg/httputil"
)

type insightsRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if s.insights == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "insights are not configured")
		return
	}

	var req insightsRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		httputil.BadRequest(w, "query is required")
		return
	}

	insight, err := s.insights.Ask(r.Context(), WorkspaceID(r), req.Query)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"insight": insight})
}
