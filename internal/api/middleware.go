package api

import (
	"context"
	"net/http"

	"github.com/gomarble/admetrics/internal/pkg/httputil"
)

type contextKey string

const workspaceKey contextKey = "workspace_id"

// RequireWorkspace scopes the request to the workspace named in the
// X-Workspace-ID header. Session authentication in front of this service is
// expected to have verified the caller's membership.
func RequireWorkspace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		workspaceID := r.Header.Get("X-Workspace-ID")
		if workspaceID == "" {
			httputil.BadRequest(w, "Workspace ID required")
			return
		}
		ctx := context.WithValue(r.Context(), workspaceKey, workspaceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WorkspaceID returns the workspace the request is scoped to.
func WorkspaceID(r *http.Request) string {
	id, _ := r.Context().Value(workspaceKey).(string)
	return id
}
