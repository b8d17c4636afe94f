package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/vidhive/backend/internal/respond"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responds with service health information.
type HealthHandler struct {
	Store Pinger
}

// Handle implements GET /healthz.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.Store != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := h.Store.Ping(pingCtx); err != nil {
			respond.Fail(ctx, w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}

	respond.OK(ctx, w, http.StatusOK, "ok", map[string]string{"status": "ok"})
}
