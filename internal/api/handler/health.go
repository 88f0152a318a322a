package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/salesvisit/visit-service/internal/api"
)

// HealthChecker reports whether a dependency is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler reports service health
type HealthHandler struct {
	db HealthChecker
	rs *api.Responder
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db HealthChecker, rs *api.Responder) *HealthHandler {
	return &HealthHandler{db: db, rs: rs}
}

type healthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// ServeHTTP handles GET /health
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.HealthCheck(ctx); err != nil {
		h.rs.JSON(w, http.StatusServiceUnavailable, api.Envelope{
			Success: false,
			Message: "Database unavailable",
			Data:    healthStatus{Status: "degraded", Database: "down"},
		})
		return
	}

	h.rs.OK(w, healthStatus{Status: "ok", Database: "up"})
}
