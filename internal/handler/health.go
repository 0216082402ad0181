package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/shosseini811/MultiGenQA/internal/middleware"
	"github.com/shosseini811/MultiGenQA/internal/provider"
)

// apiVersion is reported by the health endpoint.
const apiVersion = "1.0.0"

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler manages the health check endpoint.
type HealthHandler struct {
	db        HealthChecker
	cache     HealthChecker
	providers []provider.Client
}

// NewHealthHandler creates a new HealthHandler.
// Pass nil for db or cache if they are not configured.
func NewHealthHandler(db, cache HealthChecker, providers []provider.Client) *HealthHandler {
	return &HealthHandler{
		db:        db,
		cache:     cache,
		providers: providers,
	}
}

// Health handles GET /api/health.
// Always returns 200; degraded dependencies are reported in the body so
// load balancers keep routing while operators see the problem.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	services := make(map[string]string)
	status := "healthy"

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			services["database"] = "unhealthy"
			status = "degraded"
		} else {
			services["database"] = "healthy"
		}
	} else {
		services["database"] = "not_configured"
		status = "degraded"
	}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			services["cache"] = "unhealthy"
			status = "degraded"
		} else {
			services["cache"] = "healthy"
		}
	} else {
		services["cache"] = "not_configured"
	}

	for _, p := range h.providers {
		if p.Configured() {
			services[p.Name()] = "configured"
		} else {
			services[p.Name()] = "not_configured"
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     status,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"version":    apiVersion,
		"request_id": middleware.GetRequestID(r.Context()),
		"services":   services,
	})
}
