package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/wonny/stockpick/pkg/database"
)

// HealthChecker is implemented by stores backed by a database
type HealthChecker interface {
	HealthCheck(ctx context.Context) database.HealthStatus
}

// BreakerReporter exposes the provider circuit breaker state
type BreakerReporter interface {
	BreakerState() string
}

// HealthHandler reports service and dependency health
type HealthHandler struct {
	service string
	store   interface{}
	breaker BreakerReporter
	cache   bool
}

// NewHealthHandler creates a new health handler.
// store may be any record store; database health is reported when it implements HealthChecker.
func NewHealthHandler(service string, store interface{}, breaker BreakerReporter, cacheEnabled bool) *HealthHandler {
	return &HealthHandler{service: service, store: store, breaker: breaker, cache: cacheEnabled}
}

// Check returns the health snapshot
// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":  "ok",
		"service": h.service,
		"cache":   h.cache,
	}

	if checker, ok := h.store.(HealthChecker); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := checker.HealthCheck(ctx)
		resp["database"] = status
		if !status.Healthy {
			resp["status"] = "degraded"
		}
	}

	if h.breaker != nil {
		state := h.breaker.BreakerState()
		resp["provider"] = state
		if state == "open" {
			resp["status"] = "degraded"
		}
	}

	code := http.StatusOK
	if resp["status"] != "ok" {
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, resp)
}
