package handlers

import (
	"context"
	"net/http"

	"github.com/pocketbase/pocketbase/core"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]HealthCheck
}

func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) Health(e *core.RequestEvent) error {
	failures := map[string]string{}
	for name, check := range h.checks {
		if err := check(e.Request.Context()); err != nil {
			failures[name] = err.Error()
		}
	}
	if len(failures) > 0 {
		return e.JSON(http.StatusServiceUnavailable, map[string]any{
			"status": "unhealthy",
			"errors": failures,
		})
	}
	return e.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}
