package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"orangecat/internal/middleware"
)

// Check pings one dependency.
type Check func(ctx context.Context) error

// HealthHandler serves liveness and readiness. A nil check marks a
// dependency that is not configured.
type HealthHandler struct {
	service string
	version string
	checks  map[string]Check
}

func NewHealthHandler(service, version string, checks map[string]Check) *HealthHandler {
	return &HealthHandler{service: service, version: version, checks: checks}
}

// Liveness handles GET /api/health.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   h.service,
		"version":   h.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// dependencyStatus is public; failure details only go to the log.
type dependencyStatus struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func failureReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "unreachable"
}

// Readiness handles GET /api/health/ready.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	deps := make(map[string]dependencyStatus, len(h.checks))
	healthy := true
	for name, check := range h.checks {
		if check == nil {
			deps[name] = dependencyStatus{Status: "disabled"}
			continue
		}
		if err := check(ctx); err != nil {
			middleware.Logger(c).Warn().Err(err).Str("dependency", name).Msg("readiness check failed")
			deps[name] = dependencyStatus{Status: "unhealthy", Reason: failureReason(err)}
			healthy = false
			continue
		}
		deps[name] = dependencyStatus{Status: "ok"}
	}

	status, code := "ok", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "dependencies": deps})
}
