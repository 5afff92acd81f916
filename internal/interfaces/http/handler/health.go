package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/schoolerp/feeledger/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Pinger is a dependency the readiness probe checks
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger
type PingerFunc func(ctx context.Context) error

// Ping calls f
func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

const readyTimeout = 2 * time.Second

// HealthHandler answers liveness and readiness probes
type HealthHandler struct {
	version    string
	startTime  time.Time
	database   Pinger
	dependents map[string]Pinger
}

// NewHealthHandler creates a HealthHandler. Optional dependencies such as
// Redis are added with WithDependency.
func NewHealthHandler(version string, database Pinger) *HealthHandler {
	return &HealthHandler{
		version:    version,
		startTime:  time.Now(),
		database:   database,
		dependents: make(map[string]Pinger),
	}
}

// WithDependency adds a named dependency to the readiness probe
func (h *HealthHandler) WithDependency(name string, p Pinger) *HealthHandler {
	h.dependents[name] = p
	return h
}

// Health handles GET /health. The process is alive if it answers.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": h.version,
		"uptime":  time.Since(h.startTime).Round(time.Second).String(),
		"time":    time.Now().Format(time.RFC3339),
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	checks := gin.H{}
	healthy := true
	check := func(name string, p Pinger) {
		if err := p.Ping(ctx); err != nil {
			logger.GetGinLogger(c).Warn("Readiness check failed", zap.String("dependency", name), zap.Error(err))
			checks[name] = "error"
			healthy = false
			return
		}
		checks[name] = "ok"
	}
	check("database", h.database)
	for name, p := range h.dependents {
		check(name, p)
	}

	status, code := "ready", http.StatusOK
	if !healthy {
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
		"checks": checks,
	})
}
