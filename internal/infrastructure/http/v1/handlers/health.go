package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sealedger/internal/core/store"
)

// Version is reported by /health/info.
var Version = "dev"

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	store   store.Store
	driver  string
	started time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(s store.Store, driver string) *HealthHandler {
	return &HealthHandler{store: s, driver: driver, started: time.Now()}
}

// Live handles liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready handles readiness probe (can the store be reached?).
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	var err error
	if p, ok := h.store.(pinger); ok {
		err = p.Ping(ctx)
	} else {
		_, err = h.store.Load(ctx, "sites")
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"checks": map[string]string{
				"store": "unhealthy: " + err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": map[string]string{
			"store": "healthy",
		},
	})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"app":     "sealedger",
		"version": Version,
		"storage": h.driver,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}
