package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SystemHandler handles liveness and service metadata endpoints
type SystemHandler struct {
	BaseHandler
	appName string
	started time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(appName string) *SystemHandler {
	return &SystemHandler{
		appName: appName,
		started: time.Now(),
	}
}

// RegisterRoutes registers the system routes. These stay outside the
// authenticated group.
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
}

// Health handles GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"app":     h.appName,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
		"checked": time.Now().UTC().Format(time.RFC3339),
	})
}
