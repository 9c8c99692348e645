package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// Build information - can be set at build time using ldflags
var (
	Version   = "dev"
	GoVersion = runtime.Version()
)

// HealthHandler handles health check requests
type HealthHandler struct {
	finder Finder
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(f Finder) *HealthHandler {
	return &HealthHandler{finder: f}
}

// HealthCheck handles GET /health
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	resp := gin.H{
		"status":     "healthy",
		"service":    "provider-finder",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"version":    Version,
		"go_version": GoVersion,
	}
	if h.finder != nil {
		resp["providers"] = h.finder.Providers()
		resp["source"] = h.finder.Source()
	}
	c.JSON(http.StatusOK, resp)
}

// LivenessCheck handles GET /live
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}
