package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/linkcard/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// ModeChecker reports which fetch modes can be served.
type ModeChecker interface {
	Available(mode string) bool
}

// Health returns a handler for GET /api/v1/health.
//
// Status degrades when the configured default fetch mode has no engine.
func Health(modes ModeChecker, defaultMode string, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		if !modes.Available(defaultMode) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Browser: modes.Available(models.FetchModeBrowser),
			Version: Version,
		})
	}
}
