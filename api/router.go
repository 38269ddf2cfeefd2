package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/use-agent/linkcard/api/handler"
	"github.com/use-agent/linkcard/api/middleware"
	"github.com/use-agent/linkcard/config"
	"github.com/use-agent/linkcard/metrics"
	"github.com/use-agent/linkcard/models"
)

// Service is what the handlers need from the fetch layer.
// *fetcher.Modes satisfies it.
type Service interface {
	handler.MetadataFetcher
	handler.ModeChecker
}

// NewRouter creates a configured Gin engine with all routes and middleware.
// Background work started for the router stops when ctx is done.
//
// Middleware chain:
//
//	Global:  Recovery → RequestID → Logger → CORS
//	API:     Auth (if enabled) → RateLimit
//
// Health and metrics stay outside auth so monitoring probes always work.
func NewRouter(ctx context.Context, svc Service, cfg *config.Config, m *metrics.Metrics, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		slog.Error("handler panic", "panic", recovered, "path", c.Request.URL.Path)
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.FetchErrorResponse{Error: "Internal server error"})
	}))
	r.Use(middleware.RequestID())
	r.Use(gin.Logger())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	r.NoMethod(func(c *gin.Context) {
		c.String(http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Health and metrics, no auth required.
	r.GET("/api/v1/health", handler.Health(svc, cfg.Fetch.Mode, startTime))
	if m != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}

	apiGroup := r.Group("/api")
	apiGroup.OPTIONS("/fetch-metadata", handler.Preflight)
	apiGroup.OPTIONS("/link-card", handler.Preflight)

	// Protected routes: auth + rate limit.
	protected := apiGroup.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit, ctx.Done()))

	protected.POST("/fetch-metadata", handler.FetchMetadata(svc, cfg.Fetch.Mode))
	protected.POST("/link-card", handler.LinkCard(svc, cfg.Fetch.Mode, cfg.Affiliate.Tag, m))

	return r
}
