package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"file-uploader/internal/shared/config"
	"file-uploader/internal/shared/metrics"
	"file-uploader/internal/shared/server/middleware"
	"file-uploader/internal/shared/server/respond"
)

// RouteRegistrar attaches a feature's routes to the API group.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouterDeps are the pieces the router needs from bootstrap.
type RouterDeps struct {
	Config   config.Config
	Uploads  RouteRegistrar
	Gatherer prometheus.Gatherer
	Limiter  *middleware.RateLimiter
	// Health is optional; without it /health always reports ok.
	Health HealthChecker
}

// HealthChecker reports per-check status for /api/v1/health.
type HealthChecker interface {
	Status(ctx context.Context) (map[string]string, bool)
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			GroupFor: middleware.UploadGroups,
			Limiter:  deps.Limiter,
			Rules: map[string]middleware.RateLimitRule{
				"UPLOAD": {Rate: deps.Config.UploadRatePerSec, Burst: deps.Config.UploadRateBurst},
			},
		}),
	)

	r.GET("/metrics", metrics.Handler(deps.Gatherer))

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
			return
		}
		checks, ok := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, gin.H{"ok": ok, "checks": checks})
	})
	if deps.Uploads != nil {
		deps.Uploads.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
