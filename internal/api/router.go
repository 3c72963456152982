package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/guttosm/b3cotahist/internal/metrics"
	"github.com/guttosm/b3cotahist/internal/middleware"
)

// RouterOptions tunes NewRouter. Zero values fall back to defaults.
type RouterOptions struct {
	// RequestTimeout bounds each request context (default 10s).
	RequestTimeout time.Duration
	// RateLimitRPS and RateLimitBurst configure the per-IP limiter;
	// a non-positive RPS disables it.
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter creates a Gin engine with every route configured.
//
// Responsibilities:
//   - Registers global middlewares (RequestID, Logger, Recovery, Metrics,
//     ErrorHandler, RateLimiter).
//   - Bounds each request context with RequestTimeout.
//   - Mounts Swagger docs (/swagger/*any) and Prometheus (/metrics).
//   - Configures API v1 routes (/api/v1).
//
// Note:
//   - Health and readiness endpoints (/healthz, /readyz) are registered in app.InitializeApp().
//
// Parameters:
//   - handler (*Handler): The HTTP handler with business logic.
//   - opts (RouterOptions): timeouts and rate limits.
//
// Returns:
//   - *gin.Engine: Configured Gin router.
func NewRouter(handler *Handler, opts RouterOptions) *gin.Engine {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	router := gin.New()

	// ─── Middlewares ───────────────────────────────
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RecoveryMiddleware(),
		middleware.Metrics(),
		middleware.ErrorHandler,
		middleware.RateLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
	)

	// ─── Timeout ──────────────────────────────────
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), opts.RequestTimeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	// ─── Swagger & metrics ────────────────────────
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// ─── API v1 ───────────────────────────────────
	v1 := router.Group("/api/v1")
	{
		v1.GET("/tickers", handler.ListTickers)
		v1.GET("/quotes/:ticker", handler.GetQuotes)
		v1.GET("/metrics/:ticker", handler.GetMetrics)
		v1.GET("/statistics/:ticker", handler.GetStatistics)
	}

	return router
}
