package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/b3cotahist/config"
	"github.com/guttosm/b3cotahist/internal/api"
	"github.com/guttosm/b3cotahist/internal/metrics"
	"github.com/guttosm/b3cotahist/internal/service"
	"github.com/guttosm/b3cotahist/internal/storage"
)

// InitializeApp wires the read-only dashboard API and returns a configured
// Gin router, a cleanup function for graceful shutdown, and any error
// encountered during initialization.
//
// Responsibilities:
//   - Connects to PostgreSQL.
//   - Builds repository, dashboard service and HTTP handler.
//   - Configures the router and registers health and readiness probes.
//
// Returns:
//   - *gin.Engine: the configured Gin HTTP router.
//   - func(): cleanup function to be executed on shutdown.
//   - error: any initialization error that occurred.
func InitializeApp(ctx context.Context) (*gin.Engine, func(), error) {
	cfg := config.AppConfig

	db, err := postgresOpener(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	metrics.Init()

	repo := storage.NewQuotesRepository(db)
	svc := service.NewDashboardService(repo)
	handler := api.NewHandler(svc)

	router := api.NewRouter(handler, api.RouterOptions{
		RequestTimeout: cfg.Server.RequestTimeout,
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
	})

	api.NewHealthHandler(db.PingContext).Register(router)

	cleanup := func() {
		_ = db.Close()
	}
	return router, cleanup, nil
}
