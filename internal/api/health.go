package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// readyTimeout bounds the readiness dependency check.
const readyTimeout = 2 * time.Second

// HealthHandler provides liveness and readiness endpoints.
//
// Responsibilities:
//   - /healthz: liveness probe, always 200.
//   - /readyz: readiness probe, depends on database connectivity.
type HealthHandler struct {
	dbPing func(ctx context.Context) error
}

// NewHealthHandler constructs a HealthHandler.
//
// Parameters:
//   - dbPing: checks the database is reachable, typically db.PingContext.
//     nil means there is nothing to check.
//
// Returns:
//   - *HealthHandler: A new handler instance.
func NewHealthHandler(dbPing func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{dbPing: dbPing}
}

// Register mounts /healthz and /readyz on r.
func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/healthz", h.Live)
	r.GET("/readyz", h.Ready)
}

// Live godoc
// @Summary      Liveness probe
// @Description  Always returns OK if the service is running
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /healthz [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready godoc
// @Summary      Readiness probe
// @Description  Returns ready if the database is reachable
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /readyz [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.dbPing != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		defer cancel()
		if err := h.dbPing(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
