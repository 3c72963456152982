package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/b3cotahist/internal/metrics"
)

// Metrics records request latency per route template, so /quotes/PETR4 and
// /quotes/VALE3 share one series.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
