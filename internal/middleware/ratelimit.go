package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/guttosm/b3cotahist/internal/domain/dto"
)

// idleTTL is how long an unseen client keeps its limiter.
const idleTTL = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests per client IP with a token bucket.
//
// Behavior:
//   - Each IP gets rps tokens per second with the given burst.
//   - Limiters idle longer than idleTTL are evicted on the next sweep.
//   - When the bucket is empty the request is rejected with 429.
//   - A non-positive rps disables limiting.
//
// Usage:
//
//	router := gin.New()
//	router.Use(middleware.RateLimiter(10, 20))
func RateLimiter(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst < 1 {
		burst = 1
	}

	var (
		mu        sync.Mutex
		visitors  = make(map[string]*visitor)
		lastSweep = time.Now()
	)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		mu.Lock()
		if now.Sub(lastSweep) > idleTTL {
			for k, v := range visitors {
				if now.Sub(v.lastSeen) > idleTTL {
					delete(visitors, k)
				}
			}
			lastSweep = now
		}
		v, ok := visitors[ip]
		if !ok {
			v = &visitor{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
			visitors[ip] = v
		}
		v.lastSeen = now
		allowed := v.limiter.AllowN(now, 1)
		mu.Unlock()

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponse("rate limit exceeded", nil))
			return
		}
		c.Next()
	}
}
