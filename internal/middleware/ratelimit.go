package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit returns per-caller rate limiting middleware using token buckets.
// Callers are identified by the API key set by the auth middleware, or by
// client IP when auth is open. Each caller's bucket fills at rps tokens/sec
// up to burst; an empty bucket means 429. rps <= 0 disables limiting.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	return func(c *gin.Context) {
		if rps <= 0 {
			c.Next()
			return
		}

		caller := c.GetString(ContextKeyAPIKey)
		if caller == "" {
			caller = "ip:" + c.ClientIP()
		}

		mu.Lock()
		limiter, exists := limiters[caller]
		if !exists {
			limiter = rate.NewLimiter(rate.Limit(rps), burst)
			limiters[caller] = limiter
		}
		mu.Unlock()

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}
