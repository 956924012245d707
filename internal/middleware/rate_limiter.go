package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	defaultRate  rate.Limit = 100
	defaultBurst            = 200
)

// RateLimiterConfig tunes the shared token bucket. Zero values fall
// back to the defaults above.
type RateLimiterConfig struct {
	Rate  rate.Limit
	Burst int
}

// RateLimiter applies one process-wide token bucket to every request.
// Per-client fairness is left to the edge proxy; this guards the
// database behind the API from request floods.
type RateLimiter struct {
	limiter *rate.Limiter
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = defaultRate
	}
	if config.Burst <= 0 {
		config.Burst = defaultBurst
	}
	return &RateLimiter{limiter: rate.NewLimiter(config.Rate, config.Burst)}
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiter.Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   gin.H{"message": "rate limit exceeded"},
			})
			return
		}
		c.Next()
	}
}
