package middleware

import (
	"fmt"
	"math"

	"github.com/gin-gonic/gin"

	"github.com/embassy-gov/portal-api/internal/ratelimit"
	"github.com/embassy-gov/portal-api/internal/service"
	appErrors "github.com/embassy-gov/portal-api/pkg/errors"
	"github.com/embassy-gov/portal-api/pkg/response"
)

// RateLimit guards a route with the fixed window limiter, keyed by client IP.
// The limit runs before any credential or payload handling.
func RateLimit(limiter *ratelimit.Limiter, action string, metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := limiter.Allow(c.Request.Context(), action, c.ClientIP())

		if res.Limit > 0 {
			c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", res.Limit))
			c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", res.Remaining))
			c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", res.ResetAt.Unix()))
		}

		if !res.Allowed {
			retryAfter := int(math.Ceil(res.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			metrics.ObserveRateLimited(action)
			response.Error(c, appErrors.Clone(appErrors.ErrRateLimited,
				fmt.Sprintf("too many requests, retry in %ds", retryAfter)))
			c.Abort()
			return
		}

		c.Next()
	}
}
