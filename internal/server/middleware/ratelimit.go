package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"carelink/backend/internal/ratelimit"
	"carelink/backend/internal/server/respond"
)

// RateLimit returns middleware that enforces the per-IP limit for the given
// class. Denied requests get 429 with a Retry-After header in whole seconds,
// rounded up so clients never retry early.
func RateLimit(limiter ratelimit.Limiter, class ratelimit.Class) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := limiter.Check("ip:"+c.ClientIP(), class)
		if d.Allowed {
			c.Next()
			return
		}
		seconds := int64(d.RetryAfter / time.Second)
		if d.RetryAfter%time.Second != 0 {
			seconds++
		}
		if seconds < 1 {
			seconds = 1
		}
		c.Header("Retry-After", strconv.FormatInt(seconds, 10))
		respond.Error(c, http.StatusTooManyRequests, respond.CodeRateLimited, "too many requests, retry later")
	}
}
