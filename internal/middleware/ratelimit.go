package middleware

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/bk001juma/api-matengenezo/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// Checker is implemented by ratelimit.Limiter.
type Checker interface {
	Check(ctx context.Context, clientID, action string) (*ratelimit.CheckResult, error)
}

// RateLimit limits action per authenticated user. A nil checker or a
// counter failure lets the request through.
func RateLimit(checker Checker, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if checker == nil {
			c.Next()
			return
		}

		clientID := strconv.FormatInt(UserID(c), 10)
		if _, ok := c.Get(UserIDKey); !ok {
			clientID = "ip:" + c.ClientIP()
		}

		res, err := checker.Check(c.Request.Context(), clientID, action)
		if err != nil {
			log.Printf("Warning: rate limit check failed for %s: %v", action, err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt, 10))

		if !res.Allowed {
			rateLimitedTotal.WithLabelValues(action).Inc()
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			c.Abort()
			return
		}
		c.Next()
	}
}
