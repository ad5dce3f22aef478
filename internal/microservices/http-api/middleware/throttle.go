package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"yamdb/internal/logging"
	"yamdb/internal/metrics"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/throttle"
)

// Throttle applies limiter to authenticated callers under scope. Anonymous
// requests pass through; limiter failures fail open.
func Throttle(limiter throttle.Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.Next()
			return
		}

		decision, err := limiter.Allow(c.Request.Context(), throttle.Key(scope, user.ID))
		if err != nil {
			logging.Ctx(c.Request.Context()).Warn().Err(err).Str("scope", scope).Msg("throttle backend error, allowing request")
			c.Next()
			return
		}
		if decision.Allowed {
			c.Next()
			return
		}

		metrics.ThrottledRequests.WithLabelValues(scope).Inc()
		seconds := int(math.Ceil(decision.RetryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(seconds))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{
			Error: "request was throttled, expected available in " + strconv.Itoa(seconds) + " seconds",
		})
	}
}
