package middleware

import (
	"strconv"

	"github.com/kuntalKnight/cpftw-problems-service/internal/common/ratelimit"
	pkgerrors "github.com/kuntalKnight/cpftw-problems-service/pkg/errors"
	"github.com/kuntalKnight/cpftw-problems-service/pkg/utils/logger"
	"github.com/kuntalKnight/cpftw-problems-service/pkg/utils/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimitMiddleware limits requests per client IP and reports the window in
// RateLimit-* headers. When the limiter cannot decide the request is let through.
func RateLimitMiddleware(limiter ratelimit.Limiter, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		clientIP := c.ClientIP()
		result, err := limiter.Allow(c.Request.Context(), "ip:"+clientIP)
		if err != nil {
			log.Warn(c.Request.Context(), "rate limit check failed", zap.String("client_ip", clientIP), zap.Error(err))
			c.Next()
			return
		}
		if result.Limit > 0 {
			header := c.Writer.Header()
			header.Set("RateLimit-Limit", strconv.Itoa(result.Limit))
			header.Set("RateLimit-Remaining", strconv.Itoa(result.Remaining))
			header.Set("RateLimit-Reset", strconv.Itoa(int(result.ResetAfter.Seconds())))
		}
		if !result.Allowed {
			response.AbortWithErrorCode(c, pkgerrors.TooManyRequests, "")
			return
		}
		c.Next()
	}
}
