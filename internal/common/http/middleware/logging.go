package middleware

import (
	"time"

	"github.com/kuntalKnight/cpftw-problems-service/pkg/utils/logger"
	"github.com/kuntalKnight/cpftw-problems-service/pkg/utils/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request after it completes.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(response.LoggerKey, log)
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.RequestURI()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		}
		if c.Writer.Status() >= 500 {
			log.Error(c.Request.Context(), "request completed", fields...)
			return
		}
		log.Info(c.Request.Context(), "request completed", fields...)
	}
}
