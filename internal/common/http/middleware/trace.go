package middleware

import (
	"context"
	"strings"

	"github.com/kuntalKnight/cpftw-problems-service/pkg/utils/contextkey"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	TraceIDHeader   = "X-Trace-Id"
	RequestIDHeader = "X-Request-Id"

	traceIDContextKey   = "trace_id"
	requestIDContextKey = "request_id"
	userIDContextKey    = "user_id"
	userRoleContextKey  = "user_role"
)

// TraceMiddleware makes sure every request carries a trace id and a request id.
// Incoming ids are reused; a missing request id falls back to the trace id.
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := strings.TrimSpace(c.GetHeader(TraceIDHeader))
		if traceID == "" {
			traceID = uuid.NewString()
		}
		requestID := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if requestID == "" {
			requestID = traceID
		}

		c.Set(traceIDContextKey, traceID)
		c.Set(requestIDContextKey, requestID)
		ctx := context.WithValue(c.Request.Context(), contextkey.TraceID, traceID)
		ctx = context.WithValue(ctx, contextkey.RequestID, requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Writer.Header().Set(TraceIDHeader, traceID)
		c.Writer.Header().Set(RequestIDHeader, requestID)
		c.Next()
	}
}

func setUser(c *gin.Context, subject, role string) {
	c.Set(userIDContextKey, subject)
	c.Set(userRoleContextKey, role)
	ctx := context.WithValue(c.Request.Context(), contextkey.UserID, subject)
	ctx = context.WithValue(ctx, contextkey.UserRole, role)
	c.Request = c.Request.WithContext(ctx)
}
