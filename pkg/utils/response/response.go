package response

import (
	"net/http"

	"github.com/kuntalKnight/cpftw-problems-service/pkg/errors"
	"github.com/kuntalKnight/cpftw-problems-service/pkg/utils/contextkey"
	"github.com/kuntalKnight/cpftw-problems-service/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LoggerKey is the gin context key holding the request-scoped *logger.Logger.
const LoggerKey = "logger"

// JSON writes the envelope with its own status code.
func JSON(c *gin.Context, env Envelope) {
	if env.TraceID == "" {
		env.TraceID = getTraceID(c)
	}
	c.JSON(env.StatusCode, env)
}

// Error logs err and writes its envelope. Uncoded errors become 500s.
func Error(c *gin.Context, err error) {
	customErr := errors.GetError(err)
	logError(c, customErr)
	JSON(c, FromError(customErr))
}

// ErrorWithCode writes an error with code; an empty message uses the code's default.
func ErrorWithCode(c *gin.Context, code errors.ErrorCode, message string) {
	if message == "" {
		message = code.Message()
	}
	Error(c, errors.New(code).WithMessage(message))
}

// AbortWithError aborts the request and sends error response
func AbortWithError(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// AbortWithErrorCode aborts the request with error code
func AbortWithErrorCode(c *gin.Context, code errors.ErrorCode, message string) {
	ErrorWithCode(c, code, message)
	c.Abort()
}

// AbortWithEnvelope aborts the request with a prepared envelope.
func AbortWithEnvelope(c *gin.Context, env Envelope) {
	JSON(c, env)
	c.Abort()
}

func logError(c *gin.Context, customErr *errors.Error) {
	log := requestLogger(c)
	fields := []zap.Field{
		zap.Int("code", int(customErr.Code)),
		zap.String("message", customErr.Error()),
	}
	if customErr.Code.HTTPStatus() >= http.StatusInternalServerError {
		fields = append(fields, zap.NamedError("cause", customErr.Unwrap()), zap.String("stack", customErr.Stack))
		log.Error(c.Request.Context(), "request error", fields...)
		return
	}
	log.Warn(c.Request.Context(), "request rejected", fields...)
}

func requestLogger(c *gin.Context) *logger.Logger {
	if value, ok := c.Get(LoggerKey); ok {
		if log, ok := value.(*logger.Logger); ok {
			return log
		}
	}
	return logger.GetLogger()
}

func getTraceID(c *gin.Context) string {
	if traceID := c.GetString("trace_id"); traceID != "" {
		return traceID
	}
	return contextkey.String(c.Request.Context(), contextkey.TraceID)
}
