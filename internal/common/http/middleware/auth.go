package middleware

import (
	"net/http"
	"strings"

	"github.com/kuntalKnight/cpftw-problems-service/internal/common/auth"
	pkgerrors "github.com/kuntalKnight/cpftw-problems-service/pkg/errors"
	"github.com/kuntalKnight/cpftw-problems-service/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

type AuthPolicy struct {
	Enabled bool     `yaml:"enabled"`
	Roles   []string `yaml:"roles"`
}

// AuthMiddleware requires a valid bearer token and, when roles are configured, one of those roles.
func AuthMiddleware(authenticator auth.Authenticator, policy AuthPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !policy.Enabled {
			c.Next()
			return
		}
		if authenticator == nil {
			response.AbortWithErrorCode(c, pkgerrors.ServiceUnavailable, "auth service unavailable")
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.AbortWithEnvelope(c, response.NewUnauthorized("Authorization header is required"))
			return
		}
		token := extractBearerToken(authHeader)
		if token == "" {
			response.AbortWithEnvelope(c, response.NewFailure(http.StatusUnauthorized, pkgerrors.TokenInvalid.Name(), "Invalid token format"))
			return
		}

		identity, err := authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.AbortWithError(c, err)
			return
		}
		if len(policy.Roles) > 0 && !hasRole(identity.Role, policy.Roles) {
			response.AbortWithErrorCode(c, pkgerrors.Forbidden, "insufficient role")
			return
		}

		setUser(c, identity.Subject, identity.Role)
		c.Next()
	}
}

func extractBearerToken(authHeader string) string {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func hasRole(role string, allowed []string) bool {
	for _, item := range allowed {
		if strings.EqualFold(role, item) {
			return true
		}
	}
	return false
}
