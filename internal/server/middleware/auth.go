package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"auth-core/internal/auth/service"
	"auth-core/internal/metrics"
)

const bearerPrefix = "bearer "

// Authorizer resolves a presented access token to an identity.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (*service.Identity, error)
}

// RequireAuth validates the Bearer access token and stores the identity on
// the context. Requests without a valid token get 401 with the generic
// invalid-token message regardless of the failure kind.
func RequireAuth(auth Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid authorization"})
			return
		}
		id, err := auth.Authorize(c.Request.Context(), token)
		if err != nil {
			metrics.TokenVerifications.WithLabelValues("invalid").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid authorization"})
			return
		}
		metrics.TokenVerifications.WithLabelValues("ok").Inc()
		SetIdentity(c, id)
		c.Next()
	}
}

// extractBearer returns the Bearer token from an Authorization header value,
// or "" if missing or malformed.
func extractBearer(header string) string {
	v := strings.TrimSpace(header)
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
