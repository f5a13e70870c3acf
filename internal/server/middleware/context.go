package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"auth-core/internal/auth/service"
)

const identityKey = "authcore.identity"

type contextKey struct{ name string }

var clientIPKey = contextKey{"client_ip"}

// SetIdentity stores the resolved caller identity on the gin context and on
// the request context so non-HTTP layers can read it too.
func SetIdentity(c *gin.Context, id *service.Identity) {
	c.Set(identityKey, id)
}

// GetIdentity returns the caller identity set by the auth middleware and true
// if present.
func GetIdentity(c *gin.Context) (*service.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*service.Identity)
	return id, ok
}

// WithClientIP returns a context carrying the client IP for audit recording.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIP returns the client IP stored by the request middleware, or
// "unknown" when absent. Satisfies audit.IPExtractor.
func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey).(string); ok && v != "" {
		return v
	}
	return "unknown"
}
