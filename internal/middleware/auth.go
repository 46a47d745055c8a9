package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quickbite/storefront-api/internal/handler"
	"github.com/quickbite/storefront-api/internal/model"
	"github.com/quickbite/storefront-api/internal/service/authz"
	"github.com/quickbite/storefront-api/pkg/auth"
)

const ContextSession = "session"

type AuthMiddleware struct {
	verifier auth.TokenVerifier
	authz    *authz.Service
}

func NewAuthMiddleware(verifier auth.TokenVerifier, authzSvc *authz.Service) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		authz:    authzSvc,
	}
}

// Authenticate verifies the bearer token and stores the caller's
// session in the gin context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			c.Abort()
			return
		}

		claims, err := m.verifier.Verify(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		c.Set(ContextSession, model.Session{UserID: claims.UserID, Email: claims.Email})
		c.Next()
	}
}

// RequireRole rejects callers that hold none of the given roles.
// Handlers still re-check through the services; this is an early gate
// for whole route groups.
func (m *AuthMiddleware) RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := SessionFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("not authenticated"))
			c.Abort()
			return
		}

		if err := m.authz.Require(c.Request.Context(), session, roles...); err != nil {
			c.Error(err)
			c.Abort()
			return
		}

		c.Next()
	}
}

// SessionFrom extracts the authenticated session set by Authenticate.
func SessionFrom(c *gin.Context) (model.Session, bool) {
	v, ok := c.Get(ContextSession)
	if !ok {
		return model.Session{}, false
	}
	session, ok := v.(model.Session)
	return session, ok
}
