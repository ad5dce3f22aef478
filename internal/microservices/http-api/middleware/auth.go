package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"yamdb/internal/authz"
	"yamdb/internal/logging"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
)

const userKey = "user"

// Authenticator resolves a bearer token to the current user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// Authenticate reads an optional "Authorization: Bearer <token>" header.
// Requests without the header continue as anonymous; a present but invalid
// token is rejected with 401. The user row is loaded on every request so role
// changes apply immediately.
func Authenticate(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2) // 0 is Bearer, 1 is token
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid authorization header format"})
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid token"})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// CurrentUser returns the authenticated user, if any.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// RoleOf returns the authorization subject for the request.
func RoleOf(c *gin.Context) string {
	if user, ok := CurrentUser(c); ok {
		return string(user.EffectiveRole())
	}
	return authz.RoleAnonymous
}

// Authorize enforces the coarse role x resource x action policy. Ownership
// is decided later, once the object is loaded. Anonymous callers get 401,
// authenticated ones 403.
func Authorize(policy *authz.Policy, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := policy.Permits(RoleOf(c), resource, action)
		if err != nil {
			logging.Ctx(c.Request.Context()).Error().Err(err).Msg("authorization error")
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
			return
		}
		if allowed {
			c.Next()
			return
		}

		if _, ok := CurrentUser(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "authentication credentials were not provided"})
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{Error: authz.ErrForbidden.Error()})
	}
}
