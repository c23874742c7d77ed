package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"healthhive/internal/auth"
)

const (
	userIDKey   = "userID"
	userRoleKey = "userRole"
)

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// AuthMiddleware validates the access token and injects userID and userRole
// into the context. Requests without a valid token are rejected.
func AuthMiddleware(authService *auth.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken := bearerToken(c)
		if rawToken == "" {
			abortUnauthorized(c)
			return
		}

		claims, err := authService.ValidateToken(rawToken)
		if err != nil || claims.TokenType != "access" {
			abortUnauthorized(c)
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(userRoleKey, claims.Role)
		c.Next()
	}
}

// OptionalAuthMiddleware injects the caller's identity when a valid access
// token is present and continues anonymously otherwise. List endpoints are
// public but their visibility rules depend on whether the caller is an admin.
func OptionalAuthMiddleware(authService *auth.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken := bearerToken(c)
		if rawToken != "" {
			if claims, err := authService.ValidateToken(rawToken); err == nil && claims.TokenType == "access" {
				c.Set(userIDKey, claims.UserID)
				c.Set(userRoleKey, claims.Role)
			}
		}
		c.Next()
	}
}

// RequireRole gates a route group on an exact role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, ok := c.Get(userRoleKey)
		if !ok {
			abortUnauthorized(c)
			return
		}
		if current, ok := value.(string); !ok || current != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "error": "insufficient role"})
			return
		}
		c.Next()
	}
}

// CallerRole returns the caller's role, empty for anonymous requests.
func CallerRole(c *gin.Context) string {
	if value, ok := c.Get(userRoleKey); ok {
		if role, ok := value.(string); ok {
			return role
		}
	}
	return ""
}
