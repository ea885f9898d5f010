package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/seathold/api/internal/service"
	"github.com/seathold/api/pkg/response"
)

// Auth validates the bearer token and sets user claims in the context
func Auth(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header is required", "")
			c.Abort()
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid authorization header format", "")
			c.Abort()
			return
		}
		token := authHeader[len(bearerPrefix):]

		claims, err := auth.ValidateToken(token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token", "")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// RequireAdmin rejects requests whose token does not carry the admin role.
// It must run after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != "ADMIN" {
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Admin access required", "")
			c.Abort()
			return
		}
		c.Next()
	}
}
