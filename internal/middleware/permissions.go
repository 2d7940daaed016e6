// internal/middleware/permissions.go

package middleware

import (
	"net/http"

	"givebridge/internal/models"

	"github.com/gin-gonic/gin"
)

// RequireRole creates a middleware allowing only the given roles through.
// Relies on AuthMiddleware having set user_role in the context.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleInterface, exists := c.Get("user_role")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "User not authenticated",
			})
			c.Abort()
			return
		}

		roleStr, ok := roleInterface.(string)
		if !ok || roleStr == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid user role",
			})
			c.Abort()
			return
		}

		userRole, valid := models.RoleFromString(roleStr)
		if !valid {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Invalid role",
			})
			c.Abort()
			return
		}

		hasRole := false
		for _, allowedRole := range roles {
			if userRole == models.UserRole(allowedRole) {
				hasRole = true
				break
			}
		}

		if !hasRole {
			c.JSON(http.StatusForbidden, gin.H{
				"error":          "Insufficient permissions",
				"required_roles": roles,
				"user_role":      roleStr,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireAdmin gates the admin route group.
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(string(models.RoleAdmin))
}
