package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// currentUserID reads the authenticated user's id set by the auth middleware.
// Writes a 401 and returns false when the request carries no valid identity.
func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return primitive.NilObjectID, false
	}

	objectID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid user ID",
		})
		return primitive.NilObjectID, false
	}

	return objectID, true
}

// currentUserRole reads the authenticated user's role from the context.
func currentUserRole(c *gin.Context) string {
	role, exists := c.Get("user_role")
	if !exists {
		return ""
	}
	roleStr, _ := role.(string)
	return roleStr
}

// pathObjectID parses an ObjectID path parameter, writing a 400 on failure.
func pathObjectID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	objectID, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name,
		})
		return primitive.NilObjectID, false
	}
	return objectID, true
}
