// internal/handlers/profile.go

package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"givebridge/internal/models"
	"givebridge/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const maxAvatarSize = 5 << 20 // 5 MB

type ProfileHandler struct {
	userCollection *mongo.Collection
	storage        *storage.Client
	log            *logrus.Logger
}

func NewProfileHandler(userCollection *mongo.Collection, storageClient *storage.Client, log *logrus.Logger) *ProfileHandler {
	return &ProfileHandler{
		userCollection: userCollection,
		storage:        storageClient,
		log:            log,
	}
}

// GetMe returns the current user's profile.
func (h *ProfileHandler) GetMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := h.userCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Database error",
		})
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateMe updates profile fields. Identity and lifecycle fields are stripped
// from the patch; they have their own endpoints.
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	delete(updates, "_id")
	delete(updates, "email")
	delete(updates, "password_hash")
	delete(updates, "role")
	delete(updates, "is_blocked")
	delete(updates, "created_at")

	updates["updated_at"] = time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := h.userCollection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": updates},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error updating profile",
		})
		return
	}

	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "User not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
	})
}

// UploadAvatar replaces the user's avatar image.
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Avatar file is required",
		})
		return
	}
	if fileHeader.Size > maxAvatarSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Avatar file is too large",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error reading avatar file",
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error reading avatar file",
		})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var user models.User
	if err := h.userCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "User not found",
		})
		return
	}

	objectPath := storage.ObjectName("avatars", fileHeader.Filename)
	avatarURL, err := h.storage.Upload(ctx, objectPath, data, contentType)
	if err != nil {
		h.log.WithError(err).Error("avatar upload failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error uploading avatar",
		})
		return
	}

	_, err = h.userCollection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{
			"avatar_url": avatarURL,
			"updated_at": time.Now(),
		}},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error saving avatar",
		})
		return
	}

	// Drop the previous avatar object, best-effort
	if oldPath := storage.ExtractPath(user.AvatarURL); oldPath != "" {
		if err := h.storage.Remove(ctx, []string{oldPath}); err != nil {
			h.log.WithError(err).Warn("failed to remove previous avatar")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"avatar_url": avatarURL,
	})
}

// GetContact returns the public contact card of another user. Used by matched
// parties to coordinate a pickup.
func (h *ProfileHandler) GetContact(c *gin.Context) {
	targetID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user models.User
	err := h.userCollection.FindOne(ctx, bson.M{"_id": targetID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Database error",
		})
		return
	}

	c.JSON(http.StatusOK, user.ToContactCard())
}
