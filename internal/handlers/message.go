// internal/handlers/message.go

package handlers

import (
	"context"
	"net/http"
	"time"

	"givebridge/internal/models"
	"givebridge/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type MessageHandler struct {
	messageCollection *mongo.Collection
	userCollection    *mongo.Collection
	notifications     *services.NotificationService
	publisher         services.ChangePublisher
	log               *logrus.Logger
}

func NewMessageHandler(
	messageCollection, userCollection *mongo.Collection,
	notifications *services.NotificationService,
	publisher services.ChangePublisher,
	log *logrus.Logger,
) *MessageHandler {
	return &MessageHandler{
		messageCollection: messageCollection,
		userCollection:    userCollection,
		notifications:     notifications,
		publisher:         publisher,
		log:               log,
	}
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required,max=1000"`
}

// Send posts a message into the shared inbox. The sender's side is derived
// from their role, never from the request body.
func (h *MessageHandler) Send(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	role := currentUserRole(c)
	if role != string(models.RoleDonor) && role != string(models.RoleReceiver) {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Only donors and receivers can send messages",
		})
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	message := models.Message{
		UserID:    userID,
		UserType:  role,
		Content:   req.Content,
		IsRead:    false,
		CreatedAt: time.Now(),
	}

	result, err := h.messageCollection.InsertOne(ctx, message)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error sending message",
		})
		return
	}
	message.ID = result.InsertedID.(primitive.ObjectID)

	var sender models.User
	if err := h.userCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&sender); err == nil {
		message.SenderName = sender.GetFullName()
	}

	h.notifications.NotifyNewMessage(ctx, message.SenderName, role, req.Content)
	h.publisher.PublishChange("messages", "INSERT", bson.M{
		"id":        message.ID.Hex(),
		"user_type": role,
	})

	c.JSON(http.StatusCreated, message)
}

// Inbox returns the messages written by the caller's counterpart side,
// joined with sender names, newest first.
func (h *MessageHandler) Inbox(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	role := currentUserRole(c)
	if role != string(models.RoleDonor) && role != string(models.RoleReceiver) {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Only donors and receivers have an inbox",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pipeline := []bson.M{
		{"$match": bson.M{"user_type": models.CounterpartType(role)}},
		{"$sort": bson.M{"created_at": -1}},
		{"$limit": 200},
		{"$lookup": bson.M{
			"from":         "users",
			"localField":   "user_id",
			"foreignField": "_id",
			"as":           "sender",
		}},
		{"$addFields": bson.M{
			"sender_name": bson.M{"$concat": []interface{}{
				bson.M{"$ifNull": []interface{}{bson.M{"$first": "$sender.first_name"}, ""}},
				" ",
				bson.M{"$ifNull": []interface{}{bson.M{"$first": "$sender.last_name"}, ""}},
			}},
		}},
		{"$project": bson.M{"sender": 0}},
	}

	cursor, err := h.messageCollection.Aggregate(ctx, pipeline)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Database error",
		})
		return
	}

	type inboxMessage struct {
		models.Message `bson:",inline"`
		SenderName     string `bson:"sender_name" json:"sender_name,omitempty"`
	}

	messages := []inboxMessage{}
	if err := cursor.All(ctx, &messages); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error decoding messages",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"count":    len(messages),
	})
}

// MarkRead marks a single message as read.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	messageID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := h.messageCollection.UpdateOne(ctx,
		bson.M{"_id": messageID},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error updating message",
		})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Message not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Message marked as read",
	})
}

// UnreadCount returns how many counterpart messages are still unread.
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	role := currentUserRole(c)
	if role != string(models.RoleDonor) && role != string(models.RoleReceiver) {
		c.JSON(http.StatusOK, gin.H{"count": 0})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := h.messageCollection.CountDocuments(ctx, bson.M{
		"user_type": models.CounterpartType(role),
		"is_read":   false,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Database error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}
