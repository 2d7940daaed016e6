// internal/handlers/pickup_request.go

package handlers

import (
	"context"
	"net/http"
	"time"

	"givebridge/internal/models"
	"givebridge/internal/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PickupRequestHandler struct {
	pickupRequestCollection *mongo.Collection
	donationService         *services.DonationService
	donationHandler         *DonationHandler
}

func NewPickupRequestHandler(pickupRequestCollection *mongo.Collection, donationService *services.DonationService, donationHandler *DonationHandler) *PickupRequestHandler {
	return &PickupRequestHandler{
		pickupRequestCollection: pickupRequestCollection,
		donationService:         donationService,
		donationHandler:         donationHandler,
	}
}

type CreatePickupRequestRequest struct {
	PickupTime time.Time `json:"pickup_time" binding:"required"`
}

// Create files a pickup request for the pending donation in the path. One
// request per donation per user.
func (h *PickupRequestHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	donationID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var req CreatePickupRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	request, err := h.donationService.CreatePickupRequest(ctx, userID, donationID, req.PickupTime)
	if err != nil {
		h.donationHandler.writeWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusCreated, request)
}

// Mine returns the caller's pickup requests, newest first.
func (h *PickupRequestHandler) Mine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := h.pickupRequestCollection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Database error",
		})
		return
	}

	requests := []models.PickupRequest{}
	if err := cursor.All(ctx, &requests); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error decoding requests",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
		"count":    len(requests),
	})
}
