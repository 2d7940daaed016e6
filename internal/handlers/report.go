// internal/handlers/report.go

package handlers

import (
	"context"
	"net/http"
	"time"

	"givebridge/internal/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type ReportHandler struct {
	reportCollection *mongo.Collection
	userCollection   *mongo.Collection
}

func NewReportHandler(reportCollection, userCollection *mongo.Collection) *ReportHandler {
	return &ReportHandler{
		reportCollection: reportCollection,
		userCollection:   userCollection,
	}
}

type CreateReportRequest struct {
	ReportedUserID string `json:"reported_user_id" binding:"required"`
	Reason         string `json:"reason" binding:"required,min=5,max=2000"`
}

// Create files a report against another user for admin review.
func (h *ReportHandler) Create(c *gin.Context) {
	reporterID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	reportedID, err := primitive.ObjectIDFromHex(req.ReportedUserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid reported_user_id",
		})
		return
	}

	if reportedID == reporterID {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "You cannot report yourself",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := h.userCollection.CountDocuments(ctx, bson.M{"_id": reportedID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Database error",
		})
		return
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Reported user not found",
		})
		return
	}

	now := time.Now()
	report := models.UserReport{
		ReportedUserID: reportedID,
		ReporterUserID: reporterID,
		Reason:         req.Reason,
		Status:         models.ReportStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	result, err := h.reportCollection.InsertOne(ctx, report)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error creating report",
		})
		return
	}
	report.ID = result.InsertedID.(primitive.ObjectID)

	c.JSON(http.StatusCreated, report)
}
