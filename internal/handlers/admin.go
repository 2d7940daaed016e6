// internal/handlers/admin.go

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
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AdminHandler struct {
	userCollection     *mongo.Collection
	donationCollection *mongo.Collection
	reportCollection   *mongo.Collection
	donationService    *services.DonationService
	log                *logrus.Logger
}

func NewAdminHandler(
	userCollection, donationCollection, reportCollection *mongo.Collection,
	donationService *services.DonationService,
	log *logrus.Logger,
) *AdminHandler {
	return &AdminHandler{
		userCollection:     userCollection,
		donationCollection: donationCollection,
		reportCollection:   reportCollection,
		donationService:    donationService,
		log:                log,
	}
}

// ListDonations returns all donations joined with donor and receiver names
// for the moderation table. Supports an optional status filter.
func (h *AdminHandler) ListDonations(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if status := c.Query("status"); status != "" {
		if !models.IsValidDonationStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid status",
			})
			return
		}
		filter["status"] = status
	}

	pipeline := []bson.M{
		{"$match": filter},
		{"$sort": bson.M{"created_at": -1}},
		{"$limit": 200},
		{"$lookup": bson.M{
			"from":         "users",
			"localField":   "donor_id",
			"foreignField": "_id",
			"as":           "donor",
		}},
		{"$lookup": bson.M{
			"from":         "users",
			"localField":   "receiver_id",
			"foreignField": "_id",
			"as":           "receiver",
		}},
		{"$addFields": bson.M{
			"donor_name": bson.M{"$concat": []interface{}{
				bson.M{"$ifNull": []interface{}{bson.M{"$first": "$donor.first_name"}, ""}},
				" ",
				bson.M{"$ifNull": []interface{}{bson.M{"$first": "$donor.last_name"}, ""}},
			}},
			"receiver_name": bson.M{"$concat": []interface{}{
				bson.M{"$ifNull": []interface{}{bson.M{"$first": "$receiver.first_name"}, ""}},
				" ",
				bson.M{"$ifNull": []interface{}{bson.M{"$first": "$receiver.last_name"}, ""}},
			}},
		}},
		{"$project": bson.M{"donor": 0, "receiver": 0}},
	}

	cursor, err := h.donationCollection.Aggregate(ctx, pipeline)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Database error",
		})
		return
	}

	type adminDonation struct {
		models.Donation `bson:",inline"`
		DonorName       string `bson:"donor_name" json:"donor_name,omitempty"`
		ReceiverName    string `bson:"receiver_name" json:"receiver_name,omitempty"`
	}

	donations := []adminDonation{}
	if err := cursor.All(ctx, &donations); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error decoding donations",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"donations": donations,
		"count":     len(donations),
	})
}

// DeleteDonation removes any donation with its requests and images.
func (h *AdminHandler) DeleteDonation(c *gin.Context) {
	donationID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := h.donationService.DeleteDonation(ctx, donationID)
	if err == services.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Donation not found",
		})
		return
	}
	if err != nil {
		h.log.WithError(err).Error("admin donation delete failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error deleting donation",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Donation deleted successfully",
	})
}

// ListReports returns user reports with both profiles attached.
func (h *AdminHandler) ListReports(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if status := c.Query("status"); status != "" {
		if !models.IsValidReportStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid status",
			})
			return
		}
		filter["status"] = status
	}

	opts := options.Find().SetSort(bson.M{"created_at": -1}).SetLimit(200)
	cursor, err := h.reportCollection.Find(ctx, filter, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Database error",
		})
		return
	}

	reports := []models.UserReportWithProfiles{}
	if err := cursor.All(ctx, &reports); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error decoding reports",
		})
		return
	}

	// Attach the two profiles per report; the volume is small enough that
	// per-row lookups are fine here.
	for i := range reports {
		var reported, reporter models.User
		if err := h.userCollection.FindOne(ctx, bson.M{"_id": reports[i].ReportedUserID}).Decode(&reported); err == nil {
			card := reported.ToContactCard()
			reports[i].ReportedUser = &card
		}
		if err := h.userCollection.FindOne(ctx, bson.M{"_id": reports[i].ReporterUserID}).Decode(&reporter); err == nil {
			card := reporter.ToContactCard()
			reports[i].ReporterUser = &card
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"reports": reports,
		"count":   len(reports),
	})
}

type UpdateReportStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateReportStatus moves a report through the review lifecycle.
func (h *AdminHandler) UpdateReportStatus(c *gin.Context) {
	reportID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var req UpdateReportStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if !models.IsValidReportStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid status",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := h.reportCollection.UpdateOne(ctx,
		bson.M{"_id": reportID},
		bson.M{"$set": bson.M{
			"status":     req.Status,
			"updated_at": time.Now(),
		}},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error updating report",
		})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Report not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Report status updated",
	})
}

// SetUserBlocked blocks or unblocks a user account.
func (h *AdminHandler) SetUserBlocked(c *gin.Context) {
	targetID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	type BlockRequest struct {
		Blocked bool `json:"blocked"`
	}
	var req BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := h.userCollection.UpdateOne(ctx,
		bson.M{"_id": targetID},
		bson.M{"$set": bson.M{
			"is_blocked": req.Blocked,
			"updated_at": time.Now(),
		}},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error updating user",
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
		"message": "User updated",
		"blocked": req.Blocked,
	})
}

// Stats returns platform-wide counters for the admin dashboard.
func (h *AdminHandler) Stats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pipeline := []bson.M{
		{"$group": bson.M{
			"_id":   "$status",
			"count": bson.M{"$sum": 1},
		}},
	}

	cursor, err := h.donationCollection.Aggregate(ctx, pipeline)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Database error",
		})
		return
	}

	type statusCount struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	counts := []statusCount{}
	if err := cursor.All(ctx, &counts); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error decoding stats",
		})
		return
	}

	donationStats := gin.H{
		models.DonationStatusPending:  int64(0),
		models.DonationStatusReceived: int64(0),
		models.DonationStatusRejected: int64(0),
	}
	var total int64
	for _, sc := range counts {
		donationStats[sc.Status] = sc.Count
		total += sc.Count
	}

	categoryCursor, err := h.donationCollection.Aggregate(ctx, []bson.M{
		{"$group": bson.M{
			"_id":   "$category",
			"count": bson.M{"$sum": 1},
		}},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Database error",
		})
		return
	}

	type categoryCount struct {
		Category string `bson:"_id"`
		Count    int64  `bson:"count"`
	}
	categoryCounts := []categoryCount{}
	if err := categoryCursor.All(ctx, &categoryCounts); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error decoding stats",
		})
		return
	}

	categoryStats := gin.H{}
	for _, cc := range categoryCounts {
		categoryStats[cc.Category] = cc.Count
	}

	userCount, err := h.userCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Database error",
		})
		return
	}

	pendingReports, err := h.reportCollection.CountDocuments(ctx, bson.M{
		"status": models.ReportStatusPending,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Database error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"donations": gin.H{
			"total":       total,
			"by_status":   donationStats,
			"by_category": categoryStats,
		},
		"users":           userCount,
		"pending_reports": pendingReports,
	})
}
