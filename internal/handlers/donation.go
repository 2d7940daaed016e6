// internal/handlers/donation.go

package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"givebridge/internal/models"
	"givebridge/internal/services"
	"givebridge/internal/storage"
	"givebridge/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	maxDonationImages    = 5
	maxDonationImageSize = 5 << 20 // 5 MB per image
)

type DonationHandler struct {
	donationCollection      *mongo.Collection
	pickupRequestCollection *mongo.Collection
	donationService         *services.DonationService
	storage                 *storage.Client
	publisher               services.ChangePublisher
	log                     *logrus.Logger
}

func NewDonationHandler(
	donationCollection, pickupRequestCollection *mongo.Collection,
	donationService *services.DonationService,
	storageClient *storage.Client,
	publisher services.ChangePublisher,
	log *logrus.Logger,
) *DonationHandler {
	return &DonationHandler{
		donationCollection:      donationCollection,
		pickupRequestCollection: pickupRequestCollection,
		donationService:         donationService,
		storage:                 storageClient,
		publisher:               publisher,
		log:                     log,
	}
}

type CreateDonationRequest struct {
	ItemName           string     `json:"item_name" binding:"required,min=2,max=100"`
	Description        string     `json:"description,omitempty" binding:"max=1000"`
	Category           string     `json:"category" binding:"required"`
	Quantity           string     `json:"quantity" binding:"required,max=50"`
	Location           string     `json:"location" binding:"required,max=200"`
	ExpiryTime         *time.Time `json:"expiry_time,omitempty"`
	AcceptanceDeadline *time.Time `json:"acceptance_deadline,omitempty"`
	Images             []string   `json:"images,omitempty"`
}

// DonationListItem is a donation enriched for the receiver's browse view.
type DonationListItem struct {
	models.Donation `bson:",inline"`
	DonorName       string `bson:"donor_name" json:"donor_name,omitempty"`
	RequestCount    int    `bson:"request_count" json:"request_count"`
	HasRequested    bool   `bson:"has_requested" json:"has_requested"`
	TimeRemaining   string `json:"time_remaining,omitempty"`
}

// Create registers a new donation owned by the calling donor.
func (h *DonationHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if !models.IsValidCategory(req.Category) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid category",
		})
		return
	}

	now := time.Now()
	if req.Category == models.CategoryFood {
		if req.ExpiryTime == nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Food donations require an expiry time",
			})
			return
		}
		if !req.ExpiryTime.After(now) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Expiry time must be in the future",
			})
			return
		}
	} else {
		// Perishability fields only apply to food
		req.ExpiryTime = nil
		req.AcceptanceDeadline = nil
	}

	if len(req.Images) > maxDonationImages {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Too many images",
		})
		return
	}

	donation := models.Donation{
		DonorID:            userID,
		ItemName:           req.ItemName,
		Description:        req.Description,
		Category:           req.Category,
		Quantity:           req.Quantity,
		Location:           req.Location,
		Status:             models.DonationStatusPending,
		ExpiryTime:         req.ExpiryTime,
		AcceptanceDeadline: req.AcceptanceDeadline,
		Images:             req.Images,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := validator.Validate(&donation); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid donation data",
			"details": err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := h.donationCollection.InsertOne(ctx, donation)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error creating donation",
		})
		return
	}
	donation.ID = result.InsertedID.(primitive.ObjectID)

	h.publisher.PublishChange("donations", "INSERT", bson.M{"id": donation.ID.Hex()})

	c.JSON(http.StatusCreated, donation)
}

// List returns pending donations for the browse view: donor name, request
// count, whether the caller already requested, and the perishable countdown.
func (h *DonationHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{"status": models.DonationStatusPending}
	if category := c.Query("category"); category != "" {
		if !models.IsValidCategory(category) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid category",
			})
			return
		}
		filter["category"] = category
	}

	pipeline := []bson.M{
		{"$match": filter},
		{"$sort": bson.M{"created_at": -1}},
		{"$limit": 100},
		{"$lookup": bson.M{
			"from":         "users",
			"localField":   "donor_id",
			"foreignField": "_id",
			"as":           "donor",
		}},
		{"$lookup": bson.M{
			"from":         "pickup_requests",
			"localField":   "_id",
			"foreignField": "donation_id",
			"as":           "requests",
		}},
		{"$addFields": bson.M{
			"donor_name": bson.M{"$concat": []interface{}{
				bson.M{"$ifNull": []interface{}{bson.M{"$first": "$donor.first_name"}, ""}},
				" ",
				bson.M{"$ifNull": []interface{}{bson.M{"$first": "$donor.last_name"}, ""}},
			}},
			"request_count": bson.M{"$size": "$requests"},
			"has_requested": bson.M{"$in": []interface{}{userID, "$requests.user_id"}},
		}},
		{"$project": bson.M{"donor": 0, "requests": 0}},
	}

	cursor, err := h.donationCollection.Aggregate(ctx, pipeline)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Database error",
		})
		return
	}

	items := []DonationListItem{}
	if err := cursor.All(ctx, &items); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error decoding donations",
		})
		return
	}

	now := time.Now()
	for i := range items {
		items[i].TimeRemaining = items[i].Donation.TimeRemaining(now)
	}

	c.JSON(http.StatusOK, gin.H{
		"donations": items,
		"count":     len(items),
	})
}

// Mine returns the caller's own donations with how many pickup requests are
// still waiting on each, newest first.
func (h *DonationHandler) Mine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pipeline := []bson.M{
		{"$match": bson.M{"donor_id": userID}},
		{"$sort": bson.M{"created_at": -1}},
		{"$lookup": bson.M{
			"from":         "pickup_requests",
			"localField":   "_id",
			"foreignField": "donation_id",
			"as":           "requests",
		}},
		{"$addFields": bson.M{
			"request_count": bson.M{"$size": "$requests"},
			"pending_request_count": bson.M{"$size": bson.M{
				"$filter": bson.M{
					"input": "$requests",
					"as":    "req",
					"cond":  bson.M{"$eq": []interface{}{"$$req.status", models.PickupStatusPending}},
				},
			}},
		}},
		{"$project": bson.M{"requests": 0}},
	}

	cursor, err := h.donationCollection.Aggregate(ctx, pipeline)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Database error",
		})
		return
	}

	type ownedDonation struct {
		models.Donation     `bson:",inline"`
		RequestCount        int `bson:"request_count" json:"request_count"`
		PendingRequestCount int `bson:"pending_request_count" json:"pending_request_count"`
	}

	donations := []ownedDonation{}
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

// Get returns a single donation.
func (h *DonationHandler) Get(c *gin.Context) {
	donationID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var donation models.Donation
	err := h.donationCollection.FindOne(ctx, bson.M{"_id": donationID}).Decode(&donation)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Donation not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Database error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"donation":       donation,
		"time_remaining": donation.TimeRemaining(time.Now()),
	})
}

type SelectRecipientRequest struct {
	RequestID string `json:"request_id" binding:"required"`
}

// SelectRecipient accepts one pickup request and rejects the rest. Only the
// owning donor may call it, on a still-pending donation.
func (h *DonationHandler) SelectRecipient(c *gin.Context) {
	donorID, ok := currentUserID(c)
	if !ok {
		return
	}

	donationID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var req SelectRecipientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	requestID, err := primitive.ObjectIDFromHex(req.RequestID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request_id",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	plan, err := h.donationService.SelectRecipient(ctx, donorID, donationID, requestID)
	if err != nil {
		h.writeWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Recipient selected successfully",
		"donation_id": plan.DonationID.Hex(),
		"receiver_id": plan.ReceiverID.Hex(),
		"pickup_time": plan.PickupTime,
	})
}

type UpdateStatusRequest struct {
	Action string `json:"action" binding:"required,oneof=received rejected"`
}

// UpdateStatus lets a receiver accept or reject a pending donation directly.
func (h *DonationHandler) UpdateStatus(c *gin.Context) {
	receiverID, ok := currentUserID(c)
	if !ok {
		return
	}

	donationID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	donation, err := h.donationService.DirectUpdateStatus(ctx, receiverID, donationID, req.Action == models.DonationStatusReceived)
	if err != nil {
		h.writeWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, donation)
}

// Delete removes the caller's donation with its requests and images.
func (h *DonationHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	donationID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var donation models.Donation
	err := h.donationCollection.FindOne(ctx, bson.M{"_id": donationID}).Decode(&donation)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Donation not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Database error",
		})
		return
	}

	if !donation.IsOwnedBy(userID) && currentUserRole(c) != string(models.RoleAdmin) {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "You can only delete your own donations",
		})
		return
	}

	if err := h.donationService.DeleteDonation(ctx, donationID); err != nil {
		h.writeWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Donation deleted successfully",
	})
}

// ListRequests returns the pickup requests for the caller's donation, joined
// with requester names for the selection view.
func (h *DonationHandler) ListRequests(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	donationID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var donation models.Donation
	err := h.donationCollection.FindOne(ctx, bson.M{"_id": donationID}).Decode(&donation)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Donation not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Database error",
		})
		return
	}

	if !donation.IsOwnedBy(userID) && currentUserRole(c) != string(models.RoleAdmin) {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "You can only view requests for your own donations",
		})
		return
	}

	pipeline := []bson.M{
		{"$match": bson.M{"donation_id": donationID}},
		{"$sort": bson.M{"created_at": 1}},
		{"$lookup": bson.M{
			"from":         "users",
			"localField":   "user_id",
			"foreignField": "_id",
			"as":           "requester",
		}},
		{"$addFields": bson.M{
			"first_name": bson.M{"$first": "$requester.first_name"},
			"last_name":  bson.M{"$first": "$requester.last_name"},
		}},
		{"$project": bson.M{"requester": 0}},
	}

	cursor, err := h.pickupRequestCollection.Aggregate(ctx, pipeline)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Database error",
		})
		return
	}

	requests := []models.PickupRequestWithProfile{}
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

// UploadImages stores donation images and returns their public URLs. The
// client attaches the URLs when creating the donation.
func (h *DonationHandler) UploadImages(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid multipart form",
		})
		return
	}

	files := form.File["images"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "At least one image is required",
		})
		return
	}
	if len(files) > maxDonationImages {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Too many images",
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	urls := make([]string, 0, len(files))
	for _, fileHeader := range files {
		if fileHeader.Size > maxDonationImageSize {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Image " + fileHeader.Filename + " is too large",
			})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Error reading image",
			})
			return
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Error reading image",
			})
			return
		}

		contentType := fileHeader.Header.Get("Content-Type")
		if contentType == "" {
			contentType = http.DetectContentType(data)
		}

		url, err := h.storage.Upload(ctx, storage.ObjectName("donations", fileHeader.Filename), data, contentType)
		if err != nil {
			h.log.WithError(err).Error("donation image upload failed")
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Error uploading image",
			})
			return
		}
		urls = append(urls, url)
	}

	c.JSON(http.StatusCreated, gin.H{
		"urls": urls,
	})
}

// writeWorkflowError maps service sentinel errors onto HTTP statuses.
func (h *DonationHandler) writeWorkflowError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Donation not found",
		})
	case errors.Is(err, services.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{
			"error": "You do not own this donation",
		})
	case errors.Is(err, services.ErrDonationNotPending):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Donation is no longer pending",
		})
	case errors.Is(err, services.ErrRequestNotPending):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Pickup request has already been decided",
		})
	case errors.Is(err, services.ErrRequestMismatch):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "Pickup request does not belong to this donation",
		})
	case errors.Is(err, services.ErrFoodExpired):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "This food donation has expired and can no longer be accepted",
			"code":  "expired",
		})
	case errors.Is(err, services.ErrDuplicateRequest):
		c.JSON(http.StatusConflict, gin.H{
			"error": "You have already requested this donation",
		})
	case errors.Is(err, services.ErrPickupTimeInPast):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Pickup time must be in the future",
		})
	default:
		h.log.WithError(err).Error("donation workflow error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}
