package services

import (
	"context"
	"fmt"
	"time"

	"givebridge/internal/config"
	"givebridge/internal/models"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// NotificationService persists notifications and relays them, best-effort, to
// the configured push endpoint. A failed push never fails the caller; the
// stored row is the source of truth and clients pick it up over the realtime
// channel or on the next fetch.
type NotificationService struct {
	config                 *config.Config
	userCollection         *mongo.Collection
	notificationCollection *mongo.Collection
	httpClient             *resty.Client
	log                    *logrus.Logger
}

type pushMessage struct {
	UserID  string                 `json:"user_id"`
	Type    string                 `json:"type"`
	Title   string                 `json:"title"`
	Body    string                 `json:"body"`
	Data    map[string]interface{} `json:"data,omitempty"`
	TTLSecs int                    `json:"ttl_secs,omitempty"`
}

func NewNotificationService(cfg *config.Config, userCollection, notificationCollection *mongo.Collection, log *logrus.Logger) *NotificationService {
	return &NotificationService{
		config:                 cfg,
		userCollection:         userCollection,
		notificationCollection: notificationCollection,
		httpClient: resty.New().
			SetTimeout(30 * time.Second),
		log: log,
	}
}

// Send stores one notification for the user and relays it to the push
// endpoint when one is configured.
func (ns *NotificationService) Send(ctx context.Context, userID primitive.ObjectID, notificationType, title, message string, data map[string]interface{}) (*models.Notification, error) {
	now := time.Now()
	notification := models.Notification{
		UserID:    userID,
		Type:      notificationType,
		Title:     title,
		Message:   message,
		Data:      data,
		IsRead:    false,
		IsSent:    false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	result, err := ns.notificationCollection.InsertOne(ctx, notification)
	if err != nil {
		return nil, fmt.Errorf("failed to save notification: %w", err)
	}
	notification.ID = result.InsertedID.(primitive.ObjectID)

	if err := ns.push(ctx, &notification); err != nil {
		// Push delivery is best-effort; the stored row already carries it.
		ns.log.WithError(err).WithFields(logrus.Fields{
			"user_id": userID.Hex(),
			"type":    notificationType,
		}).Warn("push delivery failed")
		return &notification, nil
	}

	ns.markAsSent(ctx, notification.ID)
	notification.IsSent = true

	return &notification, nil
}

// SendToUsers stores the same notification for each user. Individual failures
// are logged and skipped, matching the fan-out semantics of Send.
func (ns *NotificationService) SendToUsers(ctx context.Context, userIDs []primitive.ObjectID, notificationType, title, message string, data map[string]interface{}) {
	for _, userID := range userIDs {
		if _, err := ns.Send(ctx, userID, notificationType, title, message, data); err != nil {
			ns.log.WithError(err).WithField("user_id", userID.Hex()).Warn("failed to store notification")
		}
	}
}

// SendToRole fans a notification out to every unblocked user with the role.
func (ns *NotificationService) SendToRole(ctx context.Context, role models.UserRole, notificationType, title, message string, data map[string]interface{}) error {
	cursor, err := ns.userCollection.Find(ctx, bson.M{
		"role":       role,
		"is_blocked": false,
	})
	if err != nil {
		return fmt.Errorf("failed to list %s users: %w", role, err)
	}
	defer cursor.Close(ctx)

	var userIDs []primitive.ObjectID
	for cursor.Next(ctx) {
		var user models.User
		if err := cursor.Decode(&user); err != nil {
			continue
		}
		userIDs = append(userIDs, user.ID)
	}

	ns.SendToUsers(ctx, userIDs, notificationType, title, message, data)
	return nil
}

// Typed helpers for the donation lifecycle

func (ns *NotificationService) NotifyPickupRequest(ctx context.Context, donorID primitive.ObjectID, itemName string, donationID primitive.ObjectID, pickupTime time.Time) {
	data := map[string]interface{}{
		"donation_id": donationID.Hex(),
		"pickup_time": pickupTime.Format(time.RFC3339),
	}

	title := "New pickup request"
	message := fmt.Sprintf("Someone wants to pick up \"%s\". Review the request to select a recipient.", itemName)

	if _, err := ns.Send(ctx, donorID, models.NotificationTypePickupRequest, title, message, data); err != nil {
		ns.log.WithError(err).Warn("failed to notify donor about pickup request")
	}
}

func (ns *NotificationService) NotifyRecipientSelected(ctx context.Context, receiverID primitive.ObjectID, itemName string, donationID primitive.ObjectID, pickupTime time.Time) {
	data := map[string]interface{}{
		"donation_id": donationID.Hex(),
		"pickup_time": pickupTime.Format(time.RFC3339),
	}

	title := "You've been selected!"
	message := fmt.Sprintf("Your pickup request for \"%s\" has been accepted by the donor.", itemName)

	if _, err := ns.Send(ctx, receiverID, models.NotificationTypeRecipientSelected, title, message, data); err != nil {
		ns.log.WithError(err).Warn("failed to notify selected recipient")
	}
}

func (ns *NotificationService) NotifyDonationDecision(ctx context.Context, donorID primitive.ObjectID, itemName string, donationID primitive.ObjectID, accepted bool) {
	data := map[string]interface{}{
		"donation_id": donationID.Hex(),
		"accepted":    accepted,
	}

	var notificationType, title, message string
	if accepted {
		notificationType = models.NotificationTypeDonationAccepted
		title = "Donation accepted"
		message = fmt.Sprintf("A receiver has accepted \"%s\".", itemName)
	} else {
		notificationType = models.NotificationTypeDonationRejected
		title = "Donation rejected"
		message = fmt.Sprintf("A receiver has declined \"%s\".", itemName)
	}

	if _, err := ns.Send(ctx, donorID, notificationType, title, message, data); err != nil {
		ns.log.WithError(err).Warn("failed to notify donor about decision")
	}
}

// NotifyNewMessage fans out to the counterpart side of the shared inbox.
func (ns *NotificationService) NotifyNewMessage(ctx context.Context, senderName, senderType, preview string) {
	counterpart := models.RoleDonor
	if senderType == models.MessageFromDonor {
		counterpart = models.RoleReceiver
	}

	if len(preview) > 50 {
		preview = preview[:50] + "..."
	}

	data := map[string]interface{}{
		"sender_type": senderType,
	}

	title := "New message"
	message := fmt.Sprintf("%s: %s", senderName, preview)

	if err := ns.SendToRole(ctx, counterpart, models.NotificationTypeMessageReceived, title, message, data); err != nil {
		ns.log.WithError(err).Warn("failed to notify about new message")
	}
}

// Internal helpers

func (ns *NotificationService) push(ctx context.Context, notification *models.Notification) error {
	if ns.config.PushEndpoint == "" {
		// No relay configured; nothing to deliver.
		return nil
	}

	message := pushMessage{
		UserID:  notification.UserID.Hex(),
		Type:    notification.Type,
		Title:   notification.Title,
		Body:    notification.Message,
		Data:    notification.Data,
		TTLSecs: 3600,
	}

	resp, err := ns.httpClient.R().
		SetContext(ctx).
		SetAuthToken(ns.config.PushKey).
		SetBody(message).
		Post(ns.config.PushEndpoint)
	if err != nil {
		return fmt.Errorf("failed to send push request: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("push request failed with status %d", resp.StatusCode())
	}

	return nil
}

func (ns *NotificationService) markAsSent(ctx context.Context, notificationID primitive.ObjectID) {
	ns.notificationCollection.UpdateOne(ctx, bson.M{"_id": notificationID}, bson.M{
		"$set": bson.M{"is_sent": true, "updated_at": time.Now()},
	})
}
