package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Notification struct {
	ID        primitive.ObjectID     `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    primitive.ObjectID     `bson:"user_id" json:"user_id"`
	Type      string                 `bson:"type" json:"type"`
	Title     string                 `bson:"title" json:"title"`
	Message   string                 `bson:"message" json:"message"`
	Data      map[string]interface{} `bson:"data,omitempty" json:"data,omitempty"`
	IsRead    bool                   `bson:"is_read" json:"is_read"`
	IsSent    bool                   `bson:"is_sent" json:"is_sent"`
	ReadAt    *time.Time             `bson:"read_at,omitempty" json:"read_at,omitempty"`
	CreatedAt time.Time              `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time              `bson:"updated_at" json:"updated_at"`
}

// Notification types
const (
	NotificationTypePickupRequest     = "pickup_request"
	NotificationTypeRecipientSelected = "recipient_selected"
	NotificationTypeDonationAccepted  = "donation_accepted"
	NotificationTypeDonationRejected  = "donation_rejected"
	NotificationTypeMessageReceived   = "message_received"
)

func IsValidNotificationType(t string) bool {
	switch t {
	case NotificationTypePickupRequest, NotificationTypeRecipientSelected,
		NotificationTypeDonationAccepted, NotificationTypeDonationRejected,
		NotificationTypeMessageReceived:
		return true
	}
	return false
}
