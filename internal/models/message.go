package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message belongs to the shared donor/receiver inbox: donors read messages
// written by receivers and vice versa.
type Message struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID   primitive.ObjectID `bson:"user_id" json:"user_id" validate:"required"`
	UserType string             `bson:"user_type" json:"user_type" validate:"required,oneof=donor receiver"`

	Content string `bson:"content" json:"content" validate:"required,max=1000"`
	IsRead  bool   `bson:"is_read" json:"is_read"`

	// Sender name joined from the users collection, not stored
	SenderName string `bson:"-" json:"sender_name,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Message sender types
const (
	MessageFromDonor    = "donor"
	MessageFromReceiver = "receiver"
)

// CounterpartType returns the sender type whose messages the given user type reads
func CounterpartType(userType string) string {
	if userType == MessageFromDonor {
		return MessageFromReceiver
	}
	return MessageFromDonor
}
