// internal/models/pickup_request.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PickupRequest is a receiver's expression of interest in a pending donation.
// At most one request exists per (donation, user) pair; the unique index on
// (donation_id, user_id) enforces it.
type PickupRequest struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	DonationID primitive.ObjectID `bson:"donation_id" json:"donation_id" validate:"required"`
	UserID     primitive.ObjectID `bson:"user_id" json:"user_id" validate:"required"`

	PickupTime time.Time `bson:"pickup_time" json:"pickup_time" validate:"required"`
	Status     string    `bson:"status" json:"status" validate:"required,oneof=pending accepted rejected"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Pickup request statuses
const (
	PickupStatusPending  = "pending"
	PickupStatusAccepted = "accepted"
	PickupStatusRejected = "rejected"
)

func (r *PickupRequest) IsPending() bool {
	return r.Status == PickupStatusPending
}

func (r *PickupRequest) BelongsTo(donationID primitive.ObjectID) bool {
	return r.DonationID == donationID
}

// PickupRequestWithProfile is a request joined with its requester's name, used
// when a donor reviews the candidates for a donation.
type PickupRequestWithProfile struct {
	PickupRequest `bson:",inline"`
	FirstName     string `bson:"first_name,omitempty" json:"first_name,omitempty"`
	LastName      string `bson:"last_name,omitempty" json:"last_name,omitempty"`
}
