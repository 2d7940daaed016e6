// internal/models/donation.go
package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Donation struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	DonorID primitive.ObjectID `bson:"donor_id" json:"donor_id" validate:"required"`

	ItemName    string `bson:"item_name" json:"item_name" validate:"required,min=2,max=100"`
	Description string `bson:"description,omitempty" json:"description,omitempty" validate:"max=1000"`
	Category    string `bson:"category" json:"category" validate:"required,oneof=food clothes furniture electronics books toys other"`
	Quantity    string `bson:"quantity" json:"quantity" validate:"required,max=50"`
	Location    string `bson:"location" json:"location" validate:"required,max=200"`

	// Lifecycle. ReceiverID is set exactly when the donation is received.
	Status     string              `bson:"status" json:"status" validate:"required,oneof=pending received rejected"`
	ReceiverID *primitive.ObjectID `bson:"receiver_id,omitempty" json:"receiver_id,omitempty"`

	// Perishability (food category only)
	ExpiryTime         *time.Time `bson:"expiry_time,omitempty" json:"expiry_time,omitempty"`
	AcceptanceDeadline *time.Time `bson:"acceptance_deadline,omitempty" json:"acceptance_deadline,omitempty"`

	// Public URLs of uploaded images, in upload order
	Images []string `bson:"images,omitempty" json:"images,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Donation statuses
const (
	DonationStatusPending  = "pending"
	DonationStatusReceived = "received"
	DonationStatusRejected = "rejected"
)

// Donation categories
const (
	CategoryFood        = "food"
	CategoryClothes     = "clothes"
	CategoryFurniture   = "furniture"
	CategoryElectronics = "electronics"
	CategoryBooks       = "books"
	CategoryToys        = "toys"
	CategoryOther       = "other"
)

func (d *Donation) IsPending() bool {
	return d.Status == DonationStatusPending
}

// IsPerishable reports whether the donation carries an expiry time
func (d *Donation) IsPerishable() bool {
	return d.Category == CategoryFood && d.ExpiryTime != nil
}

// IsExpired reports whether a perishable donation has passed its expiry time
func (d *Donation) IsExpired(now time.Time) bool {
	if !d.IsPerishable() {
		return false
	}
	return !d.ExpiryTime.After(now)
}

// CanBeAcceptedAt checks the direct-accept precondition: the donation must be
// pending and, for food, not yet expired.
func (d *Donation) CanBeAcceptedAt(now time.Time) bool {
	return d.IsPending() && !d.IsExpired(now)
}

func (d *Donation) IsOwnedBy(userID primitive.ObjectID) bool {
	return d.DonorID == userID
}

// IsConsistent checks the lifecycle invariant: receiver_id is set if and only
// if the donation was received.
func (d *Donation) IsConsistent() bool {
	if d.Status == DonationStatusReceived {
		return d.ReceiverID != nil
	}
	return d.ReceiverID == nil
}

// TimeRemaining renders the display-only countdown for perishable donations.
// It has no effect on stored state.
func (d *Donation) TimeRemaining(now time.Time) string {
	if !d.IsPerishable() {
		return ""
	}
	left := d.ExpiryTime.Sub(now)
	if left <= 0 {
		return "Expired"
	}
	if left >= 24*time.Hour {
		days := int(left.Hours()) / 24
		hours := int(left.Hours()) % 24
		return fmt.Sprintf("%dd %dh remaining", days, hours)
	}
	if left >= time.Hour {
		hours := int(left.Hours())
		minutes := int(left.Minutes()) % 60
		return fmt.Sprintf("%dh %dm remaining", hours, minutes)
	}
	minutes := int(left.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%dm remaining", minutes)
}

func IsValidDonationStatus(status string) bool {
	switch status {
	case DonationStatusPending, DonationStatusReceived, DonationStatusRejected:
		return true
	}
	return false
}

func IsValidCategory(category string) bool {
	switch category {
	case CategoryFood, CategoryClothes, CategoryFurniture, CategoryElectronics, CategoryBooks, CategoryToys, CategoryOther:
		return true
	}
	return false
}
