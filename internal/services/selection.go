package services

import (
	"errors"
	"time"

	"givebridge/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Sentinel errors for the donation workflow. Handlers translate these into
// HTTP status codes; everything else is a 500.
var (
	ErrNotFound           = errors.New("donation not found")
	ErrNotOwner           = errors.New("donation belongs to another donor")
	ErrDonationNotPending = errors.New("donation is no longer pending")
	ErrRequestNotPending  = errors.New("pickup request is no longer pending")
	ErrRequestMismatch    = errors.New("pickup request does not belong to this donation")
	ErrDuplicateRequest   = errors.New("pickup request already exists for this donation")
	ErrFoodExpired        = errors.New("food donation has expired")
	ErrPickupTimeInPast   = errors.New("pickup time must be in the future")
)

// SelectionPlan is the complete outcome of selecting a recipient: which request
// wins, which siblings lose, and what the winner gets told. It is computed from
// loaded rows before any write happens, so the whole decision is checkable in
// isolation.
type SelectionPlan struct {
	DonationID         primitive.ObjectID
	ReceiverID         primitive.ObjectID
	AcceptedRequestID  primitive.ObjectID
	RejectedRequestIDs []primitive.ObjectID
	ItemName           string
	PickupTime         time.Time
}

// BuildSelection validates the preconditions of recipient selection and, when
// they hold, returns the write plan. The donor must own a still-pending
// donation, and the chosen request must be a pending request of that donation.
// Sibling pending requests are rejected; requests already decided are left
// untouched.
func BuildSelection(donation *models.Donation, requests []models.PickupRequest, selectedRequestID, donorID primitive.ObjectID) (*SelectionPlan, error) {
	if donation == nil {
		return nil, ErrNotFound
	}
	if !donation.IsOwnedBy(donorID) {
		return nil, ErrNotOwner
	}
	if !donation.IsPending() {
		return nil, ErrDonationNotPending
	}

	var selected *models.PickupRequest
	var rejected []primitive.ObjectID
	for i := range requests {
		req := &requests[i]
		if !req.BelongsTo(donation.ID) {
			continue
		}
		if req.ID == selectedRequestID {
			selected = req
			continue
		}
		if req.IsPending() {
			rejected = append(rejected, req.ID)
		}
	}

	if selected == nil {
		return nil, ErrRequestMismatch
	}
	if !selected.IsPending() {
		return nil, ErrRequestNotPending
	}

	return &SelectionPlan{
		DonationID:         donation.ID,
		ReceiverID:         selected.UserID,
		AcceptedRequestID:  selected.ID,
		RejectedRequestIDs: rejected,
		ItemName:           donation.ItemName,
		PickupTime:         selected.PickupTime,
	}, nil
}
