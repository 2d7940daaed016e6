package services

import (
	"testing"
	"time"

	"givebridge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func pendingDonation(donorID primitive.ObjectID) *models.Donation {
	return &models.Donation{
		ID:       primitive.NewObjectID(),
		DonorID:  donorID,
		ItemName: "Winter jackets",
		Category: models.CategoryClothes,
		Status:   models.DonationStatusPending,
	}
}

func pendingRequest(donationID primitive.ObjectID) models.PickupRequest {
	return models.PickupRequest{
		ID:         primitive.NewObjectID(),
		DonationID: donationID,
		UserID:     primitive.NewObjectID(),
		PickupTime: time.Now().Add(24 * time.Hour),
		Status:     models.PickupStatusPending,
	}
}

func TestBuildSelectionAcceptsOneRejectsSiblings(t *testing.T) {
	donorID := primitive.NewObjectID()
	donation := pendingDonation(donorID)

	winner := pendingRequest(donation.ID)
	loser1 := pendingRequest(donation.ID)
	loser2 := pendingRequest(donation.ID)

	plan, err := BuildSelection(donation, []models.PickupRequest{loser1, winner, loser2}, winner.ID, donorID)
	require.NoError(t, err)

	assert.Equal(t, donation.ID, plan.DonationID)
	assert.Equal(t, winner.ID, plan.AcceptedRequestID)
	assert.Equal(t, winner.UserID, plan.ReceiverID)
	assert.Equal(t, winner.PickupTime, plan.PickupTime)
	assert.Equal(t, "Winter jackets", plan.ItemName)
	assert.ElementsMatch(t, []primitive.ObjectID{loser1.ID, loser2.ID}, plan.RejectedRequestIDs)
}

func TestBuildSelectionSingleRequest(t *testing.T) {
	donorID := primitive.NewObjectID()
	donation := pendingDonation(donorID)
	winner := pendingRequest(donation.ID)

	plan, err := BuildSelection(donation, []models.PickupRequest{winner}, winner.ID, donorID)
	require.NoError(t, err)
	assert.Empty(t, plan.RejectedRequestIDs)
}

func TestBuildSelectionLeavesDecidedSiblingsAlone(t *testing.T) {
	donorID := primitive.NewObjectID()
	donation := pendingDonation(donorID)

	winner := pendingRequest(donation.ID)
	alreadyRejected := pendingRequest(donation.ID)
	alreadyRejected.Status = models.PickupStatusRejected

	plan, err := BuildSelection(donation, []models.PickupRequest{winner, alreadyRejected}, winner.ID, donorID)
	require.NoError(t, err)
	assert.NotContains(t, plan.RejectedRequestIDs, alreadyRejected.ID)
}

func TestBuildSelectionMissingDonation(t *testing.T) {
	_, err := BuildSelection(nil, nil, primitive.NewObjectID(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBuildSelectionWrongOwner(t *testing.T) {
	donation := pendingDonation(primitive.NewObjectID())
	winner := pendingRequest(donation.ID)

	_, err := BuildSelection(donation, []models.PickupRequest{winner}, winner.ID, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestBuildSelectionDonationAlreadyDecided(t *testing.T) {
	donorID := primitive.NewObjectID()
	donation := pendingDonation(donorID)
	donation.Status = models.DonationStatusReceived

	winner := pendingRequest(donation.ID)

	_, err := BuildSelection(donation, []models.PickupRequest{winner}, winner.ID, donorID)
	assert.ErrorIs(t, err, ErrDonationNotPending)
}

func TestBuildSelectionRequestFromOtherDonation(t *testing.T) {
	donorID := primitive.NewObjectID()
	donation := pendingDonation(donorID)

	foreign := pendingRequest(primitive.NewObjectID())

	_, err := BuildSelection(donation, []models.PickupRequest{foreign}, foreign.ID, donorID)
	assert.ErrorIs(t, err, ErrRequestMismatch)
}

func TestBuildSelectionUnknownRequest(t *testing.T) {
	donorID := primitive.NewObjectID()
	donation := pendingDonation(donorID)
	other := pendingRequest(donation.ID)

	_, err := BuildSelection(donation, []models.PickupRequest{other}, primitive.NewObjectID(), donorID)
	assert.ErrorIs(t, err, ErrRequestMismatch)
}

func TestBuildSelectionRequestAlreadyDecided(t *testing.T) {
	donorID := primitive.NewObjectID()
	donation := pendingDonation(donorID)

	decided := pendingRequest(donation.ID)
	decided.Status = models.PickupStatusAccepted

	_, err := BuildSelection(donation, []models.PickupRequest{decided}, decided.ID, donorID)
	assert.ErrorIs(t, err, ErrRequestNotPending)
}
