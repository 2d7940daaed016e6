// internal/services/donation.go
package services

import (
	"context"
	"fmt"
	"time"

	"givebridge/internal/models"
	"givebridge/internal/storage"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ChangePublisher receives table-level change events for fan-out to connected
// clients. Implemented by the realtime hub; a nil-safe no-op is fine in tests.
type ChangePublisher interface {
	PublishChange(table, event string, payload interface{})
}

// DonationService owns the donation lifecycle: pickup requests, recipient
// selection, direct status changes and cascading deletes. All multi-row
// transitions run in one transaction so observers never see a half-applied
// selection.
type DonationService struct {
	client                  *mongo.Client
	donationCollection      *mongo.Collection
	pickupRequestCollection *mongo.Collection
	notifications           *NotificationService
	storage                 *storage.Client
	publisher               ChangePublisher
	log                     *logrus.Logger
}

func NewDonationService(
	client *mongo.Client,
	donationCollection, pickupRequestCollection *mongo.Collection,
	notifications *NotificationService,
	storageClient *storage.Client,
	publisher ChangePublisher,
	log *logrus.Logger,
) *DonationService {
	return &DonationService{
		client:                  client,
		donationCollection:      donationCollection,
		pickupRequestCollection: pickupRequestCollection,
		notifications:           notifications,
		storage:                 storageClient,
		publisher:               publisher,
		log:                     log,
	}
}

// CreatePickupRequest registers a receiver's interest in a pending donation.
// The unique (donation_id, user_id) index turns a repeat request into
// ErrDuplicateRequest regardless of timing.
func (ds *DonationService) CreatePickupRequest(ctx context.Context, userID, donationID primitive.ObjectID, pickupTime time.Time) (*models.PickupRequest, error) {
	var donation models.Donation
	err := ds.donationCollection.FindOne(ctx, bson.M{"_id": donationID}).Decode(&donation)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load donation: %w", err)
	}

	now := time.Now()
	if !donation.IsPending() {
		return nil, ErrDonationNotPending
	}
	if donation.IsExpired(now) {
		return nil, ErrFoodExpired
	}
	if !pickupTime.After(now) {
		return nil, ErrPickupTimeInPast
	}

	request := models.PickupRequest{
		DonationID: donationID,
		UserID:     userID,
		PickupTime: pickupTime,
		Status:     models.PickupStatusPending,
		CreatedAt:  now,
	}

	result, err := ds.pickupRequestCollection.InsertOne(ctx, request)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateRequest
		}
		return nil, fmt.Errorf("failed to create pickup request: %w", err)
	}
	request.ID = result.InsertedID.(primitive.ObjectID)

	ds.notifications.NotifyPickupRequest(ctx, donation.DonorID, donation.ItemName, donationID, pickupTime)
	ds.publishChange("pickup_requests", "INSERT", request)

	return &request, nil
}

// SelectRecipient runs the donor's recipient selection atomically: the chosen
// request is accepted, sibling pending requests are rejected, and the donation
// moves to received with the winner as its receiver. Every write carries a
// status filter, so a selection that raced with another writer aborts instead
// of clobbering it.
func (ds *DonationService) SelectRecipient(ctx context.Context, donorID, donationID, requestID primitive.ObjectID) (*SelectionPlan, error) {
	session, err := ds.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	var plan *SelectionPlan
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var donation models.Donation
		err := ds.donationCollection.FindOne(sc, bson.M{"_id": donationID}).Decode(&donation)
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load donation: %w", err)
		}

		cursor, err := ds.pickupRequestCollection.Find(sc, bson.M{"donation_id": donationID})
		if err != nil {
			return nil, fmt.Errorf("failed to load pickup requests: %w", err)
		}
		var requests []models.PickupRequest
		if err := cursor.All(sc, &requests); err != nil {
			return nil, fmt.Errorf("failed to decode pickup requests: %w", err)
		}

		plan, err = BuildSelection(&donation, requests, requestID, donorID)
		if err != nil {
			return nil, err
		}

		now := time.Now()

		res, err := ds.pickupRequestCollection.UpdateOne(sc,
			bson.M{"_id": plan.AcceptedRequestID, "status": models.PickupStatusPending},
			bson.M{"$set": bson.M{"status": models.PickupStatusAccepted}},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to accept pickup request: %w", err)
		}
		if res.MatchedCount == 0 {
			return nil, ErrRequestNotPending
		}

		if len(plan.RejectedRequestIDs) > 0 {
			_, err = ds.pickupRequestCollection.UpdateMany(sc,
				bson.M{
					"_id":    bson.M{"$in": plan.RejectedRequestIDs},
					"status": models.PickupStatusPending,
				},
				bson.M{"$set": bson.M{"status": models.PickupStatusRejected}},
			)
			if err != nil {
				return nil, fmt.Errorf("failed to reject sibling requests: %w", err)
			}
		}

		res, err = ds.donationCollection.UpdateOne(sc,
			bson.M{"_id": donationID, "status": models.DonationStatusPending},
			bson.M{"$set": bson.M{
				"status":      models.DonationStatusReceived,
				"receiver_id": plan.ReceiverID,
				"updated_at":  now,
			}},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update donation: %w", err)
		}
		if res.MatchedCount == 0 {
			return nil, ErrDonationNotPending
		}

		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	// Side effects happen after commit only. If we crash here the stored
	// state is already correct and clients converge on the next fetch.
	ds.notifications.NotifyRecipientSelected(ctx, plan.ReceiverID, plan.ItemName, plan.DonationID, plan.PickupTime)
	ds.publishChange("donations", "UPDATE", bson.M{
		"id":          plan.DonationID.Hex(),
		"status":      models.DonationStatusReceived,
		"receiver_id": plan.ReceiverID.Hex(),
	})
	ds.publishChange("pickup_requests", "UPDATE", bson.M{
		"donation_id": plan.DonationID.Hex(),
	})

	return plan, nil
}

// DirectUpdateStatus applies a receiver's accept or reject straight to a
// pending donation, without going through a pickup request. Accepting expired
// food is refused.
func (ds *DonationService) DirectUpdateStatus(ctx context.Context, receiverID, donationID primitive.ObjectID, accept bool) (*models.Donation, error) {
	var donation models.Donation
	err := ds.donationCollection.FindOne(ctx, bson.M{"_id": donationID}).Decode(&donation)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load donation: %w", err)
	}

	now := time.Now()
	if accept && donation.IsExpired(now) {
		return nil, ErrFoodExpired
	}

	update := bson.M{"updated_at": now}
	if accept {
		update["status"] = models.DonationStatusReceived
		update["receiver_id"] = receiverID
	} else {
		// A rejected donation has no receiver; the decision is recorded in
		// the status alone.
		update["status"] = models.DonationStatusRejected
	}

	res, err := ds.donationCollection.UpdateOne(ctx,
		bson.M{"_id": donationID, "status": models.DonationStatusPending},
		bson.M{"$set": update},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update donation status: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, ErrDonationNotPending
	}

	donation.UpdatedAt = now
	if accept {
		donation.Status = models.DonationStatusReceived
		donation.ReceiverID = &receiverID
	} else {
		donation.Status = models.DonationStatusRejected
	}

	ds.notifications.NotifyDonationDecision(ctx, donation.DonorID, donation.ItemName, donationID, accept)
	ds.publishChange("donations", "UPDATE", bson.M{
		"id":     donationID.Hex(),
		"status": donation.Status,
	})

	return &donation, nil
}

// DeleteDonation removes a donation, its pickup requests and its stored
// images. Row deletes are transactional; image removal is best-effort since
// object storage cannot join the transaction.
func (ds *DonationService) DeleteDonation(ctx context.Context, donationID primitive.ObjectID) error {
	var donation models.Donation
	err := ds.donationCollection.FindOne(ctx, bson.M{"_id": donationID}).Decode(&donation)
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load donation: %w", err)
	}

	if len(donation.Images) > 0 {
		var paths []string
		for _, imageURL := range donation.Images {
			if p := storage.ExtractPath(imageURL); p != "" {
				paths = append(paths, p)
			}
		}
		if err := ds.storage.Remove(ctx, paths); err != nil {
			ds.log.WithError(err).WithField("donation_id", donationID.Hex()).
				Warn("failed to remove donation images from storage")
		}
	}

	session, err := ds.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := ds.pickupRequestCollection.DeleteMany(sc, bson.M{"donation_id": donationID}); err != nil {
			return nil, fmt.Errorf("failed to delete pickup requests: %w", err)
		}
		if _, err := ds.donationCollection.DeleteOne(sc, bson.M{"_id": donationID}); err != nil {
			return nil, fmt.Errorf("failed to delete donation: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	ds.publishChange("donations", "DELETE", bson.M{"id": donationID.Hex()})
	ds.publishChange("pickup_requests", "DELETE", bson.M{"donation_id": donationID.Hex()})

	return nil
}

func (ds *DonationService) publishChange(table, event string, payload interface{}) {
	if ds.publisher == nil {
		return
	}
	ds.publisher.PublishChange(table, event, payload)
}
