// internal/database/mongodb.go
package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"givebridge/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongoDB(cfg *config.Config) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.MongoTimeout)*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(100).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(30 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	database := client.Database(cfg.DatabaseName)

	log.Printf("Connected to MongoDB: %s", cfg.DatabaseName)

	return &MongoDB{
		Client:   client,
		Database: database,
	}, nil
}

func (m *MongoDB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := m.Client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}

	log.Println("Disconnected from MongoDB")
	return nil
}

// CreateIndexes creates the indexes for all collections.
// NOTE: bson.D is used instead of a map to keep key order in compound indexes.
func (m *MongoDB) CreateIndexes(ctx context.Context) error {
	userCollection := m.Database.Collection("users")
	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "role", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}

	if _, err := userCollection.Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	donationCollection := m.Database.Collection("donations")
	donationIndexes := []mongo.IndexModel{
		{
			// Compound index for the receiver browse view
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "donor_id", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "receiver_id", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "status", Value: 1},
			},
		},
		{
			// Perishable donations, scanned by the expiry filter
			Keys:    bson.D{{Key: "expiry_time", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}

	if _, err := donationCollection.Indexes().CreateMany(ctx, donationIndexes); err != nil {
		return fmt.Errorf("failed to create donation indexes: %w", err)
	}

	pickupCollection := m.Database.Collection("pickup_requests")
	pickupIndexes := []mongo.IndexModel{
		{
			// One request per (donation, user) pair
			Keys: bson.D{
				{Key: "donation_id", Value: 1},
				{Key: "user_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			// Pending requests for a donation, ordered by pickup time
			Keys: bson.D{
				{Key: "donation_id", Value: 1},
				{Key: "status", Value: 1},
				{Key: "pickup_time", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
	}

	if _, err := pickupCollection.Indexes().CreateMany(ctx, pickupIndexes); err != nil {
		return fmt.Errorf("failed to create pickup request indexes: %w", err)
	}

	notificationCollection := m.Database.Collection("notifications")
	notificationIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "is_read", Value: 1},
			},
		},
	}

	if _, err := notificationCollection.Indexes().CreateMany(ctx, notificationIndexes); err != nil {
		return fmt.Errorf("failed to create notification indexes: %w", err)
	}

	messageCollection := m.Database.Collection("messages")
	messageIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_type", Value: 1},
				{Key: "is_read", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}

	if _, err := messageCollection.Indexes().CreateMany(ctx, messageIndexes); err != nil {
		return fmt.Errorf("failed to create message indexes: %w", err)
	}

	reportCollection := m.Database.Collection("user_reports")
	reportIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "reported_user_id", Value: 1}},
		},
	}

	if _, err := reportCollection.Indexes().CreateMany(ctx, reportIndexes); err != nil {
		return fmt.Errorf("failed to create report indexes: %w", err)
	}

	log.Println("✅ Indexes created for all collections")
	return nil
}
