// Seeds an admin account. Admin accounts cannot be created through the public
// registration endpoint.
//
// Usage:
//
//	go run scripts/seed_admin.go -email admin@example.com -password secret123
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	email := flag.String("email", "", "admin email")
	password := flag.String("password", "", "admin password")
	firstName := flag.String("first-name", "Platform", "admin first name")
	lastName := flag.String("last-name", "Admin", "admin last name")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("both -email and -password are required")
	}

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("DATABASE_NAME")
	if dbName == "" {
		dbName = "givebridge"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(ctx)

	collection := client.Database(dbName).Collection("users")

	count, err := collection.CountDocuments(ctx, bson.M{"email": *email})
	if err != nil {
		log.Fatal(err)
	}
	if count > 0 {
		log.Fatalf("user with email %s already exists", *email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal(err)
	}

	now := time.Now()
	result, err := collection.InsertOne(ctx, bson.M{
		"email":         *email,
		"password_hash": string(hash),
		"first_name":    *firstName,
		"last_name":     *lastName,
		"role":          "admin",
		"is_blocked":    false,
		"created_at":    now,
		"updated_at":    now,
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Admin account created: %s (%v)\n", *email, result.InsertedID)
}
