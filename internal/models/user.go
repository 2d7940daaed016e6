package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Email        string             `bson:"email" json:"email" validate:"required,email"`
	PasswordHash string             `bson:"password_hash" json:"-"`

	// Profile information
	FirstName string `bson:"first_name" json:"first_name" validate:"required,min=2,max=50"`
	LastName  string `bson:"last_name" json:"last_name" validate:"required,min=2,max=50"`
	Username  string `bson:"username,omitempty" json:"username,omitempty"`
	Phone     string `bson:"phone,omitempty" json:"phone,omitempty" validate:"omitempty,min=10,max=15"`
	AvatarURL string `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`

	// Role and moderation
	Role      UserRole `bson:"role" json:"role" validate:"required"`
	IsBlocked bool     `bson:"is_blocked" json:"is_blocked"`

	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
	LastLoginAt *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
}

func (u *User) GetFullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return "Anonymous User"
	}
	return name
}

// ContactCard is the public slice of a user shown to matched parties
type ContactCard struct {
	ID        primitive.ObjectID `json:"id"`
	Email     string             `json:"email"`
	FirstName string             `json:"first_name"`
	LastName  string             `json:"last_name"`
	Phone     string             `json:"phone,omitempty"`
	AvatarURL string             `json:"avatar_url,omitempty"`
}

func (u *User) ToContactCard() ContactCard {
	return ContactCard{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		AvatarURL: u.AvatarURL,
	}
}
