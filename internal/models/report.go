package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserReport struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ReportedUserID primitive.ObjectID `bson:"reported_user_id" json:"reported_user_id" validate:"required"`
	ReporterUserID primitive.ObjectID `bson:"reporter_user_id" json:"reporter_user_id" validate:"required"`

	Reason string `bson:"reason" json:"reason" validate:"required,min=5,max=2000"`
	Status string `bson:"status" json:"status" validate:"required,oneof=pending reviewed resolved dismissed"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Report statuses
const (
	ReportStatusPending   = "pending"
	ReportStatusReviewed  = "reviewed"
	ReportStatusResolved  = "resolved"
	ReportStatusDismissed = "dismissed"
)

func IsValidReportStatus(status string) bool {
	switch status {
	case ReportStatusPending, ReportStatusReviewed, ReportStatusResolved, ReportStatusDismissed:
		return true
	}
	return false
}

// UserReportWithProfiles is a report joined with both user profiles for the
// admin review table.
type UserReportWithProfiles struct {
	UserReport   `bson:",inline"`
	ReportedUser *ContactCard `bson:"-" json:"reported_user,omitempty"`
	ReporterUser *ContactCard `bson:"-" json:"reporter_user,omitempty"`
}
