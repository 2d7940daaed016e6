package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestIsExpired(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		donation Donation
		expired  bool
	}{
		{
			name: "food past expiry",
			donation: Donation{
				Category:   CategoryFood,
				ExpiryTime: timePtr(now.Add(-time.Hour)),
			},
			expired: true,
		},
		{
			name: "food before expiry",
			donation: Donation{
				Category:   CategoryFood,
				ExpiryTime: timePtr(now.Add(time.Hour)),
			},
			expired: false,
		},
		{
			name: "food without expiry time",
			donation: Donation{
				Category: CategoryFood,
			},
			expired: false,
		},
		{
			name: "non-food never expires",
			donation: Donation{
				Category:   CategoryBooks,
				ExpiryTime: timePtr(now.Add(-time.Hour)),
			},
			expired: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, tt.donation.IsExpired(now))
		})
	}
}

func TestCanBeAcceptedAt(t *testing.T) {
	now := time.Now()

	fresh := Donation{
		Status:     DonationStatusPending,
		Category:   CategoryFood,
		ExpiryTime: timePtr(now.Add(time.Hour)),
	}
	assert.True(t, fresh.CanBeAcceptedAt(now))

	expired := Donation{
		Status:     DonationStatusPending,
		Category:   CategoryFood,
		ExpiryTime: timePtr(now.Add(-time.Minute)),
	}
	assert.False(t, expired.CanBeAcceptedAt(now))

	decided := Donation{
		Status:   DonationStatusReceived,
		Category: CategoryClothes,
	}
	assert.False(t, decided.CanBeAcceptedAt(now))
}

func TestIsConsistent(t *testing.T) {
	receiverID := primitive.NewObjectID()

	received := Donation{Status: DonationStatusReceived, ReceiverID: &receiverID}
	assert.True(t, received.IsConsistent())

	receivedWithoutReceiver := Donation{Status: DonationStatusReceived}
	assert.False(t, receivedWithoutReceiver.IsConsistent())

	pending := Donation{Status: DonationStatusPending}
	assert.True(t, pending.IsConsistent())

	pendingWithReceiver := Donation{Status: DonationStatusPending, ReceiverID: &receiverID}
	assert.False(t, pendingWithReceiver.IsConsistent())

	rejected := Donation{Status: DonationStatusRejected}
	assert.True(t, rejected.IsConsistent())
}

func TestTimeRemaining(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		donation Donation
		want     string
	}{
		{
			name:     "non-perishable has no countdown",
			donation: Donation{Category: CategoryToys},
			want:     "",
		},
		{
			name: "expired",
			donation: Donation{
				Category:   CategoryFood,
				ExpiryTime: timePtr(now.Add(-time.Minute)),
			},
			want: "Expired",
		},
		{
			name: "days and hours",
			donation: Donation{
				Category:   CategoryFood,
				ExpiryTime: timePtr(now.Add(50 * time.Hour)),
			},
			want: "2d 2h remaining",
		},
		{
			name: "hours and minutes",
			donation: Donation{
				Category:   CategoryFood,
				ExpiryTime: timePtr(now.Add(90 * time.Minute)),
			},
			want: "1h 30m remaining",
		},
		{
			name: "minutes only",
			donation: Donation{
				Category:   CategoryFood,
				ExpiryTime: timePtr(now.Add(10 * time.Minute)),
			},
			want: "10m remaining",
		},
		{
			name: "under a minute rounds up",
			donation: Donation{
				Category:   CategoryFood,
				ExpiryTime: timePtr(now.Add(20 * time.Second)),
			},
			want: "1m remaining",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.donation.TimeRemaining(now))
		})
	}
}

func TestIsValidCategory(t *testing.T) {
	for _, category := range []string{"food", "clothes", "furniture", "electronics", "books", "toys", "other"} {
		assert.True(t, IsValidCategory(category), category)
	}
	assert.False(t, IsValidCategory("weapons"))
	assert.False(t, IsValidCategory(""))
}

func TestIsValidDonationStatus(t *testing.T) {
	assert.True(t, IsValidDonationStatus("pending"))
	assert.True(t, IsValidDonationStatus("received"))
	assert.True(t, IsValidDonationStatus("rejected"))
	assert.False(t, IsValidDonationStatus("accepted"))
}
