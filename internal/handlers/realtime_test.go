package handlers

import (
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestHub() *Hub {
	log := logrus.New()
	log.SetOutput(io.Discard)
	hub := NewHub(log)
	go hub.Run()
	return hub
}

func connectTestClient(hub *Hub, userID primitive.ObjectID) *Client {
	client := &Client{
		hub:    hub,
		send:   make(chan []byte, 16),
		userID: userID,
	}
	hub.register <- client
	return client
}

func receive(t *testing.T, client *Client) []byte {
	t.Helper()
	select {
	case msg := <-client.send:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestHubBroadcastReachesAllUsers(t *testing.T) {
	hub := newTestHub()

	alice := connectTestClient(hub, primitive.NewObjectID())
	bob := connectTestClient(hub, primitive.NewObjectID())

	hub.PublishChange("donations", "UPDATE", map[string]string{"id": "abc"})

	for _, client := range []*Client{alice, bob} {
		var envelope struct {
			Type string      `json:"type"`
			Data ChangeEvent `json:"data"`
		}
		require.NoError(t, json.Unmarshal(receive(t, client), &envelope))
		assert.Equal(t, "change", envelope.Type)
		assert.Equal(t, "donations", envelope.Data.Table)
		assert.Equal(t, "UPDATE", envelope.Data.Event)
	}
}

func TestHubBroadcastReachesEveryConnectionOfAUser(t *testing.T) {
	hub := newTestHub()

	userID := primitive.NewObjectID()
	tab1 := connectTestClient(hub, userID)
	tab2 := connectTestClient(hub, userID)

	hub.PublishChange("pickup_requests", "INSERT", nil)

	receive(t, tab1)
	receive(t, tab2)
}

func TestHubSendToUserTargetsOneUser(t *testing.T) {
	hub := newTestHub()

	target := primitive.NewObjectID()
	targetClient := connectTestClient(hub, target)
	otherClient := connectTestClient(hub, primitive.NewObjectID())

	// Registration happens on the hub goroutine; wait for both clients
	require.Eventually(t, func() bool {
		return hub.ConnectedUsers() == 2
	}, time.Second, 10*time.Millisecond)

	hub.SendToUser(target, "notification", map[string]string{"title": "hi"})

	msg := receive(t, targetClient)
	assert.Contains(t, string(msg), "notification")

	select {
	case unexpected := <-otherClient.send:
		t.Fatalf("unexpected message for other user: %s", unexpected)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHubUnregisterClosesSendChannel(t *testing.T) {
	hub := newTestHub()

	client := connectTestClient(hub, primitive.NewObjectID())
	require.Eventually(t, func() bool {
		return hub.ConnectedUsers() == 1
	}, time.Second, 10*time.Millisecond)

	hub.unregister <- client

	require.Eventually(t, func() bool {
		return hub.ConnectedUsers() == 0
	}, time.Second, 10*time.Millisecond)

	_, open := <-client.send
	assert.False(t, open)
}
