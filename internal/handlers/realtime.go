// internal/handlers/realtime.go
package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"givebridge/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin is not checked; auth happens via the token query parameter
		return true
	},
}

// ChangeEvent mirrors a committed database change. Clients use the table and
// event kind to invalidate their local caches; payloads carry identifiers, not
// full rows, so replaying an event twice is harmless.
type ChangeEvent struct {
	Table string      `json:"table"`
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

type wsEnvelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Hub tracks connected clients per user and fans change events out to all of
// them. A user may hold several connections (tabs, devices).
type Hub struct {
	clients map[primitive.ObjectID]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mutex sync.RWMutex
	log   *logrus.Logger
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID primitive.ObjectID
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[primitive.ObjectID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		log:        log,
	}
}

func (hub *Hub) Run() {
	for {
		select {
		case client := <-hub.register:
			hub.mutex.Lock()
			if hub.clients[client.userID] == nil {
				hub.clients[client.userID] = make(map[*Client]bool)
			}
			hub.clients[client.userID][client] = true
			hub.mutex.Unlock()
			hub.log.WithField("user_id", client.userID.Hex()).Debug("realtime client connected")

		case client := <-hub.unregister:
			hub.mutex.Lock()
			if clients, ok := hub.clients[client.userID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(hub.clients, client.userID)
					}
				}
			}
			hub.mutex.Unlock()
			hub.log.WithField("user_id", client.userID.Hex()).Debug("realtime client disconnected")

		case message := <-hub.broadcast:
			hub.mutex.Lock()
			for userID, clients := range hub.clients {
				for client := range clients {
					select {
					case client.send <- message:
					default:
						close(client.send)
						delete(clients, client)
						if len(clients) == 0 {
							delete(hub.clients, userID)
						}
					}
				}
			}
			hub.mutex.Unlock()
		}
	}
}

// PublishChange broadcasts a committed change to every connected client.
// Implements services.ChangePublisher.
func (hub *Hub) PublishChange(table, event string, payload interface{}) {
	message, err := json.Marshal(wsEnvelope{
		Type: "change",
		Data: ChangeEvent{Table: table, Event: event, Data: payload},
	})
	if err != nil {
		hub.log.WithError(err).Error("failed to marshal change event")
		return
	}

	select {
	case hub.broadcast <- message:
	default:
		hub.log.Warn("realtime broadcast buffer full, dropping event")
	}
}

// SendToUser delivers a message to one user's connections only.
func (hub *Hub) SendToUser(userID primitive.ObjectID, messageType string, payload interface{}) {
	message, err := json.Marshal(wsEnvelope{Type: messageType, Data: payload})
	if err != nil {
		hub.log.WithError(err).Error("failed to marshal user message")
		return
	}

	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	clients := hub.clients[userID]
	for client := range clients {
		select {
		case client.send <- message:
		default:
			close(client.send)
			delete(clients, client)
		}
	}
	if len(clients) == 0 {
		delete(hub.clients, userID)
	}
}

// ConnectedUsers returns how many distinct users hold open connections.
func (hub *Hub) ConnectedUsers() int {
	hub.mutex.RLock()
	defer hub.mutex.RUnlock()
	return len(hub.clients)
}

type RealtimeHandler struct {
	hub        *Hub
	jwtManager *auth.JWTManager
	log        *logrus.Logger
}

func NewRealtimeHandler(hub *Hub, jwtManager *auth.JWTManager, log *logrus.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		hub:        hub,
		jwtManager: jwtManager,
		log:        log,
	}
}

// HandleWebSocket upgrades the connection after validating the JWT passed as
// a query parameter. Browsers cannot set headers on websocket upgrades.
func (h *RealtimeHandler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Token is required",
		})
		return
	}

	claims, err := h.jwtManager.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid token",
		})
		return
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid token subject",
		})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Error("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID,
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var envelope wsEnvelope
		err := c.conn.ReadJSON(&envelope)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.WithError(err).Debug("websocket read error")
			}
			break
		}

		// Clients only talk upstream to keep the connection alive
		if envelope.Type == "ping" {
			c.send <- []byte(`{"type":"pong"}`)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush any queued messages into the same frame
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
