// Package websocket pushes live feed updates to dashboard clients so
// the SPA does not have to poll the CRUD API for fresh readings.
package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/anloi/smarthome/server/domain/entities"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Dashboard clients only
	// listen, so inbound frames stay tiny.
	maxMessageSize = 1024
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The dashboard may be served from a different origin.
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// FeedEvent is one live update pushed to dashboard clients.
type FeedEvent struct {
	Type   string               `json:"type"`
	Feed   string               `json:"feed"`
	Record *entities.FeedRecord `json:"record"`
}

// EventFeedInserted announces a newly mirrored record.
const EventFeedInserted = "feed.inserted"

// Hub maintains the set of active clients and broadcasts feed events
// to them.
type Hub struct {
	// Registered clients.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Inbound events to fan out to every client.
	broadcast chan FeedEvent

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	// Optional gauge tracking connected clients.
	onCount func(n int)

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan FeedEvent, 64),
		logger:     logger,
	}
}

// OnClientCount installs a callback invoked with the client count after
// every register/unregister.
func (h *Hub) OnClientCount(fn func(n int)) {
	h.onCount = fn
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			n := len(h.clients)
			h.mu.Unlock()
			h.notifyCount(n)
			h.logger.Info("Client registered", zap.String("clientID", client.id))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.notifyCount(n)
			h.logger.Info("Client unregistered", zap.String("clientID", client.id))

		case event := <-h.broadcast:
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("Failed to marshal feed event", zap.Error(err))
				continue
			}
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.send <- payload:
				default:
					// Slow client; drop the event rather than block the hub.
					h.logger.Warn("Dropping event for slow client",
						zap.String("clientID", client.id))
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast queues a feed event for delivery to every connected client.
func (h *Hub) Broadcast(event FeedEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("Broadcast queue full, dropping event",
			zap.String("feed", event.Feed))
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) notifyCount(n int) {
	if h.onCount != nil {
		h.onCount(n)
	}
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan []byte

	// Connection ID for this client
	id string

	// User ID extracted from the JWT
	userID string

	logger *zap.Logger
}

// HandleConnection upgrades the request and serves the client until it
// disconnects. userID comes from the already-validated JWT.
func HandleConnection(hub *Hub, c echo.Context, userID string, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("Failed to upgrade websocket", zap.Error(err))
		return err
	}

	client := &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 16),
		id:     uuid.NewString(),
		userID: userID,
		logger: logger,
	}
	hub.register <- client

	go client.writePump()
	go client.readPump()
	return nil
}

// readPump discards inbound frames and watches for disconnects.
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
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("Unexpected websocket close", zap.Error(err))
			}
			return
		}
	}
}

// writePump forwards hub events to the peer and keeps the connection
// alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
