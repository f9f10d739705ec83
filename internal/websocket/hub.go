package websocket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"orangecat/internal/metrics"
	"orangecat/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

// Client is one websocket connection of a signed-in user.
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	UserID uuid.UUID
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{Hub: hub, Conn: conn, Send: make(chan []byte, sendBuffer), UserID: userID}
}

// Alert is a message for every connection of one user.
type Alert struct {
	UserID  uuid.UUID `json:"-"`
	Type    string    `json:"type"`
	Payload any       `json:"payload"`
}

// Hub fans alerts out to the connections of their user. All client state is
// owned by the Run goroutine.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]struct{}
	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan Alert
	count      chan chan int
	done       chan struct{}
	log        zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan Alert, 256),
		count:      make(chan chan int),
		done:       make(chan struct{}),
		log:        log.With().Str("component", "ws_hub").Logger(),
	}
}

// Run serves the hub until ctx is canceled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for c := range set {
					h.drop(c)
				}
			}
			return

		case c := <-h.Register:
			set, ok := h.clients[c.UserID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[c.UserID] = set
			}
			set[c] = struct{}{}
			metrics.WSClients.Inc()
			h.log.Debug().Str("user_id", c.UserID.String()).Int("connections", len(set)).Msg("client registered")

		case c := <-h.Unregister:
			if _, ok := h.clients[c.UserID][c]; ok {
				h.drop(c)
				h.log.Debug().Str("user_id", c.UserID.String()).Msg("client unregistered")
			}

		case alert := <-h.Broadcast:
			set := h.clients[alert.UserID]
			if len(set) == 0 {
				continue
			}
			data, err := json.Marshal(alert)
			if err != nil {
				h.log.Error().Err(err).Msg("marshal alert")
				continue
			}
			for c := range set {
				select {
				case c.Send <- data:
				default:
					h.log.Warn().Str("user_id", c.UserID.String()).Msg("dropping slow client")
					h.drop(c)
				}
			}

		case reply := <-h.count:
			n := 0
			for _, set := range h.clients {
				n += len(set)
			}
			reply <- n
		}
	}
}

func (h *Hub) drop(c *Client) {
	set := h.clients[c.UserID]
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
	close(c.Send)
	metrics.WSClients.Dec()
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} { return h.done }

// ClientCount reports the number of connected clients, or 0 once the hub stopped.
func (h *Hub) ClientCount() int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}

// Publish queues a donation alert for userID without blocking the caller.
func (h *Hub) Publish(userID uuid.UUID, d models.Donation) {
	select {
	case h.Broadcast <- Alert{UserID: userID, Type: "donation", Payload: d}:
	case <-h.done:
	default:
		h.log.Warn().Str("user_id", userID.String()).Msg("alert queue full, dropping donation alert")
	}
}

// Attach registers c and starts its pumps. It returns once the client is registered.
func (h *Hub) Attach(c *Client) bool {
	select {
	case h.Register <- c:
	case <-h.done:
		_ = c.Conn.Close()
		return false
	}
	go c.writePump()
	go c.readPump()
	return true
}

func (c *Client) leave() {
	select {
	case c.Hub.Unregister <- c:
	case <-c.Hub.done:
	}
}

// readPump discards client messages and keeps the read deadline fresh on pongs.
func (c *Client) readPump() {
	defer func() {
		c.leave()
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Debug().Err(err).Str("user_id", c.UserID.String()).Msg("read pump closed")
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
