package websocket

import (
	"context"
	"errors"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotConnected is returned when a user has no open connection.
var ErrNotConnected = errors.New("user not connected")

const sendBuffer = 16

// Message is what the hub pushes to a client.
type Message struct {
	Type    string      `json:"type"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	UserID  string      `json:"userId,omitempty"`
}

// Client is one authenticated connection. A user may hold several.
type Client struct {
	UserID primitive.ObjectID
	conn   *websocket.Conn
	send   chan Message
}

// Hub maintains the set of active clients per user
type Hub struct {
	clients    map[primitive.ObjectID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[primitive.ObjectID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop and returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
				}
			}
			h.clients = make(map[primitive.ObjectID]map[*Client]struct{})
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[client.UserID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.UserID] = set
			}
			set[client] = struct{}{}
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.clients[client.UserID]; ok {
				if _, ok := set[client]; ok {
					delete(set, client)
					close(client.send)
				}
				if len(set) == 0 {
					delete(h.clients, client.UserID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Connected reports whether userID has at least one open connection.
func (h *Hub) Connected(userID primitive.ObjectID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// SendToUser queues msg on every connection of userID. Slow clients drop the message.
func (h *Hub) SendToUser(userID primitive.ObjectID, msg Message) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	set := h.clients[userID]
	if len(set) == 0 {
		return ErrNotConnected
	}
	for c := range set {
		select {
		case c.send <- msg:
		default:
			log.Warn().Str("user_id", userID.Hex()).Msg("websocket send buffer full, dropping message")
		}
	}
	return nil
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
