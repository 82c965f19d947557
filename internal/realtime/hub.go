// Package realtime pushes booking notifications to connected users over
// WebSockets, optionally fanned out across instances through Redis.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 32
)

// Message is the frame written to a WebSocket client.
type Message struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type connection struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks the open connections of each user on this instance.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*connection]struct{}
	logger  *zap.Logger
}

// NewHub creates an empty Hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]map[*connection]struct{}),
		logger:  logger,
	}
}

// Publish delivers an event to every connection of userID on this instance.
// A user with no open connection is not an error.
func (h *Hub) Publish(_ context.Context, userID uuid.UUID, event string, payload interface{}) error {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		return err
	}
	h.Deliver(userID, frame)
	return nil
}

// Deliver queues an encoded frame for each of the user's connections and
// returns how many accepted it. Slow consumers with a full buffer are skipped.
func (h *Hub) Deliver(userID uuid.UUID, frame []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.clients[userID] {
		select {
		case c.send <- frame:
			delivered++
		default:
			h.logger.Warn("dropping notification for slow websocket client",
				zap.String("user_id", userID.String()),
			)
		}
	}
	return delivered
}

// ConnectionCount returns the number of open connections for a user.
func (h *Hub) ConnectionCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Serve registers conn for userID and blocks until the client disconnects.
func (h *Hub) Serve(userID uuid.UUID, conn *websocket.Conn) {
	c := &connection{conn: conn, send: make(chan []byte, sendBufferSize)}
	h.register(userID, c)

	done := make(chan struct{})
	go h.writePump(c, done)
	h.readPump(c)

	h.unregister(userID, c)
	close(done)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, conns := range h.clients {
		for c := range conns {
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			_ = c.conn.Close()
		}
		delete(h.clients, userID)
	}
}

func (h *Hub) register(userID uuid.UUID, c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*connection]struct{})
	}
	h.clients[userID][c] = struct{}{}
	h.logger.Debug("websocket client connected", zap.String("user_id", userID.String()))
}

func (h *Hub) unregister(userID uuid.UUID, c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.clients[userID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.clients, userID)
		}
	}
	h.logger.Debug("websocket client disconnected", zap.String("user_id", userID.String()))
}

// readPump only services control frames; clients do not send commands.
func (h *Hub) readPump(c *connection) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *connection, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func encodeFrame(event string, payload interface{}) ([]byte, error) {
	raw, ok := payload.(json.RawMessage)
	if !ok {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", event, err)
		}
		raw = data
	}
	frame, err := json.Marshal(Message{Event: event, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("marshal %s frame: %w", event, err)
	}
	return frame, nil
}
