// ABOUTME: A single authenticated WebSocket connection with its write pump
// ABOUTME: Outbound delivery is best-effort through a bounded send buffer

package gateway

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lunarus/lunarus-server/internal/auth"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size. Control frames are tiny JSON objects.
	maxFrameSize = 4096

	// Outbound buffer per connection. A full buffer drops events rather
	// than letting one slow reader stall the fanout.
	sendBufferSize = 64
)

// Connection is one authenticated gateway session. Identity fields are
// immutable after the handshake; the subscribed channel changes only
// through SetChannel from the connection's own read loop.
type Connection struct {
	ID       string
	UserID   string
	Username string

	ws     *websocket.Conn
	send   chan []byte
	logger *slog.Logger

	mu      sync.RWMutex
	channel string

	closeOnce sync.Once
	done      chan struct{}
}

func newConnection(ws *websocket.Conn, principal *auth.Principal, channelID string, logger *slog.Logger) *Connection {
	return &Connection{
		ID:       uuid.NewString(),
		UserID:   principal.UserID,
		Username: principal.Username,
		ws:       ws,
		send:     make(chan []byte, sendBufferSize),
		logger:   logger,
		channel:  channelID,
		done:     make(chan struct{}),
	}
}

// Channel returns the currently subscribed channel id.
func (c *Connection) Channel() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

// SetChannel switches the subscription to the given channel.
func (c *Connection) SetChannel(channelID string) {
	c.mu.Lock()
	c.channel = channelID
	c.mu.Unlock()
}

// TrySend queues data for delivery without blocking. It returns false when
// the connection is closing or its buffer is full; the event is dropped.
func (c *Connection) TrySend(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// close signals the write pump to send a close frame and stop. Safe to call
// more than once.
func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// writePump is the sole writer on the socket. It drains the send buffer,
// keeps the connection alive with pings, and closes the socket on exit.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("write failed", "connection_id", c.ID, "error", err)
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
