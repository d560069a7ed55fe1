// ABOUTME: WebSocket handshake and inbound protocol handler for /gateway
// ABOUTME: Authenticates via token query param, then runs the read loop

package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lunarus/lunarus-server/internal/auth"
)

// DefaultChannelID is the subscription used when the client does not name
// one during the handshake.
const DefaultChannelID = "general"

// Handler upgrades HTTP requests to gateway sessions and drives their
// inbound protocol.
type Handler struct {
	verifier auth.TokenVerifier
	registry *Registry
	router   *Router
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates the gateway endpoint handler.
func NewHandler(verifier auth.TokenVerifier, registry *Registry, router *Router, logger *slog.Logger) *Handler {
	return &Handler{
		verifier: verifier,
		registry: registry,
		router:   router,
		logger:   logger.With("component", "gateway"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from arbitrary origins; the token is
			// the trust boundary, not the Origin header.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP performs the handshake. The socket is upgraded first so the
// rejection can travel as a proper close frame.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		h.rejectHandshake(ws, "missing token")
		return
	}

	principal, err := h.verifier.Verify(token)
	if err != nil {
		h.rejectHandshake(ws, "bad token")
		return
	}

	channelID := r.URL.Query().Get("channelId")
	if channelID == "" {
		channelID = DefaultChannelID
	}

	conn := newConnection(ws, principal, channelID, h.logger)
	h.registry.Add(conn)
	go conn.writePump()

	h.logger.Info("gateway session opened",
		"connection_id", conn.ID, "user_id", conn.UserID, "channel_id", channelID)

	if data, err := MarshalEvent(ReadyEvent{User: ReadyUser{ID: conn.UserID, Username: conn.Username}}); err == nil {
		conn.TrySend(data)
	}

	h.readLoop(conn)

	h.registry.Remove(conn)
	conn.close()
	h.logger.Info("gateway session closed", "connection_id", conn.ID, "user_id", conn.UserID)
}

// rejectHandshake closes a never-registered socket with a policy violation.
func (h *Handler) rejectHandshake(ws *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = ws.Close()
	h.logger.Debug("handshake rejected", "reason", reason)
}

// readLoop is the sole reader on the socket. Inbound frames are processed
// sequentially; it returns when the peer disconnects or times out.
func (h *Handler) readLoop(conn *Connection) {
	conn.ws.SetReadLimit(maxFrameSize)
	_ = conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("read failed", "connection_id", conn.ID, "error", err)
			}
			return
		}
		h.handleFrame(conn, data)
	}
}

// handleFrame dispatches one inbound operation. Malformed frames and
// unknown ops are dropped without a response; a broken client must not be
// able to take down its session.
func (h *Handler) handleFrame(conn *Connection, data []byte) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return
	}

	switch frame.Op {
	case OpSubscribe:
		var ref channelRef
		if len(frame.Data) > 0 {
			_ = json.Unmarshal(frame.Data, &ref)
		}
		if ref.ChannelID != "" {
			conn.SetChannel(ref.ChannelID)
		}
		if ack, err := MarshalEvent(SubscribedEvent{ChannelID: conn.Channel()}); err == nil {
			conn.TrySend(ack)
		}

	case OpTyping:
		channelID := conn.Channel()
		var ref channelRef
		if len(frame.Data) > 0 {
			if err := json.Unmarshal(frame.Data, &ref); err == nil && ref.ChannelID != "" {
				channelID = ref.ChannelID
			}
		}
		h.router.Broadcast(
			TypingStartEvent{ChannelID: channelID, UserID: conn.UserID},
			func(c *Connection) bool {
				return c.Channel() == channelID && c.UserID != conn.UserID
			},
		)
	}
}
