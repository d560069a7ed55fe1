// ABOUTME: Wire protocol events and frames for the WebSocket gateway
// ABOUTME: Outbound events marshal to {"t": ..., "d": ...} envelopes

package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/lunarus/lunarus-server/internal/store"
)

// Outbound event tags.
const (
	EventReady         = "READY"
	EventSubscribed    = "SUBSCRIBED"
	EventTypingStart   = "TYPING_START"
	EventMessageCreate = "MESSAGE_CREATE"
)

// Inbound operation codes.
const (
	OpSubscribe = "SUBSCRIBE"
	OpTyping    = "TYPING"
)

// Event is an outbound gateway event. The concrete types below are the
// complete set; each marshals as the "d" payload of its envelope.
type Event interface {
	Type() string
}

// ReadyEvent confirms a successful handshake and tells the client who it
// authenticated as.
type ReadyEvent struct {
	User ReadyUser `json:"user"`
}

// ReadyUser identifies the authenticated user in a ReadyEvent.
type ReadyUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (ReadyEvent) Type() string { return EventReady }

// SubscribedEvent acknowledges a SUBSCRIBE with the now-active channel.
type SubscribedEvent struct {
	ChannelID string `json:"channelId"`
}

func (SubscribedEvent) Type() string { return EventSubscribed }

// TypingStartEvent tells same-channel peers that a user started typing.
type TypingStartEvent struct {
	ChannelID string `json:"channelId"`
	UserID    string `json:"userId"`
}

func (TypingStartEvent) Type() string { return EventTypingStart }

// MessageCreateEvent carries a newly persisted message to subscribers.
type MessageCreateEvent struct {
	store.Message
}

func (MessageCreateEvent) Type() string { return EventMessageCreate }

// MarshalEvent encodes an event into its wire envelope.
func MarshalEvent(ev Event) ([]byte, error) {
	envelope := struct {
		T string `json:"t"`
		D any    `json:"d"`
	}{T: ev.Type(), D: ev}

	data, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", ev.Type(), err)
	}
	return data, nil
}

// Frame is an inbound client operation. The payload shape depends on Op.
type Frame struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"d"`
}

// channelRef is the payload shared by SUBSCRIBE and TYPING.
type channelRef struct {
	ChannelID string `json:"channelId"`
}
