// ABOUTME: Message ingress bridging durable storage and live fanout
// ABOUTME: Persist first, then broadcast; a failed insert never broadcasts

package message

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lunarus/lunarus-server/internal/gateway"
	"github.com/lunarus/lunarus-server/internal/store"
)

// Sentinel errors for callers that map failures to HTTP statuses.
var (
	ErrInvalidKind      = errors.New("invalid message kind")
	ErrStoreUnavailable = errors.New("message store unavailable")
)

// Message kinds accepted on ingest.
const (
	KindText  = "text"
	KindImage = "image"
	KindGif   = "gif"
)

var allowedKinds = map[string]struct{}{
	KindText:  {},
	KindImage: {},
	KindGif:   {},
}

// Broadcaster is the fanout side of the bridge, satisfied by
// gateway.Router.
type Broadcaster interface {
	Broadcast(ev gateway.Event, match func(*gateway.Connection) bool)
}

// Inbound is a message submitted by a client. Empty ChannelID defaults to
// the general channel and empty Kind defaults to text.
type Inbound struct {
	ChannelID string
	AuthorID  string
	Content   string
	Kind      string
	Media     json.RawMessage
}

// Service validates, persists, and fans out chat messages.
type Service struct {
	store  store.Store
	router Broadcaster
	logger *slog.Logger
	now    func() int64
}

// NewService creates the ingress bridge.
func NewService(st store.Store, router Broadcaster, logger *slog.Logger) *Service {
	return &Service{
		store:  st,
		router: router,
		logger: logger.With("component", "message"),
		now:    func() int64 { return time.Now().UnixMilli() },
	}
}

// Ingest runs the full ingress path: validate the kind, persist, then
// broadcast MESSAGE_CREATE to connections subscribed to the channel. The
// returned message is the canonical stored form with its assigned id.
func (s *Service) Ingest(ctx context.Context, in Inbound) (*store.Message, error) {
	kind := in.Kind
	if kind == "" {
		kind = KindText
	}
	if _, ok := allowedKinds[kind]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, in.Kind)
	}

	channelID := in.ChannelID
	if channelID == "" {
		channelID = gateway.DefaultChannelID
	}

	stored, err := s.store.InsertMessage(ctx, store.NewMessage{
		ChannelID: channelID,
		AuthorID:  in.AuthorID,
		Content:   in.Content,
		Kind:      kind,
		Media:     in.Media,
		Timestamp: s.now(),
	})
	if err != nil {
		s.logger.Error("failed to persist message", "channel_id", channelID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.router.Broadcast(
		gateway.MessageCreateEvent{Message: *stored},
		gateway.MatchChannel(stored.ChannelID),
	)

	return stored, nil
}

// History returns recent messages for a channel, oldest first. The limit
// is clamped by the store into [1, 100].
func (s *Service) History(ctx context.Context, channelID string, limit int) ([]store.Message, error) {
	if channelID == "" {
		channelID = gateway.DefaultChannelID
	}
	messages, err := s.store.RecentMessages(ctx, channelID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return messages, nil
}
