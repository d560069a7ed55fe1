// ABOUTME: Core storage types and the Store interface
// ABOUTME: Defines servers, members, channels, invites, and messages

package store

import (
	"context"
	"encoding/json"
	"errors"
)

// Sentinel errors returned by Store implementations.
var (
	ErrNotFound = errors.New("not found")
)

// Channel types.
const (
	ChannelTypeText  = "text"
	ChannelTypeVoice = "voice"
	ChannelTypeForum = "forum"
)

// DefaultServerID is the seeded server every user is auto-joined to.
const DefaultServerID = "lunarus"

// Server is a guild that owns channels and members.
type Server struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Icon      *string `json:"icon"`
	OwnerID   string  `json:"ownerId"`
	CreatedAt int64   `json:"createdAt"`
}

// Channel belongs to a server. Voice channels carry a LiveKit room name and
// may link to a text channel that hosts their chat.
type Channel struct {
	ID                  string  `json:"id"`
	ServerID            string  `json:"serverId"`
	Name                string  `json:"name"`
	Type                string  `json:"type"`
	Position            int     `json:"position"`
	Icon                *string `json:"icon"`
	NSFW                bool    `json:"nsfw"`
	IsPrivate           bool    `json:"isPrivate"`
	LinkedTextChannelID *string `json:"linkedTextChannelId"`
	Room                *string `json:"room"`
	CreatedAt           int64   `json:"createdAt"`
}

// Invite grants membership in a server. ExpiresAt and MaxUses are optional
// limits; a nil value means unlimited.
type Invite struct {
	Code      string  `json:"code"`
	ServerID  string  `json:"serverId"`
	ChannelID *string `json:"channelId"`
	CreatedBy string  `json:"createdBy"`
	CreatedAt int64   `json:"createdAt"`
	ExpiresAt *int64  `json:"expiresAt"`
	MaxUses   *int    `json:"maxUses"`
	Uses      int     `json:"uses"`
}

// InvitePreview is an invite joined with its server's display fields.
type InvitePreview struct {
	Code       string  `json:"code"`
	ServerID   string  `json:"serverId"`
	ChannelID  *string `json:"channelId"`
	ExpiresAt  *int64  `json:"expiresAt"`
	MaxUses    *int    `json:"maxUses"`
	Uses       int     `json:"uses"`
	ServerName string  `json:"serverName"`
	ServerIcon *string `json:"serverIcon"`
}

// Message is a persisted chat message. IDs are assigned by the store and
// rendered as strings on the wire. Media holds kind-specific JSON payloads
// for image and gif messages.
type Message struct {
	ID        string          `json:"id"`
	ChannelID string          `json:"channelId"`
	AuthorID  string          `json:"authorId"`
	Content   string          `json:"content"`
	Kind      string          `json:"kind"`
	Media     json.RawMessage `json:"media"`
	Timestamp int64           `json:"ts"`
}

// NewMessage is the insert payload for a message. The store assigns the ID.
type NewMessage struct {
	ChannelID string
	AuthorID  string
	Content   string
	Kind      string
	Media     json.RawMessage
	Timestamp int64
}

// Store is the persistence layer for servers, channels, invites, and
// messages. Implementations must be safe for concurrent use.
type Store interface {
	// Bootstrap creates schema and seed data. It is idempotent.
	Bootstrap(ctx context.Context) error

	// Servers and membership.
	InsertServer(ctx context.Context, srv Server) error
	GetServer(ctx context.Context, id string) (*Server, error)
	UpdateServer(ctx context.Context, id, name string, icon *string) (*Server, error)
	DeleteServer(ctx context.Context, id string) error
	ListServersForUser(ctx context.Context, userID string) ([]Server, error)
	UpsertMember(ctx context.Context, serverID, userID string, joinedAt int64) error
	IsMember(ctx context.Context, serverID, userID string) (bool, error)
	IsOwner(ctx context.Context, serverID, userID string) (bool, error)

	// Channels.
	InsertChannel(ctx context.Context, ch Channel) error
	GetChannel(ctx context.Context, id string) (*Channel, error)
	UpdateChannel(ctx context.Context, ch Channel) (*Channel, error)
	DeleteChannel(ctx context.Context, id string) error
	ListChannels(ctx context.Context, serverID string) ([]Channel, error)
	MaxChannelPosition(ctx context.Context, serverID string) (int, error)

	// Invites.
	InsertInvite(ctx context.Context, inv Invite) error
	GetInvite(ctx context.Context, code string) (*Invite, error)
	GetInvitePreview(ctx context.Context, code string) (*InvitePreview, error)
	IncrementInviteUses(ctx context.Context, code string) error
	InviteCodeExists(ctx context.Context, code string) (bool, error)

	// Messages.
	InsertMessage(ctx context.Context, msg NewMessage) (*Message, error)
	RecentMessages(ctx context.Context, channelID string, limit int) ([]Message, error)

	// Close releases the underlying connections.
	Close()
}

// ClampHistoryLimit normalizes a requested history size into [1, 100].
func ClampHistoryLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > 100 {
		return 100
	}
	return limit
}
