// ABOUTME: PostgreSQL-backed Store implementation using pgxpool
// ABOUTME: Owns schema creation and seed data for the default server

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on top of a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the given database URL and verifies the
// connection with a ping.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS servers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		icon TEXT,
		owner_id TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS server_members (
		server_id TEXT NOT NULL REFERENCES servers(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		nickname TEXT,
		joined_at BIGINT NOT NULL,
		PRIMARY KEY(server_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_server_members_user ON server_members(user_id)`,
	`CREATE TABLE IF NOT EXISTS channels (
		id TEXT PRIMARY KEY,
		server_id TEXT NOT NULL REFERENCES servers(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'text',
		position INT NOT NULL DEFAULT 0,
		icon TEXT,
		nsfw BOOLEAN NOT NULL DEFAULT false,
		is_private BOOLEAN NOT NULL DEFAULT false,
		linked_text_channel_id TEXT,
		room TEXT,
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_channels_server_pos ON channels(server_id, position)`,
	`CREATE TABLE IF NOT EXISTS invites (
		code TEXT PRIMARY KEY,
		server_id TEXT NOT NULL REFERENCES servers(id) ON DELETE CASCADE,
		channel_id TEXT,
		created_by TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		expires_at BIGINT,
		max_uses INT,
		uses INT NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_invites_server ON invites(server_id)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id BIGSERIAL PRIMARY KEY,
		channel_id TEXT NOT NULL,
		author_id TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL DEFAULT 'text',
		media JSONB,
		ts BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_channel_ts ON messages(channel_id, ts)`,
}

// Bootstrap creates the schema and seeds the default server with its
// channels. Every statement is idempotent, so restarts are safe.
func (s *PostgresStore) Bootstrap(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	now := time.Now().UnixMilli()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO servers(id, name, icon, owner_id, created_at)
		 VALUES ($1, 'Lunarus', NULL, 'system', $2)
		 ON CONFLICT (id) DO NOTHING`,
		DefaultServerID, now)
	if err != nil {
		return fmt.Errorf("failed to seed default server: %w", err)
	}

	for _, ch := range SeedChannels(now) {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO channels(id, server_id, name, type, position, icon, nsfw, is_private, linked_text_channel_id, room, created_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
			 ON CONFLICT (id) DO NOTHING`,
			ch.ID, ch.ServerID, ch.Name, ch.Type, ch.Position, ch.Icon, ch.NSFW, ch.IsPrivate, ch.LinkedTextChannelID, ch.Room, ch.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to seed channel %s: %w", ch.ID, err)
		}
	}
	return nil
}

func (s *PostgresStore) InsertServer(ctx context.Context, srv Server) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO servers(id, name, icon, owner_id, created_at) VALUES ($1,$2,$3,$4,$5)`,
		srv.ID, srv.Name, srv.Icon, srv.OwnerID, srv.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert server: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetServer(ctx context.Context, id string) (*Server, error) {
	var srv Server
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, icon, owner_id, created_at FROM servers WHERE id=$1`, id).
		Scan(&srv.ID, &srv.Name, &srv.Icon, &srv.OwnerID, &srv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get server: %w", err)
	}
	return &srv, nil
}

func (s *PostgresStore) UpdateServer(ctx context.Context, id, name string, icon *string) (*Server, error) {
	var srv Server
	err := s.pool.QueryRow(ctx,
		`UPDATE servers SET name=$2, icon=$3 WHERE id=$1
		 RETURNING id, name, icon, owner_id, created_at`,
		id, name, icon).
		Scan(&srv.ID, &srv.Name, &srv.Icon, &srv.OwnerID, &srv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update server: %w", err)
	}
	return &srv, nil
}

func (s *PostgresStore) DeleteServer(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM servers WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete server: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListServersForUser(ctx context.Context, userID string) ([]Server, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT s.id, s.name, s.icon, s.owner_id, s.created_at
		   FROM servers s
		   JOIN server_members m ON m.server_id = s.id
		  WHERE m.user_id = $1
		  ORDER BY s.created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	defer rows.Close()

	servers := []Server{}
	for rows.Next() {
		var srv Server
		if err := rows.Scan(&srv.ID, &srv.Name, &srv.Icon, &srv.OwnerID, &srv.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan server: %w", err)
		}
		servers = append(servers, srv)
	}
	return servers, rows.Err()
}

func (s *PostgresStore) UpsertMember(ctx context.Context, serverID, userID string, joinedAt int64) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO server_members(server_id, user_id, nickname, joined_at)
		 VALUES ($1,$2,NULL,$3)
		 ON CONFLICT (server_id, user_id) DO NOTHING`,
		serverID, userID, joinedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert member: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsMember(ctx context.Context, serverID, userID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM server_members WHERE server_id=$1 AND user_id=$2)`,
		serverID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) IsOwner(ctx context.Context, serverID, userID string) (bool, error) {
	var ownerID string
	err := s.pool.QueryRow(ctx, `SELECT owner_id FROM servers WHERE id=$1`, serverID).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check ownership: %w", err)
	}
	return ownerID == userID, nil
}

const channelColumns = `id, server_id, name, type, position, icon, nsfw, is_private, linked_text_channel_id, room, created_at`

func scanChannel(row pgx.Row) (*Channel, error) {
	var ch Channel
	err := row.Scan(&ch.ID, &ch.ServerID, &ch.Name, &ch.Type, &ch.Position, &ch.Icon,
		&ch.NSFW, &ch.IsPrivate, &ch.LinkedTextChannelID, &ch.Room, &ch.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (s *PostgresStore) InsertChannel(ctx context.Context, ch Channel) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO channels(`+channelColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		ch.ID, ch.ServerID, ch.Name, ch.Type, ch.Position, ch.Icon, ch.NSFW, ch.IsPrivate,
		ch.LinkedTextChannelID, ch.Room, ch.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert channel: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetChannel(ctx context.Context, id string) (*Channel, error) {
	ch, err := scanChannel(s.pool.QueryRow(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	return ch, nil
}

func (s *PostgresStore) UpdateChannel(ctx context.Context, ch Channel) (*Channel, error) {
	updated, err := scanChannel(s.pool.QueryRow(ctx,
		`UPDATE channels
		    SET name=$2, icon=$3, nsfw=$4, is_private=$5, type=$6, position=$7, linked_text_channel_id=$8, room=$9
		  WHERE id=$1
		RETURNING `+channelColumns,
		ch.ID, ch.Name, ch.Icon, ch.NSFW, ch.IsPrivate, ch.Type, ch.Position, ch.LinkedTextChannelID, ch.Room))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update channel: %w", err)
	}
	return updated, nil
}

func (s *PostgresStore) DeleteChannel(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM channels WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListChannels(ctx context.Context, serverID string) ([]Channel, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+channelColumns+` FROM channels
		  WHERE server_id = $1
		  ORDER BY position ASC, created_at ASC`, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	channels := []Channel{}
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		channels = append(channels, *ch)
	}
	return channels, rows.Err()
}

func (s *PostgresStore) MaxChannelPosition(ctx context.Context, serverID string) (int, error) {
	var max int
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(position), 0) FROM channels WHERE server_id=$1`, serverID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to get max channel position: %w", err)
	}
	return max, nil
}

func (s *PostgresStore) InsertInvite(ctx context.Context, inv Invite) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO invites(code, server_id, channel_id, created_by, created_at, expires_at, max_uses, uses)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		inv.Code, inv.ServerID, inv.ChannelID, inv.CreatedBy, inv.CreatedAt, inv.ExpiresAt, inv.MaxUses, inv.Uses)
	if err != nil {
		return fmt.Errorf("failed to insert invite: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetInvite(ctx context.Context, code string) (*Invite, error) {
	var inv Invite
	err := s.pool.QueryRow(ctx,
		`SELECT code, server_id, channel_id, created_by, created_at, expires_at, max_uses, uses
		   FROM invites WHERE code=$1`, code).
		Scan(&inv.Code, &inv.ServerID, &inv.ChannelID, &inv.CreatedBy, &inv.CreatedAt,
			&inv.ExpiresAt, &inv.MaxUses, &inv.Uses)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invite: %w", err)
	}
	return &inv, nil
}

func (s *PostgresStore) GetInvitePreview(ctx context.Context, code string) (*InvitePreview, error) {
	var p InvitePreview
	err := s.pool.QueryRow(ctx,
		`SELECT i.code, i.server_id, i.channel_id, i.expires_at, i.max_uses, i.uses, s.name, s.icon
		   FROM invites i JOIN servers s ON s.id = i.server_id
		  WHERE i.code=$1`, code).
		Scan(&p.Code, &p.ServerID, &p.ChannelID, &p.ExpiresAt, &p.MaxUses, &p.Uses,
			&p.ServerName, &p.ServerIcon)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invite preview: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) IncrementInviteUses(ctx context.Context, code string) error {
	_, err := s.pool.Exec(ctx, `UPDATE invites SET uses = uses + 1 WHERE code=$1`, code)
	if err != nil {
		return fmt.Errorf("failed to increment invite uses: %w", err)
	}
	return nil
}

func (s *PostgresStore) InviteCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM invites WHERE code=$1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check invite code: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) InsertMessage(ctx context.Context, msg NewMessage) (*Message, error) {
	var (
		out   Message
		id    int64
		media []byte
	)
	err := s.pool.QueryRow(ctx,
		`INSERT INTO messages(channel_id, author_id, content, kind, media, ts)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 RETURNING id, channel_id, author_id, content, kind, media, ts`,
		msg.ChannelID, msg.AuthorID, msg.Content, msg.Kind, []byte(msg.Media), msg.Timestamp).
		Scan(&id, &out.ChannelID, &out.AuthorID, &out.Content, &out.Kind, &media, &out.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	out.ID = fmt.Sprintf("%d", id)
	out.Media = json.RawMessage(media)
	return &out, nil
}

// RecentMessages returns up to limit messages for a channel, oldest first.
// The limit is clamped into [1, 100].
func (s *PostgresStore) RecentMessages(ctx context.Context, channelID string, limit int) ([]Message, error) {
	limit = ClampHistoryLimit(limit)

	rows, err := s.pool.Query(ctx,
		`SELECT id, channel_id, author_id, content, kind, media, ts
		   FROM messages
		  WHERE channel_id = $1
		  ORDER BY ts DESC
		  LIMIT $2`, channelID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		var (
			msg   Message
			id    int64
			media []byte
		)
		if err := rows.Scan(&id, &msg.ChannelID, &msg.AuthorID, &msg.Content, &msg.Kind, &media, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.ID = fmt.Sprintf("%d", id)
		msg.Media = json.RawMessage(media)
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Rows arrive newest first; flip to oldest first for the client.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
