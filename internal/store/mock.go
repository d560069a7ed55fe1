// ABOUTME: In-memory Store implementation for tests
// ABOUTME: Supports forced failures to exercise error paths

package store

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"sync"
	"time"
)

type memberKey struct {
	serverID string
	userID   string
}

// MockStore is an in-memory Store for tests. SetFailure forces every
// subsequent call to return the given error, which lets tests exercise
// store-outage paths without a database.
type MockStore struct {
	mu        sync.Mutex
	servers   map[string]Server
	members   map[memberKey]int64
	channels  map[string]Channel
	invites   map[string]Invite
	messages  []Message
	nextMsgID int64
	failErr   error
}

// NewMockStore returns an empty MockStore. Call Bootstrap to seed the
// default server the way the real store does.
func NewMockStore() *MockStore {
	return &MockStore{
		servers:   make(map[string]Server),
		members:   make(map[memberKey]int64),
		channels:  make(map[string]Channel),
		invites:   make(map[string]Invite),
		nextMsgID: 1,
	}
}

// SetFailure makes all subsequent calls fail with err. Pass nil to clear.
func (s *MockStore) SetFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

func (s *MockStore) Close() {}

func (s *MockStore) Bootstrap(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	now := time.Now().UnixMilli()
	if _, ok := s.servers[DefaultServerID]; !ok {
		s.servers[DefaultServerID] = Server{ID: DefaultServerID, Name: "Lunarus", OwnerID: "system", CreatedAt: now}
	}
	for _, ch := range SeedChannels(now) {
		if _, ok := s.channels[ch.ID]; !ok {
			s.channels[ch.ID] = ch
		}
	}
	return nil
}

func (s *MockStore) InsertServer(_ context.Context, srv Server) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.servers[srv.ID] = srv
	return nil
}

func (s *MockStore) GetServer(_ context.Context, id string) (*Server, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	srv, ok := s.servers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &srv, nil
}

func (s *MockStore) UpdateServer(_ context.Context, id, name string, icon *string) (*Server, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	srv, ok := s.servers[id]
	if !ok {
		return nil, ErrNotFound
	}
	srv.Name = name
	srv.Icon = icon
	s.servers[id] = srv
	return &srv, nil
}

func (s *MockStore) DeleteServer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	delete(s.servers, id)
	for key := range s.members {
		if key.serverID == id {
			delete(s.members, key)
		}
	}
	for chID, ch := range s.channels {
		if ch.ServerID == id {
			delete(s.channels, chID)
		}
	}
	for code, inv := range s.invites {
		if inv.ServerID == id {
			delete(s.invites, code)
		}
	}
	return nil
}

func (s *MockStore) ListServersForUser(_ context.Context, userID string) ([]Server, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	servers := []Server{}
	for key := range s.members {
		if key.userID != userID {
			continue
		}
		if srv, ok := s.servers[key.serverID]; ok {
			servers = append(servers, srv)
		}
	}
	sort.Slice(servers, func(i, j int) bool { return servers[i].CreatedAt < servers[j].CreatedAt })
	return servers, nil
}

func (s *MockStore) UpsertMember(_ context.Context, serverID, userID string, joinedAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	key := memberKey{serverID: serverID, userID: userID}
	if _, ok := s.members[key]; !ok {
		s.members[key] = joinedAt
	}
	return nil
}

func (s *MockStore) IsMember(_ context.Context, serverID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return false, s.failErr
	}
	_, ok := s.members[memberKey{serverID: serverID, userID: userID}]
	return ok, nil
}

func (s *MockStore) IsOwner(_ context.Context, serverID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return false, s.failErr
	}
	srv, ok := s.servers[serverID]
	if !ok {
		return false, nil
	}
	return srv.OwnerID == userID, nil
}

func (s *MockStore) InsertChannel(_ context.Context, ch Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.channels[ch.ID] = ch
	return nil
}

func (s *MockStore) GetChannel(_ context.Context, id string) (*Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	ch, ok := s.channels[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &ch, nil
}

func (s *MockStore) UpdateChannel(_ context.Context, ch Channel) (*Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	existing, ok := s.channels[ch.ID]
	if !ok {
		return nil, ErrNotFound
	}
	ch.ServerID = existing.ServerID
	ch.CreatedAt = existing.CreatedAt
	s.channels[ch.ID] = ch
	return &ch, nil
}

func (s *MockStore) DeleteChannel(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	delete(s.channels, id)
	return nil
}

func (s *MockStore) ListChannels(_ context.Context, serverID string) ([]Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	channels := []Channel{}
	for _, ch := range s.channels {
		if ch.ServerID == serverID {
			channels = append(channels, ch)
		}
	}
	sort.Slice(channels, func(i, j int) bool {
		if channels[i].Position != channels[j].Position {
			return channels[i].Position < channels[j].Position
		}
		return channels[i].CreatedAt < channels[j].CreatedAt
	})
	return channels, nil
}

func (s *MockStore) MaxChannelPosition(_ context.Context, serverID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return 0, s.failErr
	}
	max := 0
	for _, ch := range s.channels {
		if ch.ServerID == serverID && ch.Position > max {
			max = ch.Position
		}
	}
	return max, nil
}

func (s *MockStore) InsertInvite(_ context.Context, inv Invite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.invites[inv.Code] = inv
	return nil
}

func (s *MockStore) GetInvite(_ context.Context, code string) (*Invite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	inv, ok := s.invites[code]
	if !ok {
		return nil, ErrNotFound
	}
	return &inv, nil
}

func (s *MockStore) GetInvitePreview(_ context.Context, code string) (*InvitePreview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	inv, ok := s.invites[code]
	if !ok {
		return nil, ErrNotFound
	}
	srv, ok := s.servers[inv.ServerID]
	if !ok {
		return nil, ErrNotFound
	}
	return &InvitePreview{
		Code:       inv.Code,
		ServerID:   inv.ServerID,
		ChannelID:  inv.ChannelID,
		ExpiresAt:  inv.ExpiresAt,
		MaxUses:    inv.MaxUses,
		Uses:       inv.Uses,
		ServerName: srv.Name,
		ServerIcon: srv.Icon,
	}, nil
}

func (s *MockStore) IncrementInviteUses(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	inv, ok := s.invites[code]
	if !ok {
		return ErrNotFound
	}
	inv.Uses++
	s.invites[code] = inv
	return nil
}

func (s *MockStore) InviteCodeExists(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return false, s.failErr
	}
	_, ok := s.invites[code]
	return ok, nil
}

func (s *MockStore) InsertMessage(_ context.Context, msg NewMessage) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	stored := Message{
		ID:        strconv.FormatInt(s.nextMsgID, 10),
		ChannelID: msg.ChannelID,
		AuthorID:  msg.AuthorID,
		Content:   msg.Content,
		Kind:      msg.Kind,
		Media:     append(json.RawMessage(nil), msg.Media...),
		Timestamp: msg.Timestamp,
	}
	s.nextMsgID++
	s.messages = append(s.messages, stored)
	return &stored, nil
}

func (s *MockStore) RecentMessages(_ context.Context, channelID string, limit int) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	limit = ClampHistoryLimit(limit)

	matched := []Message{}
	for _, msg := range s.messages {
		if msg.ChannelID == channelID {
			matched = append(matched, msg)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Timestamp < matched[j].Timestamp })
	if len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched, nil
}
