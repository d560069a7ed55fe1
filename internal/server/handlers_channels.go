// ABOUTME: Channel CRUD endpoints
// ABOUTME: Voice channels get a linked text chat and a LiveKit room name

package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/lunarus/lunarus-server/internal/auth"
	"github.com/lunarus/lunarus-server/internal/store"
)

var allowedChannelTypes = map[string]struct{}{
	store.ChannelTypeText:  {},
	store.ChannelTypeVoice: {},
	store.ChannelTypeForum: {},
}

func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	principal := auth.MustFromContext(r.Context())
	serverID := r.PathValue("serverId")

	if !s.requireMember(w, r, serverID, principal.UserID) {
		return
	}

	channels, err := s.store.ListChannels(r.Context(), serverID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": channels})
}

type createChannelRequest struct {
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Icon      *string `json:"icon"`
	NSFW      bool    `json:"nsfw"`
	IsPrivate bool    `json:"isPrivate"`
}

func (s *Server) handleCreateChannel(w http.ResponseWriter, r *http.Request) {
	principal := auth.MustFromContext(r.Context())
	serverID := r.PathValue("serverId")

	if !s.requireOwner(w, r, serverID, principal.UserID) {
		return
	}

	var req createChannelRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}
	chType := req.Type
	if chType == "" {
		chType = store.ChannelTypeText
	}
	if _, ok := allowedChannelTypes[chType]; !ok {
		writeError(w, http.StatusBadRequest, "bad type")
		return
	}

	maxPos, err := s.store.MaxChannelPosition(r.Context(), serverID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}

	now := time.Now().UnixMilli()
	ch := store.Channel{
		ID:        genID("c"),
		ServerID:  serverID,
		Name:      name,
		Type:      chType,
		Position:  maxPos + 10,
		NSFW:      req.NSFW,
		IsPrivate: req.IsPrivate,
		CreatedAt: now,
	}
	if req.Icon != nil {
		if trimmed := strings.TrimSpace(*req.Icon); trimmed != "" {
			ch.Icon = &trimmed
		}
	}

	// Voice channels carry their own text chat and a room name scoped to
	// the server.
	if chType == store.ChannelTypeVoice {
		linkedID := ch.ID + "-chat"
		room := serverID + "-" + ch.ID
		ch.LinkedTextChannelID = &linkedID
		ch.Room = &room
	}

	if err := s.store.InsertChannel(r.Context(), ch); err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}

	if ch.LinkedTextChannelID != nil {
		icon := "#"
		linked := store.Channel{
			ID:        *ch.LinkedTextChannelID,
			ServerID:  serverID,
			Name:      name + "-chat",
			Type:      store.ChannelTypeText,
			Position:  ch.Position + 1,
			Icon:      &icon,
			CreatedAt: now,
		}
		if err := s.store.InsertChannel(r.Context(), linked); err != nil {
			writeError(w, http.StatusInternalServerError, "store unavailable")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "item": ch})
}

type updateChannelRequest struct {
	Name                optional[string] `json:"name"`
	Icon                optional[string] `json:"icon"`
	NSFW                optional[bool]   `json:"nsfw"`
	IsPrivate           optional[bool]   `json:"isPrivate"`
	Type                optional[string] `json:"type"`
	Position            optional[int]    `json:"position"`
	LinkedTextChannelID optional[string] `json:"linkedTextChannelId"`
	Room                optional[string] `json:"room"`
}

// handleUpdateChannel lets any member edit channel metadata. Ownership is
// only required for create and delete.
func (s *Server) handleUpdateChannel(w http.ResponseWriter, r *http.Request) {
	principal := auth.MustFromContext(r.Context())
	channelID := r.PathValue("channelId")

	current, err := s.store.GetChannel(r.Context(), channelID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "channel not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	if !s.requireMember(w, r, current.ServerID, principal.UserID) {
		return
	}

	var req updateChannelRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	next := *current
	if req.Name.set && req.Name.value != nil {
		next.Name = *req.Name.value
	}
	if req.Icon.set {
		next.Icon = req.Icon.value
	}
	if req.NSFW.set && req.NSFW.value != nil {
		next.NSFW = *req.NSFW.value
	}
	if req.IsPrivate.set && req.IsPrivate.value != nil {
		next.IsPrivate = *req.IsPrivate.value
	}
	if req.Type.set && req.Type.value != nil {
		next.Type = *req.Type.value
	}
	if req.Position.set && req.Position.value != nil {
		next.Position = *req.Position.value
	}
	if req.LinkedTextChannelID.set {
		next.LinkedTextChannelID = req.LinkedTextChannelID.value
	}
	if req.Room.set {
		next.Room = req.Room.value
	}

	if _, ok := allowedChannelTypes[next.Type]; !ok {
		writeError(w, http.StatusBadRequest, "bad type")
		return
	}

	updated, err := s.store.UpdateChannel(r.Context(), next)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "item": updated})
}

// handleDeleteChannel removes a channel; a voice channel takes its linked
// text chat with it.
func (s *Server) handleDeleteChannel(w http.ResponseWriter, r *http.Request) {
	principal := auth.MustFromContext(r.Context())
	channelID := r.PathValue("channelId")

	ch, err := s.store.GetChannel(r.Context(), channelID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "channel not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	if !s.requireOwner(w, r, ch.ServerID, principal.UserID) {
		return
	}

	if err := s.store.DeleteChannel(r.Context(), channelID); err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	if ch.LinkedTextChannelID != nil {
		if err := s.store.DeleteChannel(r.Context(), *ch.LinkedTextChannelID); err != nil {
			s.logger.Warn("failed to delete linked channel",
				"channel_id", *ch.LinkedTextChannelID, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
