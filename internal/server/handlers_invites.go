// ABOUTME: Invite creation, preview, and join endpoints
// ABOUTME: Expired or exhausted invites answer 410 Gone

package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/lunarus/lunarus-server/internal/auth"
	"github.com/lunarus/lunarus-server/internal/store"
)

type createInviteRequest struct {
	ChannelID *string `json:"channelId"`
	ExpiresAt *int64  `json:"expiresAt"`
	MaxUses   *int    `json:"maxUses"`
}

// handleCreateInvite lets any member mint an invite. Codes are retried a
// few times on collision; the alphabet makes collisions vanishingly rare.
func (s *Server) handleCreateInvite(w http.ResponseWriter, r *http.Request) {
	principal := auth.MustFromContext(r.Context())
	serverID := r.PathValue("serverId")

	if !s.requireMember(w, r, serverID, principal.UserID) {
		return
	}

	var req createInviteRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	code := genInviteCode()
	for i := 0; i < 5; i++ {
		exists, err := s.store.InviteCodeExists(r.Context(), code)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "store unavailable")
			return
		}
		if !exists {
			break
		}
		code = genInviteCode()
	}

	inv := store.Invite{
		Code:      code,
		ServerID:  serverID,
		ChannelID: req.ChannelID,
		CreatedBy: principal.UserID,
		CreatedAt: time.Now().UnixMilli(),
		ExpiresAt: req.ExpiresAt,
		MaxUses:   req.MaxUses,
	}
	if err := s.store.InsertInvite(r.Context(), inv); err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "item": inv})
}

// inviteUsable writes the 410 itself when the invite is expired or used up.
func inviteUsable(w http.ResponseWriter, expiresAt *int64, maxUses *int, uses int) bool {
	now := time.Now().UnixMilli()
	if expiresAt != nil && *expiresAt < now {
		writeError(w, http.StatusGone, "invite expired")
		return false
	}
	if maxUses != nil && uses >= *maxUses {
		writeError(w, http.StatusGone, "invite max uses reached")
		return false
	}
	return true
}

func (s *Server) handleInvitePreview(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(r.PathValue("code")))

	preview, err := s.store.GetInvitePreview(r.Context(), code)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "invite not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	if !inviteUsable(w, preview.ExpiresAt, preview.MaxUses, preview.Uses) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": preview})
}

func (s *Server) handleJoinInvite(w http.ResponseWriter, r *http.Request) {
	principal := auth.MustFromContext(r.Context())
	code := strings.ToUpper(strings.TrimSpace(r.PathValue("code")))

	inv, err := s.store.GetInvite(r.Context(), code)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "invite not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	if !inviteUsable(w, inv.ExpiresAt, inv.MaxUses, inv.Uses) {
		return
	}

	if err := s.store.UpsertMember(r.Context(), inv.ServerID, principal.UserID, time.Now().UnixMilli()); err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	if err := s.store.IncrementInviteUses(r.Context(), code); err != nil {
		s.logger.Warn("failed to count invite use", "code", code, "error", err)
	}

	srv, err := s.store.GetServer(r.Context(), inv.ServerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "item": srv})
}
