// ABOUTME: Server (guild) CRUD endpoints
// ABOUTME: Reads need membership, writes need ownership

package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/lunarus/lunarus-server/internal/auth"
	"github.com/lunarus/lunarus-server/internal/store"
)

// requireMember checks membership and writes the 403 itself when absent.
func (s *Server) requireMember(w http.ResponseWriter, r *http.Request, serverID, userID string) bool {
	ok, err := s.store.IsMember(r.Context(), serverID, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return false
	}
	if !ok {
		writeError(w, http.StatusForbidden, "not a member")
		return false
	}
	return true
}

// requireOwner checks ownership and writes the 403 itself when absent.
func (s *Server) requireOwner(w http.ResponseWriter, r *http.Request, serverID, userID string) bool {
	ok, err := s.store.IsOwner(r.Context(), serverID, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return false
	}
	if !ok {
		writeError(w, http.StatusForbidden, "not owner")
		return false
	}
	return true
}

func (s *Server) handleListServers(w http.ResponseWriter, r *http.Request) {
	principal := auth.MustFromContext(r.Context())

	// Default server membership is implicit for everyone.
	if err := s.store.UpsertMember(r.Context(), store.DefaultServerID, principal.UserID, time.Now().UnixMilli()); err != nil {
		s.logger.Warn("failed to ensure default membership", "user_id", principal.UserID, "error", err)
	}

	servers, err := s.store.ListServersForUser(r.Context(), principal.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": servers})
}

type createServerRequest struct {
	Name string  `json:"name"`
	Icon *string `json:"icon"`
}

func (s *Server) handleCreateServer(w http.ResponseWriter, r *http.Request) {
	principal := auth.MustFromContext(r.Context())

	var req createServerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}
	var icon *string
	if req.Icon != nil {
		if trimmed := strings.TrimSpace(*req.Icon); trimmed != "" {
			icon = &trimmed
		}
	}

	now := time.Now().UnixMilli()
	srv := store.Server{
		ID:        genID("s"),
		Name:      name,
		Icon:      icon,
		OwnerID:   principal.UserID,
		CreatedAt: now,
	}

	if err := s.store.InsertServer(r.Context(), srv); err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	if err := s.store.UpsertMember(r.Context(), srv.ID, principal.UserID, now); err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	for _, ch := range store.NewServerChannels(srv.ID, now) {
		if err := s.store.InsertChannel(r.Context(), ch); err != nil {
			writeError(w, http.StatusInternalServerError, "store unavailable")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "item": srv})
}

func (s *Server) handleGetServer(w http.ResponseWriter, r *http.Request) {
	principal := auth.MustFromContext(r.Context())
	serverID := r.PathValue("serverId")

	if !s.requireMember(w, r, serverID, principal.UserID) {
		return
	}

	srv, err := s.store.GetServer(r.Context(), serverID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "server not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"item": srv})
}

type updateServerRequest struct {
	Name optional[string] `json:"name"`
	Icon optional[string] `json:"icon"`
}

func (s *Server) handleUpdateServer(w http.ResponseWriter, r *http.Request) {
	principal := auth.MustFromContext(r.Context())
	serverID := r.PathValue("serverId")

	if !s.requireOwner(w, r, serverID, principal.UserID) {
		return
	}

	var req updateServerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	current, err := s.store.GetServer(r.Context(), serverID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "server not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}

	name := current.Name
	if req.Name.set && req.Name.value != nil {
		name = strings.TrimSpace(*req.Name.value)
	}
	if name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}
	icon := current.Icon
	if req.Icon.set {
		icon = nil
		if req.Icon.value != nil {
			trimmed := strings.TrimSpace(*req.Icon.value)
			icon = &trimmed
		}
	}

	updated, err := s.store.UpdateServer(r.Context(), serverID, name, icon)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "item": updated})
}

func (s *Server) handleDeleteServer(w http.ResponseWriter, r *http.Request) {
	principal := auth.MustFromContext(r.Context())
	serverID := r.PathValue("serverId")

	if !s.requireOwner(w, r, serverID, principal.UserID) {
		return
	}
	if err := s.store.DeleteServer(r.Context(), serverID); err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
