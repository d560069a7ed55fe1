// ABOUTME: Login endpoint minting bearer tokens
// ABOUTME: Logins auto-join the default server

package server

import (
	"net/http"
	"time"

	"github.com/lunarus/lunarus-server/internal/auth"
	"github.com/lunarus/lunarus-server/internal/store"
)

const loginTokenTTL = 7 * 24 * time.Hour

type loginRequest struct {
	Username string `json:"username"`
}

type loginUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// handleLogin mints a 7-day token for the given username. There is no
// password check; identity is the username itself.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	username := req.Username
	if username == "" {
		username = "user"
	}
	principal := &auth.Principal{UserID: username, Username: username}

	token, err := s.verifier.Generate(principal, loginTokenTTL)
	if err != nil {
		s.logger.Error("failed to mint token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to mint token")
		return
	}

	// Best effort; login still succeeds if the store is down.
	if err := s.store.UpsertMember(r.Context(), store.DefaultServerID, principal.UserID, time.Now().UnixMilli()); err != nil {
		s.logger.Warn("failed to auto-join default server", "user_id", principal.UserID, "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  loginUser{ID: principal.UserID, Username: principal.Username},
	})
}
