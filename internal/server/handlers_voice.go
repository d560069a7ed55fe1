// ABOUTME: Voice room join endpoint minting LiveKit tokens
// ABOUTME: Identity comes from the verified bearer token

package server

import (
	"net/http"

	"github.com/lunarus/lunarus-server/internal/auth"
)

type voiceJoinRequest struct {
	Room string `json:"room"`
}

func (s *Server) handleVoiceJoin(w http.ResponseWriter, r *http.Request) {
	principal := auth.MustFromContext(r.Context())

	var req voiceJoinRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	identity := principal.Username
	if identity == "" {
		identity = principal.UserID
	}

	grant, err := s.voice.Join(identity, req.Room, s.publicBaseURL(r))
	if err != nil {
		s.logger.Error("failed to mint voice token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to mint voice token")
		return
	}
	writeJSON(w, http.StatusOK, grant)
}
