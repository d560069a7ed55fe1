// ABOUTME: Message history and send endpoints, Discord-style and legacy
// ABOUTME: Both POST variants feed the same persist-then-broadcast path

package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lunarus/lunarus-server/internal/auth"
	"github.com/lunarus/lunarus-server/internal/message"
)

const defaultHistoryLimit = 50

type sendMessageRequest struct {
	ChannelID string          `json:"channelId"`
	Content   string          `json:"content"`
	Kind      string          `json:"kind"`
	Media     json.RawMessage `json:"media"`
}

func (s *Server) history(w http.ResponseWriter, r *http.Request, channelID string) {
	limit := queryInt(r, "limit", defaultHistoryLimit)

	items, err := s.messages.History(r.Context(), channelID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) send(w http.ResponseWriter, r *http.Request, channelID string) {
	principal := auth.MustFromContext(r.Context())

	var req sendMessageRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if channelID == "" {
		channelID = req.ChannelID
	}

	msg, err := s.messages.Ingest(r.Context(), message.Inbound{
		ChannelID: channelID,
		AuthorID:  principal.UserID,
		Content:   req.Content,
		Kind:      req.Kind,
		Media:     req.Media,
	})
	if errors.Is(err, message.ErrInvalidKind) {
		writeError(w, http.StatusBadRequest, "bad kind")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "item": msg})
}

// Discord-style: /channels/{channelId}/messages.

func (s *Server) handleChannelHistory(w http.ResponseWriter, r *http.Request) {
	s.history(w, r, r.PathValue("channelId"))
}

func (s *Server) handleChannelSend(w http.ResponseWriter, r *http.Request) {
	s.send(w, r, r.PathValue("channelId"))
}

// Legacy: /messages with the channel in query or body.

func (s *Server) handleLegacyHistory(w http.ResponseWriter, r *http.Request) {
	s.history(w, r, r.URL.Query().Get("channelId"))
}

func (s *Server) handleLegacySend(w http.ResponseWriter, r *http.Request) {
	s.send(w, r, "")
}
