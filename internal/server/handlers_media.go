// ABOUTME: File upload and Tenor GIF search endpoints
// ABOUTME: Uploads land under the files dir and serve from /uploads/

package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lunarus/lunarus-server/internal/gif"
)

const maxUploadSize = 32 << 20 // 32 MiB

// handleUpload stores one multipart file (field "file") and returns its
// public URL.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "missing file")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	ext := filepath.Ext(header.Filename)
	if len(ext) > 12 {
		ext = ext[:12]
	}
	filename := fmt.Sprintf("%d_%s%s", time.Now().UnixMilli(),
		strings.ReplaceAll(uuid.NewString(), "-", ""), ext)

	dst, err := os.Create(filepath.Join(s.filesDir, filename))
	if err != nil {
		s.logger.Error("failed to create upload file", "error", err)
		writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}
	defer dst.Close()

	size, err := io.Copy(dst, file)
	if err != nil {
		s.logger.Error("failed to write upload file", "error", err)
		writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}

	rel := "/uploads/" + filename
	url := rel
	if base := s.publicBaseURL(r); base != "" {
		url = base + rel
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"filename": filename,
		"url":      url,
		"rel":      rel,
		"mime":     header.Header.Get("Content-Type"),
		"size":     size,
	})
}

// handleTenorSearch proxies GIF search so the API key stays server-side.
func (s *Server) handleTenorSearch(w http.ResponseWriter, r *http.Request) {
	if !s.gifs.Configured() {
		writeError(w, http.StatusNotImplemented, "tenor api key not configured")
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing q")
		return
	}
	limit := queryInt(r, "limit", gif.DefaultLimit)

	results, err := s.gifs.Search(r.Context(), query, limit)
	if err != nil {
		var upstream *gif.UpstreamError
		if errors.As(err, &upstream) {
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"error":  "tenor upstream error",
				"status": upstream.Status,
				"body":   upstream.Body,
			})
			return
		}
		s.logger.Error("tenor search failed", "error", err)
		writeError(w, http.StatusBadGateway, "tenor request failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": results})
}
