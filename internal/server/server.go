// ABOUTME: HTTP server wiring routes, gateway, and graceful lifecycle
// ABOUTME: Owns construction of the verifier, registry, router, and services

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/lunarus/lunarus-server/internal/auth"
	"github.com/lunarus/lunarus-server/internal/config"
	"github.com/lunarus/lunarus-server/internal/gateway"
	"github.com/lunarus/lunarus-server/internal/gif"
	"github.com/lunarus/lunarus-server/internal/message"
	"github.com/lunarus/lunarus-server/internal/store"
	"github.com/lunarus/lunarus-server/internal/voice"
)

const shutdownTimeout = 10 * time.Second

// Server is the assembled lunarus-server: REST API, upload serving, and
// the WebSocket gateway on one listener.
type Server struct {
	cfg      *config.Config
	store    store.Store
	verifier *auth.JWTVerifier
	registry *gateway.Registry
	router   *gateway.Router
	messages *message.Service
	voice    *voice.TokenMinter
	gifs     *gif.Client
	logger   *slog.Logger

	httpServer *http.Server
	filesDir   string
}

// New wires all components together. The uploads directory is created if
// it does not exist.
func New(cfg *config.Config, st store.Store, logger *slog.Logger) (*Server, error) {
	filesDir := filepath.Join(cfg.Uploads.Dir, "files")
	if err := os.MkdirAll(filesDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}

	verifier := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	registry := gateway.NewRegistry()
	router := gateway.NewRouter(registry, logger)

	s := &Server{
		cfg:      cfg,
		store:    st,
		verifier: verifier,
		registry: registry,
		router:   router,
		messages: message.NewService(st, router, logger),
		voice: voice.NewTokenMinter(cfg.LiveKit.APIKey, cfg.LiveKit.APISecret,
			cfg.LiveKit.URL, cfg.LiveKit.PublicURL, logger),
		gifs:     gif.NewClient(cfg.Tenor.APIKey, cfg.Tenor.ClientKey, logger),
		logger:   logger.With("component", "server"),
		filesDir: filesDir,
	}

	s.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           corsMiddleware(s.routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler exposes the full route tree, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// routes builds the route tree. Everything except health, login, uploads,
// and the gateway sits behind the auth middleware; the gateway does its
// own token check during the handshake.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	authed := auth.HTTPAuthMiddleware(s.verifier)
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, authed(h))
	}

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.Handle("GET /gateway", gateway.NewHandler(s.verifier, s.registry, s.router, s.logger))
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.filesDir))))

	handle("GET /servers", s.handleListServers)
	handle("POST /servers", s.handleCreateServer)
	handle("GET /servers/{serverId}", s.handleGetServer)
	handle("PATCH /servers/{serverId}", s.handleUpdateServer)
	handle("DELETE /servers/{serverId}", s.handleDeleteServer)

	handle("GET /servers/{serverId}/channels", s.handleListChannels)
	handle("POST /servers/{serverId}/channels", s.handleCreateChannel)
	handle("PATCH /channels/{channelId}", s.handleUpdateChannel)
	handle("DELETE /channels/{channelId}", s.handleDeleteChannel)

	handle("POST /servers/{serverId}/invites", s.handleCreateInvite)
	handle("GET /invites/{code}", s.handleInvitePreview)
	handle("POST /invites/{code}/join", s.handleJoinInvite)

	handle("GET /channels/{channelId}/messages", s.handleChannelHistory)
	handle("POST /channels/{channelId}/messages", s.handleChannelSend)
	handle("GET /messages", s.handleLegacyHistory)
	handle("POST /messages", s.handleLegacySend)

	handle("POST /upload", s.handleUpload)
	handle("GET /tenor/search", s.handleTenorSearch)
	handle("POST /voice/join", s.handleVoiceJoin)

	return mux
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server failed: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// publicBaseURL resolves the externally visible base URL: explicit config
// first, then reverse-proxy headers from the request.
func (s *Server) publicBaseURL(r *http.Request) string {
	if s.cfg.Server.PublicBaseURL != "" {
		return s.cfg.Server.PublicBaseURL
	}

	proto := firstForwarded(r.Header.Get("X-Forwarded-Proto"))
	if proto == "" {
		if r.TLS != nil {
			proto = "https"
		} else {
			proto = "http"
		}
	}
	host := firstForwarded(r.Header.Get("X-Forwarded-Host"))
	if host == "" {
		host = r.Host
	}
	if host == "" {
		return ""
	}
	return proto + "://" + host
}

// corsMiddleware mirrors the permissive browser policy the API has always
// had; bearer tokens are the actual access control.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
