// Package server assembles the HTTP API and the WebSocket gateway.
//
// # Routes
//
// Public: GET /health, POST /auth/login, GET /gateway (token-checked
// during the handshake), GET /uploads/. Everything else requires a bearer
// token minted by /auth/login.
//
// Servers, channels, and invites follow a simple permission model:
// membership gates reads, ownership gates destructive writes, and any
// member may edit channel metadata.
//
// # Lifecycle
//
// New wires the store, verifier, gateway registry/router, and services
// into one http.Server. Run serves until the context is canceled, then
// drains with a bounded graceful shutdown.
package server
