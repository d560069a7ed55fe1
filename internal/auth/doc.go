// Package auth provides credential verification for lunarus-server.
//
// # Overview
//
// The server issues opaque HS256-signed bearer tokens at login and verifies
// them on every REST request and gateway handshake. This package only
// validates and mints tokens; there is no session state.
//
// # Token Format
//
// Tokens are JWTs with claims:
//
//	sub       user id (required)
//	username  display name (falls back to sub)
//	iat, exp  issued-at / expiry
//
// # Usage
//
// Verification:
//
//	verifier := auth.NewJWTVerifier([]byte(secret))
//	principal, err := verifier.Verify(tokenString)
//
// HTTP middleware:
//
//	protected := auth.HTTPAuthMiddleware(verifier)(handler)
//
// Handlers behind the middleware read the identity from context:
//
//	principal := auth.MustFromContext(r.Context())
package auth
