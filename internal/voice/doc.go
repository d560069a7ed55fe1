// Package voice mints LiveKit access tokens for voice channel joins.
//
// The server never proxies media; it only hands out short-lived tokens
// that grant roomJoin, canPublish, and canSubscribe for one room. URL
// resolution prefers the explicit public LiveKit URL and falls back to the
// request-derived base URL when the configured endpoint is an internal
// docker hostname.
package voice
