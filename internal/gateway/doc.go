// Package gateway implements the real-time WebSocket endpoint.
//
// # Overview
//
// Clients connect to GET /gateway with token and channelId query
// parameters. A valid token yields a registered Connection and a READY
// event; a missing or invalid token closes the socket with a
// policy-violation close frame before any event is exchanged.
//
// # Protocol
//
// Inbound frames are JSON objects {"op": ..., "d": {...}}:
//
//	SUBSCRIBE {channelId}  switch the live subscription, acked with SUBSCRIBED
//	TYPING    {channelId}  notify same-channel peers with TYPING_START
//
// Outbound events are JSON envelopes {"t": ..., "d": {...}}: READY,
// SUBSCRIBED, TYPING_START, and MESSAGE_CREATE. Malformed or unknown
// inbound frames are silently dropped.
//
// # Delivery
//
// The Router fans events out over a Registry snapshot. Each connection has
// a bounded send buffer drained by a single write pump; when the buffer is
// full the event is dropped for that connection. Fanout never blocks on a
// slow consumer and persisted history is the source of truth for catch-up.
package gateway
