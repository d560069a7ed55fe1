// Package store provides the persistence layer for lunarus-server.
//
// # Overview
//
// The Store interface covers servers (guilds), membership, channels,
// invites, and chat messages. The production implementation is
// PostgresStore on a pgx connection pool; MockStore is an in-memory
// implementation for tests with a forced-failure switch.
//
// # Schema
//
// Bootstrap creates all tables idempotently and seeds the default
// "lunarus" server with its starter channels. Channel ids are plain TEXT
// because messages reference channels by id without a foreign key, which
// keeps history alive across channel recreation.
//
// # Message History
//
// RecentMessages returns the newest messages of a channel ordered oldest
// first, with the requested limit clamped into [1, 100].
package store
