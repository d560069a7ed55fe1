// Package message bridges durable message storage and live gateway fanout.
//
// Ingest is the single write path for chat messages regardless of which
// HTTP endpoint received them. The ordering contract is persist first,
// broadcast second: a message that fails to persist is never announced,
// and every broadcast payload is the stored row with its assigned id.
package message
