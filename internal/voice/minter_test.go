// ABOUTME: Tests for voice token minting and URL resolution
// ABOUTME: Decodes minted JWTs to verify the embedded room grant

package voice

import (
	"io"
	"log/slog"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestJoin_MintsRoomGrant(t *testing.T) {
	m := NewTokenMinter("devkey", "devsecret-devsecret-devsecret-32", "https://lk.example.com", "", testLogger())

	grant, err := m.Join("alice", "lobby", "")
	require.NoError(t, err)
	assert.Equal(t, "lobby", grant.Room)
	assert.Equal(t, "https://lk.example.com", grant.URL)
	require.NotEmpty(t, grant.Token)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(grant.Token, claims, func(*jwt.Token) (any, error) {
		return []byte("devsecret-devsecret-devsecret-32"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", claims["sub"])
	assert.Equal(t, "devkey", claims["iss"])

	video, ok := claims["video"].(map[string]any)
	require.True(t, ok, "expected a video grant in claims")
	assert.Equal(t, "lobby", video["room"])
	assert.Equal(t, true, video["roomJoin"])
	assert.Equal(t, true, video["canPublish"])
	assert.Equal(t, true, video["canSubscribe"])
}

func TestJoin_DefaultRoom(t *testing.T) {
	m := NewTokenMinter("devkey", "devsecret-devsecret-devsecret-32", "https://lk.example.com", "", testLogger())

	grant, err := m.Join("alice", "", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultRoom, grant.Room)
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name      string
		serverURL string
		publicURL string
		derived   string
		want      string
	}{
		{
			name:      "public url wins",
			serverURL: "http://livekit:7880",
			publicURL: "https://lk.example.com",
			derived:   "https://api.example.com",
			want:      "https://lk.example.com",
		},
		{
			name:      "server url when reachable",
			serverURL: "https://lk.example.com",
			derived:   "https://api.example.com",
			want:      "https://lk.example.com",
		},
		{
			name:      "internal docker host falls back to derived",
			serverURL: "http://livekit:7880",
			derived:   "https://api.example.com",
			want:      "https://api.example.com",
		},
		{
			name:      "localhost falls back to derived",
			serverURL: "http://localhost:7880",
			derived:   "https://api.example.com",
			want:      "https://api.example.com",
		},
		{
			name:    "empty config falls back to derived",
			derived: "https://api.example.com/",
			want:    "https://api.example.com",
		},
		{
			name:      "internal host without derived stays as configured",
			serverURL: "http://127.0.0.1:7880",
			want:      "http://127.0.0.1:7880",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewTokenMinter("k", "s", tt.serverURL, tt.publicURL, testLogger())
			assert.Equal(t, tt.want, m.ResolveURL(tt.derived))
		})
	}
}
