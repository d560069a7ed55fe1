// ABOUTME: LiveKit access token minting for voice room joins
// ABOUTME: Resolves a publicly reachable LiveKit URL for clients

package voice

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	lkauth "github.com/livekit/protocol/auth"
)

// DefaultRoom is used when a join request does not name a room.
const DefaultRoom = "demo-room"

const tokenTTL = 6 * time.Hour

// Internal hostnames leak from docker-compose setups into LIVEKIT_URL.
// Clients can never reach them, so they are replaced by a derived URL.
var internalHostPattern = regexp.MustCompile(`(?i)(^|//)(localhost|127\.0\.0\.1|livekit)(:|/|$)`)

// JoinGrant is the response for a voice join: where to connect and the
// token that admits the user to the room.
type JoinGrant struct {
	URL   string `json:"url"`
	Token string `json:"token"`
	Room  string `json:"room"`
}

// TokenMinter mints LiveKit access tokens with publish and subscribe
// permission for a single room.
type TokenMinter struct {
	apiKey    string
	apiSecret string
	serverURL string
	publicURL string
	logger    *slog.Logger
}

// NewTokenMinter creates a minter. serverURL is the configured LiveKit
// endpoint; publicURL, when set, always wins for client-facing URLs.
func NewTokenMinter(apiKey, apiSecret, serverURL, publicURL string, logger *slog.Logger) *TokenMinter {
	return &TokenMinter{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		serverURL: strings.TrimSuffix(serverURL, "/"),
		publicURL: strings.TrimSuffix(publicURL, "/"),
		logger:    logger.With("component", "voice"),
	}
}

// Join mints a token admitting identity into room with publish and
// subscribe rights. derivedBaseURL is the caller-facing base URL derived
// from the request, used when the configured URL is not publicly reachable.
func (m *TokenMinter) Join(identity, room, derivedBaseURL string) (*JoinGrant, error) {
	if room == "" {
		room = DefaultRoom
	}

	at := lkauth.NewAccessToken(m.apiKey, m.apiSecret)
	grant := &lkauth.VideoGrant{
		RoomJoin: true,
		Room:     room,
	}
	grant.SetCanPublish(true)
	grant.SetCanSubscribe(true)
	at.SetVideoGrant(grant).SetIdentity(identity).SetValidFor(tokenTTL)

	token, err := at.ToJWT()
	if err != nil {
		return nil, fmt.Errorf("failed to mint voice token: %w", err)
	}

	return &JoinGrant{
		URL:   m.ResolveURL(derivedBaseURL),
		Token: token,
		Room:  room,
	}, nil
}

// ResolveURL picks the URL clients should connect to. The explicit public
// URL wins; the configured server URL is used unless it looks internal, in
// which case the derived URL takes over.
func (m *TokenMinter) ResolveURL(derivedBaseURL string) string {
	url := m.publicURL
	if url == "" {
		url = m.serverURL
	}
	if url == "" || internalHostPattern.MatchString(url) {
		if derived := strings.TrimSuffix(derivedBaseURL, "/"); derived != "" {
			return derived
		}
	}
	return url
}
