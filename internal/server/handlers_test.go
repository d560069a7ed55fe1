// ABOUTME: HTTP handler tests over the full route tree with a mock store
// ABOUTME: Covers auth, servers, channels, invites, messages, and media

package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunarus/lunarus-server/internal/auth"
	"github.com/lunarus/lunarus-server/internal/config"
	"github.com/lunarus/lunarus-server/internal/store"
)

type fixture struct {
	server *Server
	store  *store.MockStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.HTTPAddr = ":0"
	cfg.Database.URL = "postgres://unused"
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Uploads.Dir = t.TempDir()
	cfg.LiveKit.URL = "https://lk.example.com"
	cfg.LiveKit.APIKey = "devkey"
	cfg.LiveKit.APISecret = "devsecret-devsecret-devsecret-32"

	st := store.NewMockStore()
	require.NoError(t, st.Bootstrap(t.Context()))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := New(cfg, st, logger)
	require.NoError(t, err)

	return &fixture{server: srv, store: st}
}

func (f *fixture) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := f.server.verifier.Generate(&auth.Principal{UserID: userID, Username: userID}, time.Hour)
	require.NoError(t, err)
	return token
}

func (f *fixture) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+f.token(t, userID))
	}

	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestLogin_MintsTokenAndAutoJoins(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "alice"})
	require.Equal(t, http.StatusOK, rec.Code)

	out := decodeMap(t, rec)
	token, _ := out["token"].(string)
	require.NotEmpty(t, token)

	principal, err := f.server.verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", principal.UserID)

	ok, err := f.store.IsMember(t.Context(), store.DefaultServerID, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLogin_DefaultUsername(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/auth/login", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decodeMap(t, rec)
	user, _ := out["user"].(map[string]any)
	assert.Equal(t, "user", user["id"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/servers", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListServers_IncludesDefault(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/servers", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decodeMap(t, rec)
	items, _ := out["items"].([]any)
	require.Len(t, items, 1)
	first, _ := items[0].(map[string]any)
	assert.Equal(t, store.DefaultServerID, first["id"])
}

func createServer(t *testing.T, f *fixture, userID, name string) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/servers", userID, map[string]string{"name": name})
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeMap(t, rec)
	item, _ := out["item"].(map[string]any)
	id, _ := item["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestCreateServer_SeedsChannels(t *testing.T) {
	f := newFixture(t)
	serverID := createServer(t, f, "alice", "My Server")

	rec := f.do(t, http.MethodGet, "/servers/"+serverID+"/channels", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decodeMap(t, rec)
	items, _ := out["items"].([]any)
	require.Len(t, items, 4)
	first, _ := items[0].(map[string]any)
	assert.Equal(t, serverID+"-general", first["id"])
}

func TestCreateServer_NameRequired(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/servers", "alice", map[string]string{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetServer_NonMemberForbidden(t *testing.T) {
	f := newFixture(t)
	serverID := createServer(t, f, "alice", "Private")

	rec := f.do(t, http.MethodGet, "/servers/"+serverID, "bob", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdateServer_OwnerOnly(t *testing.T) {
	f := newFixture(t)
	serverID := createServer(t, f, "alice", "Before")

	rec := f.do(t, http.MethodPatch, "/servers/"+serverID, "bob", map[string]string{"name": "After"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodPatch, "/servers/"+serverID, "alice", map[string]string{"name": "After"})
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeMap(t, rec)
	item, _ := out["item"].(map[string]any)
	assert.Equal(t, "After", item["name"])
}

func TestDeleteServer_OwnerOnly(t *testing.T) {
	f := newFixture(t)
	serverID := createServer(t, f, "alice", "Doomed")

	rec := f.do(t, http.MethodDelete, "/servers/"+serverID, "bob", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodDelete, "/servers/"+serverID, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := f.store.GetServer(t.Context(), serverID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateChannel_VoiceGetsLinkedChat(t *testing.T) {
	f := newFixture(t)
	serverID := createServer(t, f, "alice", "Voicy")

	rec := f.do(t, http.MethodPost, "/servers/"+serverID+"/channels", "alice",
		map[string]any{"name": "Hangout", "type": "voice"})
	require.Equal(t, http.StatusOK, rec.Code)

	out := decodeMap(t, rec)
	item, _ := out["item"].(map[string]any)
	chID, _ := item["id"].(string)
	assert.Equal(t, "voice", item["type"])
	assert.Equal(t, serverID+"-"+chID, item["room"])
	assert.Equal(t, chID+"-chat", item["linkedTextChannelId"])

	linked, err := f.store.GetChannel(t.Context(), chID+"-chat")
	require.NoError(t, err)
	assert.Equal(t, "Hangout-chat", linked.Name)
	assert.Equal(t, store.ChannelTypeText, linked.Type)
}

func TestCreateChannel_BadType(t *testing.T) {
	f := newFixture(t)
	serverID := createServer(t, f, "alice", "S")

	rec := f.do(t, http.MethodPost, "/servers/"+serverID+"/channels", "alice",
		map[string]any{"name": "x", "type": "video"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad type")
}

func TestUpdateChannel_MemberMayEdit(t *testing.T) {
	f := newFixture(t)
	serverID := createServer(t, f, "alice", "S")
	require.NoError(t, f.store.UpsertMember(t.Context(), serverID, "bob", 1))

	channelID := serverID + "-general"
	rec := f.do(t, http.MethodPatch, "/channels/"+channelID, "bob",
		map[string]any{"name": "renamed", "nsfw": true})
	require.Equal(t, http.StatusOK, rec.Code)

	out := decodeMap(t, rec)
	item, _ := out["item"].(map[string]any)
	assert.Equal(t, "renamed", item["name"])
	assert.Equal(t, true, item["nsfw"])
}

func TestUpdateChannel_NullClearsIcon(t *testing.T) {
	f := newFixture(t)
	serverID := createServer(t, f, "alice", "S")
	channelID := serverID + "-general"

	rec := f.do(t, http.MethodPatch, "/channels/"+channelID, "alice",
		map[string]any{"icon": nil})
	require.Equal(t, http.StatusOK, rec.Code)

	ch, err := f.store.GetChannel(t.Context(), channelID)
	require.NoError(t, err)
	assert.Nil(t, ch.Icon)
}

func TestDeleteChannel_RemovesLinkedChat(t *testing.T) {
	f := newFixture(t)
	serverID := createServer(t, f, "alice", "S")

	rec := f.do(t, http.MethodPost, "/servers/"+serverID+"/channels", "alice",
		map[string]any{"name": "Hangout", "type": "voice"})
	require.Equal(t, http.StatusOK, rec.Code)
	item, _ := decodeMap(t, rec)["item"].(map[string]any)
	chID, _ := item["id"].(string)

	rec = f.do(t, http.MethodDelete, "/channels/"+chID, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := f.store.GetChannel(t.Context(), chID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.store.GetChannel(t.Context(), chID+"-chat")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func createInvite(t *testing.T, f *fixture, userID, serverID string, body map[string]any) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/servers/"+serverID+"/invites", userID, body)
	require.Equal(t, http.StatusOK, rec.Code)
	item, _ := decodeMap(t, rec)["item"].(map[string]any)
	code, _ := item["code"].(string)
	require.Len(t, code, 8)
	return code
}

func TestInvite_JoinFlow(t *testing.T) {
	f := newFixture(t)
	serverID := createServer(t, f, "alice", "Club")
	code := createInvite(t, f, "alice", serverID, nil)

	// Preview works for any authenticated user, lowercased codes included.
	rec := f.do(t, http.MethodGet, "/invites/"+strings.ToLower(code), "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	item, _ := decodeMap(t, rec)["item"].(map[string]any)
	assert.Equal(t, "Club", item["serverName"])

	rec = f.do(t, http.MethodPost, "/invites/"+code+"/join", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	ok, err := f.store.IsMember(t.Context(), serverID, "bob")
	require.NoError(t, err)
	assert.True(t, ok)

	inv, err := f.store.GetInvite(t.Context(), code)
	require.NoError(t, err)
	assert.Equal(t, 1, inv.Uses)
}

func TestInvite_Expired(t *testing.T) {
	f := newFixture(t)
	serverID := createServer(t, f, "alice", "Club")
	expired := time.Now().Add(-time.Hour).UnixMilli()
	code := createInvite(t, f, "alice", serverID, map[string]any{"expiresAt": expired})

	rec := f.do(t, http.MethodGet, "/invites/"+code, "bob", nil)
	assert.Equal(t, http.StatusGone, rec.Code)

	rec = f.do(t, http.MethodPost, "/invites/"+code+"/join", "bob", nil)
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestInvite_MaxUses(t *testing.T) {
	f := newFixture(t)
	serverID := createServer(t, f, "alice", "Club")
	code := createInvite(t, f, "alice", serverID, map[string]any{"maxUses": 1})

	rec := f.do(t, http.MethodPost, "/invites/"+code+"/join", "bob", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/invites/"+code+"/join", "carol", nil)
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestInvite_NotFound(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/invites/NOPE2345", "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMessages_SendAndHistory(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/channels/general/messages", "alice",
		map[string]any{"content": "hello"})
	require.Equal(t, http.StatusOK, rec.Code)
	item, _ := decodeMap(t, rec)["item"].(map[string]any)
	assert.Equal(t, "general", item["channelId"])
	assert.Equal(t, "alice", item["authorId"])
	assert.Equal(t, "text", item["kind"])

	rec = f.do(t, http.MethodGet, "/channels/general/messages?limit=10", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items, _ := decodeMap(t, rec)["items"].([]any)
	require.Len(t, items, 1)
}

func TestMessages_LegacyEndpoints(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/messages", "alice",
		map[string]any{"channelId": "random", "content": "hi", "kind": "text"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/messages?channelId=random", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items, _ := decodeMap(t, rec)["items"].([]any)
	require.Len(t, items, 1)
}

func TestMessages_BadKind(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/channels/general/messages", "alice",
		map[string]any{"content": "x", "kind": "video"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad kind")
}

func TestMessages_StoreDown(t *testing.T) {
	f := newFixture(t)
	f.store.SetFailure(fmt.Errorf("db down"))

	rec := f.do(t, http.MethodPost, "/channels/general/messages", "alice",
		map[string]any{"content": "x"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUpload_StoresFile(t *testing.T) {
	f := newFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "pic.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("fake image bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+f.token(t, "alice"))

	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decodeMap(t, rec)
	filename, _ := out["filename"].(string)
	require.NotEmpty(t, filename)
	assert.True(t, strings.HasSuffix(filename, ".png"))
	assert.Equal(t, "/uploads/"+filename, out["rel"])
	assert.Equal(t, float64(len("fake image bytes")), out["size"])

	data, err := os.ReadFile(filepath.Join(f.server.filesDir, filename))
	require.NoError(t, err)
	assert.Equal(t, "fake image bytes", string(data))
}

func TestUpload_MissingFile(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/upload", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTenorSearch_NotConfigured(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/tenor/search?q=cats", "alice", nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestVoiceJoin_MintsToken(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/voice/join", "alice", map[string]string{"room": "lobby"})
	require.Equal(t, http.StatusOK, rec.Code)

	out := decodeMap(t, rec)
	assert.Equal(t, "lobby", out["room"])
	assert.Equal(t, "https://lk.example.com", out["url"])
	token, _ := out["token"].(string)
	assert.NotEmpty(t, token)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodOptions, "/servers", nil)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
