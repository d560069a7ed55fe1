// ABOUTME: Tests for the Tenor search client against a stub upstream
// ABOUTME: Covers query building, result mapping, and failure modes

package gif

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStubClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient("test-key", "test-client", testLogger())
	c.baseURL = server.URL
	return c
}

func TestSearch_MapsMediaFormats(t *testing.T) {
	var gotQuery map[string]string
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"q":            r.URL.Query().Get("q"),
			"key":          r.URL.Query().Get("key"),
			"client_key":   r.URL.Query().Get("client_key"),
			"limit":        r.URL.Query().Get("limit"),
			"media_filter": r.URL.Query().Get("media_filter"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"id":"1","media_formats":{
				"gif":{"url":"https://t/full1.gif","dims":[400,300]},
				"tinygif":{"url":"https://t/tiny1.gif","dims":[200,150]}}},
			{"id":"2","media_formats":{
				"tinygif":{"url":"https://t/tiny2.gif","dims":[120,90]}}},
			{"id":"3","media_formats":{}}
		]}`))
	})

	results, err := c.Search(t.Context(), "cats", 25)
	require.NoError(t, err)

	assert.Equal(t, "cats", gotQuery["q"])
	assert.Equal(t, "test-key", gotQuery["key"])
	assert.Equal(t, "test-client", gotQuery["client_key"])
	assert.Equal(t, "25", gotQuery["limit"])
	assert.Equal(t, "gif,tinygif", gotQuery["media_filter"])

	// The entry with no usable URL is dropped.
	require.Len(t, results, 2)
	assert.Equal(t, Result{ID: "1", URL: "https://t/full1.gif", PreviewURL: "https://t/tiny1.gif", Dims: []int{400, 300}}, results[0])
	// tinygif fills in for a missing full-size format.
	assert.Equal(t, Result{ID: "2", URL: "https://t/tiny2.gif", PreviewURL: "https://t/tiny2.gif", Dims: []int{120, 90}}, results[1])
}

func TestSearch_ClampsLimit(t *testing.T) {
	var gotLimit string
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		_, _ = w.Write([]byte(`{"results":[]}`))
	})

	_, err := c.Search(t.Context(), "cats", 500)
	require.NoError(t, err)
	assert.Equal(t, "50", gotLimit)

	_, err = c.Search(t.Context(), "cats", 0)
	require.NoError(t, err)
	assert.Equal(t, "1", gotLimit)
}

func TestSearch_UpstreamError(t *testing.T) {
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("rate limited"))
	})

	_, err := c.Search(t.Context(), "cats", DefaultLimit)
	require.Error(t, err)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusTooManyRequests, upstream.Status)
	assert.Equal(t, "rate limited", upstream.Body)
}

func TestSearch_NotConfigured(t *testing.T) {
	c := NewClient("", "", testLogger())
	assert.False(t, c.Configured())

	_, err := c.Search(t.Context(), "cats", DefaultLimit)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
