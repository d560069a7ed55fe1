// ABOUTME: Tenor v2 search client used by the GIF picker endpoint
// ABOUTME: Maps upstream media formats to a compact client-facing shape

package gif

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://tenor.googleapis.com/v2"

// DefaultLimit is the result count when the caller does not ask for one.
const DefaultLimit = 16

// ErrNotConfigured is returned when no Tenor API key is set.
var ErrNotConfigured = errors.New("tenor api key not configured")

// UpstreamError reports a non-2xx response from Tenor.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("tenor upstream error: status %d: %s", e.Status, e.Body)
}

// Result is one GIF hit: a full-size URL, a small preview, and the
// full-size dimensions.
type Result struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	PreviewURL string `json:"previewUrl"`
	Dims       []int  `json:"dims,omitempty"`
}

type mediaFormat struct {
	URL  string `json:"url"`
	Dims []int  `json:"dims"`
}

type searchResponse struct {
	Results []struct {
		ID           string                 `json:"id"`
		MediaFormats map[string]mediaFormat `json:"media_formats"`
	} `json:"results"`
}

// Client searches Tenor. A zero-value API key leaves the client
// unconfigured; Search then fails with ErrNotConfigured.
type Client struct {
	apiKey     string
	clientKey  string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Tenor client. clientKey identifies this integration
// to Tenor and defaults to "lunarus".
func NewClient(apiKey, clientKey string, logger *slog.Logger) *Client {
	if clientKey == "" {
		clientKey = "lunarus"
	}
	return &Client{
		apiKey:     apiKey,
		clientKey:  clientKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger.With("component", "gif"),
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Search queries Tenor for GIFs matching query. limit is clamped into
// [1, 50]; pass DefaultLimit when the caller did not specify one.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 50 {
		limit = 50
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("key", c.apiKey)
	params.Set("client_key", c.clientKey)
	params.Set("limit", fmt.Sprintf("%d", limit))
	params.Set("media_filter", "gif,tinygif")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build tenor request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tenor request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode tenor response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Results))
	for _, item := range parsed.Results {
		full, fullOK := item.MediaFormats["gif"]
		tiny, tinyOK := item.MediaFormats["tinygif"]
		if !fullOK {
			full = tiny
		}
		if !tinyOK {
			tiny = full
		}
		if full.URL == "" {
			continue
		}
		results = append(results, Result{
			ID:         item.ID,
			URL:        full.URL,
			PreviewURL: tiny.URL,
			Dims:       full.Dims,
		})
	}
	return results, nil
}
