// Package surface provides a client for the external display surface: the chat
// channels where the leaderboard, draw panels and archive posts are rendered.
package surface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/abrezinsky/gacharank/internal/logger"
)

// MaxListLimit is the most messages a single ListMessages call returns
const MaxListLimit = 100

// Field is a name/value pair rendered inside an artifact
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Button is an interactive control attached to an artifact
type Button struct {
	CustomID string `json:"custom_id"`
	Label    string `json:"label"`
	URL      string `json:"url,omitempty"`
}

// Artifact is a formatted post rendered by the surface
type Artifact struct {
	Content     string     `json:"content,omitempty"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Fields      []Field    `json:"fields,omitempty"`
	Color       int        `json:"color,omitempty"`
	Image       string     `json:"image,omitempty"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	Buttons     []Button   `json:"buttons,omitempty"`
}

// Message is a post that currently exists in a channel
type Message struct {
	ID        string    `json:"id"`
	ChannelID string    `json:"channel_id"`
	Timestamp time.Time `json:"timestamp"`
	Artifact  *Artifact `json:"artifact,omitempty"`
}

// APIError is a non-2xx response from the surface
type APIError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("surface returned status %d: %s (code %d)", e.Status, e.Message, e.Code)
	}
	return fmt.Sprintf("surface returned status %d", e.Status)
}

// Client defines the operations the ranking engine needs from the surface
type Client interface {
	// ListMessages returns up to limit of the newest messages in a channel
	ListMessages(ctx context.Context, channelID string, limit int) ([]Message, error)
	// BulkDelete removes several messages at once. The surface refuses
	// messages that are too old; callers fall back to DeleteMessage.
	BulkDelete(ctx context.Context, channelID string, messageIDs []string) error
	// DeleteMessage removes a single message
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	// PostMessage publishes a new artifact to a channel
	PostMessage(ctx context.Context, channelID string, a Artifact) (*Message, error)
	// EditMessage replaces the artifact of an existing message
	EditMessage(ctx context.Context, channelID, messageID string, a Artifact) (*Message, error)
	// SendDirect delivers an artifact privately to a user
	SendDirect(ctx context.Context, userID string, a Artifact) error
}

// HTTPClient is a REST JSON client for the surface
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        logger.Logger
}

// NewHTTPClient creates a new surface client authenticating with a bot token
func NewHTTPClient(baseURL, token string, log logger.Logger) *HTTPClient {
	return NewHTTPClientWithHTTPClient(baseURL, token, &http.Client{Timeout: 30 * time.Second}, log)
}

// NewHTTPClientWithHTTPClient creates a new surface client with a custom http.Client
func NewHTTPClientWithHTTPClient(baseURL, token string, httpClient *http.Client, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
		log:        log,
	}
}

// BaseURL returns the configured surface base URL
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// doRequest sends body as JSON and decodes a JSON response into out.
// out may be nil for endpoints that return no content.
func (c *HTTPClient) doRequest(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	apiURL := c.baseURL + path
	c.log.Debug("Surface request", "method", method, "url", apiURL)

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to surface: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debug("Surface response", "status", resp.StatusCode, "bytes", len(respBody))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.Unmarshal(respBody, apiErr)
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// ListMessages returns up to limit of the newest messages in a channel
func (c *HTTPClient) ListMessages(ctx context.Context, channelID string, limit int) ([]Message, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	path := fmt.Sprintf("/channels/%s/messages?limit=%d", url.PathEscape(channelID), limit)

	var messages []Message
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// BulkDelete removes several messages at once
func (c *HTTPClient) BulkDelete(ctx context.Context, channelID string, messageIDs []string) error {
	path := fmt.Sprintf("/channels/%s/messages/bulk-delete", url.PathEscape(channelID))
	body := map[string][]string{"messages": messageIDs}
	return c.doRequest(ctx, http.MethodPost, path, body, nil)
}

// DeleteMessage removes a single message
func (c *HTTPClient) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	path := fmt.Sprintf("/channels/%s/messages/%s", url.PathEscape(channelID), url.PathEscape(messageID))
	return c.doRequest(ctx, http.MethodDelete, path, nil, nil)
}

// PostMessage publishes a new artifact to a channel
func (c *HTTPClient) PostMessage(ctx context.Context, channelID string, a Artifact) (*Message, error) {
	path := fmt.Sprintf("/channels/%s/messages", url.PathEscape(channelID))

	var msg Message
	if err := c.doRequest(ctx, http.MethodPost, path, a, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// EditMessage replaces the artifact of an existing message
func (c *HTTPClient) EditMessage(ctx context.Context, channelID, messageID string, a Artifact) (*Message, error) {
	path := fmt.Sprintf("/channels/%s/messages/%s", url.PathEscape(channelID), url.PathEscape(messageID))

	var msg Message
	if err := c.doRequest(ctx, http.MethodPatch, path, a, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SendDirect delivers an artifact privately to a user
func (c *HTTPClient) SendDirect(ctx context.Context, userID string, a Artifact) error {
	path := fmt.Sprintf("/users/%s/messages", url.PathEscape(userID))
	return c.doRequest(ctx, http.MethodPost, path, a, nil)
}

var _ Client = (*HTTPClient)(nil)
