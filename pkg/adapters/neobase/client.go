// Package neobase implements ports.Generator on top of the Neobase
// chat-messages API.
package neobase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/mermaidviz/internal/logging"
	"github.com/aretw0/mermaidviz/pkg/domain"
)

const (
	// DefaultURL is the blocking chat-messages endpoint.
	DefaultURL = "https://neobase.app/v1/chat-messages"
	// DefaultUser identifies the caller to the API.
	DefaultUser = "mermaid_converter"
	// DefaultTimeout bounds a single upstream call.
	DefaultTimeout = 120 * time.Second

	maxErrorBody = 512
)

type chatRequest struct {
	Query        string `json:"query"`
	ResponseMode string `json:"response_mode"`
	User         string `json:"user"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

// Client calls the Neobase API.
type Client struct {
	url    string
	key    string
	user   string
	http   *http.Client
	logger *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithURL overrides the endpoint.
func WithURL(url string) Option {
	return func(c *Client) {
		c.url = url
	}
}

// WithUser overrides the user identifier sent with every query.
func WithUser(user string) Option {
	return func(c *Client) {
		c.user = user
	}
}

// WithHTTPClient injects the HTTP client (timeouts, transport).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Neobase client authenticating with key.
func New(key string, opts ...Option) *Client {
	c := &Client{
		url:    DefaultURL,
		key:    key,
		user:   DefaultUser,
		http:   &http.Client{Timeout: DefaultTimeout},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate sends the prompt in blocking mode and returns the answer field verbatim.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	data, err := json.Marshal(chatRequest{
		Query:        prompt,
		ResponseMode: "blocking",
		User:         c.user,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("neobase request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status=%d body=%s", domain.ErrUpstream, resp.StatusCode, truncate(body))
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug("Neobase answered", "chars", len(result.Answer), "duration", time.Since(start))
	return result.Answer, nil
}

func truncate(b []byte) string {
	if len(b) <= maxErrorBody {
		return string(b)
	}
	return string(b[:maxErrorBody]) + "..."
}
