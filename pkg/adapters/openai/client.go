// Package openai implements ports.Generator for OpenAI-compatible
// chat-completions endpoints, such as local LM Studio or Ollama servers.
package openai

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
	// DefaultURL targets a local OpenAI-compatible server.
	DefaultURL = "http://localhost:1234/v1/chat/completions"
	// DefaultTimeout bounds a single upstream call.
	DefaultTimeout = 120 * time.Second

	maxErrorBody = 512
)

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model,omitempty"`
	Messages []message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// Client calls a chat-completions endpoint.
type Client struct {
	url    string
	key    string
	model  string
	http   *http.Client
	logger *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithURL overrides the chat-completions endpoint.
func WithURL(url string) Option {
	return func(c *Client) { c.url = url }
}

// WithKey sets a bearer token. Local servers usually need none.
func WithKey(key string) Option {
	return func(c *Client) { c.key = key }
}

// WithModel sets the model name. Empty leaves the choice to the server.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithHTTPClient injects the HTTP client (timeouts, transport).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a chat-completions client.
func New(opts ...Option) *Client {
	c := &Client{
		url:    DefaultURL,
		http:   &http.Client{Timeout: DefaultTimeout},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate sends the prompt as a single user message and returns the first choice.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	data, err := json.Marshal(chatRequest{
		Model:    c.model,
		Messages: []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.key != "" {
		req.Header.Set("Authorization", "Bearer "+c.key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completions request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > maxErrorBody {
			body = append(body[:maxErrorBody:maxErrorBody], "..."...)
		}
		return "", fmt.Errorf("%w: status=%d body=%s", domain.ErrUpstream, resp.StatusCode, body)
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", domain.ErrEmptyAnswer
	}

	answer := result.Choices[0].Message.Content
	c.logger.Debug("Chat completion received", "chars", len(answer), "model", c.model)
	return answer, nil
}
