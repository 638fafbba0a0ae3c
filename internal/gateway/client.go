// internal/gateway/client.go
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config holds connection settings for an OpenAI-compatible gateway such
// as LiteLLM.
type Config struct {
	BaseURL     string
	APIKey      string
	AppID       string
	Model       string
	MaxTokens   int
	Temperature float32
}

// Client talks to the gateway over HTTP. Streaming requests use a client
// without a timeout so long completions are not cut off; REST lookups use
// a bounded client plus the retry policy.
type Client struct {
	config       *Config
	streamClient *http.Client
	restClient   *http.Client
	retry        *RetryPolicy
}

// New creates a gateway client. The base URL is normalized: a scheme is
// added when missing and trailing slashes are stripped.
func New(config *Config) *Client {
	config.BaseURL = NormalizeBaseURL(config.BaseURL)
	return &Client{
		config:       config,
		streamClient: &http.Client{},
		restClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		retry: DefaultRetryPolicy(),
	}
}

// NormalizeBaseURL adds https:// when no scheme is present and strips
// trailing slashes.
func NormalizeBaseURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "https://" + trimmed
	}
	return strings.TrimRight(trimmed, "/")
}

// StatusError is a non-2xx gateway response, carrying the status code and
// response body text.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// ChatMessage is one entry in the request message list.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the chat completions request body. Stream is always true
// for StreamChat.
type ChatRequest struct {
	Model       string            `json:"model"`
	Messages    []ChatMessage     `json:"messages"`
	Temperature *float32          `json:"temperature,omitempty"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
	Stream      bool              `json:"stream"`
	User        string            `json:"user,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// StreamChat issues a streaming completion request and returns the raw
// response body for frame decoding. Non-2xx responses are drained and
// returned as a *StatusError. The caller owns closing the returned body;
// cancelling ctx aborts the stream mid-read.
func (c *Client) StreamChat(ctx context.Context, chatReq *ChatRequest) (io.ReadCloser, error) {
	chatReq.Stream = true

	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := c.config.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errText, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(errText)}
	}

	return resp.Body, nil
}

// getJSON fetches a REST endpoint under the retry policy and decodes the
// response into a generic value.
func (c *Client) getJSON(ctx context.Context, path string) (any, error) {
	var decoded any
	err := c.retry.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		if c.config.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
		}

		resp, err := c.restClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
		}

		decoded = nil
		if err := json.Unmarshal(respBody, &decoded); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decoded, nil
}
