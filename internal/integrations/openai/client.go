// Package openai is the language-model gateway: a focused
// OpenAI-compatible chat-completions client. Every failure mode is
// reported as a *domain.UnavailableError so the router can fall back
// without knowing the provider.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"lms-chatbot/internal/domain"
)

// chatMessage is the wire shape for one prompt message. Roles here
// include "system", which domain.Turn deliberately does not model.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the minimal request shape for the Chat Completions
// endpoint.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
}

// chatResponse is the minimal response shape returned by the Chat
// Completions endpoint.
type chatResponse struct {
	Choices []struct {
		Index   int         `json:"index"`
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Getter resolves the API key. Backed by SSM Parameter Store or a
// static environment value; consumers depend on this interface so they
// stay testable.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// HTTPStatusError captures non-2xx upstream responses with
// status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("openai: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client calls an OpenAI-compatible chat-completions endpoint.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	getter     Getter
	keyParam   string

	keyMu  sync.Mutex
	apiKey string
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client. The API key is resolved through the
// getter under keyParam on the first generation and cached for the
// process lifetime once a lookup succeeds.
func NewClient(getter Getter, keyParam, model string, opts ...Option) (*Client, error) {
	if getter == nil {
		return nil, errors.New("openai: key getter must not be nil")
	}
	if strings.TrimSpace(keyParam) == "" {
		return nil, errors.New("openai: key parameter name must not be empty")
	}
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o-mini"
	}
	c := &Client{
		baseURL:    "https://api.openai.com/v1",
		model:      model,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		getter:     getter,
		keyParam:   keyParam,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Generate answers the question with the top FAQ entries as context
// and the trimmed session history as prior turns. Empty or failed
// generations come back as *domain.UnavailableError.
func (c *Client) Generate(ctx context.Context, question string, contextEntries []domain.FaqEntry, history []domain.Turn) (string, error) {
	apiKey, err := c.resolveAPIKey(ctx)
	if err != nil {
		return "", &domain.UnavailableError{Reason: domain.UnavailableNoCredential, Err: err}
	}
	if apiKey == "" {
		return "", &domain.UnavailableError{Reason: domain.UnavailableNoCredential}
	}

	temperature := 0.2
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    buildMessages(question, contextEntries, history),
		Temperature: &temperature,
	})
	if err != nil {
		return "", &domain.UnavailableError{Reason: domain.UnavailableMalformed, Err: fmt.Errorf("openai: marshal request: %w", err)}
	}

	url := chatURL(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &domain.UnavailableError{Reason: domain.UnavailableUpstream, Err: fmt.Errorf("openai: create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	raw, err := c.doJSONRequest(req, url)
	if err != nil {
		return "", classify(err)
	}

	var payload chatResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", &domain.UnavailableError{Reason: domain.UnavailableMalformed, Err: fmt.Errorf("openai: decode response: %w", err)}
	}
	if len(payload.Choices) == 0 {
		return "", &domain.UnavailableError{Reason: domain.UnavailableMalformed, Err: errors.New("openai: no choices in response")}
	}

	text := strings.TrimSpace(payload.Choices[0].Message.Content)
	if text == "" {
		return "", &domain.UnavailableError{Reason: domain.UnavailableEmpty}
	}
	return text, nil
}

// resolveAPIKey fetches the key on first use and caches it once a
// lookup succeeds; transient getter failures are retried on the next
// call.
func (c *Client) resolveAPIKey(ctx context.Context) (string, error) {
	c.keyMu.Lock()
	defer c.keyMu.Unlock()
	if c.apiKey != "" {
		return c.apiKey, nil
	}
	value, err := c.getter.GetParameter(ctx, c.keyParam)
	if err != nil {
		return "", fmt.Errorf("openai: resolve api key: %w", err)
	}
	c.apiKey = strings.TrimSpace(value)
	return c.apiKey, nil
}

func chatURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	if strings.HasSuffix(base, "/v1") {
		return base + "/chat/completions"
	}
	return base + "/v1/chat/completions"
}

func (c *Client) doJSONRequest(req *http.Request, url string) ([]byte, error) {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("openai: read response body: %w", err)
	}
	return buf, nil
}

// classify maps transport and status failures onto the typed
// unavailability taxonomy.
func classify(err error) *domain.UnavailableError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.UnavailableError{Reason: domain.UnavailableTimeout, Err: err}
	}
	return &domain.UnavailableError{Reason: domain.UnavailableUpstream, Err: err}
}
