// Package llm is the cloud language-model client used for individual
// analysis and cross-case synthesis calls. The client is constructed once
// at process start and injected into the components that need it.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"
)

const (
	anthropicBaseURL = "https://api.anthropic.com/v1"
	openaiBaseURL    = "https://api.openai.com/v1"

	defaultTimeout = 120 * time.Second
	maxRetries     = 3
	initialBackoff = 500 * time.Millisecond
)

// Provider selects the wire format the client speaks.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// Request is one completion call.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
	JSONMode    bool // OpenAI response_format json_object; ignored by Anthropic
}

// Client communicates with a single configured provider.
type Client struct {
	provider   Provider
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the given provider, key and model.
func New(provider Provider, apiKey, model string) *Client {
	baseURL := openaiBaseURL
	if provider == ProviderAnthropic {
		baseURL = anthropicBaseURL
	}
	return &Client{
		provider:   provider,
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// NewWithBaseURL creates a client pointing at a custom base URL (for testing).
func NewWithBaseURL(provider Provider, apiKey, model, baseURL string) *Client {
	c := New(provider, apiKey, model)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Complete sends the request and returns the assistant's text. Rate-limit
// responses are retried with exponential backoff plus jitter, up to
// maxRetries attempts; all other errors surface immediately.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	var lastErr error
	for attempt := range maxRetries {
		text, err := c.doComplete(ctx, req)
		if err == nil {
			return text, nil
		}
		if !isRateLimit(err) {
			return "", err
		}

		lastErr = err
		if attempt < maxRetries-1 {
			backoff := time.Duration(float64(initialBackoff) * math.Pow(2, float64(attempt)))
			backoff += time.Duration(rand.Int64N(int64(backoff / 2)))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return "", fmt.Errorf("rate limited after %d retries: %w", maxRetries, lastErr)
}

// rateLimitError is returned on HTTP 429.
type rateLimitError struct {
	status int
}

func (e *rateLimitError) Error() string {
	return fmt.Sprintf("rate limited (HTTP %d)", e.status)
}

func isRateLimit(err error) bool {
	_, ok := err.(*rateLimitError)
	return ok
}

func (c *Client) doComplete(ctx context.Context, req Request) (string, error) {
	var body []byte
	var path string
	var err error

	switch c.provider {
	case ProviderAnthropic:
		path = "/messages"
		body, err = json.Marshal(anthropicRequest{
			Model:       c.model,
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
			System:      req.System,
			Messages:    []message{{Role: "user", Content: req.Prompt}},
		})
	default:
		path = "/chat/completions"
		oreq := openaiRequest{
			Model:       c.model,
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
			Messages: []message{
				{Role: "system", Content: req.System},
				{Role: "user", Content: req.Prompt},
			},
		}
		if req.JSONMode {
			oreq.ResponseFormat = &responseFormat{Type: "json_object"}
		}
		body, err = json.Marshal(oreq)
	}
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &rateLimitError{status: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return c.decodeText(resp.Body)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.provider == ProviderAnthropic {
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", "2023-06-01")
	} else {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *Client) decodeText(body io.Reader) (string, error) {
	if c.provider == ProviderAnthropic {
		var resp anthropicResponse
		if err := json.NewDecoder(body).Decode(&resp); err != nil {
			return "", fmt.Errorf("decoding response: %w", err)
		}
		if len(resp.Content) == 0 {
			return "", fmt.Errorf("empty response content")
		}
		return resp.Content[0].Text, nil
	}

	var resp openaiResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// --- wire types ---

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature,omitempty"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type openaiRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type openaiResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}
