// Package ai produces investor-facing summaries of post descriptions via a
// single-turn completion-API call.
//
// The client is deliberately thin: one request, one response, no retries.
// When no API key is configured (local development, CI) it degrades to a
// deterministic truncated-text summary instead of failing, so the endpoint
// stays usable without a credential.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mahmoudomarus/chipn/internal/config"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"

	// fallbackRunes is how much of the original text the local fallback keeps.
	fallbackRunes = 100
)

// Client calls the completion API to summarize post content.
type Client struct {
	apiKey    string
	model     string
	maxTokens int

	// BaseURL overrides the API host; tests point it at a local server.
	BaseURL string
	// HTTPClient is the transport used for API calls. Defaults to a client
	// with a 30s timeout.
	HTTPClient *http.Client
}

// NewClient constructs a summarization client from the AI configuration.
func NewClient(cfg config.AIConfig) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		maxTokens:  cfg.MaxTokens,
		BaseURL:    defaultBaseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// messagesRequest is the wire shape of a single-turn completion call.
type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse is the subset of the response we consume.
type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Summarize returns a short investor-facing summary of content. Without an
// API key it returns the local truncated fallback and never errors. With a
// key, upstream failures are returned to the caller as errors; there is no
// silent degradation once a credential is configured.
func (c *Client) Summarize(ctx context.Context, content string) (string, error) {
	if c.apiKey == "" {
		return FallbackSummary(content), nil
	}

	prompt := "Briefly summarize this crowdfunding idea/product for investors. " +
		"Keep it exciting but factual: " + content

	body, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Anthropic-Version", apiVersion)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion call: unexpected status %d", resp.StatusCode)
	}

	var out messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("completion call: decode response: %w", err)
	}
	for _, block := range out.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("completion call: empty response")
}

// FallbackSummary is the local, credential-free summary: the first
// fallbackRunes runes of the content with an ellipsis when truncated.
func FallbackSummary(content string) string {
	runes := []rune(content)
	if len(runes) <= fallbackRunes {
		return "AI Summary: " + content
	}
	return "AI Summary: " + string(runes[:fallbackRunes]) + "..."
}
