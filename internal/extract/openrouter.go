// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/exam-schedule/internal/httputil"
	"github.com/pdiddy/exam-schedule/pkg/types"
)

// DefaultBaseURL is the OpenRouter API root.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// httpRetries bounds 429/503 retries inside one Invoke.
const httpRetries = 3

// OpenRouterBackend calls an OpenAI-compatible chat completions endpoint
// (OpenRouter by default) in JSON mode.
type OpenRouterBackend struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

// NewOpenRouterBackend builds a backend from AI configuration.
func NewOpenRouterBackend(cfg types.AIConfig) *OpenRouterBackend {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenRouterBackend{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Invoke sends text with the schema's system prompt and returns the model's
// JSON object. Output validation is left to the caller.
func (b *OpenRouterBackend) Invoke(ctx context.Context, text string, schema Schema) (json.RawMessage, error) {
	system, err := renderSystemPrompt(schema)
	if err != nil {
		return nil, fmt.Errorf("%w: rendering prompt: %w", ErrExtraction, err)
	}

	body, err := json.Marshal(chatRequest{
		Model: b.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: text},
		},
		Temperature:    0,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %w", ErrExtraction, err)
	}

	base := b.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(base, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", ErrExtraction, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.APIKey)
	}
	req.Header.Set("HTTP-Referer", "https://github.com/pdiddy/exam-schedule")
	req.Header.Set("X-Title", "exam-schedule")

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, httpRetries)
	if err != nil {
		return nil, fmt.Errorf("%w: calling chat completions: %w", ErrExtraction, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrExtraction, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: chat completions returned %d: %s", ErrExtraction, resp.StatusCode, truncate(string(respBody), 300))
	}

	var cr chatResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", ErrExtraction, err)
	}
	if cr.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrExtraction, cr.Error.Message)
	}
	if len(cr.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", ErrExtraction)
	}

	content := stripCodeFence(cr.Choices[0].Message.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: empty response content", ErrExtraction)
	}
	if !json.Valid([]byte(content)) {
		return nil, fmt.Errorf("%w: response content is not JSON: %s", ErrExtraction, truncate(content, 120))
	}
	return json.RawMessage(content), nil
}

// stripCodeFence removes a surrounding ```json fence some models add even in
// JSON mode.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
