package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/salwks/sdsmcp/internal/apperr"
	"github.com/salwks/sdsmcp/internal/llm"
)

const defaultBaseURL = "https://api.openai.com"

// Adapter speaks the OpenAI chat completions wire format.
type Adapter struct {
	baseURL string
	model   string
}

// NewProvider constructs an OpenAI-compatible provider with sane defaults.
func NewProvider(baseURL, model, apiKey string, client *http.Client) *llm.HTTPProvider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = "gpt-4o"
	}
	a := &Adapter{baseURL: strings.TrimRight(baseURL, "/"), model: model}
	return llm.NewHTTPProvider("openai", a, apiKey, client)
}

// BuildRequest builds a single-turn, non-streaming chat completion request.
func (a *Adapter) BuildRequest(ctx context.Context, prompt, apiKey string) (*http.Request, error) {
	body := chatRequest{
		Model:    a.model,
		Messages: []message{{Role: "user", Content: prompt}},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	return req, nil
}

// ExtractText returns the first choice's message content.
func (a *Adapter) ExtractText(body []byte) (string, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", apperr.Validation("decode response", "", "openai: %v", err)
	}
	if len(resp.Choices) == 0 {
		return "", apperr.Validation("extract text", "choices", "openai: empty choices")
	}
	content := resp.Choices[0].Message.Content
	if content == nil {
		return "", apperr.Validation("extract text", "choices[0].message.content", "openai: choice has no content")
	}
	return *content, nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Index        int    `json:"index"`
		FinishReason string `json:"finish_reason"`
		Message      struct {
			Role    string  `json:"role"`
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
