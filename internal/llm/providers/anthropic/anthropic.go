package anthropic

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

const (
	defaultBaseURL   = "https://api.anthropic.com"
	apiVersion       = "2023-06-01"
	defaultMaxTokens = 4096
)

// Adapter speaks the Anthropic messages API.
type Adapter struct {
	baseURL   string
	model     string
	maxTokens int
}

// NewProvider constructs a Claude provider.
func NewProvider(baseURL, model, apiKey string, client *http.Client) *llm.HTTPProvider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = "claude-3-5-sonnet-20241022"
	}
	a := &Adapter{baseURL: strings.TrimRight(baseURL, "/"), model: model, maxTokens: defaultMaxTokens}
	return llm.NewHTTPProvider("anthropic", a, apiKey, client)
}

func (a *Adapter) BuildRequest(ctx context.Context, prompt, apiKey string) (*http.Request, error) {
	payload, err := json.Marshal(messagesRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	return req, nil
}

// ExtractText concatenates the text blocks of the response.
func (a *Adapter) ExtractText(body []byte) (string, error) {
	var resp messagesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", apperr.Validation("decode response", "", "anthropic: %v", err)
	}

	var sb strings.Builder
	found := false
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
			found = true
		}
	}
	if !found {
		return "", apperr.Validation("extract text", "content", "anthropic: no text block in response")
	}
	return sb.String(), nil
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}
