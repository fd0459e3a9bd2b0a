package ollama

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

const defaultHost = "http://127.0.0.1:11434"

// Adapter implements a minimal Ollama chat client. The credential slot carries
// the host URL since a local daemon needs no key.
type Adapter struct {
	model   string
	options map[string]interface{}
}

// NewProvider constructs an Ollama provider bound to host.
func NewProvider(host, model string, client *http.Client) *llm.HTTPProvider {
	if model == "" {
		model = "llama3.1"
	}
	return llm.NewHTTPProvider("ollama", &Adapter{model: model}, host, client)
}

func (a *Adapter) BuildRequest(ctx context.Context, prompt, host string) (*http.Request, error) {
	if host == "" {
		host = defaultHost
	}

	payload, err := json.Marshal(chatRequest{
		Model:    a.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Stream:   false,
		Options:  a.options,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(host, "/")+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (a *Adapter) ExtractText(body []byte) (string, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", apperr.Validation("decode response", "", "ollama: %v", err)
	}
	if resp.Message == nil {
		return "", apperr.Validation("extract text", "message", "ollama: response has no message")
	}
	if resp.Message.Content == nil {
		return "", apperr.Validation("extract text", "message.content", "ollama: message has no content")
	}
	return *resp.Message.Content, nil
}

type chatRequest struct {
	Model    string                 `json:"model"`
	Messages []chatMessage          `json:"messages"`
	Stream   bool                   `json:"stream"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message *struct {
		Role    string  `json:"role"`
		Content *string `json:"content"`
	} `json:"message"`
}
