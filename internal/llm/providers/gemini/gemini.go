package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/salwks/sdsmcp/internal/apperr"
)

// Provider calls Gemini through the genai SDK. The SDK client is created on
// first use so construction never blocks.
type Provider struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client

	mu  sync.Mutex
	cli *genai.Client
}

// NewProvider constructs a Gemini provider. baseURL and httpClient are optional.
func NewProvider(baseURL, model, apiKey string, httpClient *http.Client) *Provider {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Provider{apiKey: apiKey, model: model, baseURL: baseURL, httpClient: httpClient}
}

func (p *Provider) Name() string { return "gemini" }

// Complete sends prompt as a single user turn. SDK failures are reported as
// network errors.
func (p *Provider) Complete(ctx context.Context, prompt string) (string, error) {
	cli, err := p.client(ctx)
	if err != nil {
		return "", err
	}

	resp, err := cli.Models.GenerateContent(ctx, p.model,
		[]*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{{Text: prompt}}}},
		nil,
	)
	if err != nil {
		return "", apperr.Network("generate content", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", apperr.Validation("extract text", "candidates", "gemini: empty candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", apperr.Validation("extract text", "parts", "gemini: candidate has no text")
	}
	return sb.String(), nil
}

func (p *Provider) client(ctx context.Context) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cli != nil {
		return p.cli, nil
	}
	if p.apiKey == "" {
		return nil, apperr.Network("create client", errors.New("gemini: api key is empty"))
	}

	cfg := &genai.ClientConfig{
		APIKey:     p.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: p.httpClient,
	}
	if p.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(p.baseURL, "/") + "/"}
	}

	cli, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, apperr.Network("create client", err)
	}
	p.cli = cli
	return cli, nil
}
