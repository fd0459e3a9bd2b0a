package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/salwks/sdsmcp/internal/apperr"
)

// Adapter encapsulates one provider's wire format.
type Adapter interface {
	BuildRequest(ctx context.Context, prompt, credential string) (*http.Request, error)
	ExtractText(body []byte) (string, error)
}

// HTTPProvider sends adapter-built requests over HTTP. Timeouts come from the
// caller's context.
type HTTPProvider struct {
	name       string
	adapter    Adapter
	credential string
	client     *http.Client
}

// NewHTTPProvider constructs a provider; a nil client uses a fresh http.Client.
func NewHTTPProvider(name string, adapter Adapter, credential string, client *http.Client) *HTTPProvider {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPProvider{name: name, adapter: adapter, credential: credential, client: client}
}

// Name returns provider identifier.
func (p *HTTPProvider) Name() string {
	return p.name
}

// Complete sends prompt and returns the extracted response text.
func (p *HTTPProvider) Complete(ctx context.Context, prompt string) (string, error) {
	req, err := p.adapter.BuildRequest(ctx, prompt, p.credential)
	if err != nil {
		return "", apperr.New(apperr.KindInternal, "build request", err)
	}

	res, err := p.client.Do(req)
	if err != nil {
		return "", apperr.Network("send request", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", apperr.Network("read response", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", apperr.Network("send request", fmt.Errorf("%s: status %d: %s", p.name, res.StatusCode, truncate(string(body), 300)))
	}

	return p.adapter.ExtractText(body)
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
