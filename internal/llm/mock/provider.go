package mock

import (
	"context"
	"sync/atomic"
)

// Provider is a test double implementing llm.Provider.
type Provider struct {
	NameValue  string
	CompleteFn func(ctx context.Context, prompt string) (string, error)

	calls atomic.Int64
}

func (p *Provider) Name() string {
	if p.NameValue != "" {
		return p.NameValue
	}
	return "mock"
}

func (p *Provider) Complete(ctx context.Context, prompt string) (string, error) {
	p.calls.Add(1)
	if p.CompleteFn != nil {
		return p.CompleteFn(ctx, prompt)
	}
	return "mock", nil
}

// Calls returns how many times Complete ran.
func (p *Provider) Calls() int {
	return int(p.calls.Load())
}
