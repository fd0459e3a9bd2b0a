package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/salwks/sdsmcp/internal/apperr"
)

// InvokerConfig bounds a single invocation.
type InvokerConfig struct {
	Timeout time.Duration
	Retries int
	Backoff time.Duration
}

// Recorder receives per-invocation outcomes.
type Recorder interface {
	RecordInvocation(provider, outcome string, attempts int, duration time.Duration)
}

// Invoker wraps provider calls with a per-attempt timeout and fixed-backoff retries.
type Invoker struct {
	registry *Registry
	cfg      InvokerConfig
	logger   *zap.Logger
	metrics  Recorder
}

// InvokerOption customises an Invoker.
type InvokerOption func(*Invoker)

func WithLogger(l *zap.Logger) InvokerOption {
	return func(i *Invoker) {
		if l != nil {
			i.logger = l
		}
	}
}

func WithRecorder(r Recorder) InvokerOption {
	return func(i *Invoker) { i.metrics = r }
}

// NewInvoker builds an invoker over reg.
func NewInvoker(reg *Registry, cfg InvokerConfig, opts ...InvokerOption) *Invoker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.Backoff < 0 {
		cfg.Backoff = 0
	}
	i := &Invoker{registry: reg, cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Registry exposes the underlying provider registry.
func (i *Invoker) Registry() *Registry {
	return i.registry
}

// Invoke selects a provider for task and calls it.
func (i *Invoker) Invoke(ctx context.Context, task TaskType, prompt string) (string, error) {
	entry, err := i.registry.Select(task)
	if err != nil {
		return "", err
	}
	i.logger.Debug("provider selected",
		zap.String("task", string(task)),
		zap.String("provider", entry.Descriptor.Name))
	return i.InvokeProvider(ctx, entry.Provider, prompt)
}

// InvokeProvider calls p up to Retries+1 times. Only network-kind failures are
// retried; the final failure is wrapped as an AIProvider error.
func (i *Invoker) InvokeProvider(ctx context.Context, p Provider, prompt string) (string, error) {
	start := time.Now()
	attempts := i.cfg.Retries + 1

	var lastErr error
	attempt := 0
	for attempt < attempts {
		attempt++

		text, err := i.attempt(ctx, p, prompt)
		if err == nil {
			i.record(p.Name(), "ok", attempt, start)
			return text, nil
		}
		lastErr = err

		if !apperr.Retryable(err) || ctx.Err() != nil {
			break
		}
		if attempt < attempts {
			i.logger.Warn("provider call failed, retrying",
				zap.String("provider", p.Name()),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", i.cfg.Backoff),
				zap.Error(err))
			if err := sleep(ctx, i.cfg.Backoff); err != nil {
				lastErr = apperr.Network("backoff", err)
				break
			}
		}
	}

	i.record(p.Name(), "error", attempt, start)
	i.logger.Error("provider call failed",
		zap.String("provider", p.Name()),
		zap.Int("attempts", attempt),
		zap.Error(lastErr))
	return "", apperr.AIProvider(p.Name(), lastErr)
}

func (i *Invoker) attempt(ctx context.Context, p Provider, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, i.cfg.Timeout)
	defer cancel()

	text, err := p.Complete(callCtx, prompt)
	if err == nil {
		return text, nil
	}
	if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return "", apperr.Network("timeout", fmt.Errorf("no response within %s: %w", i.cfg.Timeout, err))
	}
	return "", err
}

func (i *Invoker) record(provider, outcome string, attempts int, start time.Time) {
	if i.metrics == nil {
		return
	}
	i.metrics.RecordInvocation(provider, outcome, attempts, time.Since(start))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
