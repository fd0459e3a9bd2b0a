package pipeline

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/salwks/sdsmcp/internal/apperr"
	"github.com/salwks/sdsmcp/internal/llm"
	"github.com/salwks/sdsmcp/internal/parser"
	"github.com/salwks/sdsmcp/internal/specdoc"
)

// Invoker is the slice of llm.Invoker the pipeline depends on.
type Invoker interface {
	Invoke(ctx context.Context, task llm.TaskType, prompt string) (string, error)
}

// ModuleRef is a discovered module before detailing.
type ModuleRef struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Discoverer asks the model for the module list of a project.
type Discoverer struct {
	invoker Invoker
	logger  *zap.Logger
}

func NewDiscoverer(inv Invoker, logger *zap.Logger) *Discoverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discoverer{invoker: inv, logger: logger}
}

// Discover returns up to count de-duplicated modules for description.
func (d *Discoverer) Discover(ctx context.Context, description string, count int, complexity specdoc.Complexity) ([]ModuleRef, error) {
	lang := DetectLanguage(description)
	prompt := buildDiscoveryPrompt(lang, description, count, complexity)

	text, err := d.invoker.Invoke(ctx, llm.TaskModuleGeneration, prompt)
	if err != nil {
		return nil, discoveryFailed(err)
	}

	raw, err := parser.Extract(text, parser.Array)
	if err != nil {
		return nil, discoveryFailed(err)
	}

	refs := dedupe(toRefs(raw.([]any)))
	if len(refs) == 0 {
		return nil, discoveryFailed(apperr.Validation("discover modules", "modules", "model returned no usable module names"))
	}
	received := len(refs)
	if count > 0 && len(refs) > count {
		refs = refs[:count]
	}

	d.logger.Debug("modules discovered",
		zap.String("language", string(lang)),
		zap.Int("requested", count),
		zap.Int("received", received),
		zap.Int("kept", len(refs)))
	return refs, nil
}

// discoveryFailed keeps the cause's kind under a domain-level label.
func discoveryFailed(err error) error {
	return &apperr.Error{Kind: apperr.KindOf(err), Op: "module structure generation failed", Err: err}
}

func toRefs(items []any) []ModuleRef {
	out := make([]ModuleRef, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			out = append(out, ModuleRef{Name: strings.TrimSpace(v)})
		case map[string]any:
			name, _ := v["name"].(string)
			if name == "" {
				name, _ = v["module"].(string)
			}
			desc, _ := v["description"].(string)
			out = append(out, ModuleRef{Name: strings.TrimSpace(name), Description: strings.TrimSpace(desc)})
		}
	}
	return out
}

// dedupe drops blank names and repeated names; the first occurrence wins.
func dedupe(refs []ModuleRef) []ModuleRef {
	seen := make(map[string]struct{}, len(refs))
	out := refs[:0]
	for _, r := range refs {
		key := specdoc.NameKey(r.Name)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}
