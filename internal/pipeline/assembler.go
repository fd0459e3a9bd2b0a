// Package pipeline turns a project description into a detailed specification
// document: module discovery, batched module detailing and refinement.
package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/salwks/sdsmcp/internal/apperr"
	"github.com/salwks/sdsmcp/internal/llm"
	"github.com/salwks/sdsmcp/internal/parser"
	"github.com/salwks/sdsmcp/internal/specdoc"
)

const maxTitleRunes = 60

// AnalyzeRequest is the input to Analyze.
type AnalyzeRequest struct {
	Description      string
	Platform         specdoc.Platform
	Complexity       specdoc.Complexity
	AdvancedFeatures bool
}

// Analysis is a freshly assembled specification plus the resolved inputs.
type Analysis struct {
	Spec        *specdoc.Specification
	Platform    specdoc.Platform
	Complexity  specdoc.Complexity
	ModuleCount int
}

// Assembler drives discovery and detailing and applies refinements.
type Assembler struct {
	invoker    Invoker
	discoverer *Discoverer
	detailer   *Detailer
	logger     *zap.Logger
}

// Options configures an Assembler.
type Options struct {
	Detailer DetailerConfig
	Logger   *zap.Logger
	Metrics  DetailRecorder
}

func NewAssembler(inv Invoker, opts Options) *Assembler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		invoker:    inv,
		discoverer: NewDiscoverer(inv, logger),
		detailer:   NewDetailer(inv, opts.Detailer, logger, opts.Metrics),
		logger:     logger,
	}
}

// Analyze runs the full pipeline for one description. Failed modules are
// stubbed and listed in DegradedModules.
func (a *Assembler) Analyze(ctx context.Context, req AnalyzeRequest) (*Analysis, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, apperr.Validation("analyze", "project_description", "must not be empty")
	}

	platform := req.Platform
	if platform == "" || platform == specdoc.PlatformAuto {
		platform = DetectPlatform(description)
	}
	stack, err := specdoc.DefaultStack(platform)
	if err != nil {
		return nil, err
	}

	count := ModuleCount(req.Complexity, description)
	complexity := req.Complexity
	if complexity == "" || complexity == specdoc.ComplexityAuto {
		complexity = ComplexityFor(count)
	}

	a.logger.Info("analyzing project",
		zap.String("platform", string(platform)),
		zap.String("complexity", string(complexity)),
		zap.Int("modules", count))

	refs, err := a.discoverer.Discover(ctx, description, count, complexity)
	if err != nil {
		return nil, err
	}

	modules, degraded := Degrade(a.detailer.Detail(ctx, refs, description, stack))

	spec := &specdoc.Specification{
		Title:           deriveTitle(description),
		Description:     description,
		Platform:        platform,
		TechStack:       stack,
		Requirements:    deriveRequirements(refs, platform, req.AdvancedFeatures),
		Modules:         modules,
		DegradedModules: degraded,
	}
	return &Analysis{Spec: spec, Platform: platform, Complexity: complexity, ModuleCount: count}, nil
}

// Refine applies instruction to existing and returns the new document. existing
// is not modified; a response without an array-shaped modules field is rejected.
func (a *Assembler) Refine(ctx context.Context, existing *specdoc.Specification, instruction string) (*specdoc.Specification, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return nil, apperr.Validation("refine", "refinement_request", "must not be empty")
	}
	if existing == nil {
		return nil, apperr.Validation("refine", "session_id", "no specification to refine")
	}

	lang := DetectLanguage(existing.Description + instruction)
	text, err := a.invoker.Invoke(ctx, llm.TaskSpecification, buildRefinePrompt(lang, existing, instruction))
	if err != nil {
		return nil, err
	}

	raw, err := parser.Extract(text, parser.Object)
	if err != nil {
		return nil, err
	}
	obj := raw.(map[string]any)

	modsRaw, ok := obj["modules"].([]any)
	if !ok {
		return nil, apperr.Validation("refine", "modules", "expected array")
	}
	data, err := json.Marshal(modsRaw)
	if err != nil {
		return nil, apperr.Parsing("refine", err)
	}
	var modules []specdoc.Module
	if err := json.Unmarshal(data, &modules); err != nil {
		return nil, apperr.Validation("refine", "modules", "%v", err)
	}

	out := existing.Clone()
	out.Modules = make([]specdoc.Module, 0, len(modules))
	out.DegradedModules = nil
	for _, m := range modules {
		if specdoc.NameKey(m.Name) == "" {
			continue
		}
		if m.Functions == nil {
			m.Functions = []specdoc.Function{}
		}
		if len(m.Functions) == 0 {
			out.DegradedModules = append(out.DegradedModules, m.Name)
		}
		out.Modules = append(out.Modules, m)
	}
	if s, ok := obj["title"].(string); ok && strings.TrimSpace(s) != "" {
		out.Title = strings.TrimSpace(s)
	}
	if s, ok := obj["description"].(string); ok && strings.TrimSpace(s) != "" {
		out.Description = strings.TrimSpace(s)
	}
	if r, ok := obj["requirements"].(map[string]any); ok {
		var req specdoc.Requirements
		if b, err := json.Marshal(r); err == nil && json.Unmarshal(b, &req) == nil {
			out.Requirements = &req
		}
	}

	a.logger.Info("specification refined",
		zap.Int("modules_before", len(existing.Modules)),
		zap.Int("modules_after", len(out.Modules)))
	return out, nil
}

// SelectSubset keeps the modules named in names, in their original order.
// Matching is case-insensitive on trimmed names. existing is not modified.
func SelectSubset(existing *specdoc.Specification, names []string) (*specdoc.Specification, error) {
	if len(names) == 0 {
		return nil, apperr.Validation("select modules", "selected_modules", "must be a non-empty list")
	}
	if existing == nil {
		return nil, apperr.Validation("select modules", "session_id", "no specification to select from")
	}

	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		if k := specdoc.NameKey(n); k != "" {
			want[k] = struct{}{}
		}
	}
	if len(want) == 0 {
		return nil, apperr.Validation("select modules", "selected_modules", "must contain at least one name")
	}

	out := existing.Clone()
	out.Modules = out.Modules[:0]
	for _, m := range existing.Modules {
		if _, ok := want[specdoc.NameKey(m.Name)]; ok {
			out.Modules = append(out.Modules, m.Clone())
		}
	}
	out.DegradedModules = nil
	for _, name := range existing.DegradedModules {
		if _, ok := want[specdoc.NameKey(name)]; ok {
			out.DegradedModules = append(out.DegradedModules, name)
		}
	}
	return out, nil
}

func deriveTitle(description string) string {
	title := description
	if i := strings.IndexAny(title, "\n.!?。"); i > 0 {
		title = title[:i]
	}
	title = strings.TrimSpace(title)
	if utf8.RuneCountInString(title) > maxTitleRunes {
		r := []rune(title)
		title = strings.TrimSpace(string(r[:maxTitleRunes])) + "..."
	}
	return title
}

func deriveRequirements(refs []ModuleRef, platform specdoc.Platform, advanced bool) *specdoc.Requirements {
	req := &specdoc.Requirements{}
	for _, r := range refs {
		if r.Description != "" {
			req.Functional = append(req.Functional, r.Name+": "+r.Description)
		} else {
			req.Functional = append(req.Functional, r.Name)
		}
	}
	switch platform {
	case specdoc.PlatformMobile:
		req.NonFunctional = append(req.NonFunctional, "Runs on current iOS and Android releases", "Usable offline for previously loaded data")
	default:
		req.NonFunctional = append(req.NonFunctional, "Supports current evergreen browsers", "Responsive layout down to 360px width")
	}
	if advanced {
		req.System = append(req.System, "Structured logging and metrics", "Automated CI pipeline with tests", "Role-based access control")
	}
	return req
}
