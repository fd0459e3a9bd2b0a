package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/salwks/sdsmcp/internal/apperr"
	"github.com/salwks/sdsmcp/internal/llm"
	"github.com/salwks/sdsmcp/internal/parser"
	"github.com/salwks/sdsmcp/internal/specdoc"
)

// DetailRecorder counts per-module outcomes.
type DetailRecorder interface {
	RecordModuleDetail(ok bool)
}

// Result is the outcome for one module. Err is set when the module could not
// be detailed; Module is then zero.
type Result struct {
	Ref    ModuleRef
	Module specdoc.Module
	Err    error
}

// Detailer generates module function lists in sequential, concurrent batches.
type Detailer struct {
	invoker   Invoker
	batchSize int
	delay     time.Duration
	logger    *zap.Logger
	metrics   DetailRecorder
}

// DetailerConfig sizes the batches.
type DetailerConfig struct {
	BatchSize  int
	BatchDelay time.Duration
}

func NewDetailer(inv Invoker, cfg DetailerConfig, logger *zap.Logger, metrics DetailRecorder) *Detailer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 3
	}
	if cfg.BatchDelay < 0 {
		cfg.BatchDelay = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detailer{invoker: inv, batchSize: cfg.BatchSize, delay: cfg.BatchDelay, logger: logger, metrics: metrics}
}

// Detail returns one Result per ref, in input order. It never fails as a whole.
func (d *Detailer) Detail(ctx context.Context, refs []ModuleRef, description string, stack specdoc.TechStack) []Result {
	results := make([]Result, len(refs))
	lang := DetectLanguage(description)

	for start := 0; start < len(refs); start += d.batchSize {
		end := start + d.batchSize
		if end > len(refs) {
			end = len(refs)
		}

		if start > 0 {
			if err := sleep(ctx, d.delay); err != nil {
				for i := start; i < len(refs); i++ {
					results[i] = Result{Ref: refs[i], Err: apperr.Network("detail module", err)}
				}
				break
			}
		}

		var g errgroup.Group
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				m, err := d.detailOne(ctx, lang, refs[i], description, stack)
				results[i] = Result{Ref: refs[i], Module: m, Err: err}
				return nil
			})
		}
		_ = g.Wait()

		d.logger.Debug("module batch detailed",
			zap.Int("from", start),
			zap.Int("to", end))
	}

	for _, r := range results {
		if d.metrics != nil {
			d.metrics.RecordModuleDetail(r.Err == nil)
		}
		if r.Err != nil {
			d.logger.Warn("module detail failed",
				zap.String("module", r.Ref.Name),
				zap.Error(r.Err))
		}
	}
	return results
}

func (d *Detailer) detailOne(ctx context.Context, lang Language, ref ModuleRef, description string, stack specdoc.TechStack) (specdoc.Module, error) {
	text, err := d.invoker.Invoke(ctx, llm.TaskSpecification, buildDetailPrompt(lang, ref, description, stack))
	if err != nil {
		return specdoc.Module{}, err
	}

	raw, err := parser.Extract(text, parser.Object)
	if err != nil {
		return specdoc.Module{}, err
	}
	obj := raw.(map[string]any)

	fnsRaw, ok := obj["functions"].([]any)
	if !ok {
		return specdoc.Module{}, apperr.Validation("detail module", "functions", "expected array for module %q", ref.Name)
	}
	data, err := json.Marshal(fnsRaw)
	if err != nil {
		return specdoc.Module{}, apperr.Parsing("detail module", err)
	}
	var fns []specdoc.Function
	if err := json.Unmarshal(data, &fns); err != nil {
		return specdoc.Module{}, apperr.Validation("detail module", "functions", "%v", err)
	}

	desc := ref.Description
	if s, ok := obj["description"].(string); ok && s != "" {
		desc = s
	}
	if fns == nil {
		fns = []specdoc.Function{}
	}
	return specdoc.Module{Name: ref.Name, Description: desc, Functions: fns}, nil
}

// Degrade turns failed results into stub modules and reports their names.
func Degrade(results []Result) ([]specdoc.Module, []string) {
	modules := make([]specdoc.Module, 0, len(results))
	var failed []string
	for _, r := range results {
		if r.Err != nil {
			modules = append(modules, specdoc.StubModule(r.Ref.Name))
			failed = append(failed, r.Ref.Name)
			continue
		}
		modules = append(modules, r.Module)
	}
	return modules, failed
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
