package daemon

import (
	"go.uber.org/zap"

	"github.com/salwks/sdsmcp/internal/config"
	"github.com/salwks/sdsmcp/internal/llm"
	"github.com/salwks/sdsmcp/internal/llm/configbuilder"
	"github.com/salwks/sdsmcp/internal/mcp"
	"github.com/salwks/sdsmcp/internal/observability"
	"github.com/salwks/sdsmcp/internal/pipeline"
	"github.com/salwks/sdsmcp/internal/session"
	"github.com/salwks/sdsmcp/internal/version"
)

// Components is the fully wired application graph shared by the daemon and the CLI.
type Components struct {
	Registry  *llm.Registry
	Invoker   *llm.Invoker
	Assembler *pipeline.Assembler
	Sessions  *session.Store
	Metrics   *observability.Metrics
	MCP       *mcp.Server
}

// Wire builds every component from cfg. It never performs network I/O.
func Wire(cfg *config.Config, logger *zap.Logger) *Components {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := observability.NewMetrics()

	registry := configbuilder.BuildRegistry(cfg, logger)
	invoker := llm.NewInvoker(registry, llm.InvokerConfig{
		Timeout: cfg.Pipeline.Timeout,
		Retries: cfg.Pipeline.Retries,
		Backoff: cfg.Pipeline.Backoff,
	}, llm.WithLogger(logger), llm.WithRecorder(metrics))

	assembler := pipeline.NewAssembler(invoker, pipeline.Options{
		Detailer: pipeline.DetailerConfig{
			BatchSize:  cfg.Pipeline.BatchSize,
			BatchDelay: cfg.Pipeline.BatchDelay,
		},
		Logger:  logger,
		Metrics: metrics,
	})

	sessions := session.NewStore(cfg.Session.MaxEntries, cfg.Session.TTL,
		session.WithSizeObserver(metrics.SetLiveSessions))

	server := mcp.NewServer(mcp.Config{
		Pipeline:  assembler,
		Sessions:  sessions,
		OutputDir: cfg.Output.Dir,
		Version:   version.Version,
		Logger:    logger,
		Metrics:   metrics,
	})

	return &Components{
		Registry:  registry,
		Invoker:   invoker,
		Assembler: assembler,
		Sessions:  sessions,
		Metrics:   metrics,
		MCP:       server,
	}
}
