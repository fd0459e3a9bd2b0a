package daemon

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"go.uber.org/zap"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/salwks/sdsmcp/internal/config"
	"github.com/salwks/sdsmcp/internal/rpc/dispatch"
	toolrpc "github.com/salwks/sdsmcp/internal/rpc/tools"
)

// Server exposes the JSON-RPC dispatcher over HTTP next to health and metrics endpoints.
type Server struct {
	cfg        *config.Config
	logger     *zap.Logger
	components *Components
}

// NewServer constructs a daemon instance.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{cfg: cfg, logger: logger, components: Wire(cfg, logger)}, nil
}

// Handler returns the routed HTTP handler, wrapped for h2c.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/metrics", s.metricsHandler)
	mux.Handle("/tools/schemas", toolrpc.SchemaHandler{})

	path, handler := dispatch.NewConnectHandler(s.components.MCP, s.components.Metrics)
	mux.Handle(path, handler)
	mux.Handle("/mcp", dispatch.NewHandler(s.components.MCP, s.components.Metrics))

	return h2c.NewHandler(mux, &http2.Server{})
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting sdsmcp daemon",
			zap.String("addr", s.cfg.Server.Addr),
			zap.Int("providers_available", len(s.components.Registry.Available())))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down sdsmcp daemon")
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprintf(w, `{"status":"ok","sessions":%d}`, s.components.Sessions.Len())
}

func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Server.MetricsEnabled {
		http.NotFound(w, r)
		return
	}

	promhttp.HandlerFor(s.components.Metrics.Registry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
