package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/salwks/sdsmcp/internal/daemon"
)

// NewServeCmd runs the JSON-RPC dispatcher over stdin/stdout.
func NewServeCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP tool calls over stdio (one JSON-RPC message per line)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck // best-effort

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c := daemon.Wire(cfg, logger)
			logger.Info("serving mcp over stdio", zap.Int("providers_available", len(c.Registry.Available())))
			return c.MCP.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
