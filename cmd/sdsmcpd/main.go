package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/salwks/sdsmcp/internal/config"
	"github.com/salwks/sdsmcp/internal/daemon"
	"github.com/salwks/sdsmcp/internal/logging"
	"github.com/salwks/sdsmcp/internal/version"
)

func main() {
	var cfgPath string

	root := &cobra.Command{
		Use:     "sdsmcpd",
		Short:   "sdsmcp daemon: MCP tools over HTTP (NDJSON and Connect)",
		Version: version.Full(),
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			logger, err := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck // best-effort

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server, err := daemon.NewServer(cfg, logger)
			if err != nil {
				return err
			}
			return server.Run(ctx)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "Path to config file (default: ./sdsmcp.yaml or configs/sdsmcp.yaml)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
