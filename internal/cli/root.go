package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/salwks/sdsmcp/internal/config"
	"github.com/salwks/sdsmcp/internal/logging"
	"github.com/salwks/sdsmcp/internal/version"
)

// Options holds global CLI options.
type Options struct {
	ConfigPath string
	EnvFile    string
}

// NewRootCmd constructs the base CLI command tree.
func NewRootCmd() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:           "sdsmcp",
		Short:         "sdsmcp: turn project descriptions into module-level specifications",
		Version:       version.Full(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnv(opts.EnvFile)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "Path to config file (default: ./sdsmcp.yaml or configs/sdsmcp.yaml)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "Dotenv file with provider credentials (default: .env when present)")

	cmd.AddCommand(NewAnalyzeCmd(opts))
	cmd.AddCommand(NewServeCmd(opts))
	cmd.AddCommand(NewCallCmd(opts))
	cmd.AddCommand(NewDoctorCmd(opts))
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadEnv reads a dotenv file without overriding variables already set.
// A missing default .env is not an error.
func loadEnv(path string) error {
	if path == "" {
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// loadConfig wraps config loading with shared options.
func loadConfig(opts *Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
}
