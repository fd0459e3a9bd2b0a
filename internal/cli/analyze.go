package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/salwks/sdsmcp/internal/daemon"
	"github.com/salwks/sdsmcp/internal/pipeline"
	"github.com/salwks/sdsmcp/internal/render"
	"github.com/salwks/sdsmcp/internal/session"
	"github.com/salwks/sdsmcp/internal/specdoc"
)

// NewAnalyzeCmd runs the pipeline once and writes the exported documents.
func NewAnalyzeCmd(opts *Options) *cobra.Command {
	var (
		platform   string
		complexity string
		advanced   bool
		format     string
		outDir     string
		pretty     bool
	)

	cmd := &cobra.Command{
		Use:   "analyze \"<project description>\"",
		Short: "Generate a specification from a description (use - to read stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description := args[0]
			if description == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				description = string(data)
			}
			if strings.TrimSpace(description) == "" {
				return fmt.Errorf("project description cannot be empty")
			}

			p, err := specdoc.ParsePlatform(platform)
			if err != nil {
				return err
			}
			c, err := specdoc.ParseComplexity(complexity)
			if err != nil {
				return err
			}
			formats, err := render.ParseFormat(format)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck // best-effort

			comps := daemon.Wire(cfg, logger)
			if outDir == "" {
				outDir = cfg.Output.Dir
			}

			res, err := comps.Assembler.Analyze(cmd.Context(), pipeline.AnalyzeRequest{
				Description:      description,
				Platform:         p,
				Complexity:       c,
				AdvancedFeatures: advanced,
			})
			if err != nil {
				return err
			}
			now := time.Now()
			id := session.NewID(now)

			paths, err := render.ExportSession(outDir, res.Spec, formats, id, now)
			if err != nil {
				return err
			}
			return printAnalysis(cmd.OutOrStdout(), res, paths, pretty)
		},
	}

	cmd.Flags().StringVar(&platform, "platform", "auto", "Target platform: auto, web or mobile")
	cmd.Flags().StringVar(&complexity, "complexity", "auto", "Complexity: auto, simple, medium or complex")
	cmd.Flags().BoolVar(&advanced, "advanced", false, "Include advanced non-functional requirements")
	cmd.Flags().StringVar(&format, "format", "all", "Export format: markdown, json, openapi, schema or all")
	cmd.Flags().StringVar(&outDir, "out", "", "Output directory (default: output.dir from config)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Render the summary as styled terminal markdown")
	return cmd
}

func printAnalysis(out io.Writer, res *pipeline.Analysis, paths []string, pretty bool) error {
	summary := render.Summary(res.Spec)
	if pretty {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
		if err == nil {
			if styled, rerr := r.Render(summary); rerr == nil {
				summary = styled
			}
		}
	}
	fmt.Fprintln(out, summary)
	fmt.Fprintf(out, "Platform: %s | Complexity: %s | Modules: %d\n", res.Platform, res.Complexity, res.ModuleCount)
	for _, p := range paths {
		fmt.Fprintf(out, "  wrote %s\n", p)
	}
	return nil
}
