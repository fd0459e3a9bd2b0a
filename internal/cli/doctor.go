package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salwks/sdsmcp/internal/llm"
	"github.com/salwks/sdsmcp/internal/llm/configbuilder"
)

var doctorTasks = []llm.TaskType{llm.TaskModuleGeneration, llm.TaskSpecification, llm.TaskGeneral}

// NewDoctorCmd returns a health-check command validating config and provider credentials.
// It never contacts a provider.
func NewDoctorCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Validate configuration and provider credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			registry := configbuilder.BuildRegistry(cfg, nil)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config OK. Providers available: %d/%d, metrics: %v\n",
				len(registry.Available()), len(registry.Entries()), cfg.Server.MetricsEnabled)
			for _, e := range registry.Entries() {
				state := "missing " + e.Descriptor.CredentialEnv
				if e.Available() {
					state = "ready"
				}
				fmt.Fprintf(out, "  %-10s %-18s %s\n", e.Descriptor.Name, e.Descriptor.Label, state)
			}
			if pref := registry.Preferred(); pref != "" {
				fmt.Fprintf(out, "Preferred provider: %s\n", pref)
			}
			for _, task := range doctorTasks {
				entry, err := registry.Select(task)
				if err != nil {
					fmt.Fprintf(out, "Task %s: %v\n", task, err)
					continue
				}
				fmt.Fprintf(out, "Task %s: %s\n", task, entry.Descriptor.Name)
			}
			return nil
		},
	}
}
