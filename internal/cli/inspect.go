package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/zkbench/internal/config"
	"github.com/wesleyorama2/zkbench/internal/metrics"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Print the load profile generated for a variant",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			label, _ := cmd.Flags().GetString("label")

			orch, err := buildOrchestrator(cfg, metrics.NewRecorder())
			if err != nil {
				return err
			}
			p, err := orch.Controller.Profile(cfg.Experiment.StepDuration.Std(), label, cfg.Experiment.Samples)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, p.Render())
			fmt.Fprintf(out, "# duration %s\n", p.Duration())
			return nil
		},
	}
	addConfigFlag(cmd)
	cmd.Flags().String("label", "NA_1024KiB", "Variant label the profile saves its output under")
	return cmd
}

func newQuorumCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quorum",
		Short: "Print the registry quorum document",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			orch, err := buildOrchestrator(cfg, metrics.NewRecorder())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), orch.Registry.QuorumConfig())
			return nil
		},
	}
	addConfigFlag(cmd)
	return cmd
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a configuration file against the schema and semantic rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("config")
			if _, err := config.LoadConfig(file); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", file)
			return nil
		},
	}
	addConfigFlag(cmd)
	return cmd
}
