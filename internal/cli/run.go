package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/zkbench/internal/config"
	"github.com/wesleyorama2/zkbench/internal/events"
	"github.com/wesleyorama2/zkbench/internal/logging"
	"github.com/wesleyorama2/zkbench/internal/metrics"
	"github.com/wesleyorama2/zkbench/internal/orchestrator"
	"github.com/wesleyorama2/zkbench/internal/output"
	"github.com/wesleyorama2/zkbench/internal/report"
)

func newRunCmd(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every variant of the experiment matrix",
		Long: `Provision every role, run each configuration variant in order and collect its
measurements into the results directory, then stop and destroy everything.

Examples:
  zkbench run -c experiment.yml
  zkbench run -c experiment.yml --matrix all --report results/report.html
  zkbench run -c experiment.yml --resume`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExperiment(cmd, global)
		},
	}

	addConfigFlag(cmd)
	cmd.Flags().String("matrix", "", "Override the matrix mode (digest, nodigest, all)")
	cmd.Flags().Bool("resume", false, "Skip variants already collected in the results directory")
	cmd.Flags().String("report", "", "Write an HTML summary to this file")

	return cmd
}

func runExperiment(cmd *cobra.Command, global *globalOptions) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if mode, _ := cmd.Flags().GetString("matrix"); mode != "" {
		cfg.Experiment.Matrix.Mode = mode
		config.ApplyDefaults(cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	resume, _ := cmd.Flags().GetBool("resume")
	reportPath, _ := cmd.Flags().GetString("report")

	variants := orchestrator.Matrix(cfg.Experiment.Matrix)
	log.Infof("running %d variants, results in %s", len(variants), cfg.Experiment.ResultsDir)

	bus := events.NewBus()
	console := output.NewConsole(cmd.OutOrStdout(), global.noColor)
	done := console.Follow(bus.Subscribe())

	recorder := metrics.NewRecorder()
	orch, err := buildOrchestrator(cfg, recorder, orchestrator.WithBus(bus))
	if err != nil {
		bus.Close()
		<-done
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manifest, runErr := orch.Run(ctx, variants, orchestrator.RunOptions{Resume: resume})
	bus.Close()
	<-done
	if n := bus.Dropped(); n > 0 {
		log.Warnf("console skipped %d events", n)
	}
	if runErr != nil {
		logging.WithStacktrace(log.WithField("results", cfg.Experiment.ResultsDir), runErr).Error("experiment aborted")
	}

	if manifest != nil {
		console.PrintSummary(manifest)
		if reportPath != "" {
			if err := report.GenerateHTML(manifest, "zkbench "+cfg.Experiment.Matrix.Mode, reportPath); err != nil {
				logging.WithStacktrace(log.WithField("report", reportPath), err).Error("report not written")
			} else {
				log.Infof("report written to %s", reportPath)
			}
		}
	}
	return runErr
}

func newCleanupCmd(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Stop every role process and remove every working directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			bus := events.NewBus()
			done := output.NewConsole(cmd.OutOrStdout(), global.noColor).Follow(bus.Subscribe())
			defer func() {
				bus.Close()
				<-done
			}()

			orch, err := buildOrchestrator(cfg, metrics.NewRecorder(), orchestrator.WithBus(bus))
			if err != nil {
				return err
			}
			if err := orch.Cleanup(context.Background()); err != nil {
				return errors.Wrap(err, "cleanup")
			}
			return nil
		},
	}
	addConfigFlag(cmd)
	return cmd
}
