package cli

import (
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/zkbench/internal/config"
	"github.com/wesleyorama2/zkbench/internal/metrics"
	"github.com/wesleyorama2/zkbench/internal/orchestrator"
	"github.com/wesleyorama2/zkbench/internal/remote"
)

// newDialer opens sessions for the pool. Tests swap it for an in-memory dialer.
var newDialer = func(cfg config.SSHConfig) remote.Dialer {
	return remote.NewSSHDialer(remote.SSHConfig{
		Port:           cfg.Port,
		ConnectTimeout: cfg.ConnectTimeout.Std(),
		KnownHosts:     cfg.KnownHosts,
		KeyFiles:       cfg.KeyFiles,
	})
}

// extraOptions are appended to every orchestrator built by the commands.
var extraOptions []orchestrator.Option

func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "Experiment configuration file (YAML or JSON)")
	cmd.MarkFlagRequired("config")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	return config.LoadConfig(file)
}

// buildOrchestrator wires a session pool, reporting into recorder, to every role of cfg.
func buildOrchestrator(cfg *config.Config, recorder *metrics.Recorder, opts ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	pool := remote.NewPool(newDialer(cfg.SSH), remote.WithObserver(recorder))
	opts = append(opts, orchestrator.WithRecorder(recorder))
	opts = append(opts, extraOptions...)
	return orchestrator.New(cfg, pool, opts...)
}
