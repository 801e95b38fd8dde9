package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/zkbench/internal/logging"
)

var version = "0.1.0"

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	logLevel string
	logFile  string
	noColor  bool

	logCloser io.Closer
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:     "zkbench",
		Short:   "Orchestrate distributed ZooKeeper benchmark experiments over SSH",
		Version: version,
		Long: `zkbench provisions a registry quorum, server and client load containers and a
load controller on remote hosts, then runs every configuration variant of the
experiment matrix and collects the measurements locally.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			closer, err := logging.Configure(logging.Options{
				Level:   opts.logLevel,
				File:    opts.logFile,
				Console: cmd.ErrOrStderr(),
				NoColor: opts.noColor,
			})
			if err != nil {
				return err
			}
			opts.logCloser = closer
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logCloser != nil {
				return opts.logCloser.Close()
			}
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			// If no subcommand is provided, print help
			cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFile, "log-file", "app.log", "File that receives a copy of every log entry (empty disables)")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newCleanupCmd(opts))
	root.AddCommand(newProfileCmd())
	root.AddCommand(newQuorumCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newReportCmd())

	return root
}

// Execute runs the command tree against os.Args.
// This is called by main.main().
func Execute() error {
	root := NewRootCmd()
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	return root.Execute()
}
