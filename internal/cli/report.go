package cli

import (
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/zkbench/internal/orchestrator"
	"github.com/wesleyorama2/zkbench/internal/report"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the HTML summary of a results directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("results")
			out, _ := cmd.Flags().GetString("output")
			if out == "" {
				out = filepath.Join(dir, "report.html")
			}

			manifest, _, err := orchestrator.ReadManifest(dir)
			if err != nil {
				return err
			}
			if len(manifest.Runs) == 0 {
				return errors.Errorf("no runs recorded in %s", orchestrator.ManifestPath(dir))
			}
			if err := report.GenerateHTML(manifest, "zkbench "+filepath.Base(dir), out); err != nil {
				return err
			}
			log.Infof("report written to %s", out)
			return nil
		},
	}
	cmd.Flags().String("results", "results", "Results directory holding manifest.json")
	cmd.Flags().StringP("output", "o", "", "Output file (default: <results>/report.html)")
	return cmd
}
