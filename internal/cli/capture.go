package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jvs-project/fsnap/internal/report"
)

func newCaptureCmd(g *globals) *cobra.Command {
	var stat bool

	cmd := &cobra.Command{
		Use:   "capture <dir>",
		Short: "Capture a snapshot of a directory and list it",
		Long: `Capture a snapshot of a directory tree and print every regular file
with its size and modification time.

Entries that cannot be read are skipped with a warning on stderr.

Examples:
  fsnap capture .
  fsnap capture /srv/data --stat
  fsnap --json capture /srv/data`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, bar := g.newEngine(cmd.ErrOrStderr(), nil)

			snap, err := eng.Capture(cmd.Context(), args[0])
			bar.Done(fmt.Sprintf("Scanned %d files", snap.Len()))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if ok, err := g.outputJSON(out, snap); ok {
				return err
			}
			report.Snapshot(out, snap, stat)
			return nil
		},
	}

	cmd.Flags().BoolVar(&stat, "stat", false, "show the summary line only")
	return cmd
}
