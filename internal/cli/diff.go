package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jvs-project/fsnap/internal/report"
)

func newDiffCmd(g *globals) *cobra.Command {
	var stat bool

	cmd := &cobra.Command{
		Use:   "diff <dir>",
		Short: "Show what changes in a directory while you work",
		Long: `Capture a baseline snapshot of a directory, wait for a line on stdin,
capture again and print the differences.

Files are compared by size and modification time only.

Examples:
  fsnap diff ./build          # press Enter after running the build
  fsnap diff . --stat`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, bar := g.newEngine(cmd.ErrOrStderr(), nil)
			ctx := cmd.Context()

			baseline, err := eng.CaptureAndRecord(ctx, args[0])
			bar.Done(fmt.Sprintf("Scanned %d files", baseline.Len()))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Baseline %s captured (%d files). Press Enter to compare...\n",
				baseline.ID().ShortID(), baseline.Len())

			if _, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("read stdin: %w", err)
			}

			bar.Reset()
			current, err := eng.CaptureAndRecord(ctx, args[0])
			bar.Done(fmt.Sprintf("Scanned %d files", current.Len()))
			if err != nil {
				return err
			}
			result, err := eng.DiffLatestPair()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if ok, err := g.outputJSON(out, result); ok {
				return err
			}
			report.Diff(out, result, stat)
			return nil
		},
	}

	cmd.Flags().BoolVar(&stat, "stat", false, "show change counts only")
	return cmd
}
