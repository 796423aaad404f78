package cli

import (
	"github.com/spf13/cobra"

	"github.com/jvs-project/fsnap/internal/shell"
)

func newShellCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive snapshot session",
		Long: `Start an interactive session that keeps a snapshot history in memory.

Commands:
  snapshot [path]    capture a snapshot (prompts if path is omitted)
  diff               compare the two most recent snapshots
  diff <old> <new>   compare snapshots by history index (0 is the latest)
  list history       show recorded snapshots
  show current       show the contents of the latest snapshot
  help, exit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _ := g.newEngine(cmd.ErrOrStderr(), nil)
			return shell.New(eng, cmd.InOrStdin(), cmd.OutOrStdout()).Run(cmd.Context())
		},
	}
}
