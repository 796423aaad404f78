package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=...".
var Version = "dev"

func newVersionCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the fsnap version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			info := map[string]string{
				"version":    Version,
				"go_version": runtime.Version(),
				"platform":   runtime.GOOS + "/" + runtime.GOARCH,
			}
			if ok, err := g.outputJSON(out, info); ok {
				return err
			}
			fmt.Fprintf(out, "fsnap %s (%s, %s)\n", Version, info["go_version"], info["platform"])
			return nil
		},
	}
}
