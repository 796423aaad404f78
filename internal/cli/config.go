package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jvs-project/fsnap/pkg/color"
	"github.com/jvs-project/fsnap/pkg/config"
)

func newConfigCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config <command>",
		Short: "Inspect or create the fsnap configuration file",
		Long: `Inspect or create the fsnap configuration file.

The file is read from $HOME/.config/fsnap/config.yaml unless --config is given.
A missing file means defaults.

Available commands:
  show              - Print the effective configuration
  init              - Write a default configuration file`,
		DisableFlagsInUseLine: true,
	}
	cmd.AddCommand(newConfigShowCmd(g), newConfigInitCmd(g))
	return cmd
}

func newConfigShowCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if ok, err := g.outputJSON(out, g.cfg); ok {
				return err
			}
			data, err := yaml.Marshal(g.cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			fmt.Fprintf(out, "# Location: %s\n", g.path())
			_, err = out.Write(data)
			return err
		},
	}
}

func newConfigInitCmd(g *globals) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := g.path()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Save(path, config.Default()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), color.Successf("Wrote %s", path))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func (g *globals) path() string {
	if g.configPath != "" {
		return g.configPath
	}
	return config.DefaultPath()
}
