// Package cli implements the fsnap command tree.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jvs-project/fsnap/internal/report"
	"github.com/jvs-project/fsnap/pkg/color"
	"github.com/jvs-project/fsnap/pkg/config"
	"github.com/jvs-project/fsnap/pkg/logging"
)

// globals holds persistent flag values and the configuration they resolve to.
type globals struct {
	configPath string
	jsonOutput bool
	logLevel   string
	noColor    bool

	cfg *config.Config
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:   "fsnap",
		Short: "fsnap - directory snapshots and diffs",
		Long: `fsnap captures point-in-time metadata snapshots of a directory tree
(path, size, modification time) and reports which files were added, removed
or modified between any two snapshots.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.init(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&g.configPath, "config", "", "config file (default $HOME/.config/fsnap/config.yaml)")
	flags.BoolVar(&g.jsonOutput, "json", false, "output in JSON format")
	flags.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	flags.BoolVar(&g.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(
		newCaptureCmd(g),
		newDiffCmd(g),
		newShellCmd(g),
		newWatchCmd(g),
		newConfigCmd(g),
		newVersionCmd(g),
	)
	return cmd
}

func (g *globals) init(cmd *cobra.Command) error {
	color.Init(g.noColor)

	cfg, err := config.Load(g.configPath)
	if err != nil {
		return err
	}
	g.cfg = cfg

	levelName := cfg.Logging.Level
	if g.logLevel != "" {
		levelName = g.logLevel
	}
	level := logging.LevelWarn
	if levelName != "" {
		if level, err = logging.ParseLevel(levelName); err != nil {
			return err
		}
	}
	logger := logging.NewLogger(level)
	logger.SetOutput(cmd.ErrOrStderr())
	logging.SetGlobal(logger)
	return nil
}

// outputJSON writes v to w when --json is set and reports whether it did.
func (g *globals) outputJSON(w io.Writer, v any) (bool, error) {
	if !g.jsonOutput {
		return false, nil
	}
	return true, report.JSON(w, v)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmtErr(os.Stderr, err)
		os.Exit(1)
	}
}

func fmtErr(w io.Writer, err error) {
	prefix := "fsnap: "
	if color.Enabled() {
		prefix = color.Error("fsnap:") + " "
	}
	fmt.Fprintln(w, prefix+err.Error())
	if h := hint(err); h != "" {
		fmt.Fprintln(w, color.Dim("  "+h))
	}
}
