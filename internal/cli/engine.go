package cli

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/jvs-project/fsnap/pkg/fsnap"
	"github.com/jvs-project/fsnap/pkg/metrics"
	"github.com/jvs-project/fsnap/pkg/progress"
)

// newEngine builds an engine from the loaded config. Progress is drawn on
// errOut only when it is a terminal and JSON output is off.
func (g *globals) newEngine(errOut io.Writer, reg *metrics.Registry) (*fsnap.Engine, *progress.CountingTerminal) {
	opts := fsnap.OptionsFromConfig(g.cfg)
	opts.Metrics = reg

	bar := progress.NewCountingTerminal("Scanning", 500, !g.jsonOutput && isTerminal(errOut))
	bar.SetWriter(errOut)
	opts.Progress = bar.Callback()

	return fsnap.New(opts), bar
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
