package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jvs-project/fsnap/internal/diff"
	"github.com/jvs-project/fsnap/internal/report"
	"github.com/jvs-project/fsnap/internal/watch"
	"github.com/jvs-project/fsnap/pkg/color"
	"github.com/jvs-project/fsnap/pkg/metrics"
	"github.com/jvs-project/fsnap/pkg/model"
	"github.com/jvs-project/fsnap/pkg/webhook"
)

func newWatchCmd(g *globals) *cobra.Command {
	var (
		debounce    time.Duration
		metricsAddr string
		stat        bool
	)

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Re-capture a directory whenever it changes and print diffs",
		Long: `Watch a directory tree and, after each burst of filesystem events,
capture a new snapshot and print the changes since the previous one.

Configured webhooks receive snapshot.recorded, changes.detected and
capture.failed events. With --metrics-addr, Prometheus metrics are served at
/metrics until the watch stops.

Examples:
  fsnap watch ./data
  fsnap watch ./data --debounce 2s --metrics-addr :2112`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("debounce") {
				d, err := g.cfg.DebounceDuration()
				if err != nil {
					return err
				}
				debounce = d
			}
			if !cmd.Flags().Changed("metrics-addr") {
				metricsAddr = g.cfg.Watch.MetricsAddr
			}

			reg := metrics.NewRegistry()
			eng, _ := g.newEngine(cmd.ErrOrStderr(), reg)

			var hooks *webhook.Client
			if g.cfg.Webhooks.Enabled && len(g.cfg.Webhooks.Hooks) > 0 {
				hooks = webhook.NewClient(webhook.FromConfig(g.cfg.Webhooks))
				defer hooks.Close()
			}

			out := cmd.OutOrStdout()
			baseline := true
			w, err := watch.New(eng, args[0], watch.Options{
				Debounce: debounce,
				Exclude:  g.cfg.Capture.Exclude,
				Webhooks: hooks,
				OnCapture: func(s *model.Snapshot) {
					if baseline && !g.jsonOutput {
						report.SnapshotSummary(out, s)
					}
					baseline = false
				},
				OnDiff: func(s *model.Snapshot, r *diff.DiffResult) {
					if ok, _ := g.outputJSON(out, r); ok {
						return
					}
					fmt.Fprintln(out, color.Dim(s.CapturedAt().Local().Format(time.DateTime)))
					report.Diff(out, r, stat)
				},
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (Ctrl+C to stop)\n", w.Root())
			return runWatch(ctx, w, reg, metricsAddr)
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before re-capturing")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().BoolVar(&stat, "stat", false, "show change counts only")
	return cmd
}

// runWatch runs the watcher and, when addr is set, the metrics server. A
// failing metrics listener stops the watch.
func runWatch(ctx context.Context, w *watch.Watcher, reg *metrics.Registry, addr string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(ctx)
	})
	if addr != "" {
		g.Go(func() error {
			if err := reg.Serve(ctx, addr); err != nil {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}
