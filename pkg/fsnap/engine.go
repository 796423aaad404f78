package fsnap

import (
	"context"

	"github.com/jvs-project/fsnap/internal/diff"
	"github.com/jvs-project/fsnap/internal/history"
	"github.com/jvs-project/fsnap/internal/snapshot"
	"github.com/jvs-project/fsnap/pkg/config"
	"github.com/jvs-project/fsnap/pkg/metrics"
	"github.com/jvs-project/fsnap/pkg/model"
	"github.com/jvs-project/fsnap/pkg/progress"
)

// DiffResult is the outcome of comparing two snapshots.
type DiffResult = diff.DiffResult

// Modification pairs the old and new record of a changed path.
type Modification = diff.Modification

// Warning describes an entry skipped during a capture.
type Warning = snapshot.Warning

// Options configures an Engine.
type Options struct {
	FollowSymlinks   bool     // Descend into symlinked directories
	Workers          int      // Concurrent directory reads; <= 1 is sequential
	Exclude          []string // Base-name glob patterns to skip
	NormalizeUnicode bool     // Store path keys in NFC
	MaxSnapshots     int      // History retention; <= 0 keeps everything

	OnWarning func(*Warning)    // Defaults to a structured warn log
	Progress  progress.Callback // Receives a running file count
	Metrics   *metrics.Registry // Optional Prometheus collectors
}

// OptionsFromConfig builds Options from a loaded config file.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		cfg = config.Default()
	}
	return Options{
		FollowSymlinks:   cfg.Capture.FollowSymlinks,
		Workers:          cfg.Capture.Workers,
		Exclude:          cfg.Capture.Exclude,
		NormalizeUnicode: cfg.Capture.NormalizeUnicode,
		MaxSnapshots:     cfg.History.MaxSnapshots,
	}
}

// Engine captures snapshots, retains them and diffs them.
type Engine struct {
	capturer *snapshot.Capturer
	history  *history.History
}

// New creates an Engine with an empty history.
func New(opts Options) *Engine {
	capturer := snapshot.NewCapturer(snapshot.Options{
		FollowSymlinks:   opts.FollowSymlinks,
		Workers:          opts.Workers,
		Exclude:          opts.Exclude,
		NormalizeUnicode: opts.NormalizeUnicode,
		OnWarning:        opts.OnWarning,
		Progress:         opts.Progress,
		Metrics:          opts.Metrics,
	})

	histOpts := []history.Option{history.WithMaxSnapshots(opts.MaxSnapshots)}
	if opts.Metrics != nil {
		histOpts = append(histOpts, history.WithMetrics(opts.Metrics))
	}

	return &Engine{
		capturer: capturer,
		history:  history.New(histOpts...),
	}
}

// Capture walks root and returns its snapshot without recording it.
func (e *Engine) Capture(ctx context.Context, root string) (*model.Snapshot, error) {
	return e.capturer.Capture(ctx, root)
}

// Record appends snap to the history as the most recent snapshot.
func (e *Engine) Record(snap *model.Snapshot) {
	e.history.Record(snap)
}

// CaptureAndRecord captures root and records the result.
func (e *Engine) CaptureAndRecord(ctx context.Context, root string) (*model.Snapshot, error) {
	snap, err := e.capturer.Capture(ctx, root)
	if err != nil {
		return nil, err
	}
	e.history.Record(snap)
	return snap, nil
}

// Latest returns the most recently recorded snapshot.
func (e *Engine) Latest() (*model.Snapshot, bool) {
	return e.history.Latest()
}

// At returns the snapshot at index, where 0 is the most recent.
func (e *Engine) At(index int) (*model.Snapshot, bool) {
	return e.history.At(index)
}

// Size returns the number of retained snapshots.
func (e *Engine) Size() int {
	return e.history.Size()
}

// List returns the retained snapshots, most recent first.
func (e *Engine) List() []*model.Snapshot {
	return e.history.List()
}

// Diff compares two snapshots directly.
func (e *Engine) Diff(older, newer *model.Snapshot) *DiffResult {
	return e.history.Diff(older, newer)
}

// DiffLatestPair diffs the two most recent snapshots.
// See history.History.DiffLatestPair for the error contract.
func (e *Engine) DiffLatestPair() (*DiffResult, error) {
	return e.history.DiffLatestPair()
}

// DiffByIndex diffs two retained snapshots by history index.
func (e *Engine) DiffByIndex(olderIndex, newerIndex int) (*DiffResult, error) {
	return e.history.DiffByIndex(olderIndex, newerIndex)
}
