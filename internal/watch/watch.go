// Package watch re-captures a directory tree whenever it changes and reports
// the difference against the previous capture.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jvs-project/fsnap/internal/diff"
	"github.com/jvs-project/fsnap/pkg/errclass"
	"github.com/jvs-project/fsnap/pkg/logging"
	"github.com/jvs-project/fsnap/pkg/model"
	"github.com/jvs-project/fsnap/pkg/pathutil"
	"github.com/jvs-project/fsnap/pkg/webhook"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// Engine captures and records snapshots. *fsnap.Engine satisfies it.
type Engine interface {
	CaptureAndRecord(ctx context.Context, root string) (*model.Snapshot, error)
	DiffLatestPair() (*diff.DiffResult, error)
}

// Options configures a Watcher.
type Options struct {
	// Debounce is the quiet period after the last filesystem event before
	// a new capture starts.
	Debounce time.Duration
	// Exclude holds base-name patterns whose events are ignored.
	Exclude []string

	// OnCapture is called after every recorded snapshot, including the
	// initial baseline.
	OnCapture func(*model.Snapshot)
	// OnDiff is called when a capture differs from the one before it.
	OnDiff func(*model.Snapshot, *diff.DiffResult)
	// OnError is called when a capture fails. Watching continues.
	OnError func(error)

	Webhooks *webhook.Client
}

// Watcher drives capture cycles from fsnotify events. Captures run one at a
// time on the Run goroutine.
type Watcher struct {
	engine Engine
	root   string
	opts   Options
	fsw    *fsnotify.Watcher
	log    *logging.Logger
}

// New creates a watcher for root. Call Run to start watching.
func New(engine Engine, root string, opts Options) (*Watcher, error) {
	canon, err := pathutil.CanonicalRoot(root)
	if err != nil {
		return nil, err
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		engine: engine,
		root:   canon,
		opts:   opts,
		fsw:    fsw,
		log:    logging.WithFields(map[string]any{"component": "watch", "root": canon}),
	}, nil
}

// Root returns the canonical directory being watched.
func (w *Watcher) Root() string {
	return w.root
}

// Run records a baseline snapshot, then re-captures after each burst of
// filesystem events until ctx is canceled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	if err := w.addTree(w.root); err != nil {
		return err
	}
	w.cycle(ctx)

	// Reset never delivers a stale expiry since Go 1.23.
	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.handleEvent(event) {
				continue
			}
			timer.Reset(w.opts.Debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", map[string]any{"error": err.Error()})

		case <-timer.C:
			w.cycle(ctx)
		}
	}
}

// addTree watches dir and every directory beneath it. Unreadable
// subdirectories are logged and skipped.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			w.log.Warn("cannot watch directory", map[string]any{"path": path, "error": err.Error()})
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && pathutil.MatchesAny(d.Name(), w.opts.Exclude) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.log.Warn("cannot watch directory", map[string]any{"path": path, "error": err.Error()})
		}
		return nil
	})
}

// handleEvent reports whether event should trigger a capture.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if pathutil.MatchesAny(filepath.Base(event.Name), w.opts.Exclude) {
		return false
	}
	if event.Op == fsnotify.Chmod {
		return false
	}

	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.log.Warn("cannot watch new directory", map[string]any{"path": event.Name, "error": err.Error()})
			}
		}
	}

	w.log.Debug("filesystem event", map[string]any{"path": event.Name, "op": event.Op.String()})
	return true
}

func (w *Watcher) cycle(ctx context.Context) {
	snap, err := w.engine.CaptureAndRecord(ctx, w.root)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.log.ErrorErr("capture failed", err)
		if w.opts.Webhooks != nil {
			w.opts.Webhooks.SendCaptureFailed(w.root, err.Error(), true)
		}
		if w.opts.OnError != nil {
			w.opts.OnError(err)
		}
		return
	}

	if w.opts.Webhooks != nil {
		w.opts.Webhooks.SendSnapshotRecorded(w.root, string(snap.ID()), snap.Len(), true)
	}
	if w.opts.OnCapture != nil {
		w.opts.OnCapture(snap)
	}

	result, err := w.engine.DiffLatestPair()
	if errors.Is(err, errclass.ErrInsufficientHistory) {
		return
	}
	if err != nil {
		w.log.ErrorErr("diff failed", err)
		return
	}
	if !result.HasChanges() {
		w.log.Debug("no changes since previous capture")
		return
	}

	w.log.Info("changes detected", map[string]any{
		"snapshot_id": string(snap.ID()),
		"added":       result.TotalAdded,
		"removed":     result.TotalRemoved,
		"modified":    result.TotalModified,
	})
	if w.opts.Webhooks != nil {
		w.opts.Webhooks.SendChangesDetected(w.root, string(snap.ID()),
			result.TotalAdded, result.TotalRemoved, result.TotalModified, true)
	}
	if w.opts.OnDiff != nil {
		w.opts.OnDiff(snap, result)
	}
}
