// Package snapshot captures directory trees into immutable snapshots.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jvs-project/fsnap/pkg/errclass"
	"github.com/jvs-project/fsnap/pkg/logging"
	"github.com/jvs-project/fsnap/pkg/metrics"
	"github.com/jvs-project/fsnap/pkg/model"
	"github.com/jvs-project/fsnap/pkg/pathutil"
	"github.com/jvs-project/fsnap/pkg/progress"
)

// Warning describes an entry skipped during a capture. It matches
// errclass.ErrFileAccess with errors.Is and unwraps to the underlying cause.
type Warning struct {
	Path  string
	Cause error
}

func (w *Warning) Error() string {
	return fmt.Sprintf("%s: %s: %v", errclass.ErrFileAccess.Code, w.Path, w.Cause)
}

func (w *Warning) Is(target error) bool {
	return errclass.ErrFileAccess.Is(target)
}

func (w *Warning) Unwrap() error {
	return w.Cause
}

// ErrNormalizationCollision is the cause of a Warning for an entry whose NFC
// key matches another entry's. The entry with the byte-wise smaller raw path
// is kept.
var ErrNormalizationCollision = errors.New("path collides with another entry after unicode normalization")

// WarningHandler receives skipped entries. With Workers > 1 it may be called
// from several goroutines at once.
type WarningHandler func(*Warning)

// Options configures a Capturer.
type Options struct {
	// FollowSymlinks descends into symlinked directories. Links that point
	// back to a directory already on the current path are skipped.
	FollowSymlinks bool
	// Workers bounds concurrent directory reads. 0 or 1 walks sequentially.
	Workers int
	// Exclude holds filepath.Match patterns tested against entry base names.
	Exclude []string
	// NormalizeUnicode stores path keys in NFC.
	NormalizeUnicode bool

	OnWarning WarningHandler
	Progress  progress.Callback
	Metrics   *metrics.Registry
}

// Capturer walks directory trees and builds snapshots.
type Capturer struct {
	opts Options
	log  *logging.Logger
}

// NewCapturer creates a new Capturer.
func NewCapturer(opts Options) *Capturer {
	if opts.Progress == nil {
		opts.Progress = progress.Noop
	}
	return &Capturer{
		opts: opts,
		log:  logging.WithFields(map[string]any{"component": "capture"}),
	}
}

// Capture walks root and returns a snapshot of every regular file beneath it.
//
// It fails with E_INVALID_ROOT when root is missing, unreadable, or not a
// directory. Entries that cannot be read are skipped and reported to the
// warning handler. Cancellation of ctx is observed between entries and
// returns the context error without a snapshot.
func (c *Capturer) Capture(ctx context.Context, root string) (*model.Snapshot, error) {
	start := time.Now()

	canon, err := pathutil.CanonicalRoot(root)
	if err != nil {
		c.recordFailure(0)
		return nil, err
	}
	f, err := os.Open(canon)
	if err != nil {
		c.recordFailure(0)
		return nil, errclass.ErrInvalidRoot.WithMessagef("cannot read %s: %v", root, err)
	}
	f.Close()

	w := &walker{opts: c.opts, log: c.log}
	if err := w.run(ctx, canon); err != nil {
		c.recordFailure(w.warnings)
		return nil, fmt.Errorf("capture %s: %w", canon, err)
	}

	snap := model.NewSnapshot(canon, w.records)
	elapsed := time.Since(start)
	if c.opts.Metrics != nil {
		c.opts.Metrics.RecordCapture(true, elapsed, snap.Len(), w.warnings)
	}
	c.log.Info("snapshot captured", map[string]any{
		"root":        canon,
		"snapshot_id": string(snap.ID()),
		"files":       snap.Len(),
		"warnings":    w.warnings,
		"duration_ms": elapsed.Milliseconds(),
	})
	return snap, nil
}

func (c *Capturer) recordFailure(warnings int) {
	if c.opts.Metrics != nil {
		c.opts.Metrics.RecordCapture(false, 0, 0, warnings)
	}
}

// ancestry is the chain of canonical directories from the root to the
// directory being read. It is only tracked when following symlinks.
type ancestry struct {
	dir    string
	parent *ancestry
}

func (a *ancestry) contains(dir string) bool {
	for ; a != nil; a = a.parent {
		if a.dir == dir {
			return true
		}
	}
	return false
}

type walker struct {
	opts  Options
	log   *logging.Logger
	ctx   context.Context
	group *errgroup.Group

	mu       sync.Mutex
	records  []model.FileRecord
	warnings int

	// NFC key -> index into records and raw path of the kept entry.
	keys map[string]normalizedEntry
}

type normalizedEntry struct {
	index int
	raw   string
}

func (w *walker) run(ctx context.Context, root string) error {
	var chain *ancestry
	if w.opts.FollowSymlinks {
		chain = &ancestry{dir: root}
	}

	if w.opts.Workers <= 1 {
		w.ctx = ctx
		return w.walkDir(root, chain)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.opts.Workers)
	w.ctx, w.group = gctx, g
	g.Go(func() error { return w.walkDir(root, chain) })
	return g.Wait()
}

func (w *walker) walkDir(dir string, chain *ancestry) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}

	// ReadDir returns the entries it managed to read alongside the error.
	entries, err := os.ReadDir(dir)
	if err != nil {
		w.warn(dir, err)
	}

	for _, e := range entries {
		if err := w.ctx.Err(); err != nil {
			return err
		}
		name := e.Name()
		if pathutil.MatchesAny(name, w.opts.Exclude) {
			continue
		}
		full := filepath.Join(dir, name)

		switch {
		case e.Type()&fs.ModeSymlink != 0:
			if err := w.visitSymlink(full, chain); err != nil {
				return err
			}
		case e.IsDir():
			var sub *ancestry
			if chain != nil {
				sub = &ancestry{dir: filepath.Join(chain.dir, name), parent: chain}
			}
			if err := w.descend(full, sub); err != nil {
				return err
			}
		case e.Type().IsRegular():
			info, err := e.Info()
			if err != nil {
				w.warn(full, err)
				continue
			}
			w.add(full, info)
		}
	}
	return nil
}

// descend walks dir on a spare worker when one is free, inline otherwise.
// Falling back to inline recursion keeps a full pool from deadlocking.
func (w *walker) descend(dir string, chain *ancestry) error {
	if w.group != nil && w.group.TryGo(func() error { return w.walkDir(dir, chain) }) {
		return nil
	}
	return w.walkDir(dir, chain)
}

func (w *walker) visitSymlink(path string, chain *ancestry) error {
	info, err := os.Stat(path)
	if err != nil {
		w.warn(path, err)
		return nil
	}

	switch {
	case info.Mode().IsRegular():
		w.add(path, info)
	case info.IsDir():
		if !w.opts.FollowSymlinks {
			w.log.Debug("not following symlinked directory", map[string]any{"path": path})
			return nil
		}
		target, err := filepath.EvalSymlinks(path)
		if err != nil {
			w.warn(path, err)
			return nil
		}
		if chain.contains(target) {
			w.log.Debug("skipping symlink cycle", map[string]any{"path": path, "target": target})
			return nil
		}
		return w.descend(path, &ancestry{dir: target, parent: chain})
	}
	return nil
}

func (w *walker) add(path string, info fs.FileInfo) {
	rec := model.FileRecord{
		Path:       pathutil.NormalizeKey(path, w.opts.NormalizeUnicode),
		Size:       info.Size(),
		ModifiedAt: info.ModTime().UnixNano(),
	}

	w.mu.Lock()
	if w.opts.NormalizeUnicode {
		if prev, ok := w.keys[rec.Path]; ok {
			dropped := path
			if path < prev.raw {
				w.records[prev.index] = rec
				w.keys[rec.Path] = normalizedEntry{index: prev.index, raw: path}
				dropped = prev.raw
			}
			w.mu.Unlock()
			w.warn(dropped, ErrNormalizationCollision)
			return
		}
		if w.keys == nil {
			w.keys = make(map[string]normalizedEntry)
		}
		w.keys[rec.Path] = normalizedEntry{index: len(w.records), raw: path}
	}
	w.records = append(w.records, rec)
	count := len(w.records)
	w.mu.Unlock()

	w.opts.Progress("capture", count, 0, path)
}

func (w *walker) warn(path string, err error) {
	w.mu.Lock()
	w.warnings++
	w.mu.Unlock()

	warning := &Warning{Path: path, Cause: err}
	if w.opts.OnWarning != nil {
		w.opts.OnWarning(warning)
		return
	}
	w.log.Warn("skipping entry", map[string]any{
		"path":  path,
		"error": err.Error(),
	})
}
