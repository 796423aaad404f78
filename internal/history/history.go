// Package history retains captured snapshots, most recent first, and diffs
// them by recency or explicit index.
package history

import (
	"sync"
	"time"

	"github.com/jvs-project/fsnap/internal/diff"
	"github.com/jvs-project/fsnap/pkg/errclass"
	"github.com/jvs-project/fsnap/pkg/logging"
	"github.com/jvs-project/fsnap/pkg/metrics"
	"github.com/jvs-project/fsnap/pkg/model"
)

// Option configures a History.
type Option func(*History)

// WithMaxSnapshots bounds retention. When full, recording a snapshot evicts
// the oldest one. Zero or negative means unbounded.
func WithMaxSnapshots(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.max = n
		}
	}
}

// WithMetrics reports history size and diff timings to reg.
func WithMetrics(reg *metrics.Registry) Option {
	return func(h *History) {
		h.metrics = reg
	}
}

// History is an append-only sequence of snapshots. Index 0 is the most
// recently recorded snapshot. It is safe for concurrent use.
type History struct {
	mu        sync.RWMutex
	snapshots []*model.Snapshot // oldest first; index i maps to len-1-i
	max       int
	metrics   *metrics.Registry
}

// New creates an empty history.
func New(opts ...Option) *History {
	h := &History{}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Record appends snap as the new most recent snapshot. Nil is ignored.
func (h *History) Record(snap *model.Snapshot) {
	if snap == nil {
		return
	}

	h.mu.Lock()
	h.snapshots = append(h.snapshots, snap)
	if h.max > 0 && len(h.snapshots) > h.max {
		evicted := len(h.snapshots) - h.max
		// Copy so evicted snapshots are not pinned by the backing array.
		h.snapshots = append([]*model.Snapshot(nil), h.snapshots[evicted:]...)
		logging.Debug("history retention evicted snapshots", map[string]any{
			"evicted": evicted,
			"max":     h.max,
		})
	}
	size := len(h.snapshots)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.SetHistorySize(size)
	}
}

// Latest returns the most recent snapshot.
func (h *History) Latest() (*model.Snapshot, bool) {
	return h.At(0)
}

// At returns the snapshot at index, where 0 is the most recent.
func (h *History) At(index int) (*model.Snapshot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.at(index)
}

func (h *History) at(index int) (*model.Snapshot, bool) {
	n := len(h.snapshots)
	if index < 0 || index >= n {
		return nil, false
	}
	return h.snapshots[n-1-index], true
}

// Size returns the number of retained snapshots.
func (h *History) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.snapshots)
}

// List returns the retained snapshots, most recent first.
func (h *History) List() []*model.Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*model.Snapshot, len(h.snapshots))
	for i, s := range h.snapshots {
		out[len(out)-1-i] = s
	}
	return out
}

// Diff compares two snapshots. It does not consult the history.
func (h *History) Diff(older, newer *model.Snapshot) *diff.DiffResult {
	start := time.Now()
	result := diff.Diff(older, newer)
	if h.metrics != nil {
		h.metrics.RecordDiff(time.Since(start), result.TotalAdded, result.TotalRemoved, result.TotalModified)
	}
	return result
}

// DiffLatestPair diffs the second most recent snapshot against the most
// recent. With fewer than two snapshots it returns an empty result together
// with E_INSUFFICIENT_HISTORY.
func (h *History) DiffLatestPair() (*diff.DiffResult, error) {
	h.mu.RLock()
	newer, okNewer := h.at(0)
	older, okOlder := h.at(1)
	size := len(h.snapshots)
	h.mu.RUnlock()

	if !okNewer || !okOlder {
		return diff.Empty(), errclass.ErrInsufficientHistory.WithMessagef(
			"need at least 2 snapshots to diff, have %d", size)
	}
	return h.Diff(older, newer), nil
}

// DiffByIndex diffs the snapshot at olderIndex against the one at newerIndex.
// olderIndex must be greater than newerIndex since 0 is the most recent.
// Ordering is checked before range.
func (h *History) DiffByIndex(olderIndex, newerIndex int) (*diff.DiffResult, error) {
	if olderIndex <= newerIndex {
		return nil, errclass.ErrInvalidIndexOrder.WithMessagef(
			"older index %d must be greater than newer index %d", olderIndex, newerIndex)
	}

	h.mu.RLock()
	older, okOlder := h.at(olderIndex)
	newer, okNewer := h.at(newerIndex)
	size := len(h.snapshots)
	h.mu.RUnlock()

	switch {
	case !okOlder:
		return nil, errclass.ErrIndexOutOfRange.WithMessagef("index %d out of range [0, %d)", olderIndex, size)
	case !okNewer:
		return nil, errclass.ErrIndexOutOfRange.WithMessagef("index %d out of range [0, %d)", newerIndex, size)
	}
	return h.Diff(older, newer), nil
}
