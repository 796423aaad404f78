// Package diff implements the ordered-merge comparison of two snapshots.
package diff

import (
	"fmt"
	"time"

	"github.com/jvs-project/fsnap/pkg/model"
)

// Modification pairs the two versions of a path whose size or timestamp changed.
type Modification struct {
	Old model.FileRecord `json:"old"`
	New model.FileRecord `json:"new"`
}

// Path returns the path shared by both versions.
func (m Modification) Path() string {
	return m.New.Path
}

// DiffResult represents the result of comparing two snapshots. Each list is
// in ascending path order.
type DiffResult struct {
	FromSnapshotID model.SnapshotID   `json:"from_snapshot_id,omitempty"`
	ToSnapshotID   model.SnapshotID   `json:"to_snapshot_id,omitempty"`
	FromTime       time.Time          `json:"from_time"`
	ToTime         time.Time          `json:"to_time"`
	Added          []model.FileRecord `json:"added"`
	Removed        []model.FileRecord `json:"removed"`
	Modified       []Modification     `json:"modified"`
	TotalAdded     int                `json:"total_added"`
	TotalRemoved   int                `json:"total_removed"`
	TotalModified  int                `json:"total_modified"`
}

// Empty returns an empty result, used when no comparison could be made.
func Empty() *DiffResult {
	return &DiffResult{
		Added:    []model.FileRecord{},
		Removed:  []model.FileRecord{},
		Modified: []Modification{},
	}
}

// HasChanges reports whether any path was added, removed or modified.
func (r *DiffResult) HasChanges() bool {
	return r.TotalAdded > 0 || r.TotalRemoved > 0 || r.TotalModified > 0
}

// Diff compares older against newer in a single merge pass over both
// path-ordered record lists. A nil snapshot is treated as empty.
//
// Paths only in older are removals, paths only in newer are additions, and
// paths in both whose records differ are modifications. Cost is linear in
// older.Len()+newer.Len() regardless of how many changes exist.
func Diff(older, newer *model.Snapshot) *DiffResult {
	result := Empty()
	result.FromSnapshotID = older.ID()
	result.ToSnapshotID = newer.ID()
	result.FromTime = older.CapturedAt()
	result.ToTime = newer.CapturedAt()

	i, j := 0, 0
	n, m := older.Len(), newer.Len()
	for i < n || j < m {
		switch {
		case i == n:
			result.Added = append(result.Added, newer.At(j))
			j++
		case j == m:
			result.Removed = append(result.Removed, older.At(i))
			i++
		default:
			o, nw := older.At(i), newer.At(j)
			switch {
			case o.Path < nw.Path:
				result.Removed = append(result.Removed, o)
				i++
			case o.Path > nw.Path:
				result.Added = append(result.Added, nw)
				j++
			default:
				if !o.Equal(nw) {
					result.Modified = append(result.Modified, Modification{Old: o, New: nw})
				}
				i++
				j++
			}
		}
	}

	result.TotalAdded = len(result.Added)
	result.TotalRemoved = len(result.Removed)
	result.TotalModified = len(result.Modified)
	return result
}

// FormatStat returns a one-line summary of the change counts.
func (r *DiffResult) FormatStat() string {
	return fmt.Sprintf("Added: %d, Removed: %d, Modified: %d", r.TotalAdded, r.TotalRemoved, r.TotalModified)
}
