package model

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// SnapshotID is the unique identifier for a snapshot: <unix_ms>-<rand8hex>
type SnapshotID string

// NewSnapshotID generates a new unique snapshot ID.
func NewSnapshotID() SnapshotID {
	ts := time.Now().UnixMilli()
	var randBytes [4]byte
	if _, err := rand.Read(randBytes[:]); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return SnapshotID(fmt.Sprintf("%013d-%s", ts, hex.EncodeToString(randBytes[:])))
}

// ShortID returns the random suffix for display. IDs captured in the same
// process share most of their timestamp prefix.
func (id SnapshotID) ShortID() string {
	s := string(id)
	if i := strings.LastIndexByte(s, '-'); i >= 0 && i < len(s)-1 {
		return s[i+1:]
	}
	if len(s) >= 8 {
		return s[:8]
	}
	return s
}

// String returns the full snapshot ID as string.
func (id SnapshotID) String() string {
	return string(id)
}

// FileRecord is the metadata captured for one file.
type FileRecord struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
	// ModifiedAt is the last modification time in Unix nanoseconds.
	ModifiedAt int64 `json:"modified_at"`
}

// Equal reports whether r and o describe the same version of the same path.
func (r FileRecord) Equal(o FileRecord) bool {
	return r.Path == o.Path && r.Size == o.Size && r.ModifiedAt == o.ModifiedAt
}

// ModTime returns ModifiedAt as a time.Time.
func (r FileRecord) ModTime() time.Time {
	return time.Unix(0, r.ModifiedAt)
}

func (r FileRecord) String() string {
	return fmt.Sprintf("%s:(%d,%d)", r.Path, r.Size, r.ModifiedAt)
}

// Snapshot is an immutable listing of file records ordered by path.
//
// Records are sorted once on construction using byte-wise string comparison
// and never change afterwards, so a *Snapshot may be shared freely between
// goroutines. The zero value and a nil *Snapshot are both empty snapshots.
type Snapshot struct {
	id         SnapshotID
	root       string
	capturedAt time.Time
	records    []FileRecord
}

// NewSnapshot builds a snapshot from records in any order. The slice is
// copied; later changes by the caller are not observed. When the same path
// appears more than once the last occurrence wins.
func NewSnapshot(root string, records []FileRecord) *Snapshot {
	return newSnapshot(NewSnapshotID(), root, time.Now().UTC(), records)
}

func newSnapshot(id SnapshotID, root string, capturedAt time.Time, records []FileRecord) *Snapshot {
	sorted := make([]FileRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Path < sorted[j].Path
	})

	// Collapse duplicate paths. Stable sort keeps input order among equal
	// keys, so the last element of each run is the last occurrence.
	out := sorted[:0]
	for i := 0; i < len(sorted); i++ {
		if i+1 < len(sorted) && sorted[i+1].Path == sorted[i].Path {
			continue
		}
		out = append(out, sorted[i])
	}

	return &Snapshot{
		id:         id,
		root:       root,
		capturedAt: capturedAt,
		records:    out[:len(out):len(out)],
	}
}

// ID returns the snapshot identifier.
func (s *Snapshot) ID() SnapshotID {
	if s == nil {
		return ""
	}
	return s.id
}

// Root returns the canonical directory the snapshot was captured from.
func (s *Snapshot) Root() string {
	if s == nil {
		return ""
	}
	return s.root
}

// CapturedAt returns when the snapshot was built.
func (s *Snapshot) CapturedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.capturedAt
}

// Len returns the number of files in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// At returns the i-th record in path order. It panics if i is out of range.
func (s *Snapshot) At(i int) FileRecord {
	return s.records[i]
}

// Get looks up a record by path.
func (s *Snapshot) Get(path string) (FileRecord, bool) {
	n := s.Len()
	if n == 0 {
		return FileRecord{}, false
	}
	i := sort.Search(n, func(i int) bool { return s.records[i].Path >= path })
	if i < n && s.records[i].Path == path {
		return s.records[i], true
	}
	return FileRecord{}, false
}

// Records returns a copy of the records in path order.
func (s *Snapshot) Records() []FileRecord {
	if s.Len() == 0 {
		return nil
	}
	out := make([]FileRecord, len(s.records))
	copy(out, s.records)
	return out
}

// TotalSize returns the sum of all file sizes.
func (s *Snapshot) TotalSize() int64 {
	var total int64
	for i := 0; i < s.Len(); i++ {
		total += s.records[i].Size
	}
	return total
}

type snapshotJSON struct {
	ID         SnapshotID   `json:"id"`
	Root       string       `json:"root,omitempty"`
	CapturedAt time.Time    `json:"captured_at"`
	Files      []FileRecord `json:"files"`
}

// MarshalJSON encodes the snapshot with its records in path order.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	files := s.Records()
	if files == nil {
		files = []FileRecord{}
	}
	return json.Marshal(snapshotJSON{
		ID:         s.ID(),
		Root:       s.Root(),
		CapturedAt: s.CapturedAt(),
		Files:      files,
	})
}
