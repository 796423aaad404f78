package diff

import (
	"sort"
	"strings"
	"testing"

	"github.com/jvs-project/fsnap/pkg/model"
)

// fuzzSnapshot decodes "path:size:mtime" lines; unparseable fields become zero.
func fuzzSnapshot(data string) *model.Snapshot {
	var records []model.FileRecord
	for _, line := range strings.Split(data, "\n") {
		parts := strings.SplitN(line, ":", 3)
		if parts[0] == "" {
			continue
		}
		r := model.FileRecord{Path: "/" + parts[0]}
		if len(parts) > 1 {
			r.Size = int64(len(parts[1]))
		}
		if len(parts) > 2 {
			r.ModifiedAt = int64(len(parts[2]))
		}
		records = append(records, r)
	}
	return model.NewSnapshot("", records)
}

// FuzzDiff checks ordering, symmetry and idempotence on arbitrary inputs.
func FuzzDiff(f *testing.F) {
	f.Add("a:1:1\nb:2:2", "b:2:3\nc:1:1")
	f.Add("", "x")
	f.Add("dup:1\ndup:2", "dup:2")
	f.Add("a/b\na-b\na", "a\na/b:x")

	f.Fuzz(func(t *testing.T, older, newer string) {
		a := fuzzSnapshot(older)
		b := fuzzSnapshot(newer)

		ab := Diff(a, b)
		ba := Diff(b, a)

		sorted := func(records []model.FileRecord) bool {
			return sort.SliceIsSorted(records, func(i, j int) bool { return records[i].Path < records[j].Path })
		}
		if !sorted(ab.Added) || !sorted(ab.Removed) {
			t.Fatalf("unsorted output: %+v", ab)
		}
		for i := 1; i < len(ab.Modified); i++ {
			if ab.Modified[i-1].Path() >= ab.Modified[i].Path() {
				t.Fatalf("modified out of order at %d", i)
			}
		}

		if len(ab.Added) != len(ba.Removed) || len(ab.Removed) != len(ba.Added) || len(ab.Modified) != len(ba.Modified) {
			t.Fatalf("asymmetric diff: %d/%d/%d vs %d/%d/%d",
				len(ab.Added), len(ab.Removed), len(ab.Modified),
				len(ba.Added), len(ba.Removed), len(ba.Modified))
		}
		if ab.TotalAdded+ab.TotalRemoved+ab.TotalModified > a.Len()+b.Len() {
			t.Fatal("more changes than records")
		}
		if Diff(a, a).HasChanges() || Diff(b, b).HasChanges() {
			t.Fatal("self diff reported changes")
		}
	})
}
