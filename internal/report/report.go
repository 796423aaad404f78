// Package report renders snapshots, history listings and diffs for terminals.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/jvs-project/fsnap/internal/diff"
	"github.com/jvs-project/fsnap/pkg/color"
	"github.com/jvs-project/fsnap/pkg/model"
)

const timeLayout = "2006-01-02 15:04:05"

// JSON writes v as indented JSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// SnapshotSummary writes the one-line header describing s.
func SnapshotSummary(w io.Writer, s *model.Snapshot) {
	fmt.Fprintf(w, "Snapshot %s of %s: %d files, %s, captured %s\n",
		color.SnapshotID(s.ID().ShortID()),
		s.Root(),
		s.Len(),
		humanize.Bytes(uint64(s.TotalSize())),
		s.CapturedAt().Local().Format(timeLayout))
}

// Snapshot writes the summary of s followed by one line per file.
// With stat set only the summary is written.
func Snapshot(w io.Writer, s *model.Snapshot, stat bool) {
	SnapshotSummary(w, s)
	if stat {
		return
	}
	for _, rec := range s.Records() {
		fmt.Fprintf(w, "  %10s  %s  %s\n",
			humanize.Bytes(uint64(rec.Size)),
			color.Dim(rec.ModTime().Local().Format(timeLayout)),
			relative(s.Root(), rec.Path))
	}
}

// History writes one line per snapshot, most recent first, numbered by
// history index.
func History(w io.Writer, list []*model.Snapshot) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No snapshots recorded.")
		return
	}
	fmt.Fprintln(w, color.Header(fmt.Sprintf("%-5s %-10s %-19s %8s  %s", "INDEX", "ID", "CAPTURED", "FILES", "ROOT")))
	for i, s := range list {
		marker := ""
		if i == 0 {
			marker = " " + color.Success("(latest)")
		}
		fmt.Fprintf(w, "%-5d %-10s %-19s %8d  %s%s\n",
			i,
			color.SnapshotID(s.ID().ShortID()),
			s.CapturedAt().Local().Format(timeLayout),
			s.Len(),
			s.Root(),
			marker)
	}
}

// Diff writes a colored diff report. With stat set only the counts line is
// written.
func Diff(w io.Writer, r *diff.DiffResult, stat bool) {
	if stat {
		fmt.Fprintln(w, r.FormatStat())
		return
	}

	if r.FromSnapshotID != "" || r.ToSnapshotID != "" {
		fmt.Fprintf(w, "Diff %s -> %s\n",
			color.SnapshotID(r.FromSnapshotID.ShortID()),
			color.SnapshotID(r.ToSnapshotID.ShortID()))
		if !r.FromTime.IsZero() {
			fmt.Fprintf(w, "From: %s\n", r.FromTime.Local().Format(timeLayout))
		}
		if !r.ToTime.IsZero() {
			fmt.Fprintf(w, "To:   %s\n", r.ToTime.Local().Format(timeLayout))
		}
		fmt.Fprintln(w)
	}

	if !r.HasChanges() {
		fmt.Fprintln(w, "No changes.")
		return
	}

	if r.TotalAdded > 0 {
		fmt.Fprintln(w, color.Header(fmt.Sprintf("Added (%d):", r.TotalAdded)))
		for _, f := range r.Added {
			fmt.Fprintln(w, color.Added("  + "+f.Path))
		}
		fmt.Fprintln(w)
	}
	if r.TotalRemoved > 0 {
		fmt.Fprintln(w, color.Header(fmt.Sprintf("Removed (%d):", r.TotalRemoved)))
		for _, f := range r.Removed {
			fmt.Fprintln(w, color.Removed("  - "+f.Path))
		}
		fmt.Fprintln(w)
	}
	if r.TotalModified > 0 {
		fmt.Fprintln(w, color.Header(fmt.Sprintf("Modified (%d):", r.TotalModified)))
		for _, m := range r.Modified {
			fmt.Fprintln(w, color.Modified("  ~ "+m.Path()+describe(m)))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, r.FormatStat())
}

func describe(m diff.Modification) string {
	var parts []string
	if m.Old.Size != m.New.Size {
		parts = append(parts, fmt.Sprintf("%d -> %d bytes", m.Old.Size, m.New.Size))
	}
	if m.Old.ModifiedAt != m.New.ModifiedAt {
		parts = append(parts, "mtime "+m.New.ModTime().Local().Format(timeLayout))
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func relative(root, path string) string {
	if root == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
