package fsnap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvs-project/fsnap/pkg/config"
	"github.com/jvs-project/fsnap/pkg/errclass"
	"github.com/jvs-project/fsnap/pkg/metrics"
)

func setupTree(t *testing.T) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "a.txt"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("bb"), 0644))
	return root
}

func TestEngine_CaptureModifyDiff(t *testing.T) {
	root := setupTree(t)
	eng := New(Options{Metrics: metrics.NewRegistry()})
	ctx := context.Background()

	_, err := eng.CaptureAndRecord(ctx, root)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "b.txt")))
	require.NoError(t, os.WriteFile(filepath.Join(root, "c.txt"), []byte("c"), 0644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(filepath.Join(root, "docs", "a.txt"), later, later))

	_, err = eng.CaptureAndRecord(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 2, eng.Size())

	result, err := eng.DiffLatestPair()
	require.NoError(t, err)
	require.Len(t, result.Added, 1)
	assert.Equal(t, filepath.Join(root, "c.txt"), result.Added[0].Path)
	require.Len(t, result.Removed, 1)
	assert.Equal(t, filepath.Join(root, "b.txt"), result.Removed[0].Path)
	require.Len(t, result.Modified, 1)
	assert.Equal(t, filepath.Join(root, "docs", "a.txt"), result.Modified[0].Path())

	byIndex, err := eng.DiffByIndex(1, 0)
	require.NoError(t, err)
	assert.Equal(t, result, byIndex)
}

func TestEngine_UnchangedTreeHasNoChanges(t *testing.T) {
	root := setupTree(t)
	eng := New(Options{})

	first, err := eng.Capture(context.Background(), root)
	require.NoError(t, err)
	second, err := eng.Capture(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 0, eng.Size(), "Capture must not record")

	result := eng.Diff(first, second)
	assert.False(t, result.HasChanges())
	assert.Equal(t, "Added: 0, Removed: 0, Modified: 0", result.FormatStat())
}

func TestEngine_RecordAndAccessors(t *testing.T) {
	root := setupTree(t)
	eng := New(Options{MaxSnapshots: 2})

	var ids []string
	for i := 0; i < 3; i++ {
		snap, err := eng.Capture(context.Background(), root)
		require.NoError(t, err)
		eng.Record(snap)
		ids = append(ids, string(snap.ID()))
	}

	assert.Equal(t, 2, eng.Size())
	latest, ok := eng.Latest()
	require.True(t, ok)
	assert.Equal(t, ids[2], string(latest.ID()))

	oldest, ok := eng.At(1)
	require.True(t, ok)
	assert.Equal(t, ids[1], string(oldest.ID()))

	list := eng.List()
	require.Len(t, list, 2)
	assert.Equal(t, latest, list[0])
}

func TestEngine_Errors(t *testing.T) {
	eng := New(Options{})

	_, err := eng.CaptureAndRecord(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.True(t, errors.Is(err, errclass.ErrInvalidRoot))
	assert.Equal(t, 0, eng.Size())

	result, err := eng.DiffLatestPair()
	assert.True(t, errors.Is(err, errclass.ErrInsufficientHistory))
	assert.NotNil(t, result)

	_, err = eng.DiffByIndex(0, 1)
	assert.True(t, errors.Is(err, errclass.ErrInvalidIndexOrder))
}

func TestEngine_OnWarning(t *testing.T) {
	root := setupTree(t)
	require.NoError(t, os.Symlink(filepath.Join(root, "gone"), filepath.Join(root, "dangling")))

	var warnings []*Warning
	eng := New(Options{OnWarning: func(w *Warning) { warnings = append(warnings, w) }})

	snap, err := eng.Capture(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Len())
	require.Len(t, warnings, 1)
	assert.True(t, errors.Is(warnings[0], errclass.ErrFileAccess))
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Capture.FollowSymlinks = true
	cfg.Capture.Workers = 4
	cfg.Capture.Exclude = []string{".git"}
	cfg.History.MaxSnapshots = 10

	opts := OptionsFromConfig(cfg)
	assert.True(t, opts.FollowSymlinks)
	assert.Equal(t, 4, opts.Workers)
	assert.Equal(t, []string{".git"}, opts.Exclude)
	assert.Equal(t, 10, opts.MaxSnapshots)

	assert.Equal(t, 1, OptionsFromConfig(nil).Workers)
}
