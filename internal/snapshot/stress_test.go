package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStress_10kFiles captures 10,000 files sequentially and in parallel.
func TestStress_10kFiles(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	root := canonicalTempDir(t)
	createManyFiles(t, root, 10000, 64)

	for _, workers := range []int{1, 8} {
		start := time.Now()
		snap, err := NewCapturer(Options{Workers: workers}).Capture(context.Background(), root)
		require.NoError(t, err)
		elapsed := time.Since(start)
		t.Logf("workers=%d: captured %d files in %v (%.0f files/sec)",
			workers, snap.Len(), elapsed, float64(snap.Len())/elapsed.Seconds())
		assert.Equal(t, 10000, snap.Len())
	}
}

// TestStress_DeepNesting walks a 100-level directory chain.
func TestStress_DeepNesting(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	root := canonicalTempDir(t)
	createDeepNesting(t, root, 100)

	snap, err := NewCapturer(Options{Workers: 4}).Capture(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 100, snap.Len())
}

// TestStress_ManySymlinks records 1,000 links to one file.
func TestStress_ManySymlinks(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	root := canonicalTempDir(t)
	createManySymlinks(t, root, 1000)

	snap, err := NewCapturer(Options{}).Capture(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 1001, snap.Len())
}

// TestStress_LongFilenames records names at the common 255-byte limit.
func TestStress_LongFilenames(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	root := canonicalTempDir(t)
	createLongNamedFiles(t, root, 50, 255)

	snap, err := NewCapturer(Options{}).Capture(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 50, snap.Len())
}

// createManyFiles spreads count files over 100 subdirectories.
func createManyFiles(t testing.TB, dir string, count, fileSize int) {
	t.Helper()

	content := []byte(strings.Repeat("x", fileSize))
	for i := 0; i < count; i++ {
		subDir := filepath.Join(dir, fmt.Sprintf("dir%03d", i%100))
		if err := os.MkdirAll(subDir, 0755); err != nil {
			t.Fatalf("mkdir %s: %v", subDir, err)
		}
		filePath := filepath.Join(subDir, fmt.Sprintf("file%05d.dat", i))
		if err := os.WriteFile(filePath, content, 0644); err != nil {
			t.Fatalf("write %s: %v", filePath, err)
		}
	}
}

// createDeepNesting creates one file per level in a chain of maxDepth directories.
func createDeepNesting(t *testing.T, base string, maxDepth int) {
	t.Helper()

	current := base
	for depth := 0; depth < maxDepth; depth++ {
		filePath := filepath.Join(current, fmt.Sprintf("level%d.txt", depth))
		if err := os.WriteFile(filePath, []byte(fmt.Sprintf("Level %d", depth)), 0644); err != nil {
			t.Fatalf("write %s: %v", filePath, err)
		}

		subDir := filepath.Join(current, fmt.Sprintf("d%d", depth))
		if err := os.Mkdir(subDir, 0755); err != nil {
			t.Fatalf("mkdir %s: %v", subDir, err)
		}
		current = subDir
	}
}

func createManySymlinks(t *testing.T, dir string, count int) {
	t.Helper()

	targetPath := filepath.Join(dir, "target.txt")
	if err := os.WriteFile(targetPath, []byte("target content"), 0644); err != nil {
		t.Fatalf("write target: %v", err)
	}

	for i := 0; i < count; i++ {
		linkPath := filepath.Join(dir, fmt.Sprintf("link%04d", i))
		if err := os.Symlink("target.txt", linkPath); err != nil {
			t.Fatalf("symlink %s: %v", linkPath, err)
		}
	}
}

func createLongNamedFiles(t *testing.T, dir string, count, nameLength int) {
	t.Helper()

	for i := 0; i < count; i++ {
		prefix := fmt.Sprintf("file%d_", i)
		name := prefix + strings.Repeat("n", nameLength-len(prefix))
		if err := os.WriteFile(filepath.Join(dir, name), []byte("content"), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func BenchmarkCapture_1000Files(b *testing.B) {
	root, err := filepath.EvalSymlinks(b.TempDir())
	if err != nil {
		b.Fatal(err)
	}
	createManyFiles(b, root, 1000, 16)

	c := NewCapturer(Options{})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Capture(context.Background(), root); err != nil {
			b.Fatal(err)
		}
	}
}
