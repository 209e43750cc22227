package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotEmptyDir(t *testing.T) {
	out := Snapshot(t.TempDir())

	assert.Contains(t, out, "Workspace root:")
	assert.Contains(t, out, "- (no files detected)")
}

func TestSnapshotListsFilesWithExcerpts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"), []byte("print('hi')\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "util.py"), []byte("x = 1\n"), 0o644))

	out := Snapshot(dir)

	assert.Contains(t, out, "- main.py (12 bytes)")
	assert.Contains(t, out, "- src/util.py")
	assert.Contains(t, out, "--- main.py ---\nprint('hi')")
}

func TestSnapshotIgnoresNoiseDirs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{".git", ".venv", "__pycache__", "node_modules"} {
		sub := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(sub, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(sub, "noise.txt"), []byte("noise"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("keep"), 0o644))

	out := Snapshot(dir)

	assert.Contains(t, out, "keep.txt")
	assert.NotContains(t, out, "noise.txt")
}

func TestSnapshotCapsFileCount(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < MaxFiles+10; i++ {
		name := filepath.Join(dir, "f"+strings.Repeat("0", 2)+string(rune('a'+i%26))+string(rune('a'+i/26))+".txt")
		require.NoError(t, os.WriteFile(name, []byte("x"), 0o644))
	}

	out := Snapshot(dir)

	assert.Equal(t, MaxFiles, strings.Count(out, "- f"))
}

func TestSnapshotTruncatesLargeFiles(t *testing.T) {
	dir := t.TempDir()
	big := strings.Repeat("a", MaxExcerptBytes+500)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "big.txt"), []byte(big), 0o644))

	out := Snapshot(dir)

	assert.Contains(t, out, strings.Repeat("a", MaxExcerptBytes))
	assert.NotContains(t, out, strings.Repeat("a", MaxExcerptBytes+1))
}
