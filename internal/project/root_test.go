package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateRootCollisionFree(t *testing.T) {
	base := t.TempDir()

	first, err := AllocateRoot(base, "demo")
	require.NoError(t, err)
	second, err := AllocateRoot(base, "demo")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.DirExists(t, first)
	assert.DirExists(t, second)
	assert.Equal(t, filepath.Join(base, "demo"), first)
	assert.Equal(t, filepath.Join(base, "demo-2"), second)
}

func TestAllocateRootCreatesBase(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "projects")

	root, err := AllocateRoot(base, "demo")
	require.NoError(t, err)
	assert.DirExists(t, root)
}

func TestResolveWithinRejectsEscapes(t *testing.T) {
	root := t.TempDir()

	cases := []string{
		"../outside.txt",
		"nested/../../outside.txt",
		"/etc/passwd",
	}
	for _, path := range cases {
		t.Run(path, func(t *testing.T) {
			_, err := ResolveWithin(root, path)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrPathEscapesRoot)
		})
	}
}

func TestResolveWithinAcceptsNestedPaths(t *testing.T) {
	root := t.TempDir()

	resolved, err := ResolveWithin(root, "src/demo/__init__.py")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "src", "demo", "__init__.py"), resolved)
}

func TestWriteFileCreatesParentsAndTrailingNewline(t *testing.T) {
	root := t.TempDir()

	target, err := WriteFile(root, "src/demo/main.py", "print('hi')")
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "print('hi')\n", string(data))
}

func TestWriteFileRaisesBeforeWritingOutsideRoot(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "proj")
	require.NoError(t, os.Mkdir(root, 0o755))

	_, err := WriteFile(root, "../stolen.txt", "nope")
	require.ErrorIs(t, err, ErrPathEscapesRoot)
	assert.NoFileExists(t, filepath.Join(base, "stolen.txt"))
}
