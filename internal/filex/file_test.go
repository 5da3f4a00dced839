package filex

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir_CreatesNested(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(dir), "idempotent")

	fi, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, fi.IsDir())

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), fi.Mode().Perm()&0o700)
	}
}

func TestEnsureDir_FileInTheWay(t *testing.T) {
	tmp := t.TempDir()
	blocker := filepath.Join(tmp, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	err := EnsureDir(filepath.Join(blocker, "sub"))
	assert.Error(t, err)
}

func TestCreateTempCommit(t *testing.T) {
	dir := t.TempDir()

	f, err := CreateTemp(dir)
	require.NoError(t, err)
	assert.True(t, IsTemp(filepath.Base(f.Name())))

	_, err = f.WriteString("payload")
	require.NoError(t, err)

	dst := filepath.Join(dir, "final.txt")
	require.NoError(t, Commit(f, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "final.txt", entries[0].Name())
}

func TestCommit_SyncsTargetDir(t *testing.T) {
	orig := syncDir
	t.Cleanup(func() { syncDir = orig })

	var synced []string
	syncDir = func(dir string) error {
		synced = append(synced, dir)
		return orig(dir)
	}

	dir := t.TempDir()
	f, err := CreateTemp(dir)
	require.NoError(t, err)
	require.NoError(t, Commit(f, filepath.Join(dir, "final.txt")))

	assert.Equal(t, []string{dir}, synced)
}

func TestCommit_DirSyncError(t *testing.T) {
	orig := syncDir
	t.Cleanup(func() { syncDir = orig })
	syncDir = func(string) error { return errors.New("sync failed") }

	dir := t.TempDir()
	f, err := CreateTemp(dir)
	require.NoError(t, err)

	err = Commit(f, filepath.Join(dir, "final.txt"))
	assert.EqualError(t, err, "sync failed")
}

func TestSyncDir(t *testing.T) {
	require.NoError(t, SyncDir(t.TempDir()))

	if runtime.GOOS != "windows" {
		assert.Error(t, SyncDir(filepath.Join(t.TempDir(), "missing")))
	}
}

func TestDiscard_RemovesTemp(t *testing.T) {
	dir := t.TempDir()
	f, err := CreateTemp(dir)
	require.NoError(t, err)

	Discard(f)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteFileAtomic_Replaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "groups.json")

	require.NoError(t, WriteFileAtomic(path, []byte("one"), 0o600))
	require.NoError(t, WriteFileAtomic(path, []byte("two"), 0o600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestIsTemp(t *testing.T) {
	assert.True(t, IsTemp(".partial-123"))
	assert.False(t, IsTemp("report.pdf"))
}
