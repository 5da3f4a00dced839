package blobstore

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/groupshare/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFS(t *testing.T) (*FSStore, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "Groups")
	s, err := NewFSStore(root)
	require.NoError(t, err)
	return s, root
}

func readAll(t *testing.T, s Store, group, name string) []byte {
	t.Helper()
	rc, size, err := s.Open(context.Background(), group, name)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), size)
	return data
}

func TestFSStore_PutListOpen(t *testing.T) {
	s, root := newFS(t)
	ctx := context.Background()
	data := bytes.Repeat([]byte("abc"), 5000)

	require.NoError(t, s.Put(ctx, "team", "a.bin", bytes.NewReader(data), int64(len(data))))

	objs, err := s.List(ctx, "team")
	require.NoError(t, err)
	assert.Equal(t, []Object{{Name: "a.bin", Size: int64(len(data))}}, objs)
	assert.Equal(t, data, readAll(t, s, "team", "a.bin"))

	_, err = os.Stat(filepath.Join(root, "team", "a.bin"))
	assert.NoError(t, err)
}

func TestFSStore_PutOverwrites(t *testing.T) {
	s, _ := newFS(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "g", "f", strings.NewReader("old content"), 11))
	require.NoError(t, s.Put(ctx, "g", "f", strings.NewReader("new"), 3))

	assert.Equal(t, []byte("new"), readAll(t, s, "g", "f"))
}

func TestFSStore_ShortUploadLeavesNothing(t *testing.T) {
	s, root := newFS(t)
	ctx := context.Background()

	err := s.Put(ctx, "g", "cut.bin", strings.NewReader("only ten b"), 100)
	assert.ErrorIs(t, err, common.ErrTransferIncomplete)

	objs, err := s.List(ctx, "g")
	require.NoError(t, err)
	assert.Empty(t, objs)

	entries, err := os.ReadDir(filepath.Join(root, "g"))
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary file must be removed")
}

func TestFSStore_ShortUploadKeepsPreviousVersion(t *testing.T) {
	s, _ := newFS(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "g", "f", strings.NewReader("v1"), 2))
	err := s.Put(ctx, "g", "f", strings.NewReader("v2 but cut"), 50)
	require.Error(t, err)

	assert.Equal(t, []byte("v1"), readAll(t, s, "g", "f"))
}

func TestFSStore_ListMissingGroup(t *testing.T) {
	s, _ := newFS(t)

	objs, err := s.List(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, objs)
}

func TestFSStore_ListSkipsTempAndDirs(t *testing.T) {
	s, root := newFS(t)
	dir := filepath.Join(root, "g")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".partial-123"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "real.txt"), []byte("xy"), 0o600))

	objs, err := s.List(context.Background(), "g")
	require.NoError(t, err)
	assert.Equal(t, []Object{{Name: "real.txt", Size: 2}}, objs)
}

func TestFSStore_Remove(t *testing.T) {
	s, _ := newFS(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "g", "f", strings.NewReader("x"), 1))

	existed, err := s.Remove(ctx, "g", "f")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = s.Remove(ctx, "g", "f")
	require.NoError(t, err)
	assert.False(t, existed)

	existed, err = s.Remove(ctx, "ghost-group", "f")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestFSStore_OpenMissing(t *testing.T) {
	s, _ := newFS(t)
	_, _, err := s.Open(context.Background(), "g", "none")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFSStore_RejectsTraversal(t *testing.T) {
	s, root := newFS(t)
	ctx := context.Background()

	for _, tc := range []struct{ group, name string }{
		{"g", "../../escape.txt"},
		{"..", "escape.txt"},
		{"g", "a/b"},
		{"g", ".partial-fake"},
		{"g", ""},
	} {
		err := s.Put(ctx, tc.group, tc.name, strings.NewReader("x"), 1)
		assert.ErrorIs(t, err, common.ErrInvalidName, "%q/%q", tc.group, tc.name)

		_, err = s.Remove(ctx, tc.group, tc.name)
		assert.ErrorIs(t, err, common.ErrInvalidName)
	}

	_, err := os.Stat(filepath.Join(filepath.Dir(root), "escape.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestFSStore_ConcurrentPutAndRemove(t *testing.T) {
	s, _ := newFS(t)
	ctx := context.Background()
	payload := bytes.Repeat([]byte("z"), 64*1024)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Put(ctx, "g", "same.bin", bytes.NewReader(payload), int64(len(payload))))
		}()
		go func() {
			defer wg.Done()
			_, err := s.Remove(ctx, "g", "same.bin")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	objs, err := s.List(ctx, "g")
	require.NoError(t, err)
	for _, o := range objs {
		assert.Equal(t, int64(len(payload)), o.Size, "never a torn file")
	}
}
