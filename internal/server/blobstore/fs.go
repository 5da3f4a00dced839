package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/groupshare/internal/common"
	"github.com/dmitrijs2005/groupshare/internal/filex"
	"github.com/dmitrijs2005/groupshare/internal/pathx"
	"github.com/dmitrijs2005/groupshare/internal/protocol"
)

// FSStore lays objects out as root/group/filename. Uploads go to a hidden
// temporary file in the group directory and are renamed into place, so a
// concurrent List or Open sees either the old or the new content.
type FSStore struct {
	root string
}

func NewFSStore(root string) (*FSStore, error) {
	if err := filex.EnsureDir(root); err != nil {
		return nil, err
	}
	return &FSStore{root: root}, nil
}

func (s *FSStore) Put(ctx context.Context, group, name string, r io.Reader, size int64) error {
	if err := validate(group, name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Join(s.root, group)
	if err := filex.EnsureDir(dir); err != nil {
		return err
	}

	f, err := filex.CreateTemp(dir)
	if err != nil {
		return err
	}
	if _, err := protocol.CopyExact(f, r, size); err != nil {
		filex.Discard(f)
		return err
	}
	return filex.Commit(f, filepath.Join(dir, name))
}

func (s *FSStore) List(ctx context.Context, group string) ([]Object, error) {
	dir, err := pathx.Join(s.root, group)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", group, err)
	}

	objects := make([]Object, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || filex.IsTemp(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		objects = append(objects, Object{Name: e.Name(), Size: info.Size()})
	}
	return objects, nil
}

func (s *FSStore) Open(ctx context.Context, group, name string) (io.ReadCloser, int64, error) {
	if err := validate(group, name); err != nil {
		return nil, 0, err
	}
	f, err := os.Open(filepath.Join(s.root, group, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, common.ErrorNotFound
		}
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}

func (s *FSStore) Remove(ctx context.Context, group, name string) (bool, error) {
	if err := validate(group, name); err != nil {
		return false, err
	}
	err := os.Remove(filepath.Join(s.root, group, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("remove %s/%s: %w", group, name, err)
	}
	return true, nil
}
