// Package blobstore keeps the bytes of group files. Objects are addressed by
// (group, filename); a backend never exposes a partially written object.
package blobstore

import (
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/groupshare/internal/common"
	"github.com/dmitrijs2005/groupshare/internal/filex"
	"github.com/dmitrijs2005/groupshare/internal/pathx"
)

// Object describes a stored file.
type Object struct {
	Name string
	Size int64
}

// Store is implemented by the filesystem and S3 backends.
type Store interface {
	// Put stores exactly size bytes read from r under (group, name),
	// replacing any previous object. If r ends early the error matches
	// common.ErrTransferIncomplete and nothing is published.
	Put(ctx context.Context, group, name string, r io.Reader, size int64) error
	// List returns the objects of group in no particular order. A group
	// without objects, or without a namespace at all, yields an empty list.
	List(ctx context.Context, group string) ([]Object, error)
	// Open returns a reader over the object and its size.
	Open(ctx context.Context, group, name string) (io.ReadCloser, int64, error)
	// Remove deletes the object. It reports false, not an error, when the
	// object was not there.
	Remove(ctx context.Context, group, name string) (bool, error)
}

func validate(group, name string) error {
	if err := pathx.ValidateName(group); err != nil {
		return fmt.Errorf("group: %w", err)
	}
	if err := pathx.ValidateName(name); err != nil {
		return fmt.Errorf("filename: %w", err)
	}
	if filex.IsTemp(name) {
		return fmt.Errorf("%w: reserved prefix %q", common.ErrInvalidName, filex.TempPrefix)
	}
	return nil
}
