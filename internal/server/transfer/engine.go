// Package transfer moves file bytes between a connection and the blob
// store: single-file uploads, download-all of a group and removal.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dmitrijs2005/groupshare/internal/common"
	"github.com/dmitrijs2005/groupshare/internal/logging"
	"github.com/dmitrijs2005/groupshare/internal/metrics"
	"github.com/dmitrijs2005/groupshare/internal/pathx"
	"github.com/dmitrijs2005/groupshare/internal/protocol"
	"github.com/dmitrijs2005/groupshare/internal/server/blobstore"
)

type Engine struct {
	store  blobstore.Store
	logger logging.Logger
}

func NewEngine(store blobstore.Store, logger logging.Logger) *Engine {
	return &Engine{store: store, logger: logger.With("module", "transfer")}
}

// Receive consumes exactly meta.Filesize bytes from r and stores them as
// meta.GroupName/meta.Filename.
//
// The stream stays usable after every error except those matching
// common.ErrConnectionLost: rejected or failed uploads still read the
// announced bytes so the next frame starts where the client expects it.
func (e *Engine) Receive(ctx context.Context, meta protocol.FileMeta, r io.Reader) error {
	if err := pathx.ValidateName(meta.GroupName); err != nil {
		return e.reject(meta, r, err)
	}
	if err := pathx.ValidateName(meta.Filename); err != nil {
		return e.reject(meta, r, err)
	}

	cr := &countingReader{r: io.LimitReader(r, meta.Filesize)}
	err := e.store.Put(ctx, meta.GroupName, meta.Filename, cr, meta.Filesize)

	if cr.n < meta.Filesize && !errors.Is(err, common.ErrConnectionLost) {
		// the store gave up early; keep the stream framed
		_, _ = io.Copy(io.Discard, cr)
		if cr.n < meta.Filesize {
			err = errors.Join(err, common.ErrTransferIncomplete, common.ErrConnectionLost)
		}
	}
	metrics.BytesTransferred.WithLabelValues("upload").Add(float64(cr.n))

	if err != nil {
		e.logger.Warn(ctx, "upload failed",
			"group", meta.GroupName, "filename", meta.Filename,
			"received", cr.n, "filesize", meta.Filesize, "error", err)
		return err
	}

	e.logger.Info(ctx, "file stored", "group", meta.GroupName, "filename", meta.Filename, "size", meta.Filesize)
	return nil
}

// Discard reads and drops n bytes of an upload that will not be stored.
func (e *Engine) Discard(r io.Reader, n int64) error {
	copied, err := io.CopyN(io.Discard, r, n)
	if err != nil {
		return errors.Join(
			fmt.Errorf("%w: discarded %d of %d bytes", common.ErrTransferIncomplete, copied, n),
			common.ErrConnectionLost,
			err,
		)
	}
	return nil
}

func (e *Engine) reject(meta protocol.FileMeta, r io.Reader, reason error) error {
	if err := e.Discard(r, meta.Filesize); err != nil {
		return errors.Join(reason, err)
	}
	return reason
}

// SendAll writes the download-all reply for group to w: the file count as a
// reply body, then a header and the raw bytes for each file. A missing
// group and an empty group both produce a count of 0.
//
// The count comes from the listing and files are opened one at a time
// while they are sent. A file removed after the listing is sent as an
// empty record under its name so the announced count still holds.
//
// Errors returned before the count was written leave w untouched, so the
// caller can still send an error reply. Later errors match
// common.ErrConnectionLost because the client can no longer be resynced.
func (e *Engine) SendAll(ctx context.Context, group string, w io.Writer) (int, error) {
	if err := pathx.ValidateName(group); err != nil {
		return 0, err
	}

	objects, err := e.store.List(ctx, group)
	if err != nil {
		return 0, fmt.Errorf("list group: %w", err)
	}

	if err := protocol.WriteReplyString(w, strconv.Itoa(len(objects))); err != nil {
		return 0, errors.Join(common.ErrConnectionLost, err)
	}

	for i, o := range objects {
		if err := e.sendOne(ctx, group, o.Name, w); err != nil {
			return i, errors.Join(common.ErrConnectionLost, err)
		}
	}

	e.logger.Info(ctx, "group sent", "group", group, "files", len(objects))
	return len(objects), nil
}

// sendOne writes one file record and closes the object before returning.
func (e *Engine) sendOne(ctx context.Context, group, name string, w io.Writer) error {
	meta := protocol.FileMeta{Action: protocol.ActionSendFile, Filename: name, GroupName: group}

	rc, size, err := e.store.Open(ctx, group, name)
	if errors.Is(err, common.ErrorNotFound) {
		e.logger.Info(ctx, "file vanished during download, sending empty record", "group", group, "filename", name)
		return protocol.WriteFileHeader(w, meta)
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()

	meta.Filesize = size
	if err := protocol.WriteFileHeader(w, meta); err != nil {
		return err
	}
	n, err := protocol.CopyExact(w, rc, size)
	metrics.BytesTransferred.WithLabelValues("download").Add(float64(n))
	if err != nil {
		return fmt.Errorf("send %s: %w", name, err)
	}
	return nil
}

// Remove deletes group/filename. A file that is not there is a no-op.
func (e *Engine) Remove(ctx context.Context, group, filename string) error {
	existed, err := e.store.Remove(ctx, group, filename)
	if err != nil {
		return err
	}
	if !existed {
		e.logger.Info(ctx, "file not found, nothing removed", "group", group, "filename", filename)
		return nil
	}
	e.logger.Info(ctx, "file removed", "group", group, "filename", filename)
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
