package protocol

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/groupshare/internal/common"
)

// ChunkSize is the copy buffer used for bulk file bytes. It is not part of
// the wire contract.
const ChunkSize = 4096

// maxFileHeader bounds the metadata JSON of a download record.
const maxFileHeader = 64 * 1024

// WriteFileHeader writes a download record header: a uint32 big-endian
// length and the metadata JSON.
func WriteFileHeader(w io.Writer, meta FileMeta) error {
	body, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	buf := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(body)))
	copy(buf[4:], body)
	_, err = w.Write(buf)
	return err
}

// ReadFileHeader reads a header written by WriteFileHeader.
func ReadFileHeader(r io.Reader) (FileMeta, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return FileMeta{}, lost(err)
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > maxFileHeader {
		return FileMeta{}, fmt.Errorf("%w: file header of %d bytes", common.ErrMalformedMessage, n)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return FileMeta{}, lost(err)
	}
	var meta FileMeta
	if err := json.Unmarshal(body, &meta); err != nil {
		return FileMeta{}, fmt.Errorf("%w: %v", common.ErrMalformedMessage, err)
	}
	if meta.Filesize < 0 {
		return FileMeta{}, fmt.Errorf("%w: negative filesize", common.ErrMalformedMessage)
	}
	return meta, nil
}

// CopyExact moves exactly n bytes from src to dst in ChunkSize pieces.
//
// If src ends or fails early the error matches both
// common.ErrTransferIncomplete and common.ErrConnectionLost. Write errors
// are returned as is; the n-copied bytes still unread belong to the caller.
func CopyExact(dst io.Writer, src io.Reader, n int64) (int64, error) {
	buf := make([]byte, ChunkSize)
	var copied int64
	for copied < n {
		chunk := buf
		if rem := n - copied; rem < int64(len(chunk)) {
			chunk = chunk[:rem]
		}
		rn, rerr := src.Read(chunk)
		if rn > 0 {
			copied += int64(rn)
			if _, werr := dst.Write(chunk[:rn]); werr != nil {
				return copied, werr
			}
		}
		if rerr != nil && copied < n {
			return copied, errors.Join(
				fmt.Errorf("%w: %d of %d bytes", common.ErrTransferIncomplete, copied, n),
				common.ErrConnectionLost,
				rerr,
			)
		}
	}
	return copied, nil
}
