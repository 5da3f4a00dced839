package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/groupshare/internal/common"
)

// Kind tags a client frame.
type Kind byte

const (
	KindSealed   Kind = 0x01
	KindTransfer Kind = 0x02
)

func (k Kind) String() string {
	switch k {
	case KindSealed:
		return "sealed"
	case KindTransfer:
		return "transfer"
	default:
		return fmt.Sprintf("kind(0x%02x)", byte(k))
	}
}

// MaxFrameSize bounds a single frame payload. Bulk file bytes are not part
// of a frame and are not subject to it.
const MaxFrameSize = 64 * 1024

// WriteFrame writes one client frame.
func WriteFrame(w io.Writer, kind Kind, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("%w: frame of %d bytes", common.ErrPayloadTooLarge, len(payload))
	}
	buf := make([]byte, 5+len(payload))
	buf[0] = byte(kind)
	binary.BigEndian.PutUint32(buf[1:5], uint32(len(payload)))
	copy(buf[5:], payload)
	_, err := w.Write(buf)
	return err
}

// ReadFrame reads one client frame. A clean EOF before the first byte is
// returned as io.EOF; EOF inside a frame is common.ErrConnectionLost. An
// oversize length is common.ErrMalformedMessage and leaves the stream out
// of sync, so callers must close the connection.
func ReadFrame(r io.Reader) (Kind, []byte, error) {
	var hdr [5]byte
	if _, err := io.ReadFull(r, hdr[:1]); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil, io.EOF
		}
		return 0, nil, lost(err)
	}
	if _, err := io.ReadFull(r, hdr[1:]); err != nil {
		return 0, nil, lost(err)
	}

	kind := Kind(hdr[0])
	n := binary.BigEndian.Uint32(hdr[1:])
	if n > MaxFrameSize {
		return kind, nil, fmt.Errorf("%w: frame length %d", common.ErrMalformedMessage, n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return kind, nil, lost(err)
	}
	return kind, payload, nil
}

func lost(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %v", common.ErrConnectionLost, err)
	}
	return errors.Join(common.ErrConnectionLost, err)
}
