package protocol

import (
	"crypto/rsa"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dmitrijs2005/groupshare/internal/cryptox"
)

// MaxKeyBlob bounds a public key blob read during the handshake.
const MaxKeyBlob = 4096

// WriteKey writes a length-prefixed key blob.
func WriteKey(w io.Writer, blob []byte) error {
	if len(blob) == 0 || len(blob) > MaxKeyBlob {
		return fmt.Errorf("key blob of %d bytes", len(blob))
	}
	var hdr [2]byte
	binary.BigEndian.PutUint16(hdr[:], uint16(len(blob)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(blob)
	return err
}

// ReadKey reads a blob written by WriteKey.
func ReadKey(r io.Reader) ([]byte, error) {
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, lost(err)
	}
	n := int(binary.BigEndian.Uint16(hdr[:]))
	if n == 0 || n > MaxKeyBlob {
		return nil, fmt.Errorf("key blob of %d bytes", n)
	}
	blob := make([]byte, n)
	if _, err := io.ReadFull(r, blob); err != nil {
		return nil, lost(err)
	}
	return blob, nil
}

// ServerHandshake reads the client's public key and then publishes the
// server's own. The order is fixed: the server never writes first.
func ServerHandshake(rw io.ReadWriter, priv *rsa.PrivateKey) (*rsa.PublicKey, error) {
	blob, err := ReadKey(rw)
	if err != nil {
		return nil, fmt.Errorf("read client key: %w", err)
	}
	peer, err := cryptox.ParsePublicKey(blob)
	if err != nil {
		return nil, err
	}
	own, err := cryptox.MarshalPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, err
	}
	if err := WriteKey(rw, own); err != nil {
		return nil, fmt.Errorf("write server key: %w", err)
	}
	return peer, nil
}

// ClientHandshake publishes the client's key and reads the server's.
func ClientHandshake(rw io.ReadWriter, priv *rsa.PrivateKey) (*rsa.PublicKey, error) {
	own, err := cryptox.MarshalPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, err
	}
	if err := WriteKey(rw, own); err != nil {
		return nil, fmt.Errorf("write client key: %w", err)
	}
	blob, err := ReadKey(rw)
	if err != nil {
		return nil, fmt.Errorf("read server key: %w", err)
	}
	return cryptox.ParsePublicKey(blob)
}
