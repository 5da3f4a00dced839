// Package cryptox holds the cryptographic primitives of groupshare: the RSA
// key pair each peer publishes during the handshake, OAEP sealing of control
// messages, and argon2id password hashing.
package cryptox

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/groupshare/internal/common"
)

const (
	// KeyBits is the modulus size of generated keys.
	KeyBits = 2048
	// MinKeyBits is the smallest peer key accepted during a handshake.
	MinKeyBits = 2048

	pemBlockType = "PUBLIC KEY"
)

// GenerateKey creates a fresh RSA key pair.
func GenerateKey() (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, KeyBits)
}

// MarshalPublicKey encodes pub as a PEM SubjectPublicKeyInfo block.
func MarshalPublicKey(pub *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemBlockType, Bytes: der}), nil
}

// ParsePublicKey decodes a PEM SubjectPublicKeyInfo block holding an RSA key
// of at least MinKeyBits.
func ParsePublicKey(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != pemBlockType {
		return nil, errors.New("no PEM public key block")
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	pub, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("unsupported public key type %T", key)
	}
	if pub.N.BitLen() < MinKeyBits {
		return nil, fmt.Errorf("public key too short: %d bits", pub.N.BitLen())
	}
	return pub, nil
}

// MaxPlaintext is the largest message OAEP with SHA-256 can seal under pub:
// k - 2*hLen - 2, i.e. 190 bytes for a 2048-bit key.
func MaxPlaintext(pub *rsa.PublicKey) int {
	return pub.Size() - 2*sha256.Size - 2
}

// Seal encrypts msg for the holder of pub. Messages over MaxPlaintext fail
// with common.ErrPayloadTooLarge before any encryption is attempted.
func Seal(pub *rsa.PublicKey, msg []byte) ([]byte, error) {
	if limit := MaxPlaintext(pub); len(msg) > limit {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", common.ErrPayloadTooLarge, len(msg), limit)
	}
	out, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("seal: %w", err)
	}
	return out, nil
}

// Open decrypts a block produced by Seal. A block longer than the key is
// refused with common.ErrPayloadTooLarge without decrypting; any other
// failure is reported as common.ErrDecryptionFailed.
func Open(priv *rsa.PrivateKey, block []byte) ([]byte, error) {
	if len(block) > priv.Size() {
		return nil, fmt.Errorf("%w: block of %d bytes, key size %d", common.ErrPayloadTooLarge, len(block), priv.Size())
	}
	out, err := rsa.DecryptOAEP(sha256.New(), nil, priv, block, nil)
	if err != nil {
		return nil, common.ErrDecryptionFailed
	}
	return out, nil
}
