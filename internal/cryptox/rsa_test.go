package cryptox

import (
	"crypto/rand"
	"crypto/rsa"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/groupshare/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	keyOnce sync.Once
	keyA    *rsa.PrivateKey
	keyB    *rsa.PrivateKey
)

func testKeys(t *testing.T) (*rsa.PrivateKey, *rsa.PrivateKey) {
	t.Helper()
	keyOnce.Do(func() {
		var err error
		keyA, err = GenerateKey()
		require.NoError(t, err)
		keyB, err = GenerateKey()
		require.NoError(t, err)
	})
	return keyA, keyB
}

func TestPublicKeyPEM_RoundTrip(t *testing.T) {
	priv, _ := testKeys(t)

	data, err := MarshalPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "-----BEGIN PUBLIC KEY-----"))

	pub, err := ParsePublicKey(data)
	require.NoError(t, err)
	assert.True(t, pub.Equal(&priv.PublicKey))
}

func TestParsePublicKey_Rejects(t *testing.T) {
	_, err := ParsePublicKey([]byte("not pem"))
	assert.Error(t, err)

	small, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)
	data, err := MarshalPublicKey(&small.PublicKey)
	require.NoError(t, err)
	_, err = ParsePublicKey(data)
	assert.ErrorContains(t, err, "too short")
}

func TestMaxPlaintext_2048(t *testing.T) {
	priv, _ := testKeys(t)
	assert.Equal(t, 190, MaxPlaintext(&priv.PublicKey))
}

func TestSealOpen(t *testing.T) {
	priv, _ := testKeys(t)
	msg := []byte(`{"action":"login","username":"alice","password":"pw"}`)

	block, err := Seal(&priv.PublicKey, msg)
	require.NoError(t, err)
	assert.Len(t, block, 256)

	got, err := Open(priv, block)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestSeal_SizeBound(t *testing.T) {
	priv, _ := testKeys(t)

	_, err := Seal(&priv.PublicKey, make([]byte, 190))
	assert.NoError(t, err)

	_, err = Seal(&priv.PublicKey, make([]byte, 191))
	assert.ErrorIs(t, err, common.ErrPayloadTooLarge)
}

func TestOpen_Failures(t *testing.T) {
	a, b := testKeys(t)

	block, err := Seal(&a.PublicKey, []byte("hello"))
	require.NoError(t, err)

	_, err = Open(b, block)
	assert.ErrorIs(t, err, common.ErrDecryptionFailed)

	_, err = Open(a, []byte(`{"action":"login"}`))
	assert.ErrorIs(t, err, common.ErrDecryptionFailed)

	_, err = Open(a, make([]byte, 300))
	assert.ErrorIs(t, err, common.ErrPayloadTooLarge)
}
