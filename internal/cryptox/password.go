package cryptox

import (
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/argon2"
)

// userSalt is mixed into every account password. Stored hashes depend on it,
// so changing it invalidates all existing accounts.
var userSalt = []byte("groupshare/users/v1")

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32

	// SaltSize is the length of per-group salts.
	SaltSize = 16
)

// DeriveKey stretches password with argon2id.
func DeriveKey(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// HashUserPassword returns the hex-encoded hash stored for an account.
func HashUserPassword(password string) string {
	return hex.EncodeToString(DeriveKey([]byte(password), userSalt))
}

// CompareHash reports whether the hex-encoded hashes a and b are equal in
// constant time.
func CompareHash(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// HashGroupPassword hashes password with a per-group salt. Both values are
// returned hex-encoded for the groups file.
func HashGroupPassword(password string, salt []byte) string {
	return hex.EncodeToString(DeriveKey([]byte(password), salt))
}
