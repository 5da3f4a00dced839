// Package models holds the persistent records of the server.
package models

// User is an account of the credential store. PasswordHash is the
// hex-encoded argon2id hash of the password; the clear text is never kept.
type User struct {
	Username     string
	PasswordHash string
}
