// Package common defines sentinel errors shared by the server, the client
// and the wire protocol. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")

	// Constraint violations.
	ErrDuplicateUser  = errors.New("user already exists")
	ErrDuplicateGroup = errors.New("group already exists")

	// Protocol errors.
	ErrConnectionLost   = errors.New("connection lost")
	ErrDecryptionFailed = errors.New("decryption failed")
	ErrPayloadTooLarge  = errors.New("payload too large")
	ErrMalformedMessage = errors.New("malformed message")
	ErrUnknownAction    = errors.New("unknown action")

	// Transfer errors.
	ErrTransferIncomplete = errors.New("transfer incomplete")
	ErrInvalidName        = errors.New("invalid name")
)
