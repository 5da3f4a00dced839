package protocol

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/groupshare/internal/common"
)

// ReplyHeaderSize is the width of the ASCII length header of a reply.
const ReplyHeaderSize = 10

// MaxReplySize bounds a reply body accepted by ReadReply.
const MaxReplySize = 16 * 1024 * 1024

// Fixed reply bodies.
const (
	ReplyTrue               = "True"
	ReplyFalse              = "False"
	ReplyOK                 = "OK"
	ReplyRegistrationOK     = "Registration successful"
	ReplyRegistrationFailed = "Registration failed"
)

// FailureReply returns the fixed negative reply of action, for actions
// whose reply already has one. A malformed command of such an action is
// answered with it instead of an error reply.
func FailureReply(action string) (string, bool) {
	switch action {
	case ActionLogin, ActionVerifyGroupPassword:
		return ReplyFalse, true
	case ActionRegister:
		return ReplyRegistrationFailed, true
	}
	return "", false
}

// Error codes carried in "ERR <code> <message>" replies.
const (
	CodeMalformed     = "malformed"
	CodeDecrypt       = "decrypt"
	CodeTooLarge      = "too_large"
	CodeUnknownAction = "unknown_action"
	CodeUnauthorized  = "unauthorized"
	CodeForbidden     = "forbidden"
	CodeInvalidName   = "invalid_name"
	CodeIncomplete    = "incomplete"
	CodeInternal      = "internal"
)

var codeErrors = []struct {
	code string
	err  error
}{
	{CodeMalformed, common.ErrMalformedMessage},
	{CodeDecrypt, common.ErrDecryptionFailed},
	{CodeTooLarge, common.ErrPayloadTooLarge},
	{CodeUnknownAction, common.ErrUnknownAction},
	{CodeUnauthorized, common.ErrorUnauthorized},
	{CodeForbidden, common.ErrorForbidden},
	{CodeInvalidName, common.ErrInvalidName},
	{CodeIncomplete, common.ErrTransferIncomplete},
}

// WriteReply writes body with its 10-byte header.
func WriteReply(w io.Writer, body []byte) error {
	if len(body) > MaxReplySize {
		return fmt.Errorf("%w: reply of %d bytes", common.ErrPayloadTooLarge, len(body))
	}
	buf := make([]byte, 0, ReplyHeaderSize+len(body))
	buf = fmt.Appendf(buf, "%-*d", ReplyHeaderSize, len(body))
	buf = append(buf, body...)
	_, err := w.Write(buf)
	return err
}

// WriteReplyString is WriteReply for string bodies.
func WriteReplyString(w io.Writer, body string) error {
	return WriteReply(w, []byte(body))
}

// WriteError writes an "ERR <code> <message>" reply for err.
func WriteError(w io.Writer, err error) error {
	return WriteReplyString(w, "ERR "+CodeFor(err)+" "+err.Error())
}

// ReadReply reads one reply body.
func ReadReply(r io.Reader) ([]byte, error) {
	var hdr [ReplyHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, lost(err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(hdr[:])))
	if err != nil || n < 0 || n > MaxReplySize {
		return nil, fmt.Errorf("%w: reply header %q", common.ErrMalformedMessage, string(hdr[:]))
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, lost(err)
	}
	return body, nil
}

// ReplyError returns the error carried by an ERR reply, or nil if body is
// a regular reply.
func ReplyError(body []byte) error {
	s := string(body)
	if !strings.HasPrefix(s, "ERR ") {
		return nil
	}
	code, msg, _ := strings.Cut(strings.TrimPrefix(s, "ERR "), " ")
	return &RemoteError{Code: code, Message: msg}
}

// RemoteError is an ERR reply decoded on the client side. It matches the
// sentinel for its code under errors.Is.
type RemoteError struct {
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return "server: " + e.Message
}

func (e *RemoteError) Is(target error) bool {
	return errors.Is(ErrorFor(e.Code), target)
}

// CodeFor maps an error to its wire code.
func CodeFor(err error) string {
	for _, ce := range codeErrors {
		if errors.Is(err, ce.err) {
			return ce.code
		}
	}
	return CodeInternal
}

// ErrorFor maps a wire code back to its sentinel.
func ErrorFor(code string) error {
	for _, ce := range codeErrors {
		if ce.code == code {
			return ce.err
		}
	}
	return common.ErrorInternal
}
