package client

import (
	"errors"

	"github.com/dmitrijs2005/groupshare/internal/common"
)

var (
	ErrUnavailable     = errors.New("server unavailable")
	ErrNotConnected    = errors.New("not connected")
	ErrUnexpectedReply = errors.New("unexpected reply")
	ErrUnauthorized    = common.ErrorUnauthorized
)

// ErrRegistrationFailed is the server refusing a registration. The reply
// does not say whether the name was taken or storage failed.
var ErrRegistrationFailed = errors.New("registration failed")
