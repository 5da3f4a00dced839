// Package netx holds small net.Conn helpers.
package netx

import (
	"errors"
	"net"
	"time"
)

// DeadlineConn refreshes the read or write deadline of the wrapped
// connection before every Read and Write, so a stalled peer is dropped
// after the configured idle period. A zero timeout disables that side.
type DeadlineConn struct {
	net.Conn
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	now func() time.Time
}

// NewDeadlineConn wraps c.
func NewDeadlineConn(c net.Conn, read, write time.Duration) *DeadlineConn {
	return &DeadlineConn{Conn: c, ReadTimeout: read, WriteTimeout: write, now: time.Now}
}

func (c *DeadlineConn) Read(p []byte) (int, error) {
	if c.ReadTimeout > 0 {
		if err := c.Conn.SetReadDeadline(c.now().Add(c.ReadTimeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Read(p)
}

func (c *DeadlineConn) Write(p []byte) (int, error) {
	if c.WriteTimeout > 0 {
		if err := c.Conn.SetWriteDeadline(c.now().Add(c.WriteTimeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Write(p)
}

// IsTimeout reports whether err is a network timeout.
func IsTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
