package client

import (
	"bufio"
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/dmitrijs2005/groupshare/internal/common"
	"github.com/dmitrijs2005/groupshare/internal/cryptox"
	"github.com/dmitrijs2005/groupshare/internal/filex"
	"github.com/dmitrijs2005/groupshare/internal/netx"
	"github.com/dmitrijs2005/groupshare/internal/pathx"
	"github.com/dmitrijs2005/groupshare/internal/protocol"
)

// TCPClient talks to a groupshare server over one TCP connection.
type TCPClient struct {
	address     string
	dialTimeout time.Duration
	ioTimeout   time.Duration

	mu       sync.Mutex
	conn     net.Conn
	r        *bufio.Reader
	w        io.Writer
	key      *rsa.PrivateKey
	server   *rsa.PublicKey
	username string
}

// NewTCPClient returns a client that generates its key pair on the first
// Connect and keeps it for reconnects.
func NewTCPClient(address string, dialTimeout, ioTimeout time.Duration) *TCPClient {
	return &TCPClient{
		address:     address,
		dialTimeout: dialTimeout,
		ioTimeout:   ioTimeout,
	}
}

// NewTCPClientWithKey returns a client that uses key for every connection.
func NewTCPClientWithKey(address string, key *rsa.PrivateKey, dialTimeout, ioTimeout time.Duration) *TCPClient {
	c := NewTCPClient(address, dialTimeout, ioTimeout)
	c.key = key
	return c
}

// Connect dials the server and runs the key handshake. An existing
// connection is closed first.
func (c *TCPClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.closeLocked()

	if c.key == nil {
		key, err := cryptox.GenerateKey()
		if err != nil {
			return fmt.Errorf("generate key: %w", err)
		}
		c.key = key
	}
	key := c.key

	d := net.Dialer{Timeout: c.dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", c.address)
	if err != nil {
		return errors.Join(ErrUnavailable, err)
	}

	dc := netx.NewDeadlineConn(conn, c.ioTimeout, c.ioTimeout)
	r := bufio.NewReaderSize(dc, protocol.ChunkSize)

	server, err := protocol.ClientHandshake(struct {
		io.Reader
		io.Writer
	}{r, dc}, key)
	if err != nil {
		_ = conn.Close()
		return errors.Join(ErrUnavailable, fmt.Errorf("handshake: %w", err))
	}

	c.conn, c.r, c.w, c.server = conn, r, dc, server
	return nil
}

// Close drops the connection without notifying the server.
func (c *TCPClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *TCPClient) closeLocked() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn, c.r, c.w, c.server = nil, nil, nil, nil
	c.username = ""
	return err
}

// Username returns the user this client is logged in as.
func (c *TCPClient) Username() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.username
}

func (c *TCPClient) Register(ctx context.Context, username, password string) error {
	body, err := c.call(ctx, protocol.Command{Action: protocol.ActionRegister, Username: username, Password: password})
	if err != nil {
		return err
	}
	switch string(body) {
	case protocol.ReplyRegistrationOK:
		return nil
	case protocol.ReplyRegistrationFailed:
		return ErrRegistrationFailed
	default:
		return unexpected(body)
	}
}

func (c *TCPClient) Login(ctx context.Context, username, password string) (bool, error) {
	ok, err := c.callBool(ctx, protocol.Command{Action: protocol.ActionLogin, Username: username, Password: password})
	if err != nil {
		return false, err
	}
	if ok {
		c.mu.Lock()
		c.username = username
		c.mu.Unlock()
	}
	return ok, nil
}

func (c *TCPClient) Logout(ctx context.Context) error {
	err := c.callOK(ctx, protocol.Command{Action: protocol.ActionLogout, Username: c.Username()})
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.username = ""
	c.mu.Unlock()
	return nil
}

func (c *TCPClient) AddGroup(ctx context.Context, name, password string) error {
	return c.callOK(ctx, protocol.Command{Action: protocol.ActionAddGroup, GroupName: name, GroupPassword: password})
}

func (c *TCPClient) VerifyGroupPassword(ctx context.Context, name, password string) (bool, error) {
	return c.callBool(ctx, protocol.Command{Action: protocol.ActionVerifyGroupPassword, GroupName: name, Password: password})
}

func (c *TCPClient) ListGroups(ctx context.Context) ([]string, error) {
	body, err := c.call(ctx, protocol.Command{Action: protocol.ActionSendAllGroups})
	if err != nil {
		return nil, err
	}
	var list protocol.GroupList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedReply, err)
	}
	names := make([]string, 0, len(list.Groups))
	for _, g := range list.Groups {
		names = append(names, g.Name)
	}
	return names, nil
}

func (c *TCPClient) RemoveFile(ctx context.Context, group, filename string) error {
	return c.callOK(ctx, protocol.Command{Action: protocol.ActionRemoveFile, GroupName: group, Filename: filename})
}

// Disconnect tells the server the session is over and closes the
// connection.
func (c *TCPClient) Disconnect(ctx context.Context) error {
	err := c.callOK(ctx, protocol.Command{Action: protocol.ActionDisconnect, Username: c.Username()})
	if cerr := c.Close(); err == nil {
		err = cerr
	}
	return err
}

// UploadFile sends the file at path into group under its base name.
func (c *TCPClient) UploadFile(ctx context.Context, path, group string) error {
	meta := protocol.FileMeta{Action: protocol.ActionReceiveFile, Filename: filepath.Base(path), GroupName: group}
	if err := pathx.ValidateName(meta.GroupName); err != nil {
		return err
	}
	if err := pathx.ValidateName(meta.Filename); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return err
	}
	if !st.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}
	meta.Filesize = st.Size()

	payload, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	return c.do(ctx, func() error {
		if err := protocol.WriteFrame(c.w, protocol.KindTransfer, payload); err != nil {
			return c.lost(err)
		}
		if _, err := protocol.CopyExact(c.w, f, meta.Filesize); err != nil {
			// a short local read leaves the server waiting for bytes
			return c.lost(err)
		}
		body, err := c.readReply()
		if err != nil {
			return err
		}
		return expectOK(body)
	})
}

// DownloadAllFiles fetches every file of group into destDir/group. Each
// file is written to a temporary name and renamed once complete. Records
// with names that are not safe on disk are skipped.
func (c *TCPClient) DownloadAllFiles(ctx context.Context, group, destDir string) ([]protocol.FileMeta, error) {
	dir, err := pathx.Join(destDir, group)
	if err != nil {
		return nil, err
	}

	var files []protocol.FileMeta

	err = c.do(ctx, func() error {
		body, err := c.roundTrip(protocol.Command{Action: protocol.ActionSendAllFiles, GroupName: group})
		if err != nil {
			return err
		}
		count, err := strconv.Atoi(string(body))
		if err != nil || count < 0 {
			return unexpected(body)
		}
		if count == 0 {
			return nil
		}

		var firstErr error
		if err := filex.EnsureDir(dir); err != nil {
			// the records are still consumed to keep the stream usable
			firstErr, dir = err, ""
		}

		for range count {
			meta, err := protocol.ReadFileHeader(c.r)
			if err != nil {
				return c.lost(err)
			}
			stored, err := c.saveFile(dir, meta)
			if err != nil {
				if errors.Is(err, common.ErrConnectionLost) {
					return err
				}
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if stored {
				files = append(files, meta)
			}
		}
		return firstErr
	})
	return files, err
}

// saveFile consumes one record's bytes and stores them under dir. An empty
// dir, or an unsafe filename, only drains the bytes.
func (c *TCPClient) saveFile(dir string, meta protocol.FileMeta) (bool, error) {
	var dst string
	if dir != "" {
		p, err := pathx.Join(dir, meta.Filename)
		if err == nil {
			dst = p
		}
	}
	if dst == "" {
		if _, err := io.CopyN(io.Discard, c.r, meta.Filesize); err != nil {
			return false, c.lost(err)
		}
		return false, nil
	}

	f, err := filex.CreateTemp(dir)
	if err != nil {
		if _, derr := io.CopyN(io.Discard, c.r, meta.Filesize); derr != nil {
			return false, c.lost(derr)
		}
		return false, err
	}
	if _, err := protocol.CopyExact(f, c.r, meta.Filesize); err != nil {
		// after a local write failure the rest of the record is unread too
		filex.Discard(f)
		return false, c.lost(err)
	}
	if err := filex.Commit(f, dst); err != nil {
		return false, err
	}
	return true, nil
}

// call sends cmd and returns the reply body, or the error an ERR reply
// carries.
func (c *TCPClient) call(ctx context.Context, cmd protocol.Command) ([]byte, error) {
	var body []byte
	err := c.do(ctx, func() error {
		var err error
		body, err = c.roundTrip(cmd)
		return err
	})
	return body, err
}

func (c *TCPClient) callOK(ctx context.Context, cmd protocol.Command) error {
	body, err := c.call(ctx, cmd)
	if err != nil {
		return err
	}
	return expectOK(body)
}

func (c *TCPClient) callBool(ctx context.Context, cmd protocol.Command) (bool, error) {
	body, err := c.call(ctx, cmd)
	if err != nil {
		return false, err
	}
	switch string(body) {
	case protocol.ReplyTrue:
		return true, nil
	case protocol.ReplyFalse:
		return false, nil
	default:
		return false, unexpected(body)
	}
}

// do runs fn holding the client lock. Cancelling ctx while fn runs closes
// the connection.
func (c *TCPClient) do(ctx context.Context, fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	conn := c.conn
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	err := fn()
	if ctx.Err() != nil && err != nil {
		return errors.Join(ctx.Err(), err)
	}
	return err
}

// roundTrip seals and writes cmd, then reads one reply. The command is
// sealed before anything is written, so an oversize command leaves the
// connection untouched.
func (c *TCPClient) roundTrip(cmd protocol.Command) ([]byte, error) {
	sealed, err := protocol.SealCommand(c.server, cmd)
	if err != nil {
		return nil, err
	}
	if err := protocol.WriteFrame(c.w, protocol.KindSealed, sealed); err != nil {
		return nil, c.lost(err)
	}
	return c.readReply()
}

func (c *TCPClient) readReply() ([]byte, error) {
	body, err := protocol.ReadReply(c.r)
	if err != nil {
		return nil, c.lost(err)
	}
	if rerr := protocol.ReplyError(body); rerr != nil {
		return nil, rerr
	}
	return body, nil
}

// lost closes a connection whose stream can no longer be trusted. It must
// be called with c.mu held.
func (c *TCPClient) lost(err error) error {
	_ = c.closeLocked()
	if errors.Is(err, common.ErrConnectionLost) {
		return err
	}
	return errors.Join(common.ErrConnectionLost, err)
}

func expectOK(body []byte) error {
	if string(body) != protocol.ReplyOK {
		return unexpected(body)
	}
	return nil
}

func unexpected(body []byte) error {
	const limit = 64
	s := string(body)
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return fmt.Errorf("%w: %q", ErrUnexpectedReply, s)
}
