package client

import (
	"bufio"
	"context"
	"crypto/rsa"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/groupshare/internal/common"
	"github.com/dmitrijs2005/groupshare/internal/cryptox"
	"github.com/dmitrijs2005/groupshare/internal/protocol"
)

var (
	keysOnce  sync.Once
	serverKey *rsa.PrivateKey
	clientKey *rsa.PrivateKey
)

func testKeys(t *testing.T) (*rsa.PrivateKey, *rsa.PrivateKey) {
	t.Helper()
	keysOnce.Do(func() {
		var err error
		if serverKey, err = cryptox.GenerateKey(); err != nil {
			panic(err)
		}
		if clientKey, err = cryptox.GenerateKey(); err != nil {
			panic(err)
		}
	})
	return serverKey, clientKey
}

// scriptedServer accepts one connection, runs the handshake and hands each
// decoded command to script, which writes whatever it likes back.
func scriptedServer(t *testing.T, script func(cmd protocol.Command, w io.Writer)) string {
	t.Helper()
	key, _ := testKeys(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		rw := struct {
			io.Reader
			io.Writer
		}{r, conn}
		if _, err := protocol.ServerHandshake(rw, key); err != nil {
			return
		}
		for {
			kind, payload, err := protocol.ReadFrame(r)
			if err != nil || kind != protocol.KindSealed {
				return
			}
			cmd, err := protocol.OpenCommand(key, payload)
			if err != nil {
				return
			}
			script(cmd, conn)
		}
	}()

	return ln.Addr().String()
}

func connect(t *testing.T, addr string) *TCPClient {
	t.Helper()
	_, key := testKeys(t)
	c := NewTCPClientWithKey(addr, key, time.Second, 5*time.Second)
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestConnect_Unavailable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, key := testKeys(t)
	c := NewTCPClientWithKey(addr, key, time.Second, time.Second)
	require.ErrorIs(t, c.Connect(context.Background()), ErrUnavailable)
}

func TestNotConnected(t *testing.T) {
	c := NewTCPClient("127.0.0.1:1", time.Second, time.Second)
	ctx := context.Background()

	_, err := c.Login(ctx, "a", "b")
	require.ErrorIs(t, err, ErrNotConnected)
	_, err = c.ListGroups(ctx)
	require.ErrorIs(t, err, ErrNotConnected)
	require.NoError(t, c.Close())
}

func TestCallBool_UnexpectedReply(t *testing.T) {
	addr := scriptedServer(t, func(cmd protocol.Command, w io.Writer) {
		_ = protocol.WriteReplyString(w, "maybe")
	})
	c := connect(t, addr)

	_, err := c.Login(context.Background(), "a", "b")
	require.ErrorIs(t, err, ErrUnexpectedReply)
	assert.Empty(t, c.Username())
}

func TestRemoteErrorIsMatched(t *testing.T) {
	addr := scriptedServer(t, func(cmd protocol.Command, w io.Writer) {
		_ = protocol.WriteError(w, common.ErrorForbidden)
	})
	c := connect(t, addr)

	err := c.RemoveFile(context.Background(), "team", "a.txt")
	require.ErrorIs(t, err, common.ErrorForbidden)

	var re *protocol.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, protocol.CodeForbidden, re.Code)
}

func TestListGroups(t *testing.T) {
	addr := scriptedServer(t, func(cmd protocol.Command, w io.Writer) {
		assert.Equal(t, protocol.ActionSendAllGroups, cmd.Action)
		_ = protocol.WriteReplyString(w, `{"groups":[{"name":"team"},{"name":"ops"}]}`)
	})
	c := connect(t, addr)

	names, err := c.ListGroups(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"team", "ops"}, names)
}

func TestDownloadAllFiles_SkipsUnsafeNames(t *testing.T) {
	records := []struct {
		name string
		data string
	}{
		{"ok.txt", "fine"},
		{"../escape.txt", "evil"},
		{"also-ok.txt", "good"},
	}

	addr := scriptedServer(t, func(cmd protocol.Command, w io.Writer) {
		switch cmd.Action {
		case protocol.ActionSendAllFiles:
			_ = protocol.WriteReplyString(w, "3")
			for _, r := range records {
				_ = protocol.WriteFileHeader(w, protocol.FileMeta{
					Action: protocol.ActionSendFile, Filename: r.name, Filesize: int64(len(r.data)), GroupName: cmd.GroupName,
				})
				_, _ = io.WriteString(w, r.data)
			}
		default:
			_ = protocol.WriteReplyString(w, protocol.ReplyOK)
		}
	})
	c := connect(t, addr)
	ctx := context.Background()

	dest := t.TempDir()
	files, err := c.DownloadAllFiles(ctx, "team", dest)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "ok.txt", files[0].Filename)
	assert.Equal(t, "also-ok.txt", files[1].Filename)

	got, err := os.ReadFile(filepath.Join(dest, "team", "also-ok.txt"))
	require.NoError(t, err)
	assert.Equal(t, "good", string(got))
	assert.NoFileExists(t, filepath.Join(dest, "escape.txt"))

	// the stream stayed framed
	require.NoError(t, c.RemoveFile(ctx, "team", "ok.txt"))
}

func TestDownloadAllFiles_TruncatedStream(t *testing.T) {
	addr := scriptedServer(t, func(cmd protocol.Command, w io.Writer) {
		_ = protocol.WriteReplyString(w, "1")
		_ = protocol.WriteFileHeader(w, protocol.FileMeta{Filename: "cut.bin", Filesize: 100, GroupName: cmd.GroupName})
		_, _ = io.WriteString(w, "short")
		_ = w.(net.Conn).Close()
	})
	c := connect(t, addr)

	dest := t.TempDir()
	_, err := c.DownloadAllFiles(context.Background(), "team", dest)
	require.ErrorIs(t, err, common.ErrConnectionLost)

	entries, err := os.ReadDir(filepath.Join(dest, "team"))
	require.NoError(t, err)
	assert.Empty(t, entries, "no partial file is left behind")

	_, err = c.ListGroups(context.Background())
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestDownloadAllFiles_RejectsUnsafeGroup(t *testing.T) {
	c := NewTCPClient("127.0.0.1:1", time.Second, time.Second)
	_, err := c.DownloadAllFiles(context.Background(), "..", t.TempDir())
	require.ErrorIs(t, err, common.ErrInvalidName)
}

func TestUploadFile_Validation(t *testing.T) {
	c := NewTCPClient("127.0.0.1:1", time.Second, time.Second)
	ctx := context.Background()

	require.ErrorIs(t, c.UploadFile(ctx, filepath.Join(t.TempDir(), "a.txt"), "bad/group"), common.ErrInvalidName)

	err := c.UploadFile(ctx, t.TempDir(), "team")
	require.Error(t, err, "directories are not uploaded")

	err = c.UploadFile(ctx, filepath.Join(t.TempDir(), "missing.txt"), "team")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestCancelledContextClosesConnection(t *testing.T) {
	addr := scriptedServer(t, func(cmd protocol.Command, w io.Writer) {
		// never answers
	})
	c := connect(t, addr)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := c.Login(ctx, "a", "b")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = c.Login(context.Background(), "a", "b")
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestRegisterAndLogout(t *testing.T) {
	var mu sync.Mutex
	var seen []protocol.Command
	addr := scriptedServer(t, func(cmd protocol.Command, w io.Writer) {
		mu.Lock()
		seen = append(seen, cmd)
		mu.Unlock()
		switch cmd.Action {
		case protocol.ActionRegister:
			_ = protocol.WriteReplyString(w, protocol.ReplyRegistrationFailed)
		case protocol.ActionLogin:
			_ = protocol.WriteReplyString(w, protocol.ReplyTrue)
		default:
			_ = protocol.WriteReplyString(w, protocol.ReplyOK)
		}
	})
	c := connect(t, addr)
	ctx := context.Background()

	err := c.Register(ctx, "alice", "pw")
	require.ErrorIs(t, err, ErrRegistrationFailed)
	assert.NotErrorIs(t, err, common.ErrDuplicateUser)

	ok, err := c.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, c.Logout(ctx))
	assert.Empty(t, c.Username())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 3)
	assert.Equal(t, "alice", seen[2].Username, "logout names the session user")
}
