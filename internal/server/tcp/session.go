package tcp

import (
	"bufio"
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/groupshare/internal/common"
	"github.com/dmitrijs2005/groupshare/internal/logging"
	"github.com/dmitrijs2005/groupshare/internal/metrics"
	"github.com/dmitrijs2005/groupshare/internal/netx"
	"github.com/dmitrijs2005/groupshare/internal/protocol"
)

// session is the state of one connection. It is owned by a single
// goroutine; only the presence registry is shared.
type session struct {
	id     string
	srv    *Server
	conn   net.Conn
	r      *bufio.Reader
	w      io.Writer
	logger logging.Logger

	peer     *rsa.PublicKey
	username string
	verified map[string]struct{}
	closing  bool
}

func newSession(srv *Server, c net.Conn) *session {
	dc := netx.NewDeadlineConn(c, srv.opts.ReadTimeout, srv.opts.WriteTimeout)
	id := uuid.NewString()
	return &session{
		id:       id,
		srv:      srv,
		conn:     c,
		r:        bufio.NewReaderSize(dc, protocol.ChunkSize),
		w:        dc,
		logger:   srv.logger.With("session_id", id, "remote_addr", c.RemoteAddr().String()),
		verified: make(map[string]struct{}),
	}
}

func (s *session) run(ctx context.Context) {
	defer s.close(ctx)

	peer, err := protocol.ServerHandshake(struct {
		io.Reader
		io.Writer
	}{s.r, s.w}, s.srv.key)
	if err != nil {
		metrics.HandshakeFailures.Inc()
		s.logger.Warn(ctx, "handshake failed", "error", err)
		return
	}
	s.peer = peer
	s.logger.Info(ctx, "session opened")

	for !s.closing && ctx.Err() == nil {
		kind, payload, err := protocol.ReadFrame(s.r)
		if err != nil {
			s.readFailed(ctx, err)
			return
		}

		switch kind {
		case protocol.KindSealed:
			err = s.handleSealed(ctx, payload)
		case protocol.KindTransfer:
			err = s.handleTransfer(ctx, payload)
		default:
			err = s.replyError(fmt.Errorf("%w: unknown frame %s", common.ErrMalformedMessage, kind))
		}
		if err != nil {
			s.logger.Warn(ctx, "connection lost", "error", err)
			return
		}
	}
}

func (s *session) readFailed(ctx context.Context, err error) {
	switch {
	case errors.Is(err, io.EOF):
		s.logger.Info(ctx, "client closed connection")
	case errors.Is(err, common.ErrMalformedMessage):
		s.logger.Warn(ctx, "bad frame, closing", "error", err)
		_ = s.replyError(err)
	case netx.IsTimeout(err):
		s.logger.Info(ctx, "idle timeout, closing")
	case ctx.Err() != nil:
	default:
		s.logger.Warn(ctx, "read failed", "error", err)
	}
}

func (s *session) close(ctx context.Context) {
	s.logout(ctx)
	_ = s.conn.Close()
	s.logger.Info(ctx, "session closed")
}

// handleSealed decrypts a control frame and runs its action. Only errors
// matching common.ErrConnectionLost are returned; everything else has
// already been answered.
func (s *session) handleSealed(ctx context.Context, payload []byte) error {
	started := time.Now()

	cmd, err := protocol.OpenCommand(s.srv.key, payload)
	if err != nil {
		metrics.ObserveCommand(actionLabel(cmd.Action), protocol.CodeFor(err), started)
		s.logger.Warn(ctx, "rejected command", "action", cmd.Action, "error", err)
		if errors.Is(err, common.ErrMalformedMessage) {
			if body, ok := protocol.FailureReply(cmd.Action); ok {
				return s.reply(body)
			}
		}
		return s.replyError(err)
	}

	err = s.dispatch(ctx, cmd)
	return s.finish(ctx, cmd.Action, started, err)
}

// handleTransfer receives one uploaded file announced by a transfer frame.
func (s *session) handleTransfer(ctx context.Context, payload []byte) error {
	started := time.Now()

	meta, err := protocol.ParseFileMeta(payload)
	if err != nil {
		// the byte count is unknown, so the stream cannot be resynced
		s.closing = true
		return s.finish(ctx, protocol.ActionReceiveFile, started, err)
	}

	err = s.receiveFile(ctx, meta)
	return s.finish(ctx, protocol.ActionReceiveFile, started, err)
}

// finish records the outcome of a command and answers a failed one.
func (s *session) finish(ctx context.Context, action string, started time.Time, err error) error {
	if err == nil {
		metrics.ObserveCommand(actionLabel(action), "ok", started)
		return nil
	}
	if errors.Is(err, common.ErrConnectionLost) {
		metrics.ObserveCommand(actionLabel(action), "connection_lost", started)
		return err
	}

	code := protocol.CodeFor(err)
	metrics.ObserveCommand(actionLabel(action), code, started)
	if code == protocol.CodeInternal {
		s.logger.Error(ctx, "command failed", "action", action, "error", err)
		return s.replyError(common.ErrorInternal)
	}
	s.logger.Info(ctx, "command refused", "action", action, "error", err)
	return s.replyError(err)
}

func (s *session) reply(body string) error {
	if err := protocol.WriteReplyString(s.w, body); err != nil {
		return errors.Join(common.ErrConnectionLost, err)
	}
	return nil
}

func (s *session) replyError(err error) error {
	if werr := protocol.WriteError(s.w, err); werr != nil {
		return errors.Join(common.ErrConnectionLost, werr)
	}
	return nil
}

func actionLabel(action string) string {
	switch action {
	case protocol.ActionLogin, protocol.ActionRegister, protocol.ActionReceiveFile,
		protocol.ActionSendAllFiles, protocol.ActionRemoveFile, protocol.ActionSendAllGroups,
		protocol.ActionAddGroup, protocol.ActionVerifyGroupPassword,
		protocol.ActionDisconnect, protocol.ActionLogout:
		return action
	default:
		return "unknown"
	}
}
