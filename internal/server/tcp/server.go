// Package tcp serves the groupshare protocol: one session per accepted
// connection, each running the key handshake and then a sequential command
// loop.
package tcp

import (
	"context"
	"crypto/rsa"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/dmitrijs2005/groupshare/internal/logging"
	"github.com/dmitrijs2005/groupshare/internal/metrics"
	"github.com/dmitrijs2005/groupshare/internal/protocol"
	"github.com/dmitrijs2005/groupshare/internal/server/presence"
)

// UserService authenticates and registers users.
type UserService interface {
	CreateUser(ctx context.Context, username, password string) error
	CheckCredentials(ctx context.Context, username, password string) (bool, error)
}

// GroupRegistry stores group names and password hashes.
type GroupRegistry interface {
	Add(ctx context.Context, name, password string) error
	Verify(name, password string) bool
	Names() []string
}

// FileTransfer moves file bytes between a connection and storage.
type FileTransfer interface {
	Receive(ctx context.Context, meta protocol.FileMeta, r io.Reader) error
	Discard(r io.Reader, n int64) error
	SendAll(ctx context.Context, group string, w io.Writer) (int, error)
	Remove(ctx context.Context, group, filename string) error
}

// Options tune per-connection behaviour.
type Options struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	MaxFileSize       int64
	StrictGroupAccess bool
}

type Server struct {
	address  string
	logger   logging.Logger
	key      *rsa.PrivateKey
	users    UserService
	groups   GroupRegistry
	files    FileTransfer
	presence *presence.Registry
	opts     Options

	wg     sync.WaitGroup
	mu     sync.Mutex
	conns  map[net.Conn]struct{}
	closed bool
}

func NewServer(a string, l logging.Logger, key *rsa.PrivateKey, us UserService, gr GroupRegistry,
	ft FileTransfer, pr *presence.Registry, opts Options) *Server {
	return &Server{
		address:  a,
		logger:   l.With("module", "tcp_server"),
		key:      key,
		users:    us,
		groups:   gr,
		files:    ft,
		presence: pr,
		opts:     opts,
		conns:    make(map[net.Conn]struct{}),
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	listen, err := lc.Listen(ctx, "tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections from ln until ctx is done. On shutdown the
// listener and every open connection are closed, and Serve returns once all
// sessions have finished.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Stopping TCP server...")
		case <-stop:
		}
		_ = ln.Close()
		s.closeConns()
	}()

	s.logger.Info(ctx, "Starting TCP server", "address", ln.Addr().String())

	var acceptErr error
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				s.logger.Warn(ctx, "accept timeout", "error", err)
				time.Sleep(50 * time.Millisecond)
				continue
			}
			acceptErr = err
			break
		}

		s.track(conn)
		metrics.ConnectionsTotal.Inc()
		metrics.ConnectionsActive.Inc()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer metrics.ConnectionsActive.Dec()
			defer s.untrack(conn)
			newSession(s, conn).run(ctx)
		}()
	}

	if acceptErr != nil {
		s.closeConns()
	}
	s.wg.Wait()
	return acceptErr
}

// track registers c for shutdown. A connection accepted after shutdown
// began is closed right away; its session then fails the handshake.
func (s *Server) track(c net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		_ = c.Close()
		return
	}
	s.conns[c] = struct{}{}
}

func (s *Server) untrack(c net.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for c := range s.conns {
		_ = c.Close()
	}
}
