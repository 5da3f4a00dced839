// Package server initializes and runs the groupshare server: it builds the
// logger, credential store, group registry, blob store and transfer engine
// from the configuration, serves the TCP protocol and, optionally, the
// metrics endpoint, and shuts everything down on SIGINT/SIGTERM/SIGQUIT.
package server

import (
	"context"
	"crypto/rsa"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/groupshare/internal/cryptox"
	"github.com/dmitrijs2005/groupshare/internal/dbx"
	"github.com/dmitrijs2005/groupshare/internal/logging"
	"github.com/dmitrijs2005/groupshare/internal/metrics"
	"github.com/dmitrijs2005/groupshare/internal/server/blobstore"
	"github.com/dmitrijs2005/groupshare/internal/server/config"
	"github.com/dmitrijs2005/groupshare/internal/server/groups"
	"github.com/dmitrijs2005/groupshare/internal/server/presence"
	"github.com/dmitrijs2005/groupshare/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/groupshare/internal/server/services"
	"github.com/dmitrijs2005/groupshare/internal/server/tcp"
	"github.com/dmitrijs2005/groupshare/internal/server/transfer"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	logCloser io.Closer
	db        *sql.DB
	server    *tcp.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, logCloser := logging.New(logging.Options{
		Level: c.LogLevel,
		File:  c.LogFile,
	})

	app := &App{config: c, logger: logger, logCloser: logCloser}
	if err := app.init(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (app *App) init(ctx context.Context) error {
	c := app.config

	db, err := dbx.Open(ctx, c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	app.db = db

	rm, err := repomanager.New(c.DatabaseDriver)
	if err != nil {
		return err
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	us := services.NewUserService(db, rm)

	gr, err := groups.Open(c.GroupsFile, app.logger)
	if err != nil {
		return fmt.Errorf("group registry: %w", err)
	}

	store, err := newBlobStore(ctx, c, app.logger)
	if err != nil {
		return fmt.Errorf("blob store: %w", err)
	}
	engine := transfer.NewEngine(store, app.logger)

	pr := presence.New(func(n int) { metrics.UsersConnected.Set(float64(n)) })

	key, err := cryptox.GenerateKey()
	if err != nil {
		return fmt.Errorf("server key: %w", err)
	}

	app.server = newTCPServer(c, app.logger, key, us, gr, engine, pr)
	return nil
}

func newTCPServer(c *config.Config, l logging.Logger, key *rsa.PrivateKey, us tcp.UserService,
	gr tcp.GroupRegistry, ft tcp.FileTransfer, pr *presence.Registry) *tcp.Server {
	return tcp.NewServer(c.ListenAddr, l, key, us, gr, ft, pr, tcp.Options{
		ReadTimeout:       c.ReadTimeout,
		WriteTimeout:      c.WriteTimeout,
		MaxFileSize:       c.MaxFileSize,
		StrictGroupAccess: c.StrictGroupAccess,
	})
}

func newBlobStore(ctx context.Context, c *config.Config, l logging.Logger) (blobstore.Store, error) {
	switch c.BlobBackend {
	case config.BlobBackendFS:
		s, err := blobstore.NewFSStore(c.SaveRoot)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BlobBackendS3:
		s, err := blobstore.NewS3Store(ctx, blobstore.S3Config{
			User:         c.S3RootUser,
			Password:     c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			SpoolDir:     c.SaveRoot,
		}, l)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", c.BlobBackend)
	}
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "signal received", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startTCPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startMetricsServer(ctx context.Context, cancelFunc context.CancelFunc) {
	app.logger.Info(ctx, "Starting metrics server", "address", app.config.MetricsAddr)
	if err := metrics.Serve(ctx, app.config.MetricsAddr); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a signal arrives or a listener fails,
// then releases every resource.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startTCPServer(ctx, cancelFunc)
	}()

	if app.config.MetricsAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startMetricsServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	app.logger.Info(ctx, "App stopped")
	_ = app.Close()
}

// Close releases the database and the log file.
func (app *App) Close() error {
	var err error
	if app.db != nil {
		err = app.db.Close()
		app.db = nil
	}
	if app.logCloser != nil {
		_ = app.logCloser.Close()
		app.logCloser = nil
	}
	return err
}
