package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/groupshare/internal/server/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	c := &config.Config{}
	c.LoadDefaults()
	c.ListenAddr = "127.0.0.1:0"
	c.SaveRoot = filepath.Join(dir, "Groups")
	c.GroupsFile = filepath.Join(dir, "groups.json")
	c.DatabaseDSN = filepath.Join(dir, "groupshare.db")
	c.LogLevel = "error"
	return c
}

func TestNewApp_RunStopsOnCancel(t *testing.T) {
	c := testConfig(t)

	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop after cancel")
	}
	assert.Nil(t, app.db, "Run releases the database")
}

func TestNewApp_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
	}{
		{"unknown driver", func(c *config.Config) { c.DatabaseDriver = "oracle" }},
		{"unknown blob backend", func(c *config.Config) { c.BlobBackend = "tape" }},
		{"groups file is a directory", func(c *config.Config) { c.GroupsFile = t.TempDir() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testConfig(t)
			tt.mutate(c)

			_, err := NewApp(context.Background(), c)
			require.Error(t, err)
		})
	}
}

func TestNewBlobStore_FS(t *testing.T) {
	c := testConfig(t)
	s, err := newBlobStore(context.Background(), c, nil)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.DirExists(t, c.SaveRoot)
}
