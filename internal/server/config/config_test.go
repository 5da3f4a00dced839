package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "127.0.0.1:65432", c.ListenAddr)
	assert.Equal(t, "Groups", c.SaveRoot)
	assert.Equal(t, "groups.json", c.GroupsFile)
	assert.Equal(t, "sqlite", c.DatabaseDriver)
	assert.Equal(t, "groupshare.db", c.DatabaseDSN)
	assert.Equal(t, 5*time.Minute, c.ReadTimeout)
	assert.Equal(t, 30*time.Second, c.WriteTimeout)
	assert.Equal(t, int64(1<<30), c.MaxFileSize)
	assert.False(t, c.StrictGroupAccess)
	assert.Equal(t, BlobBackendFS, c.BlobBackend)
	assert.Equal(t, "admin", c.S3RootUser)
	assert.Equal(t, "secretpassword", c.S3RootPassword)
	assert.Equal(t, "groupshare", c.S3Bucket)
	assert.Equal(t, "us-east-1", c.S3Region)
	assert.Equal(t, "http://127.0.0.1:9000/", c.S3BaseEndpoint)
	assert.Empty(t, c.MetricsAddr)
	assert.Equal(t, "info", c.LogLevel)
	assert.Empty(t, c.LogFile)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}
	t.Setenv("GROUPSHARE_CONFIG", "")

	c := LoadConfig()

	require.NotNil(t, c, "LoadConfig must not return nil")
	assert.Equal(t, "127.0.0.1:65432", c.ListenAddr)
	assert.Equal(t, "groupshare.db", c.DatabaseDSN)
	assert.Equal(t, 5*time.Minute, c.ReadTimeout)
}

func TestLoadConfig_Precedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, "", "", map[string]any{
		"listen_addr": "json:1",
		"save_root":   "json-root",
	})

	t.Setenv("GROUPSHARE_CONFIG", "")
	t.Setenv("GROUPSHARE_LISTEN_ADDR", "env:1")
	t.Setenv("GROUPSHARE_SAVE_ROOT", "env-root")
	t.Setenv("GROUPSHARE_GROUPS_FILE", "env-groups.json")

	os.Args = []string{"testbin", "-c", path, "-a", "flag:1"}

	c := LoadConfig()

	assert.Equal(t, "flag:1", c.ListenAddr, "flags win over json and env")
	assert.Equal(t, "json-root", c.SaveRoot, "json wins over env")
	assert.Equal(t, "env-groups.json", c.GroupsFile, "env wins over defaults")
}
