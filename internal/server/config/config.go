// Package config handles configuration for the server: defaults, a .env
// file and GROUPSHARE_* environment variables, an optional JSON file and
// command-line flags, applied in that order.
package config

import "time"

// Blob backends.
const (
	BlobBackendFS = "fs"
	BlobBackendS3 = "s3"
)

// Config holds runtime settings for the groupshare server.
//
// Fields:
//   - ListenAddr: TCP address the file-sharing protocol is served on.
//   - SaveRoot: root directory of group files for the fs backend, and the
//     spool directory for the s3 backend.
//   - GroupsFile: JSON file of the group registry.
//   - DatabaseDriver / DatabaseDSN: credential store, "sqlite" or "pgx".
//   - ReadTimeout / WriteTimeout: per-read and per-write connection deadlines.
//   - MaxFileSize: largest upload accepted, in bytes.
//   - StrictGroupAccess: require a successful group password check in the
//     same session before touching that group's files.
//   - BlobBackend: "fs" or "s3".
//   - S3RootUser / S3RootPassword / S3Bucket / S3Region / S3BaseEndpoint:
//     object storage settings of the s3 backend.
//   - MetricsAddr: address of the Prometheus endpoint; empty disables it.
//   - LogLevel / LogFile: logging options; LogFile enables rotation.
type Config struct {
	ListenAddr        string
	SaveRoot          string
	GroupsFile        string
	DatabaseDriver    string
	DatabaseDSN       string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	MaxFileSize       int64
	StrictGroupAccess bool
	BlobBackend       string
	S3RootUser        string
	S3RootPassword    string
	S3Bucket          string
	S3Region          string
	S3BaseEndpoint    string
	MetricsAddr       string
	LogLevel          string
	LogFile           string
}

// LoadDefaults populates Config with development defaults.
// NOTE: the S3 credentials are placeholders and must be overridden.
func (c *Config) LoadDefaults() {
	c.ListenAddr = "127.0.0.1:65432"
	c.SaveRoot = "Groups"
	c.GroupsFile = "groups.json"
	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = "groupshare.db"
	c.ReadTimeout = 5 * time.Minute
	c.WriteTimeout = 30 * time.Second
	c.MaxFileSize = 1 << 30
	c.StrictGroupAccess = false
	c.BlobBackend = BlobBackendFS
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "groupshare"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.MetricsAddr = ""
	c.LogLevel = "info"
	c.LogFile = ""
}

// LoadConfig builds a Config from defaults and then overlays the
// environment, the JSON file and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
