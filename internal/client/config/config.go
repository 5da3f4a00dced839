package config

import "time"

// Config holds runtime settings for the groupshare CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the groupshare server.
//   - DownloadDir: directory that downloaded groups are written into, one
//     subdirectory per group.
//   - DialTimeout: how long Connect waits for the TCP connection.
//   - IOTimeout: per-read and per-write deadline once connected.
type Config struct {
	ServerEndpointAddr string
	DownloadDir        string
	DialTimeout        time.Duration
	IOTimeout          time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:65432"
	c.DownloadDir = "Downloads"
	c.DialTimeout = 5 * time.Second
	c.IOTimeout = 5 * time.Minute
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
