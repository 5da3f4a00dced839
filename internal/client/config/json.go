package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/groupshare/internal/flagx"
	"github.com/dmitrijs2005/groupshare/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr"`
	DownloadDir        string         `json:"download_dir"`
	DialTimeout        timex.Duration `json:"dial_timeout"`
	IOTimeout          timex.Duration `json:"io_timeout"`
}

// parseJson overlays Config with values loaded from a JSON file. Keys that
// are absent keep their current value. It panics on read or unmarshal
// errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.DownloadDir != "" {
		cfg.DownloadDir = jc.DownloadDir
	}
	if jc.DialTimeout.Duration > 0 {
		cfg.DialTimeout = jc.DialTimeout.Duration
	}
	if jc.IOTimeout.Duration > 0 {
		cfg.IOTimeout = jc.IOTimeout.Duration
	}
}
