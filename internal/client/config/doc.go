// Package config loads runtime configuration for the groupshare CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via -c or -config, or
//     $GROUPSHARE_CONFIG.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the groupshare server
//	-d string   download directory
//	-t int      dial timeout (seconds)
//	-i int      read/write timeout (seconds)
//
// # JSON schema
//
// Timeouts use timex.Duration, so values can be either strings like "5s"
// or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:65432",
//	  "download_dir": "Downloads",
//	  "dial_timeout": "5s",
//	  "io_timeout": "5m"
//	}
package config
