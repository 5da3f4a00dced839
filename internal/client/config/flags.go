package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/groupshare/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   address and port of the server (default from Config)
//	-d string   download directory (default from Config)
//	-t int      dial timeout in seconds (default from Config)
//	-i int      read/write timeout in seconds (default from Config)
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-t", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.DownloadDir, "d", cfg.DownloadDir, "download directory")
	dialTimeout := fs.Int("t", int(cfg.DialTimeout.Seconds()), "dial timeout (in seconds)")
	ioTimeout := fs.Int("i", int(cfg.IOTimeout.Seconds()), "read/write timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.DialTimeout = time.Duration(*dialTimeout) * time.Second
	cfg.IOTimeout = time.Duration(*ioTimeout) * time.Second
}
