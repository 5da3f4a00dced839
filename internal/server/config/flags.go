package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/groupshare/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   listen address (e.g. "127.0.0.1:65432")
//	-r string   save root directory
//	-g string   groups file
//	-D string   database driver (sqlite or pgx)
//	-d string   database DSN
//	-t int      read timeout, seconds
//	-w int      write timeout, seconds
//	-m int      max upload size, bytes
//	-S bool     strict group access
//	-B string   blob backend (fs or s3)
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-R string   S3 region
//	-e string   S3 base endpoint
//	-M string   metrics address
//	-l string   log level
//	-L string   log file
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-r", "-g", "-D", "-d", "-t", "-w", "-m", "-S", "-B",
		"-u", "-p", "-b", "-R", "-e", "-M", "-l", "-L",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.ListenAddr, "a", config.ListenAddr, "address and port to run server")
	fs.StringVar(&config.SaveRoot, "r", config.SaveRoot, "root directory of group files")
	fs.StringVar(&config.GroupsFile, "g", config.GroupsFile, "group registry file")
	fs.StringVar(&config.DatabaseDriver, "D", config.DatabaseDriver, "database driver (sqlite or pgx)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")

	readTimeout := fs.Int("t", int(config.ReadTimeout.Seconds()), "read timeout (in seconds)")
	writeTimeout := fs.Int("w", int(config.WriteTimeout.Seconds()), "write timeout (in seconds)")

	fs.Int64Var(&config.MaxFileSize, "m", config.MaxFileSize, "max upload size (in bytes)")
	fs.BoolVar(&config.StrictGroupAccess, "S", config.StrictGroupAccess, "require group password per session")
	fs.StringVar(&config.BlobBackend, "B", config.BlobBackend, "blob backend (fs or s3)")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "R", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.MetricsAddr, "M", config.MetricsAddr, "metrics address (empty disables)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFile, "L", config.LogFile, "log file (enables rotation)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.ReadTimeout = time.Duration(*readTimeout) * time.Second
	config.WriteTimeout = time.Duration(*writeTimeout) * time.Second
}
