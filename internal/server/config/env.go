package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// envFile is loaded, if present, before the environment is read. Variables
// already set in the environment win over the file.
var envFile = ".env"

// parseEnv overlays GROUPSHARE_* environment variables.
func parseEnv(cfg *Config) {
	_ = godotenv.Load(envFile)

	cfg.ListenAddr = getEnv("GROUPSHARE_LISTEN_ADDR", cfg.ListenAddr)
	cfg.SaveRoot = getEnv("GROUPSHARE_SAVE_ROOT", cfg.SaveRoot)
	cfg.GroupsFile = getEnv("GROUPSHARE_GROUPS_FILE", cfg.GroupsFile)
	cfg.DatabaseDriver = getEnv("GROUPSHARE_DATABASE_DRIVER", cfg.DatabaseDriver)
	cfg.DatabaseDSN = getEnv("GROUPSHARE_DATABASE_DSN", cfg.DatabaseDSN)
	cfg.ReadTimeout = getEnvDuration("GROUPSHARE_READ_TIMEOUT", cfg.ReadTimeout)
	cfg.WriteTimeout = getEnvDuration("GROUPSHARE_WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.MaxFileSize = getEnvInt64("GROUPSHARE_MAX_FILE_SIZE", cfg.MaxFileSize)
	cfg.StrictGroupAccess = getEnvBool("GROUPSHARE_STRICT_GROUP_ACCESS", cfg.StrictGroupAccess)
	cfg.BlobBackend = getEnv("GROUPSHARE_BLOB_BACKEND", cfg.BlobBackend)
	cfg.S3RootUser = getEnv("GROUPSHARE_S3_ROOT_USER", cfg.S3RootUser)
	cfg.S3RootPassword = getEnv("GROUPSHARE_S3_ROOT_PASSWORD", cfg.S3RootPassword)
	cfg.S3Bucket = getEnv("GROUPSHARE_S3_BUCKET", cfg.S3Bucket)
	cfg.S3Region = getEnv("GROUPSHARE_S3_REGION", cfg.S3Region)
	cfg.S3BaseEndpoint = getEnv("GROUPSHARE_S3_BASE_ENDPOINT", cfg.S3BaseEndpoint)
	cfg.MetricsAddr = getEnv("GROUPSHARE_METRICS_ADDR", cfg.MetricsAddr)
	cfg.LogLevel = getEnv("GROUPSHARE_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getEnv("GROUPSHARE_LOG_FILE", cfg.LogFile)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
