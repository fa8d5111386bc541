// Package config loads application configuration from the environment into
// one explicit struct that is constructed in main and passed to every
// component that needs it.
package config

import (
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
)

// StorageBackend values accepted for STORAGE_BACKEND.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// S3 holds the settings for the S3-compatible storage backend. Endpoint is
// optional and allows pointing at R2 or another S3-compatible store.
type S3 struct {
	Bucket          string `env:"S3_BUCKET,default="`
	Region          string `env:"S3_REGION,default=auto"`
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID,default="`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY,default="`
	Endpoint        string `env:"S3_ENDPOINT,default="`
}

// Config is the full application configuration.
type Config struct {
	Addr           string        `env:"ADDR,default=:8000"`
	DatabaseURL    string        `env:"DATABASE_URL,required"`
	SecretKey      string        `env:"SECRET_KEY,required"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL,default=30m"`
	UploadDir      string        `env:"UPLOAD_DIR,default=data/uploads"`
	MaxUploadSize  int64         `env:"MAX_UPLOAD_SIZE,default=524288000"`
	StorageBackend string        `env:"STORAGE_BACKEND,default=local"`
	LogLevel       string        `env:"LOG_LEVEL,default=info"`
	S3             S3
}

// Load decodes the configuration from environment variables and validates
// cross-field constraints.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	switch cfg.StorageBackend {
	case StorageLocal:
	case StorageS3:
		if cfg.S3.Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required when STORAGE_BACKEND=s3")
		}
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
	if cfg.MaxUploadSize <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
	}
	return cfg, nil
}

// String masks secrets so the config can be logged at startup.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Addr: %s, Storage: %s, UploadDir: %s, TokenTTL: %s, Secrets: ***}",
		c.Addr, c.StorageBackend, c.UploadDir, c.AccessTokenTTL)
}
