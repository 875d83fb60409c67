package config

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`

	// SchemaPath points to the YAML schema; empty uses the embedded default schema.
	SchemaPath string `env:"SCHEMA_PATH"`

	// EncryptionKey is 64 hex characters (32 bytes). Empty stores encrypted values unencrypted.
	EncryptionKey string `env:"ENCRYPTION_KEY"`
	BcryptCost    int    `env:"BCRYPT_COST" default:"10"`

	FileUploadsEnabled bool   `env:"FILE_UPLOADS_ENABLED" default:"true"`
	FileStorageDir     string `env:"FILE_STORAGE_DIR" default:"./var/configuration"`
	FileBaseURL        string `env:"FILE_BASE_URL" default:"/files"`

	CacheKey    string        `env:"CACHE_KEY" default:"scopeconf:resolved_values"`
	SnapshotTTL time.Duration `env:"SNAPSHOT_TTL" default:"24h"`
	MemoTTL     time.Duration `env:"MEMO_TTL" default:"30s"`

	// OrphanCheckInterval of 0 disables the periodic orphan check.
	OrphanCheckInterval time.Duration `env:"ORPHAN_CHECK_INTERVAL" default:"1h"`
	OrphanPrune         bool          `env:"ORPHAN_PRUNE" default:"false"`

	APIToken       string  `env:"API_TOKEN"`
	WriteRateLimit float64 `env:"WRITE_RATE_LIMIT" default:"5"`
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.IsProduction() {
		required := []struct{ name, value string }{
			{"DATABASE_URL", cfg.DatabaseURL},
			{"REDIS_URL", cfg.RedisURL},
			{"ENCRYPTION_KEY", cfg.EncryptionKey},
		}
		for _, r := range required {
			if r.value == "" {
				return fmt.Errorf("%s is required", r.name)
			}
		}

		if err := validateSSLMode(cfg.DatabaseURL); err != nil {
			return err
		}
	}

	if cfg.EncryptionKey != "" {
		keyBytes, err := hex.DecodeString(cfg.EncryptionKey)
		if err != nil {
			return fmt.Errorf("ENCRYPTION_KEY must be valid hex: %w", err)
		}
		if len(keyBytes) != 32 {
			return fmt.Errorf("ENCRYPTION_KEY must be exactly 64 hex characters (32 bytes), got %d bytes", len(keyBytes))
		}
	}

	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	if cfg.WriteRateLimit < 0 {
		return fmt.Errorf("WRITE_RATE_LIMIT must not be negative")
	}
	if cfg.SnapshotTTL < 0 || cfg.MemoTTL < 0 {
		return fmt.Errorf("SNAPSHOT_TTL and MEMO_TTL must not be negative")
	}

	return nil
}

func validateSSLMode(databaseURL string) error {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return fmt.Errorf("DATABASE_URL is not a valid URL: %w", err)
	}

	mode := strings.ToLower(u.Query().Get("sslmode"))
	if mode == "disable" || mode == "allow" {
		return fmt.Errorf("DATABASE_URL uses sslmode=%s which is not allowed in production", mode)
	}
	return nil
}
