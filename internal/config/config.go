// Package config reads the server configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string `validate:"required,numeric"`
	DBPath      string `validate:"required_if=StoreDriver sqlite"`
	StoreDriver string `validate:"oneof=sqlite postgres remote"`
	DatabaseURL string `validate:"required_if=StoreDriver postgres"`
	RemoteURL   string `validate:"required_if=StoreDriver remote"`

	ProofStore string `validate:"oneof=local s3"`
	ProofDir   string `validate:"required_if=ProofStore local"`
	S3Bucket   string `validate:"required_if=ProofStore s3"`
	S3Prefix   string
	AWSRegion  string

	// ProofTypes is the raw PROOF_TYPES value; empty means the default policy.
	ProofTypes  string
	MaxUploadMB int64 `validate:"min=1,max=100"`

	// SessionSecret signs the session cookie.
	SessionSecret string        `validate:"required,min=16"`
	SessionTTL    time.Duration `validate:"gt=0"`

	LogLevel  string `validate:"omitempty,oneof=debug info warn warning error"`
	LogFormat string `validate:"omitempty,oneof=text json"`
}

var validate = validator.New()

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("error loading .env file", "err", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup, applying defaults for unset keys.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	maxMB, err := strconv.ParseInt(get("MAX_UPLOAD_MB", "10"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("MAX_UPLOAD_MB: %w", err)
	}

	ttl, err := time.ParseDuration(get("SESSION_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("SESSION_TTL: %w", err)
	}

	c := &Config{
		Port:        get("PORT", "8080"),
		DBPath:      get("DB_PATH", "billed.db"),
		StoreDriver: strings.ToLower(get("STORE_DRIVER", "sqlite")),
		DatabaseURL: get("DATABASE_URL", ""),
		RemoteURL:   get("REMOTE_API_URL", ""),
		ProofStore:  strings.ToLower(get("PROOF_STORE", "local")),
		ProofDir:    get("PROOF_DIR", "uploads"),
		S3Bucket:    get("S3_BUCKET", ""),
		S3Prefix:    get("S3_PREFIX", ""),
		AWSRegion:   get("AWS_REGION", ""),
		ProofTypes:  get("PROOF_TYPES", ""),
		MaxUploadMB: maxMB,
		LogLevel:    strings.ToLower(get("LOG_LEVEL", "")),
		LogFormat:   strings.ToLower(get("LOG_FORMAT", "")),

		SessionSecret: get("SESSION_SECRET", ""),
		SessionTTL:    ttl,
	}
	if err := validate.Struct(c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if c.RemoteURL != "" {
		if err := validate.Var(c.RemoteURL, "url"); err != nil {
			return nil, fmt.Errorf("invalid configuration: REMOTE_API_URL: %w", err)
		}
	}
	return c, nil
}

// Addr is the listen address for http.Server.
func (c *Config) Addr() string { return ":" + c.Port }

// MaxUploadBytes bounds a NewBill request body.
func (c *Config) MaxUploadBytes() int64 { return c.MaxUploadMB << 20 }
