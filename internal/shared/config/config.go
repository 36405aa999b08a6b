package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds application configuration.
type Config struct {
	Port            string   `env:"PORT" envDefault:"8080"`
	Env             string   `env:"ENV" envDefault:"dev"`
	CORSAllowOrigin []string `env:"CORS_ALLOW_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`

	// UploadRoot is the trusted root; nothing is ever written outside it.
	UploadRoot        string   `env:"UPLOAD_ROOT" envDefault:"./public"`
	UploadBasePath    string   `env:"UPLOAD_BASE_PATH" envDefault:"uploads"`
	SpoolDir          string   `env:"UPLOAD_SPOOL_DIR"`
	MaxUploadBytes    int64    `env:"UPLOAD_MAX_BYTES" envDefault:"5000000"`
	AllowedExtensions []string `env:"UPLOAD_ALLOWED_EXTENSIONS" envDefault:"jpg,png,gif,pdf" envSeparator:","`
	BlockedExtensions []string `env:"UPLOAD_BLOCKED_EXTENSIONS" envDefault:"php,phtml,exe,sh" envSeparator:","`
	SniffContent      bool     `env:"UPLOAD_SNIFF_CONTENT" envDefault:"true"`
	BatchPrecheck     bool     `env:"UPLOAD_BATCH_PRECHECK" envDefault:"false"`
	UploadRatePerSec  float64  `env:"UPLOAD_RATE_PER_SEC" envDefault:"2"`
	UploadRateBurst   int      `env:"UPLOAD_RATE_BURST" envDefault:"10"`

	DatabaseURL  string `env:"DATABASE_URL"`
	ReplicaStore string `env:"REPLICA_STORE" envDefault:"none"`
	AWSRegion    string `env:"AWS_REGION"`
	S3Bucket     string `env:"S3_BUCKET"`
	S3Prefix     string `env:"S3_PREFIX"`
	SSEKMSKeyID  string `env:"SSE_KMS_KEY_ID"`

	EventsQueueURL string `env:"UPLOAD_EVENTS_QUEUE_URL"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.Env = normalizeEnv(cfg.Env)
	cfg.ReplicaStore = normalizeStoreType(cfg.ReplicaStore)
	cfg.CORSAllowOrigin = trimAll(cfg.CORSAllowOrigin)
	cfg.AllowedExtensions = trimAll(cfg.AllowedExtensions)
	cfg.BlockedExtensions = trimAll(cfg.BlockedExtensions)

	if cfg.Env == "production" && cfg.DatabaseURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}
	return cfg, nil
}

func trimAll(raw []string) []string {
	var out []string
	for _, p := range raw {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "none"
	}
}
