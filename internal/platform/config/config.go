package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	EnableDBCheck  bool
	MigrationsPath string

	JWTSecret string
	JWTIssuer string

	// Idempotency store; empty RedisURL disables Idempotency-Key handling.
	RedisURL          string
	IdempotencyTTL    time.Duration
	IdempotencySecret string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxLeaseTimeout time.Duration
	// OutboxFinishTimeout bounds how long shutdown waits for a claimed batch.
	OutboxFinishTimeout time.Duration

	PosthogAPIKey   string
	PosthogEndpoint string

	// RateLimit uses the ulule formatted rate syntax, e.g. "100-M".
	RateLimit          string
	CORSAllowedOrigins []string
	ReceiptPrefix      string
}

const insecureJWTSecret = "a-very-secret-key-should-be-longer-and-random"

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("JWT_SECRET", insecureJWTSecret)
	viper.SetDefault("JWT_ISSUER", "")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("IDEMPOTENCY_TTL", "24h")
	viper.SetDefault("IDEMPOTENCY_SECRET", "")
	viper.SetDefault("OUTBOX_POLL_INTERVAL", "2s")
	viper.SetDefault("OUTBOX_BATCH_SIZE", 50)
	viper.SetDefault("OUTBOX_LEASE_TIMEOUT", "5m")
	viper.SetDefault("OUTBOX_FINISH_TIMEOUT", "30s")
	viper.SetDefault("POSTHOG_API_KEY", "")
	viper.SetDefault("POSTHOG_ENDPOINT", "https://eu.i.posthog.com")
	viper.SetDefault("RATE_LIMIT", "300-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("RECEIPT_PREFIX", "RCPT")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "" || cfg.JWTSecret == insecureJWTSecret {
		cfg.JWTSecret = insecureJWTSecret // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")
	cfg.MigrationsPath = viper.GetString("MIGRATIONS_PATH")

	cfg.RedisURL = viper.GetString("REDIS_URL")
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set. Idempotency-Key headers will be ignored.")
	}
	cfg.IdempotencyTTL = durationOrDefault("IDEMPOTENCY_TTL", 24*time.Hour)
	cfg.IdempotencySecret = viper.GetString("IDEMPOTENCY_SECRET")
	if cfg.IdempotencySecret == "" {
		cfg.IdempotencySecret = cfg.JWTSecret
	}

	cfg.OutboxPollInterval = durationOrDefault("OUTBOX_POLL_INTERVAL", 2*time.Second)
	cfg.OutboxBatchSize = viper.GetInt("OUTBOX_BATCH_SIZE")
	if cfg.OutboxBatchSize <= 0 {
		cfg.OutboxBatchSize = 50
		log.Printf("Warning: Invalid OUTBOX_BATCH_SIZE. Defaulting to %d.\n", cfg.OutboxBatchSize)
	}
	cfg.OutboxLeaseTimeout = durationOrDefault("OUTBOX_LEASE_TIMEOUT", 5*time.Minute)
	cfg.OutboxFinishTimeout = durationOrDefault("OUTBOX_FINISH_TIMEOUT", 30*time.Second)

	cfg.PosthogAPIKey = viper.GetString("POSTHOG_API_KEY")
	cfg.PosthogEndpoint = viper.GetString("POSTHOG_ENDPOINT")

	cfg.RateLimit = viper.GetString("RATE_LIMIT")
	cfg.CORSAllowedOrigins = splitList(viper.GetString("CORS_ALLOWED_ORIGINS"))
	cfg.ReceiptPrefix = viper.GetString("RECEIPT_PREFIX")

	return cfg, nil
}

func durationOrDefault(key string, def time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, def)
		}
		return def
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
