package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Server captures process-level configuration. Values come from the
// environment so main stays lean; a local .env file is honored when present.
type Server struct {
	Addr          string
	Environment   string
	DatabaseURL   string
	JWTSigningKey string
	TokenTTL      time.Duration
	SeedUsers     bool
}

const (
	defaultAddr     = ":8080"
	defaultTokenTTL = 15 * time.Minute
)

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	// Best-effort: absence of .env is the normal production case.
	_ = godotenv.Load()

	cfg := Server{
		Addr:          envOr("AEGIS_ADDR", defaultAddr),
		Environment:   envOr("AEGIS_ENV", "development"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		TokenTTL:      defaultTokenTTL,
		SeedUsers:     os.Getenv("AEGIS_SEED_USERS") != "false",
	}

	if raw := os.Getenv("TOKEN_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.TokenTTL = d
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
