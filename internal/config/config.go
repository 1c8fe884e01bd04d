// Package config provides configuration loading and management for the
// cliphaven service. It handles environment variable parsing and provides
// default values for all settings.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// init loads environment variables from .env files during package initialization.
// In development, it loads .env and .env.local files if they exist.
// In production, it relies solely on system environment variables.
// godotenv.Load() does not override already-set environment variables,
// preserving OS env > .env precedence.
func init() {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env file: %v\n", err)
		}
	}

	// .env.local holds local overrides and is gitignored
	if _, err := os.Stat(".env.local"); err == nil {
		if err := godotenv.Load(".env.local"); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env.local file: %v\n", err)
		}
	}
}

// Config captures environment-driven settings for the cliphaven service.
type Config struct {
	Env          string // Deployment environment (dev, staging, prod)
	Port         string // HTTP server port
	StoreBackend string // Slot store backend: memory, file, postgres, redis
	StorePath    string // Path for the file backend
	DatabaseDSN  string // PostgreSQL connection string (postgres backend)
	RedisURL     string // Redis URL (redis backend)
	NATSURL      string // NATS server URL for the change mirror
	GenURL       string // Generative content service URL (optional)

	// Session token settings
	JWTSecret   string        // HMAC secret for session tokens
	JWTIssuer   string        // Issuer claim for session tokens
	JWTAudience string        // Audience claim for session tokens
	SessionTTL  time.Duration // Session token lifetime

	// CORS configuration
	CORSAllowedOrigins []string // Allowed origins for CORS (empty means deny all)
}

// Default configuration values used when environment variables are not set
const (
	defaultPort         = "8080"
	defaultEnv          = "dev"
	defaultStoreBackend = "memory"
	defaultStorePath    = "cliphaven-store.json"
	defaultSessionTTL   = 24 * time.Hour
)

// Load reads environment variables and produces a Config suitable for wiring
// the service. It returns an error when required parameters are missing or
// the backend selection is unusable.
func Load() (Config, error) {
	cfg := Config{}

	if env, exists := os.LookupEnv("CH_ENV"); exists {
		cfg.Env = env
	} else {
		cfg.Env = defaultEnv
	}

	if port, exists := os.LookupEnv("CH_PORT"); exists {
		cfg.Port = port
	} else {
		cfg.Port = defaultPort
	}

	if backend, exists := os.LookupEnv("CH_STORE_BACKEND"); exists {
		cfg.StoreBackend = backend
	} else {
		cfg.StoreBackend = defaultStoreBackend
	}

	if path, exists := os.LookupEnv("CH_STORE_PATH"); exists {
		cfg.StorePath = path
	} else {
		cfg.StorePath = defaultStorePath
	}

	if dsn, exists := os.LookupEnv("CH_DB_DSN"); exists {
		cfg.DatabaseDSN = dsn
	}

	if redisURL, exists := os.LookupEnv("CH_REDIS_URL"); exists {
		cfg.RedisURL = redisURL
	}

	if natsURL, exists := os.LookupEnv("CH_NATS_URL"); exists {
		cfg.NATSURL = natsURL
	}

	if genURL, exists := os.LookupEnv("CH_GEN_URL"); exists {
		cfg.GenURL = genURL
	}

	if secret, exists := os.LookupEnv("CH_JWT_SECRET"); exists {
		cfg.JWTSecret = secret
	}

	if issuer, exists := os.LookupEnv("CH_JWT_ISSUER"); exists {
		cfg.JWTIssuer = issuer
	}

	if audience, exists := os.LookupEnv("CH_JWT_AUDIENCE"); exists {
		cfg.JWTAudience = audience
	}

	if ttl, exists := os.LookupEnv("CH_SESSION_TTL"); exists {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return cfg, fmt.Errorf("invalid CH_SESSION_TTL: %w", err)
		}
		cfg.SessionTTL = d
	} else {
		cfg.SessionTTL = defaultSessionTTL
	}

	if corsOrigins, exists := os.LookupEnv("CH_CORS_ALLOWED_ORIGINS"); exists {
		cfg.CORSAllowedOrigins = strings.Split(corsOrigins, ",")
		for i, origin := range cfg.CORSAllowedOrigins {
			cfg.CORSAllowedOrigins[i] = strings.TrimSpace(origin)
		}
	}

	switch cfg.StoreBackend {
	case "memory", "file":
	case "postgres":
		if cfg.DatabaseDSN == "" {
			return cfg, fmt.Errorf("CH_DB_DSN is required for the postgres backend")
		}
	case "redis":
		if cfg.RedisURL == "" {
			return cfg, fmt.Errorf("CH_REDIS_URL is required for the redis backend")
		}
	default:
		return cfg, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	if cfg.JWTSecret == "" {
		return cfg, fmt.Errorf("CH_JWT_SECRET is required")
	}

	if cfg.JWTIssuer == "" {
		return cfg, fmt.Errorf("CH_JWT_ISSUER is required")
	}

	if cfg.JWTAudience == "" {
		return cfg, fmt.Errorf("CH_JWT_AUDIENCE is required")
	}

	return cfg, nil
}
