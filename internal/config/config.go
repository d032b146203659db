package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	Addr        string
	RedisAddr   string
	PostgresURL string
	JWTSecret   string
	TokenTTL    time.Duration
	LogLevel    string

	// StreamIdleTimeout bounds how long an event stream may sit without
	// receiving anything before the server drops it.
	StreamIdleTimeout time.Duration
}

func Load() (Config, error) {
	cfg := Config{
		Addr:              getenv("ADDR", ":8080"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		PostgresURL:       os.Getenv("POSTGRES_URL"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		TokenTTL:          24 * time.Hour,
		StreamIdleTimeout: 5 * time.Minute,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}

	if v := os.Getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parsing TOKEN_TTL: %w", err)
		}
		cfg.TokenTTL = d
	}

	if v := os.Getenv("STREAM_IDLE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parsing STREAM_IDLE_TIMEOUT: %w", err)
		}
		cfg.StreamIdleTimeout = d
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
