// Package config loads the process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every setting the server needs. It is constructed once at
// startup and passed by injection; no component reads the environment later.
type Config struct {
	// Addr is the listen address of the HTTP server.
	Addr string `env:"ADDR" envDefault:":8080"`

	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `env:"DATABASE_URL,required"`

	// JWTSecret signs session tokens.
	JWTSecret string `env:"JWT_SECRET,required"`

	// SessionTokenTTL is the validity window of issued session tokens.
	SessionTokenTTL time.Duration `env:"SESSION_TOKEN_TTL" envDefault:"72h"`

	// WebAppURL is the outward-facing base URL embedded in activation links.
	WebAppURL string `env:"WEBAPP_URL,required"`

	SMTPHost     string `env:"SMTP_HOST,required"`
	SMTPPort     int    `env:"SMTP_PORT,required"`
	SMTPLogin    string `env:"SMTP_LOGIN"`
	SMTPPassword string `env:"SMTP_PASSWORD"`

	// MailFrom is the sender address of outgoing mail.
	MailFrom string `env:"MAIL_FROM" envDefault:"hello@souvenir.app"`

	RedisHost     string `env:"REDIS_HOST"`
	RedisPort     string `env:"REDIS_PORT"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	// LoginRateLimit is the allowed number of requests per client IP per
	// minute on the public auth endpoints.
	LoginRateLimit int `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
}

// RedisAddr returns the Redis address, or "" when Redis is not configured.
func (c *Config) RedisAddr() string {
	if c.RedisHost == "" {
		return ""
	}
	return c.RedisHost + ":" + c.RedisPort
}

// Load reads the configuration, overlaying a local .env file outside prod.
// Missing required values fail here, at startup, not at first request.
func Load() (*Config, error) {
	if os.Getenv("ENV") != "prod" {
		// A missing .env file is fine; the real environment still applies.
		_ = godotenv.Load()
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
