package config

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	DB      DBConfig
	Server  ServerConfig
	Session SessionConfig
	KV      KVConfig
	Mail    MailConfig
}

type DBConfig struct {
	Driver   string `env:"DB_DRIVER" envDefault:"postgres"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"bookclub"`
	Password string `env:"DB_PASSWORD" envDefault:"bookclub_secret"`
	Name     string `env:"DB_NAME" envDefault:"bookclub"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	// Path is used by the sqlite driver only.
	Path string `env:"DB_PATH" envDefault:"bookclub.db"`
}

type ServerConfig struct {
	Port        string `env:"SERVER_PORT" envDefault:"4000"`
	Env         string `env:"APP_ENV" envDefault:"development"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
}

type SessionConfig struct {
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"qid"`
	// Secret is a base64 encoded 16, 24 or 32 byte key used to encrypt the
	// session cookie.
	Secret string `env:"SESSION_SECRET"`
}

type KVConfig struct {
	Path     string `env:"KV_PATH" envDefault:"./data/kv"`
	InMemory bool   `env:"KV_IN_MEMORY" envDefault:"false"`
}

type MailConfig struct {
	ResetURL        string          `env:"RESET_PASSWORD_URL" envDefault:"http://localhost:3000/auth/forgot/change-password/"`
	QueueBufferSize int             `env:"MAIL_QUEUE_BUFFER" envDefault:"100"`
	MaxAttempts     int             `env:"MAIL_MAX_ATTEMPTS" envDefault:"3"`
	RetryDelays     []time.Duration `env:"MAIL_RETRY_DELAYS" envDefault:"30s,2m,10m" envSeparator:","`
}

// IsProduction reports whether cookies should be marked secure.
func (s ServerConfig) IsProduction() bool {
	return s.Env != "development"
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Session.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s SessionConfig) validate() error {
	if s.Secret == "" {
		return nil
	}
	key, err := base64.StdEncoding.DecodeString(s.Secret)
	if err != nil {
		return fmt.Errorf("SESSION_SECRET must be base64 encoded: %w", err)
	}
	switch len(key) {
	case 16, 24, 32:
		return nil
	}
	return fmt.Errorf("SESSION_SECRET must decode to 16, 24 or 32 bytes, got %d", len(key))
}
