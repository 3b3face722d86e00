package config

import (
	"encoding/base64"
	"os"
	"testing"
	"time"
)

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	if val, ok := os.LookupEnv(key); ok {
		t.Cleanup(func() { os.Setenv(key, val) })
	}
	os.Unsetenv(key)
}

func TestLoad(t *testing.T) {
	t.Run("returns config with defaults when no env vars set", func(t *testing.T) {
		for _, key := range []string{"DB_DRIVER", "DB_HOST", "DB_PORT", "SERVER_PORT", "APP_ENV", "SESSION_COOKIE_NAME", "SESSION_SECRET", "KV_IN_MEMORY", "MAIL_MAX_ATTEMPTS", "MAIL_RETRY_DELAYS"} {
			unsetEnv(t, key)
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.DB.Driver != "postgres" {
			t.Errorf("expected DB.Driver 'postgres', got %s", cfg.DB.Driver)
		}
		if cfg.DB.Host != "localhost" {
			t.Errorf("expected DB.Host 'localhost', got %s", cfg.DB.Host)
		}
		if cfg.DB.Port != "5432" {
			t.Errorf("expected DB.Port '5432', got %s", cfg.DB.Port)
		}
		if cfg.Server.Port != "4000" {
			t.Errorf("expected Server.Port '4000', got %s", cfg.Server.Port)
		}
		if cfg.Session.CookieName != "qid" {
			t.Errorf("expected cookie name 'qid', got %s", cfg.Session.CookieName)
		}
		if cfg.KV.InMemory {
			t.Error("expected KV.InMemory false by default")
		}
		if cfg.Server.IsProduction() {
			t.Error("expected development environment by default")
		}
		if cfg.Mail.MaxAttempts != 3 {
			t.Errorf("expected Mail.MaxAttempts 3, got %d", cfg.Mail.MaxAttempts)
		}
		if len(cfg.Mail.RetryDelays) != 3 || cfg.Mail.RetryDelays[1] != 2*time.Minute {
			t.Errorf("unexpected Mail.RetryDelays %v", cfg.Mail.RetryDelays)
		}
	})

	t.Run("reads environment variables", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "sqlite")
		t.Setenv("DB_PATH", "/tmp/club.db")
		t.Setenv("SERVER_PORT", "9090")
		t.Setenv("APP_ENV", "production")
		t.Setenv("FRONTEND_URL", "https://club.example.com")
		t.Setenv("KV_IN_MEMORY", "true")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.DB.Driver != "sqlite" {
			t.Errorf("expected DB.Driver 'sqlite', got %s", cfg.DB.Driver)
		}
		if cfg.DB.Path != "/tmp/club.db" {
			t.Errorf("expected DB.Path '/tmp/club.db', got %s", cfg.DB.Path)
		}
		if cfg.Server.Port != "9090" {
			t.Errorf("expected Server.Port '9090', got %s", cfg.Server.Port)
		}
		if !cfg.Server.IsProduction() {
			t.Error("expected production environment")
		}
		if cfg.Server.FrontendURL != "https://club.example.com" {
			t.Errorf("unexpected FrontendURL %s", cfg.Server.FrontendURL)
		}
		if !cfg.KV.InMemory {
			t.Error("expected KV.InMemory true")
		}
	})

	t.Run("invalid boolean returns error", func(t *testing.T) {
		t.Setenv("KV_IN_MEMORY", "not-a-bool")

		if _, err := Load(); err == nil {
			t.Fatal("expected parse error for invalid boolean")
		}
	})
	t.Run("session secret must be a base64 AES key", func(t *testing.T) {
		cases := []struct {
			name    string
			secret  string
			wantErr bool
		}{
			{"empty disables encryption", "", false},
			{"plain text", "my-session-secret", true},
			{"wrong length", base64.StdEncoding.EncodeToString([]byte("short")), true},
			{"16 bytes", base64.StdEncoding.EncodeToString(make([]byte, 16)), false},
			{"32 bytes", base64.StdEncoding.EncodeToString(make([]byte, 32)), false},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				t.Setenv("SESSION_SECRET", tc.secret)
				_, err := Load()
				if tc.wantErr && err == nil {
					t.Fatalf("expected error for secret %q", tc.secret)
				}
				if !tc.wantErr && err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
			})
		}
	})
}
