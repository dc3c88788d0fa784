package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		App:      AppConfig{Name: "cloudtodo", Environment: "development"},
		Server:   ServerConfig{Port: 8080},
		Store:    StoreConfig{Driver: "memory"},
		Telegram: TelegramConfig{APIURL: "https://api.telegram.org", WebhookPath: "/todo/webhook"},
		Logger:   LoggerConfig{Level: "info", Format: "json"},
		Security: SecurityConfig{RateLimitRequests: 30, RateLimitWindow: time.Minute},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown store", func(c *Config) { c.Store.Driver = "mongo" }, "Driver"},
		{"bad webhook path", func(c *Config) { c.Telegram.WebhookPath = "todo" }, "WebhookPath"},
		{"bad log format", func(c *Config) { c.Logger.Format = "xml" }, "Format"},
		{"production needs secret", func(c *Config) {
			c.App.Environment = "production"
			c.Store.Driver = "redis"
		}, "secret token"},
		{"production needs durable store", func(c *Config) {
			c.App.Environment = "production"
			c.Telegram.SecretToken = "s"
		}, "memory store"},
		{"admin needs long jwt secret", func(c *Config) {
			c.Admin.PasswordHash = "$2a$10$hash"
			c.JWT.Secret = "short"
		}, "JWT secret"},
		{"postgres needs host", func(c *Config) { c.Store.Driver = "postgres" }, "database host"},
		{"postgres configured", func(c *Config) {
			c.Store.Driver = "postgres"
			c.Database.Host = "localhost"
			c.Database.Name = "cloudtodo"
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/todo.db")
	t.Setenv("TELEGRAM_WEBHOOK_PATH", "/hooks/tg")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Driver != "sqlite" || cfg.SQLite.Path != "/tmp/todo.db" {
		t.Fatalf("store = %+v, sqlite = %+v", cfg.Store, cfg.SQLite)
	}
	if cfg.Telegram.WebhookPath != "/hooks/tg" || cfg.Logger.Level != "debug" {
		t.Fatalf("telegram = %+v, logger = %+v", cfg.Telegram, cfg.Logger)
	}
	if cfg.Store.KeyPrefix != "todo" || cfg.Security.RateLimitRequests != 30 {
		t.Fatalf("defaults not applied: %+v %+v", cfg.Store, cfg.Security)
	}
}

func TestHelpers(t *testing.T) {
	cfg := validConfig()
	if cfg.AdminEnabled() {
		t.Fatal("admin API should be off without credentials")
	}
	cfg.Admin.PasswordHash = "hash"
	cfg.JWT.Secret = "secret"
	if !cfg.AdminEnabled() {
		t.Fatal("admin API should be on with hash and secret")
	}

	r := RedisConfig{Host: "cache", Port: 6380}
	if r.GetAddr() != "cache:6380" {
		t.Fatalf("GetAddr = %q", r.GetAddr())
	}

	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	if !strings.Contains(d.GetDSN(), "dbname=n") {
		t.Fatalf("GetDSN = %q", d.GetDSN())
	}
}
