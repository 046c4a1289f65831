package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("AUTH_ALLOW_SELF_ADMIN", "")
	t.Setenv("JWT_ACCESS_TTL_MINUTES", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_MAX_CONNS", "")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "")
	t.Setenv("ADMIN_WRITE_RATE_LIMIT", "")

	cfg := Load()

	if cfg.Env != "dev" {
		t.Fatalf("expected dev env, got %q", cfg.Env)
	}
	if !cfg.AllowSelfAdmin {
		t.Fatalf("expected self admin to default to true")
	}
	if cfg.AccessTTL() != time.Hour {
		t.Fatalf("expected 1h access ttl, got %s", cfg.AccessTTL())
	}
	if cfg.DBURL == "" {
		t.Fatalf("expected a built DB URL")
	}
	if cfg.DBMaxConns != 5 || cfg.TraceSampleRatio != 1 {
		t.Fatalf("unexpected pool/sampler defaults: %d %v", cfg.DBMaxConns, cfg.TraceSampleRatio)
	}
	if cfg.RequestTimeout() != 3*time.Second {
		t.Fatalf("expected 3s request timeout, got %s", cfg.RequestTimeout())
	}
	if cfg.AdminWriteLimit != 60 {
		t.Fatalf("expected admin write limit 60, got %d", cfg.AdminWriteLimit)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AUTH_ALLOW_SELF_ADMIN", "false")
	t.Setenv("JWT_ACCESS_TTL_MINUTES", "15")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("PORT", "not-a-number")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")

	cfg := Load()

	if cfg.AllowSelfAdmin {
		t.Fatalf("expected self admin disabled")
	}
	if cfg.AccessTTL() != 15*time.Minute {
		t.Fatalf("expected 15m, got %s", cfg.AccessTTL())
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %#v", cfg.CORSOrigins)
	}
	if cfg.Port != 8080 {
		t.Fatalf("expected fallback port on bad input, got %d", cfg.Port)
	}
	if cfg.TraceSampleRatio != 0.25 {
		t.Fatalf("expected sample ratio 0.25, got %v", cfg.TraceSampleRatio)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{name: "dev allows default secret", cfg: Config{Env: "dev", JWTSecret: devJWTSecret}},
		{name: "test allows empty secret", cfg: Config{Env: "test"}},
		{name: "prod rejects default secret", cfg: Config{Env: "prod", JWTSecret: devJWTSecret}, wantErr: ErrWeakJWTSecret},
		{name: "prod rejects empty secret", cfg: Config{Env: "prod"}, wantErr: ErrWeakJWTSecret},
		{name: "prod accepts real secret", cfg: Config{Env: "prod", JWTSecret: "f0c3b6b2d1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadClient(t *testing.T) {
	t.Setenv("GURUHUB_API_URL", "http://api.example/")
	t.Setenv("GURUHUB_TOKEN_FILE", "")

	cfg := LoadClient()

	if cfg.APIURL != "http://api.example" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.APIURL)
	}
	if filepath.Base(cfg.TokenFile) != "token" {
		t.Fatalf("unexpected token file: %q", cfg.TokenFile)
	}
}
