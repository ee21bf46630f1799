package config

import (
	"testing"
	"time"

	"labrat/internal/errors"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Session.Backend != BackendMemory {
		t.Errorf("backend = %s, want memory default", cfg.Session.Backend)
	}
	if cfg.Session.TTL != 2*time.Hour {
		t.Errorf("ttl = %s, want 2h default", cfg.Session.TTL)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("port = %s, want 8080", cfg.Server.Port)
	}
}

func TestLoad_BackendValidation(t *testing.T) {
	t.Setenv("SESSION_BACKEND", "carrier-pigeon")
	if _, err := Load(); err == nil {
		t.Fatal("unknown backend must fail validation")
	}

	t.Setenv("SESSION_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("postgres backend requires DATABASE_URL")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/labrat")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Session.Backend != BackendPostgres {
		t.Errorf("backend = %s, want postgres", cfg.Session.Backend)
	}
}

func TestLoad_TTLOverride(t *testing.T) {
	t.Setenv("SESSION_TTL", "30m")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Session.TTL != 30*time.Minute {
		t.Errorf("ttl = %s, want 30m", cfg.Session.TTL)
	}

	t.Setenv("SESSION_TTL", "-5m")
	if _, err := Load(); err == nil {
		t.Fatal("non-positive TTL must fail validation")
	}
}

func TestConfigErrorsAreCoded(t *testing.T) {
	t.Setenv("SESSION_BACKEND", "carrier-pigeon")
	_, err := Load()
	if err == nil {
		t.Fatal("unknown backend must fail")
	}
	if !errors.IsAppError(err) {
		t.Errorf("config failures should be AppErrors: %T", err)
	}
}
