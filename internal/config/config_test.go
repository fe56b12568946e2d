package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.LLM.Provider != "groq" {
		t.Errorf("LLM.Provider = %q, want groq", cfg.LLM.Provider)
	}
	if cfg.Mail.QueueSize <= 0 {
		t.Errorf("Mail.QueueSize = %d, want > 0", cfg.Mail.QueueSize)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LYFELINE_ADDR", ":9090")
	t.Setenv("SUPABASE_JWT_SECRET", "shh")
	t.Setenv("LYFELINE_CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("RESEND_API_KEY", "re_123")
	t.Setenv("LYFELINE_MAIL_QUEUE", "nope")
	t.Setenv("LYFELINE_QUIZ_STRUCTURED", "true")
	t.Setenv("LYFELINE_SHUTDOWN_TIMEOUT", "12s")

	cfg := FromEnv()

	if cfg.Addr != ":9090" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.JWTSecret != "shh" {
		t.Errorf("JWTSecret = %q", cfg.JWTSecret)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("RedisURL = %q", cfg.RedisURL)
	}
	if cfg.Mail.ResendAPIKey != "re_123" {
		t.Errorf("ResendAPIKey = %q", cfg.Mail.ResendAPIKey)
	}
	if cfg.Mail.QueueSize != 64 {
		t.Errorf("QueueSize = %d, want default on bad input", cfg.Mail.QueueSize)
	}
	if !cfg.Quiz.StructuredOutput {
		t.Error("StructuredOutput should be true")
	}
	if cfg.ShutdownTimeout != 12*time.Second {
		t.Errorf("ShutdownTimeout = %s", cfg.ShutdownTimeout)
	}
}

func TestFromEnvDatabaseURL(t *testing.T) {
	t.Setenv("LYFELINE_DATABASE_URL", "")
	t.Setenv("DATABASE_URL", "postgres://app@db/lyfeline")
	if got := FromEnv().DatabaseURL; got != "postgres://app@db/lyfeline" {
		t.Errorf("DatabaseURL = %q, want DATABASE_URL fallback", got)
	}

	t.Setenv("LYFELINE_DATABASE_URL", "/var/lib/lyfeline.db")
	if got := FromEnv().DatabaseURL; got != "/var/lib/lyfeline.db" {
		t.Errorf("DatabaseURL = %q, want LYFELINE_DATABASE_URL", got)
	}
}

func TestFromEnvPort(t *testing.T) {
	t.Setenv("LYFELINE_ADDR", "")
	t.Setenv("PORT", "3001")
	if got := FromEnv().Addr; got != ":3001" {
		t.Errorf("Addr = %q, want :3001", got)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Provider = "mock"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error without JWT secret")
	}
	cfg.JWTSecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("LYFELINE_TEST_DOTENV=loaded\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("LYFELINE_TEST_DOTENV") })

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("LYFELINE_TEST_DOTENV"); got != "loaded" {
		t.Errorf("LYFELINE_TEST_DOTENV = %q", got)
	}
}
