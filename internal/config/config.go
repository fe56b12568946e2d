// Package config assembles server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/abhisek/lyfeline/internal/llm"
)

// Config holds everything the server needs at startup.
type Config struct {
	// Env selects the logging mode: "dev" or "prod".
	Env string

	// Addr is the HTTP listen address.
	Addr string

	// DatabaseURL is a postgres:// URL or a SQLite file path. Empty means
	// the default SQLite location.
	DatabaseURL string

	// JWTSecret verifies HS256 access tokens issued by the identity provider.
	JWTSecret string

	CORSOrigins []string

	// RedisURL enables the points leaderboard when set.
	RedisURL string

	Mail MailConfig
	Log  LogConfig
	Quiz QuizConfig
	LLM  llm.Config

	ShutdownTimeout time.Duration
}

// MailConfig configures purchase receipts.
type MailConfig struct {
	ResendAPIKey string
	From         string
	QueueSize    int
}

// LogConfig configures log redaction.
type LogConfig struct {
	DisableRedaction bool
	HashSalt         string
}

// QuizConfig configures quiz generation.
type QuizConfig struct {
	// StructuredOutput sends the quiz JSON schema to providers that support
	// native structured output.
	StructuredOutput bool
	MaxTokens        int
	Temperature      float64
}

// DefaultConfig returns a Config with development defaults.
func DefaultConfig() Config {
	return Config{
		Env:         "dev",
		Addr:        ":8080",
		CORSOrigins: []string{"http://localhost:3000"},
		Mail: MailConfig{
			From:      "Lyfeline <onboarding@resend.dev>",
			QueueSize: 64,
		},
		Quiz: QuizConfig{
			MaxTokens:   2000,
			Temperature: 0.8,
		},
		LLM:             llm.DefaultConfig(),
		ShutdownTimeout: 5 * time.Second,
	}
}

// LoadDotEnv loads variables from the given files (".env" when none are
// given). Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// FromEnv builds a Config from environment variables, falling back to
// defaults for unset values.
func FromEnv() Config {
	cfg := DefaultConfig()

	cfg.Env = str("LYFELINE_ENV", cfg.Env)
	cfg.Addr = str("LYFELINE_ADDR", cfg.Addr)
	if p := os.Getenv("PORT"); p != "" && os.Getenv("LYFELINE_ADDR") == "" {
		cfg.Addr = ":" + p
	}
	cfg.DatabaseURL = str("LYFELINE_DATABASE_URL", os.Getenv("DATABASE_URL"))
	cfg.JWTSecret = str("LYFELINE_JWT_SECRET", os.Getenv("SUPABASE_JWT_SECRET"))
	if o := os.Getenv("LYFELINE_CORS_ORIGINS"); o != "" {
		cfg.CORSOrigins = splitList(o)
	}
	cfg.RedisURL = str("LYFELINE_REDIS_URL", os.Getenv("REDIS_URL"))

	cfg.Mail.ResendAPIKey = str("LYFELINE_RESEND_API_KEY", os.Getenv("RESEND_API_KEY"))
	cfg.Mail.From = str("LYFELINE_MAIL_FROM", cfg.Mail.From)
	cfg.Mail.QueueSize = integer("LYFELINE_MAIL_QUEUE", cfg.Mail.QueueSize)

	cfg.Log.DisableRedaction = !boolean("LYFELINE_LOG_REDACTION", true)
	cfg.Log.HashSalt = os.Getenv("LYFELINE_LOG_HASH_SALT")

	cfg.Quiz.StructuredOutput = boolean("LYFELINE_QUIZ_STRUCTURED", cfg.Quiz.StructuredOutput)
	cfg.Quiz.MaxTokens = integer("LYFELINE_QUIZ_MAX_TOKENS", cfg.Quiz.MaxTokens)

	cfg.LLM = llm.ConfigFromEnv()

	if d, err := time.ParseDuration(os.Getenv("LYFELINE_SHUTDOWN_TIMEOUT")); err == nil && d > 0 {
		cfg.ShutdownTimeout = d
	}

	return cfg
}

// Validate checks settings required to serve traffic.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("LYFELINE_JWT_SECRET is required")
	}
	if c.Addr == "" {
		return fmt.Errorf("listen address is empty")
	}
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	return nil
}

func str(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

func integer(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func boolean(name string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
