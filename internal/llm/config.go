package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config selects and configures the quiz generation provider.
type Config struct {
	// Provider is one of groq, gemini, openai, anthropic, openrouter or mock.
	Provider string

	Groq       GroqConfig
	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds one Generate call, retries included.
	Timeout time.Duration
}

type GroqConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string // set for OpenAI-compatible gateways
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig is the backoff schedule for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64

	// RetryInvalid grants one extra attempt after a schema mismatch. Quiz
	// content problems are normally surfaced to the caller instead.
	RetryInvalid bool
}

// DefaultConfig is Groq with its default model, three attempts and a 30s
// budget.
func DefaultConfig() Config {
	return Config{
		Provider:   "groq",
		Groq:       GroqConfig{Model: "llama-3.3-70b"},
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "meta-llama/llama-3.3-70b-instruct"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2,
		},
		Timeout: 30 * time.Second,
	}
}

// discoveryOrder is the order vendor API key variables are probed in.
var discoveryOrder = []string{"groq", "gemini", "openai", "anthropic", "openrouter"}

// settings points at the configurable fields of one provider. baseURL is
// nil for providers without an endpoint override.
type settings struct {
	key, model, baseURL *string
}

func (c *Config) settings(provider string) (settings, bool) {
	switch provider {
	case "groq":
		return settings{&c.Groq.APIKey, &c.Groq.Model, &c.Groq.BaseURL}, true
	case "gemini":
		return settings{&c.Gemini.APIKey, &c.Gemini.Model, nil}, true
	case "openai":
		return settings{&c.OpenAI.APIKey, &c.OpenAI.Model, &c.OpenAI.BaseURL}, true
	case "anthropic":
		return settings{&c.Anthropic.APIKey, &c.Anthropic.Model, nil}, true
	case "openrouter":
		return settings{&c.OpenRouter.APIKey, &c.OpenRouter.Model, &c.OpenRouter.BaseURL}, true
	}
	return settings{}, false
}

// ConfigFromEnv starts from DiscoverConfig (or the defaults) and applies
// LYFELINE_LLM_PROVIDER, LYFELINE_LLM_TIMEOUT and the per-provider
// LYFELINE_<PROVIDER>_{API_KEY,MODEL,BASE_URL} overrides.
func ConfigFromEnv() Config {
	cfg, ok := DiscoverConfig()
	if !ok {
		cfg = DefaultConfig()
	}
	if p := os.Getenv("LYFELINE_LLM_PROVIDER"); p != "" {
		cfg.Provider = p
	}
	for _, name := range discoveryOrder {
		s, _ := cfg.settings(name)
		prefix := "LYFELINE_" + strings.ToUpper(name) + "_"
		setFromEnv(s.key, prefix+"API_KEY")
		setFromEnv(s.model, prefix+"MODEL")
		if s.baseURL != nil {
			setFromEnv(s.baseURL, prefix+"BASE_URL")
		}
	}
	if d, err := time.ParseDuration(os.Getenv("LYFELINE_LLM_TIMEOUT")); err == nil && d > 0 {
		cfg.Timeout = d
	}
	return cfg
}

func setFromEnv(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

// DiscoverConfig picks the first provider whose vendor key variable
// (GROQ_API_KEY, GEMINI_API_KEY, ...) is set. It reports false when none is.
func DiscoverConfig() (Config, bool) {
	for _, name := range discoveryOrder {
		k := os.Getenv(strings.ToUpper(name) + "_API_KEY")
		if k == "" {
			continue
		}
		cfg := DefaultConfig()
		cfg.Provider = name
		s, _ := cfg.settings(name)
		*s.key = k
		return cfg, true
	}
	return Config{}, false
}

// Validate checks that the selected provider is known and has a key.
func (c Config) Validate() error {
	if c.Provider == "mock" {
		return nil
	}
	s, ok := c.settings(c.Provider)
	if !ok {
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if *s.key == "" {
		up := strings.ToUpper(c.Provider)
		return fmt.Errorf("%s_API_KEY or LYFELINE_%s_API_KEY is required for the %s provider", up, up, c.Provider)
	}
	return nil
}
