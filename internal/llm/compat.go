package llm

import "fmt"

// Groq and OpenRouter speak the OpenAI chat completions protocol, so both
// reuse OpenAIProvider with their own endpoints and model aliases.

const (
	defaultGroqBaseURL       = "https://api.groq.com/openai/v1"
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

var groqModels = map[string]string{
	"llama-3.3-70b": "llama-3.3-70b-versatile",
	"llama-3.1-8b":  "llama-3.1-8b-instant",
}

type GroqProvider struct {
	*OpenAIProvider
}

func NewGroqProvider(cfg GroqConfig) (*GroqProvider, error) {
	inner, err := compatProvider("groq", cfg.APIKey, cfg.BaseURL, defaultGroqBaseURL, resolveModel(cfg.Model, groqModels))
	if err != nil {
		return nil, err
	}
	return &GroqProvider{inner}, nil
}

// OpenRouterProvider passes model IDs through unchanged; OpenRouter names
// models as vendor/model.
type OpenRouterProvider struct {
	*OpenAIProvider
}

func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	inner, err := compatProvider("openrouter", cfg.APIKey, cfg.BaseURL, defaultOpenRouterBaseURL, cfg.Model)
	if err != nil {
		return nil, err
	}
	return &OpenRouterProvider{inner}, nil
}

func compatProvider(name, apiKey, baseURL, fallback, model string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s API key is required", name)
	}
	if baseURL == "" {
		baseURL = fallback
	}
	return newOpenAICompatible(apiKey, baseURL, model)
}
