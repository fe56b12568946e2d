package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/abhisek/lyfeline/internal/apperr"
	"github.com/abhisek/lyfeline/internal/llm"
)

// Purpose labels quiz generation calls in the LLM request log.
const Purpose = "quiz-gen"

// Generator produces quizzes for lessons.
type Generator interface {
	// Generate returns a validated quiz or an error classified by apperr.
	Generate(ctx context.Context, in Input) (*Quiz, error)
}

// Config controls the behavior of the LLMGenerator.
type Config struct {
	// Validators run on every parsed question, in order; the first failure
	// rejects the quiz.
	Validators []Validator

	// StructuredOutput attaches QuizSchema to the request so providers
	// with native structured output enforce the shape.
	StructuredOutput bool

	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the standard validator chain and generation limits.
func DefaultConfig() Config {
	return Config{
		Validators:  DefaultValidators(),
		MaxTokens:   2000,
		Temperature: 0.8,
	}
}

// LLMGenerator implements Generator with an LLM provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
	newID    func() string
}

// New creates an LLMGenerator. A nil validator list falls back to
// DefaultValidators.
func New(provider llm.Provider, cfg Config) *LLMGenerator {
	if cfg.Validators == nil {
		cfg.Validators = DefaultValidators()
	}
	return &LLMGenerator{provider: provider, config: cfg, newID: uuid.NewString}
}

// Generate asks the provider for a quiz and parses the answer. Parse
// failures are returned as-is; callers decide whether to ask again.
func (g *LLMGenerator) Generate(ctx context.Context, in Input) (*Quiz, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "lessonTitle and lessonContent are required")
	}

	ctx = llm.WithPurpose(ctx, Purpose)

	req := llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(in, g.newID())},
		},
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}
	if g.config.StructuredOutput {
		req.Schema = QuizSchema
	}

	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		return nil, classifyProviderError(err)
	}

	return Parse(string(resp.Content), g.config.Validators)
}

func classifyProviderError(err error) error {
	var invalid *llm.ErrInvalidResponse
	if errors.As(err, &invalid) {
		return &MalformedResponseError{Reason: "response does not match quiz schema", Err: err}
	}
	var truncated *llm.ErrMaxTokensExceeded
	if errors.As(err, &truncated) {
		return &MalformedResponseError{Reason: "response truncated", Err: err}
	}
	return apperr.Wrap(apperr.KindUpstreamFailure, fmt.Errorf("generate quiz: %w", err))
}
