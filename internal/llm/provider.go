package llm

import (
	"context"
	"encoding/json"
)

// Provider generates text for a prompt. Quiz generation is the only caller
// today; the interface stays generic so providers are interchangeable.
type Provider interface {
	// Generate runs one completion. With req.Schema set, the returned
	// Content is JSON that validated against it; otherwise it is the
	// model's text as-is.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID is the resolved model name requests are sent to.
	ModelID() string
}

// Request is a single completion request.
type Request struct {
	System   string
	Messages []Message

	// Schema asks for native structured output and is used to validate
	// the reply. Nil means free text.
	Schema *Schema

	MaxTokens int

	// Temperature in [0, 1]. Zero leaves the provider default.
	Temperature float64
}

// Message is one conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Role is who sent a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema. Name doubles as the schema name sent to
// providers that require one, e.g. "lesson-quiz".
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// StopReason is the normalized reason generation ended.
type StopReason string

const (
	StopEnd       StopReason = "end"
	StopMaxTokens StopReason = "max_tokens"
)

// Response is a completed generation.
type Response struct {
	// Content is the validated JSON for schema requests and the raw,
	// possibly non-JSON text otherwise.
	Content json.RawMessage

	Usage      Usage
	Model      string
	StopReason StopReason
}

// Usage is the token count of one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// finish runs the checks shared by every SDK-backed provider. A schema
// reply that hit the token limit is reported as truncated before it is
// validated. Free text is returned even when cut off; its consumer parses
// and rejects it.
func finish(req Request, resp *Response) (*Response, error) {
	if resp.Usage.TotalTokens == 0 {
		resp.Usage.TotalTokens = resp.Usage.InputTokens + resp.Usage.OutputTokens
	}
	if req.Schema == nil {
		return resp, nil
	}
	if resp.StopReason == StopMaxTokens {
		return nil, &ErrMaxTokensExceeded{Content: resp.Content}
	}
	if err := validateResponse(req.Schema, resp.Content); err != nil {
		return nil, err
	}
	return resp, nil
}

// resolveModel maps a short alias to a provider model ID. Unknown names
// are treated as model IDs.
func resolveModel(name string, aliases map[string]string) string {
	if id, ok := aliases[name]; ok {
		return id
	}
	return name
}
