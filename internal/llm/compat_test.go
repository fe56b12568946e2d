package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const fencedQuiz = "```json\n{\"questions\":[]}\n```"

// chatServer fakes an OpenAI-compatible chat completions endpoint that
// finishes normally and records the decoded request body.
func chatServer(t *testing.T, status int, content string) (*httptest.Server, *map[string]any) {
	return chatServerFinishing(t, status, content, "stop")
}

func chatServerFinishing(t *testing.T, status int, content, finish string) (*httptest.Server, *map[string]any) {
	t.Helper()
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"type": "error", "message": "nope", "code": "nope"},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1234567890,
			"model":   got["model"],
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": finish,
			}},
			"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func compatProviders(baseURL string) map[string]func() (Provider, error) {
	return map[string]func() (Provider, error){
		"openai": func() (Provider, error) {
			return NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", Model: "gpt-4o-mini", BaseURL: baseURL})
		},
		"groq": func() (Provider, error) {
			return NewGroqProvider(GroqConfig{APIKey: "test-key", Model: "llama-3.3-70b", BaseURL: baseURL})
		},
		"openrouter": func() (Provider, error) {
			return NewOpenRouterProvider(OpenRouterConfig{APIKey: "test-key", Model: "meta-llama/llama-3.3-70b-instruct", BaseURL: baseURL})
		},
	}
}

func TestCompatProviders_RawText(t *testing.T) {
	wantModel := map[string]string{
		"openai":     "gpt-4o-mini",
		"groq":       "llama-3.3-70b-versatile",
		"openrouter": "meta-llama/llama-3.3-70b-instruct",
	}

	for name := range wantModel {
		t.Run(name, func(t *testing.T) {
			srv, got := chatServer(t, http.StatusOK, fencedQuiz)
			p, err := compatProviders(srv.URL)[name]()
			if err != nil {
				t.Fatalf("new provider: %v", err)
			}

			resp, err := p.Generate(context.Background(), Request{
				System:    "You create lesson quizzes.",
				Messages:  []Message{{Role: RoleUser, Content: "Lesson: Lung Health"}},
				MaxTokens: 2000,
			})
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if string(resp.Content) != fencedQuiz {
				t.Errorf("content = %q, want raw text passed through", resp.Content)
			}
			if resp.StopReason != StopEnd {
				t.Errorf("stop reason = %q, want end", resp.StopReason)
			}
			if resp.Usage.TotalTokens != 65 {
				t.Errorf("total tokens = %d, want 65", resp.Usage.TotalTokens)
			}
			if (*got)["model"] != wantModel[name] {
				t.Errorf("request model = %v, want %s", (*got)["model"], wantModel[name])
			}
			if _, ok := (*got)["response_format"]; ok {
				t.Error("response_format should be omitted without a schema")
			}
			msgs, _ := (*got)["messages"].([]any)
			if len(msgs) != 2 {
				t.Fatalf("messages = %d, want system + user", len(msgs))
			}
		})
	}
}

func TestCompatProviders_SchemaValidated(t *testing.T) {
	srv, got := chatServer(t, http.StatusOK, `{"questions":"nope"}`)
	p, err := NewGroqProvider(GroqConfig{APIKey: "test-key", Model: "llama-3.3-70b", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}

	_, err = p.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "x"}},
		Schema:   quizSchema(),
	})
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("err = %v, want ErrInvalidResponse", err)
	}
	if _, ok := (*got)["response_format"]; !ok {
		t.Error("response_format should be sent with a schema")
	}
}

func TestCompatProviders_Truncated(t *testing.T) {
	srv, _ := chatServerFinishing(t, http.StatusOK, `{"questions":[`, "length")
	p, err := NewGroqProvider(GroqConfig{APIKey: "test-key", Model: "llama-3.3-70b", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	msgs := []Message{{Role: RoleUser, Content: "x"}}

	resp, err := p.Generate(context.Background(), Request{Messages: msgs})
	if err != nil {
		t.Fatalf("free text should pass through when cut off: %v", err)
	}
	if resp.StopReason != StopMaxTokens {
		t.Errorf("stop reason = %q, want max_tokens", resp.StopReason)
	}

	_, err = p.Generate(context.Background(), Request{Messages: msgs, Schema: quizSchema()})
	var mt *ErrMaxTokensExceeded
	if !errors.As(err, &mt) {
		t.Fatalf("err = %v, want ErrMaxTokensExceeded", err)
	}
}

func TestCompatProviders_ErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusTooManyRequests, func(err error) bool { var e *ErrRateLimit; return errors.As(err, &e) }},
		{http.StatusInternalServerError, func(err error) bool { var e *ErrProviderUnavailable; return errors.As(err, &e) }},
		{http.StatusBadRequest, func(err error) bool { var e *ErrRequestRejected; return errors.As(err, &e) && e.Status == 400 }},
		{http.StatusUnauthorized, func(err error) bool { var e *ErrRequestRejected; return errors.As(err, &e) }},
	}
	for _, tt := range tests {
		srv, _ := chatServer(t, tt.status, "")
		p, err := NewGroqProvider(GroqConfig{APIKey: "test-key", Model: "llama-3.3-70b", BaseURL: srv.URL})
		if err != nil {
			t.Fatal(err)
		}
		_, err = p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})
		if !tt.check(err) {
			t.Errorf("status %d: unexpected error %T (%v)", tt.status, err, err)
		}
	}
}

func TestCompatProviders_RequireKey(t *testing.T) {
	if _, err := NewGroqProvider(GroqConfig{Model: "llama-3.3-70b"}); err == nil {
		t.Error("groq: expected error for empty API key")
	}
	if _, err := NewOpenRouterProvider(OpenRouterConfig{Model: "x"}); err == nil {
		t.Error("openrouter: expected error for empty API key")
	}
	if _, err := NewOpenAIProvider(OpenAIConfig{Model: "gpt-4o"}); err == nil {
		t.Error("openai: expected error for empty API key")
	}
	if _, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "k"}); err == nil {
		t.Error("openrouter: expected error for empty model")
	}
}

func TestModelMapping(t *testing.T) {
	tests := []struct {
		models map[string]string
		input  string
		want   string
	}{
		{groqModels, "llama-3.3-70b", "llama-3.3-70b-versatile"},
		{groqModels, "llama-3.1-8b", "llama-3.1-8b-instant"},
		{groqModels, "mixtral-8x7b-32768", "mixtral-8x7b-32768"},
		{openaiModels, "gpt-4o", "gpt-4o"},
		{anthropicModels, "claude-haiku", "claude-haiku-4-5-20251001"},
		{geminiModels, "gemini-flash", "gemini-2.0-flash"},
		{geminiModels, "gemini-2.5-flash", "gemini-2.5-flash"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.input, tt.models); got != tt.want {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
