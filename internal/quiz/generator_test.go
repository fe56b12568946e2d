package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/abhisek/lyfeline/internal/apperr"
	"github.com/abhisek/lyfeline/internal/llm"
)

func testInput() Input {
	return Input{
		Title:   "What Is Vaping?",
		Content: "Vaping means inhaling an aerosol produced by an e-cigarette.",
	}
}

func TestGenerate_FencedResponse(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage("```json\n" + quizText(t, 6, nil) + "\n```"),
	})
	gen := New(mock, DefaultConfig())

	q, err := gen.Generate(context.Background(), testInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.Questions) != QuestionCount {
		t.Errorf("got %d questions, want %d", len(q.Questions), QuestionCount)
	}
	if mock.CallCount() != 1 {
		t.Errorf("CallCount = %d, want 1", mock.CallCount())
	}

	req := mock.Calls[0]
	if req.Schema != nil {
		t.Error("schema should not be sent unless StructuredOutput is set")
	}
	if req.System == "" || !strings.Contains(req.System, "EXACTLY 5") {
		t.Error("system prompt missing quiz rules")
	}
	msg := req.Messages[0].Content
	if !strings.Contains(msg, "Lesson: What Is Vaping?") || !strings.Contains(msg, "aerosol") {
		t.Errorf("user message missing lesson: %q", msg)
	}
	if !strings.Contains(msg, "Quiz ID: ") {
		t.Errorf("user message missing quiz id: %q", msg)
	}
}

func TestGenerate_UniqueQuizIDs(t *testing.T) {
	body := json.RawMessage(quizText(t, 5, nil))
	mock := llm.NewMockProvider(llm.MockResponse{Content: body}, llm.MockResponse{Content: body})
	gen := New(mock, DefaultConfig())

	for i := 0; i < 2; i++ {
		if _, err := gen.Generate(context.Background(), testInput()); err != nil {
			t.Fatalf("Generate #%d: %v", i+1, err)
		}
	}
	if mock.Calls[0].Messages[0].Content == mock.Calls[1].Messages[0].Content {
		t.Error("two generations sent identical prompts")
	}
}

func TestGenerate_StructuredOutput(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(quizText(t, 5, nil))})
	cfg := DefaultConfig()
	cfg.StructuredOutput = true
	gen := New(mock, cfg)

	if _, err := gen.Generate(context.Background(), testInput()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.Calls[0].Schema != QuizSchema {
		t.Error("expected QuizSchema on request")
	}
	if mock.Calls[0].MaxTokens != cfg.MaxTokens {
		t.Errorf("MaxTokens = %d, want %d", mock.Calls[0].MaxTokens, cfg.MaxTokens)
	}
}

func TestGenerate_DoesNotRetryInvalidQuiz(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage(`{"questions": [`)},
		llm.MockResponse{Content: json.RawMessage(quizText(t, 5, nil))},
	)
	gen := New(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), testInput())
	if apperr.KindOf(err) != apperr.KindMalformedResponse {
		t.Fatalf("KindOf = %q, want malformed_response (err: %v)", apperr.KindOf(err), err)
	}
	if mock.CallCount() != 1 {
		t.Errorf("CallCount = %d, want 1", mock.CallCount())
	}
}

func TestGenerate_ProviderErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{"unavailable", &llm.ErrProviderUnavailable{Err: errors.New("dial tcp: refused")}, apperr.KindUpstreamFailure},
		{"rate limit", &llm.ErrRateLimit{Err: errors.New("429")}, apperr.KindUpstreamFailure},
		{"schema mismatch", &llm.ErrInvalidResponse{Err: errors.New("missing questions")}, apperr.KindMalformedResponse},
		{"truncated", &llm.ErrMaxTokensExceeded{}, apperr.KindMalformedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := New(llm.NewMockProvider(llm.MockResponse{Err: tt.err}), DefaultConfig())
			_, err := gen.Generate(context.Background(), testInput())
			if got := apperr.KindOf(err); got != tt.want {
				t.Errorf("KindOf = %q, want %q (err: %v)", got, tt.want, err)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("error chain lost provider error: %v", err)
			}
		})
	}
}

func TestGenerate_RequiresLesson(t *testing.T) {
	mock := llm.NewMockProvider()
	gen := New(mock, DefaultConfig())

	for _, in := range []Input{{}, {Title: "T"}, {Content: "C"}, {Title: " ", Content: "C"}} {
		_, err := gen.Generate(context.Background(), in)
		if !apperr.Is(err, apperr.KindInvalidInput) {
			t.Errorf("Generate(%+v) err = %v, want invalid input", in, err)
		}
	}
	if mock.CallCount() != 0 {
		t.Errorf("provider called %d times for invalid input", mock.CallCount())
	}
}

func TestGenerate_PurposeLabel(t *testing.T) {
	var got string
	p := purposeProvider{fn: func(ctx context.Context) { got = llm.PurposeFrom(ctx) }}
	gen := New(p, DefaultConfig())
	_, _ = gen.Generate(context.Background(), testInput())
	if got != Purpose {
		t.Errorf("purpose = %q, want %q", got, Purpose)
	}
}

type purposeProvider struct {
	fn func(ctx context.Context)
}

func (p purposeProvider) Generate(ctx context.Context, _ llm.Request) (*llm.Response, error) {
	p.fn(ctx)
	return nil, &llm.ErrProviderUnavailable{}
}

func (p purposeProvider) ModelID() string { return "purpose" }

func TestBuildUserMessageClipsContent(t *testing.T) {
	long := strings.Repeat("é", maxContentRunes+50)
	msg := buildUserMessage(Input{Title: "T", Content: long}, "id-1")
	if strings.Count(msg, "é") != maxContentRunes {
		t.Errorf("content not clipped to %d runes", maxContentRunes)
	}
	if !strings.HasSuffix(msg, "Quiz ID: id-1") {
		t.Errorf("message should end with quiz id: %q", msg[len(msg)-30:])
	}
}
