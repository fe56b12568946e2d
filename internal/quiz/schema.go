package quiz

import "github.com/abhisek/lyfeline/internal/llm"

// QuizSchema is the JSON schema sent to providers with native structured
// output. The parser enforces the same shape on plain-text responses.
var QuizSchema = &llm.Schema{
	Name:        "lesson-quiz",
	Description: "Five multiple-choice questions about a vaping-education lesson",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"minItems": QuestionCount,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{
							"type":        "string",
							"minLength":   1,
							"description": "The question text shown to the learner",
						},
						"options": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"minItems":    OptionCount,
							"maxItems":    OptionCount,
							"description": "Exactly 4 answer options",
						},
						"correctAnswer": map[string]any{
							"type":        "integer",
							"minimum":     0,
							"maximum":     OptionCount - 1,
							"description": "Index of the correct option",
						},
						"explanation": map[string]any{
							"type":        "string",
							"minLength":   1,
							"description": "Why the correct answer is correct",
						},
					},
					"required":             []any{"question", "options", "correctAnswer", "explanation"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}
