package quiz

import (
	"fmt"
	"strings"
)

// maxContentRunes bounds the lesson text pasted into the prompt.
const maxContentRunes = 12000

const systemPrompt = `You are a quiz generator. Create a unique educational quiz about vaping.

Generate EXACTLY 5 multiple-choice questions. Each question must have EXACTLY 4 answer options.

Respond ONLY with valid JSON in this exact format:
{
  "questions": [
    {
      "question": "Question text here?",
      "options": ["Option A", "Option B", "Option C", "Option D"],
      "correctAnswer": 0,
      "explanation": "Explanation of why this answer is correct"
    }
  ]
}

Requirements:
- correctAnswer must be 0, 1, 2, or 3 (the index of the correct option)
- Use varied question types (recall, comprehension, application, scenario-based)
- Make questions unique: vary wording, focus areas, and answer order
- Focus on different aspects of the content each time
- Respond with ONLY the JSON, no other text`

// buildUserMessage renders the lesson and a per-request quiz id. The id
// nudges the model away from repeating the previous quiz for the same lesson.
func buildUserMessage(in Input, quizID string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Lesson: %s\n\n", strings.TrimSpace(in.Title))
	b.WriteString("Content:\n")
	b.WriteString(clip(strings.TrimSpace(in.Content), maxContentRunes))
	fmt.Fprintf(&b, "\n\nQuiz ID: %s", quizID)
	return b.String()
}

func clip(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
