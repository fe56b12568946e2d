// Package quiz turns free LLM text into validated five-question quizzes.
package quiz

const (
	// QuestionCount is the number of questions in every quiz.
	QuestionCount = 5

	// OptionCount is the number of answer options per question.
	OptionCount = 4
)

// Question is one multiple-choice question. CorrectAnswer indexes Options.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// Quiz is a validated quiz of exactly QuestionCount questions.
type Quiz struct {
	Questions []Question `json:"questions"`
}

// CorrectAnswers returns the correct option index of every question, in order.
func (q *Quiz) CorrectAnswers() []int {
	out := make([]int, len(q.Questions))
	for i, qq := range q.Questions {
		out[i] = qq.CorrectAnswer
	}
	return out
}

// Input is the lesson a quiz is generated for.
type Input struct {
	Title   string
	Content string
}
