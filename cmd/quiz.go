package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/lyfeline/internal/config"
	"github.com/abhisek/lyfeline/internal/lessons"
	"github.com/abhisek/lyfeline/internal/llm"
	"github.com/abhisek/lyfeline/internal/quiz"
	"github.com/abhisek/lyfeline/internal/scoring"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Quiz tools",
}

var quizPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Generate and take a quiz for a lesson (no database)",
	Long: `Generate a quiz for a catalog lesson and answer it interactively.

This is a stateless developer tool: nothing is saved. The score is computed
as a first attempt by a new user. Useful for evaluating quiz quality and
prompt changes.`,
	RunE: runQuizPreview,
}

func init() {
	quizPreviewCmd.Flags().String("lesson", "", "Lesson ID (required)")
	quizPreviewCmd.Flags().Bool("raw", false, "Print the validated quiz as JSON and exit")
	_ = quizPreviewCmd.MarkFlagRequired("lesson")

	quizCmd.AddCommand(quizPreviewCmd)
}

func runQuizPreview(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetString("lesson")
	raw, _ := cmd.Flags().GetBool("raw")

	lesson, ok := lessons.Default().Get(id)
	if !ok {
		return fmt.Errorf("no lesson %q (see `lyfeline lessons`)", id)
	}

	ctx := cmd.Context()
	cfg := config.FromEnv()
	// No event repo: preview calls are not recorded.
	provider, err := llm.NewProvider(ctx, cfg.LLM, nil, nil)
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}
	gen := quiz.New(provider, quiz.Config{
		StructuredOutput: cfg.Quiz.StructuredOutput,
		MaxTokens:        cfg.Quiz.MaxTokens,
		Temperature:      cfg.Quiz.Temperature,
	})

	fmt.Printf("Lesson: %s (%s, %s)\n", lesson.Title, lesson.Category.DisplayName(), lesson.Difficulty.DisplayName())
	fmt.Println("Generating quiz...")

	q, err := gen.Generate(ctx, quiz.Input{Title: lesson.Title, Content: lesson.Content})
	if err != nil {
		return fmt.Errorf("generate quiz: %w", err)
	}
	if raw {
		return printJSON(q)
	}

	scanner := bufio.NewScanner(os.Stdin)
	selected := make([]int, len(q.Questions))
	for i := range selected {
		selected[i] = -1
	}
	for i, qq := range q.Questions {
		fmt.Printf("\n── Question %d/%d ──\n", i+1, len(q.Questions))
		fmt.Println(qq.Question)
		for j, opt := range qq.Options {
			fmt.Printf("  %d) %s\n", j+1, opt)
		}

		fmt.Print("\nYour answer (1-4): ")
		if !scanner.Scan() {
			fmt.Println("\n(input closed)")
			break
		}
		if n, err := strconv.Atoi(strings.TrimSpace(scanner.Text())); err == nil && n >= 1 && n <= quiz.OptionCount {
			selected[i] = n - 1
		}

		if selected[i] == qq.CorrectAnswer {
			fmt.Println("\033[32m✓ Correct!\033[0m")
		} else {
			fmt.Printf("\033[31m✗ Wrong.\033[0m Answer: %d) %s\n", qq.CorrectAnswer+1, qq.Options[qq.CorrectAnswer])
		}
		fmt.Printf("Explanation: %s\n", qq.Explanation)
	}

	out, err := scoring.Evaluate(scoring.Input{
		Selected:   selected,
		Correct:    q.CorrectAnswers(),
		Difficulty: lesson.Difficulty,
		Reward:     lesson.PointsReward,
		Today:      time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	fmt.Printf("\n── Summary: %d/%d correct (%d%%), %d points ──\n",
		out.RawScore, out.TotalQuestions, out.Percentage, out.PointsEarned)
	return nil
}
