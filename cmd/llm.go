package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/abhisek/lyfeline/internal/llm"
	"github.com/abhisek/lyfeline/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded quiz generation requests",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM requests, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		failedOnly, _ := cmd.Flags().GetBool("failed")
		asJSON, _ := cmd.Flags().GetBool("json")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.LLMEvents().Query(cmd.Context(), store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		kept := events[:0]
		for _, e := range events {
			if (purpose == "" || e.Purpose == purpose) && !(failedOnly && e.Success) {
				kept = append(kept, e)
			}
		}

		if asJSON {
			return printJSON(kept)
		}
		if len(kept) == 0 {
			fmt.Println("No LLM requests recorded.")
			return nil
		}
		w := table(os.Stdout)
		fmt.Fprintln(w, "ID\tTIME\tPURPOSE\tMODEL\tIN\tOUT\tMS\tSTATUS")
		for _, e := range kept {
			status := "ok"
			if !e.Success {
				status = "failed"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
				e.ID, e.Timestamp.Local().Format("01-02 15:04:05"), e.Purpose, truncate(e.Model, 32),
				e.InputTokens, e.OutputTokens, e.LatencyMs, status)
		}
		return w.Flush()
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the prompt and reply of one LLM request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid event id %q", args[0])
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.LLMEvents().Get(cmd.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("event %d not found", id)
		}
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}

		w := table(os.Stdout)
		fmt.Fprintf(w, "event\t%d\n", e.ID)
		fmt.Fprintf(w, "time\t%s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "provider\t%s (%s)\n", e.Provider, e.Model)
		fmt.Fprintf(w, "purpose\t%s\n", e.Purpose)
		fmt.Fprintf(w, "tokens\t%d in, %d out\n", e.InputTokens, e.OutputTokens)
		fmt.Fprintf(w, "latency\t%dms\n", e.LatencyMs)
		if e.ErrorMessage != "" {
			fmt.Fprintf(w, "error\t%s\n", e.ErrorMessage)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		section("request", e.RequestBody)
		section("response", e.ResponseBody)
		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		byPurpose, err := s.LLMEvents().UsageByPurpose(cmd.Context())
		if err != nil {
			return fmt.Errorf("usage by purpose: %w", err)
		}
		if len(byPurpose) == 0 {
			fmt.Println("No LLM usage recorded yet.")
			return nil
		}
		byModel, err := s.LLMEvents().UsageByModel(cmd.Context())
		if err != nil {
			return fmt.Errorf("usage by model: %w", err)
		}

		w := table(os.Stdout)
		fmt.Fprintln(w, "PURPOSE\tCALLS\tINPUT\tOUTPUT\tAVG MS")
		for _, u := range byPurpose {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", u.Purpose, u.Calls, u.InputTokens, u.OutputTokens, u.AvgLatencyMs)
		}
		fmt.Fprintln(w)

		var total float64
		var unpriced []string
		fmt.Fprintln(w, "MODEL\tCALLS\tINPUT\tOUTPUT\tCOST")
		for _, u := range byModel {
			price := llm.LookupCost(u.Model)
			cost := "?"
			if price == nil {
				unpriced = append(unpriced, u.Model)
			} else {
				c := price.Cost(u.InputTokens, u.OutputTokens)
				total += c
				cost = formatCost(c)
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n", truncate(u.Model, 40), u.Calls, u.InputTokens, u.OutputTokens, cost)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Printf("\nEstimated cost: %s\n", formatCost(total))
		if len(unpriced) > 0 {
			fmt.Printf("No pricing for: %s\n", strings.Join(unpriced, ", "))
		}
		return nil
	},
}

func table(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func section(title, body string) {
	if body == "" {
		body = "(not captured)"
	}
	fmt.Printf("\n--- %s ---\n%s\n", title, body)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of requests to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only show requests with this purpose, e.g. quiz-gen")
	llmListCmd.Flags().Bool("failed", false, "Only show failed requests")
	llmListCmd.Flags().Bool("json", false, "Print as JSON")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd)
}
