package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var llmEventFields = columnNames(llmEventColumns)

// LLMEvents is the LLM request log. It implements EventRepo.
type LLMEvents struct {
	s *Store
}

var _ EventRepo = (*LLMEvents)(nil)

func (r *LLMEvents) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	seqNum, err := r.s.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := r.s.builder().
		Insert(tableLLMEvents).
		Columns(llmEventFields...).
		Values(seqNum, time.Now().UTC(), data.Provider, data.Model, data.Purpose,
			data.InputTokens, data.OutputTokens, data.LatencyMs, data.Success,
			data.ErrorMessage, data.RequestBody, data.ResponseBody).
		Query()
	if _, err := r.s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

// Query returns recorded requests, newest first.
func (r *LLMEvents) Query(ctx context.Context, opts QueryOpts) ([]LLMEvent, error) {
	sel := r.s.builder().
		Select(llmEventFields...).
		From(entsql.Table(tableLLMEvents)).
		OrderBy(entsql.Desc("id"))
	applyOpts(sel, opts, "id", "created_at")

	query, args := sel.Query()
	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var out []LLMEvent
	for rows.Next() {
		e, err := scanLLMEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Get returns one recorded request, or ErrNotFound.
func (r *LLMEvents) Get(ctx context.Context, id int64) (*LLMEvent, error) {
	query, args := r.s.builder().
		Select(llmEventFields...).
		From(entsql.Table(tableLLMEvents)).
		Where(entsql.EQ("id", id)).
		Query()
	e, err := scanLLMEvent(r.s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// UsageByPurpose aggregates calls and tokens per purpose label.
func (r *LLMEvents) UsageByPurpose(ctx context.Context) ([]PurposeUsage, error) {
	query, args := r.s.builder().
		Select("purpose", entsql.Count("*"), entsql.Sum("input_tokens"),
			entsql.Sum("output_tokens"), entsql.Avg("latency_ms")).
		From(entsql.Table(tableLLMEvents)).
		GroupBy("purpose").
		OrderBy(entsql.Asc("purpose")).
		Query()
	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("usage by purpose: %w", err)
	}
	defer rows.Close()

	var out []PurposeUsage
	for rows.Next() {
		var (
			u   PurposeUsage
			avg float64
		)
		if err := rows.Scan(&u.Purpose, &u.Calls, &u.InputTokens, &u.OutputTokens, &avg); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		u.AvgLatencyMs = int64(avg)
		out = append(out, u)
	}
	return out, rows.Err()
}

// UsageByModel aggregates calls and tokens per model.
func (r *LLMEvents) UsageByModel(ctx context.Context) ([]ModelUsage, error) {
	query, args := r.s.builder().
		Select("model", entsql.Count("*"), entsql.Sum("input_tokens"), entsql.Sum("output_tokens")).
		From(entsql.Table(tableLLMEvents)).
		GroupBy("model").
		OrderBy(entsql.Asc("model")).
		Query()
	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("usage by model: %w", err)
	}
	defer rows.Close()

	var out []ModelUsage
	for rows.Next() {
		var u ModelUsage
		if err := rows.Scan(&u.Model, &u.Calls, &u.InputTokens, &u.OutputTokens); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanLLMEvent(row rowScanner) (*LLMEvent, error) {
	var e LLMEvent
	err := row.Scan(&e.ID, &e.Timestamp, &e.Provider, &e.Model, &e.Purpose,
		&e.InputTokens, &e.OutputTokens, &e.LatencyMs, &e.Success,
		&e.ErrorMessage, &e.RequestBody, &e.ResponseBody)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
