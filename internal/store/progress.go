package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

var scoreFields = columnNames(scoreColumns)

// CountAttempts returns how many quiz attempts userID has recorded for lessonID.
func (s *Store) CountAttempts(ctx context.Context, userID, lessonID string) (int, error) {
	return s.count(ctx, tableScores, entsql.And(
		entsql.EQ("user_id", userID),
		entsql.EQ("lesson_id", lessonID),
	))
}

// IsCompleted reports whether userID has a completion mark for lessonID.
func (s *Store) IsCompleted(ctx context.Context, userID, lessonID string) (bool, error) {
	n, err := s.count(ctx, tableCompletions, entsql.And(
		entsql.EQ("user_id", userID),
		entsql.EQ("lesson_id", lessonID),
	))
	return n > 0, err
}

// UpsertCompletion marks lessonID completed for userID. Repeating the call
// keeps the first completion time.
func (s *Store) UpsertCompletion(ctx context.Context, userID, lessonID string) error {
	query, args := s.builder().
		Insert(tableCompletions).
		Columns("user_id", "lesson_id", "completed_at").
		Values(userID, lessonID, time.Now().UTC()).
		OnConflict(entsql.ConflictColumns("user_id", "lesson_id"), entsql.DoNothing()).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert completion: %w", err)
	}
	return nil
}

// ListCompletions returns userID's completed lessons, oldest first.
func (s *Store) ListCompletions(ctx context.Context, userID string) ([]Completion, error) {
	query, args := s.builder().
		Select("user_id", "lesson_id", "completed_at").
		From(entsql.Table(tableCompletions)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Asc("completed_at"), entsql.Asc("lesson_id")).
		Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var out []Completion
	for rows.Next() {
		var c Completion
		if err := rows.Scan(&c.UserID, &c.LessonID, &c.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// InsertAttempt appends a quiz attempt to the ledger.
func (s *Store) InsertAttempt(ctx context.Context, data AttemptData) (*Attempt, error) {
	seq, err := s.seq.Next(ctx)
	if err != nil {
		return nil, err
	}
	a := &Attempt{
		ID:          uuid.NewString(),
		Sequence:    seq,
		AttemptData: data,
		CreatedAt:   time.Now().UTC(),
	}
	query, args := s.builder().
		Insert(tableScores).
		Columns(scoreFields...).
		Values(a.ID, a.Sequence, a.UserID, a.LessonID, a.Score,
			a.TotalQuestions, a.Percentage, a.PointsEarned, a.CreatedAt).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert attempt: %w", err)
	}
	return a, nil
}

// ListAttempts returns userID's quiz attempts, newest first.
func (s *Store) ListAttempts(ctx context.Context, userID string, opts QueryOpts) ([]Attempt, error) {
	sel := s.builder().
		Select(scoreFields...).
		From(entsql.Table(tableScores)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("sequence"))
	applyOpts(sel, opts, "sequence", "created_at")

	query, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var a Attempt
		err := rows.Scan(&a.ID, &a.Sequence, &a.UserID, &a.LessonID, &a.Score,
			&a.TotalQuestions, &a.Percentage, &a.PointsEarned, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) count(ctx context.Context, table string, pred *entsql.Predicate) (int, error) {
	query, args := s.builder().
		Select(entsql.Count("*")).
		From(entsql.Table(table)).
		Where(pred).
		Query()
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// applyOpts narrows a ledger query by sequence and time bounds.
func applyOpts(sel *entsql.Selector, opts QueryOpts, seqCol, timeCol string) {
	if opts.After > 0 {
		sel.Where(entsql.GT(seqCol, opts.After))
	}
	if opts.Before > 0 {
		sel.Where(entsql.LT(seqCol, opts.Before))
	}
	if !opts.From.IsZero() {
		sel.Where(entsql.GTE(timeCol, opts.From.UTC()))
	}
	if !opts.To.IsZero() {
		sel.Where(entsql.LTE(timeCol, opts.To.UTC()))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
}
