package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/lyfeline/internal/apperr"
	"github.com/abhisek/lyfeline/internal/scoring"
)

var profileFields = columnNames(profileColumns)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	var (
		p    Profile
		last sql.NullString
	)
	err := row.Scan(
		&p.ID, &p.Email, &p.Username, &p.DisplayName, &p.Bio, &p.Avatar,
		&p.TotalPoints, &p.CurrentStreak, &last, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if last.Valid && last.String != "" {
		d, err := scoring.ParseDate(last.String)
		if err != nil {
			return nil, err
		}
		p.LastActivityDate = &d
	}
	return &p, nil
}

// GetProfile returns the profile for userID, or ErrNotFound.
func (s *Store) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	query, args := s.builder().
		Select(profileFields...).
		From(entsql.Table(tableProfiles)).
		Where(entsql.EQ("id", userID)).
		Query()

	p, err := scanProfile(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// EnsureProfile creates the profile on first sight and returns the stored
// row. An existing profile is left untouched.
func (s *Store) EnsureProfile(ctx context.Context, np NewProfile) (*Profile, error) {
	if np.ID == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "profile id is required")
	}
	now := time.Now().UTC()
	query, args := s.builder().
		Insert(tableProfiles).
		Columns("id", "email", "username", "display_name", "bio", "avatar",
			"total_points", "current_streak", "created_at", "updated_at").
		Values(np.ID, np.Email, np.Username, np.Username, "", "", 0, 0, now, now).
		OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing()).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("ensure profile: %w", err)
	}
	return s.GetProfile(ctx, np.ID)
}

// UpdateProfile applies a post-quiz update. The points delta is added in
// the database so concurrent updates never lose points.
func (s *Store) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) error {
	query, args := s.builder().
		Update(tableProfiles).
		Add("total_points", upd.PointsDelta).
		Set("current_streak", upd.Streak).
		Set("last_activity_date", scoring.FormatDate(upd.LastActivityDate)).
		Set("updated_at", time.Now().UTC()).
		Where(entsql.EQ("id", userID)).
		Query()
	return s.execOne(ctx, "update profile", query, args)
}

// UpdateSettings changes the user-editable profile fields and returns the
// updated profile.
func (s *Store) UpdateSettings(ctx context.Context, userID string, set ProfileSettings) (*Profile, error) {
	upd := s.builder().Update(tableProfiles)
	if set.DisplayName != nil {
		upd.Set("display_name", *set.DisplayName)
	}
	if set.Bio != nil {
		upd.Set("bio", *set.Bio)
	}
	if set.Avatar != nil {
		upd.Set("avatar", *set.Avatar)
	}
	query, args := upd.
		Set("updated_at", time.Now().UTC()).
		Where(entsql.EQ("id", userID)).
		Query()
	if err := s.execOne(ctx, "update settings", query, args); err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, userID)
}

// DeductPoints subtracts cost from the profile's balance only if the balance
// covers it, and returns the new balance. The check and the subtraction are
// one statement, so two concurrent purchases can't overdraw.
func (s *Store) DeductPoints(ctx context.Context, userID string, cost int) (int, error) {
	if cost <= 0 {
		return 0, apperr.New(apperr.KindInvalidInput, "cost must be positive, got %d", cost)
	}
	query, args := s.builder().
		Update(tableProfiles).
		Add("total_points", -cost).
		Set("updated_at", time.Now().UTC()).
		Where(entsql.And(
			entsql.EQ("id", userID),
			entsql.GTE("total_points", cost),
		)).
		Query()
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deduct points: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deduct points: %w", err)
	}

	p, err := s.GetProfile(ctx, userID)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return p.TotalPoints, ErrInsufficientBalance
	}
	return p.TotalPoints, nil
}

// TopProfiles returns up to limit profiles ordered by points, highest first.
func (s *Store) TopProfiles(ctx context.Context, limit int) ([]LeaderEntry, error) {
	sel := s.builder().
		Select("id", "username", "display_name", "total_points").
		From(entsql.Table(tableProfiles)).
		OrderBy(entsql.Desc("total_points"), entsql.Asc("id"))
	if limit > 0 {
		sel.Limit(limit)
	}
	return s.queryLeaders(ctx, sel)
}

// LeadersByID returns leaderboard rows for the given user ids, keyed by id.
// Unknown ids are absent from the result.
func (s *Store) LeadersByID(ctx context.Context, ids []string) (map[string]LeaderEntry, error) {
	out := make(map[string]LeaderEntry, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	sel := s.builder().
		Select("id", "username", "display_name", "total_points").
		From(entsql.Table(tableProfiles)).
		Where(entsql.In("id", args...))
	entries, err := s.queryLeaders(ctx, sel)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		out[e.UserID] = e
	}
	return out, nil
}

func (s *Store) queryLeaders(ctx context.Context, sel *entsql.Selector) ([]LeaderEntry, error) {
	query, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query leaders: %w", err)
	}
	defer rows.Close()

	var out []LeaderEntry
	for rows.Next() {
		var e LeaderEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.DisplayName, &e.TotalPoints); err != nil {
			return nil, fmt.Errorf("scan leader: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// execOne runs a statement that must touch exactly one row; zero rows means
// the target profile does not exist.
func (s *Store) execOne(ctx context.Context, op, query string, args []any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
