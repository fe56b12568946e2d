package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

var purchaseFields = columnNames(purchaseColumns)

// InsertPurchase appends a redemption to the purchase log.
func (s *Store) InsertPurchase(ctx context.Context, data PurchaseData) (*Purchase, error) {
	seq, err := s.seq.Next(ctx)
	if err != nil {
		return nil, err
	}
	p := &Purchase{
		ID:           uuid.NewString(),
		Sequence:     seq,
		PurchaseData: data,
		CreatedAt:    time.Now().UTC(),
	}
	query, args := s.builder().
		Insert(tablePurchases).
		Columns(purchaseFields...).
		Values(p.ID, p.Sequence, p.UserID, p.ItemID, p.ItemName, p.ItemType, p.PointsSpent, p.CreatedAt).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert purchase: %w", err)
	}
	return p, nil
}

// ListPurchases returns userID's purchases, newest first.
func (s *Store) ListPurchases(ctx context.Context, userID string, opts QueryOpts) ([]Purchase, error) {
	sel := s.builder().
		Select(purchaseFields...).
		From(entsql.Table(tablePurchases)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("sequence"))
	applyOpts(sel, opts, "sequence", "created_at")

	query, args := sel.Query()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	var out []Purchase
	for rows.Next() {
		var p Purchase
		err := rows.Scan(&p.ID, &p.Sequence, &p.UserID, &p.ItemID, &p.ItemName,
			&p.ItemType, &p.PointsSpent, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
