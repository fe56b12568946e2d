package shop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/lyfeline/internal/apperr"
	"github.com/abhisek/lyfeline/internal/logger"
	"github.com/abhisek/lyfeline/internal/rank"
	"github.com/abhisek/lyfeline/internal/store"
)

// Store is the persistence a purchase needs.
type Store interface {
	GetProfile(ctx context.Context, userID string) (*store.Profile, error)
	DeductPoints(ctx context.Context, userID string, cost int) (int, error)
	InsertPurchase(ctx context.Context, data store.PurchaseData) (*store.Purchase, error)
}

// Receipt is the content of a purchase confirmation email.
type Receipt struct {
	To          string
	Username    string
	ItemName    string
	PointsSpent int
	NewBalance  int
	PurchasedAt time.Time
}

// ReceiptSender delivers purchase receipts.
type ReceiptSender interface {
	SendReceipt(ctx context.Context, r Receipt) error
}

// Leaderboard mirrors point totals.
type Leaderboard interface {
	Set(ctx context.Context, userID string, total int) error
}

// Request is a purchase as submitted by the client.
type Request struct {
	ItemID     string `json:"itemId"`
	ItemName   string `json:"itemName"`
	ItemType   string `json:"itemType"`
	PointsCost int    `json:"pointsCost"`
}

// Result is returned for a successful purchase.
type Result struct {
	Success    bool      `json:"success"`
	NewBalance int       `json:"newBalance"`
	Rank       rank.Info `json:"rank"`
}

// Service processes purchases.
type Service struct {
	store    Store
	receipts ReceiptSender
	board    Leaderboard
	log      *logger.Logger
	now      func() time.Time
}

// NewService creates a purchase service. receipts and board may be nil.
func NewService(st Store, receipts ReceiptSender, board Leaderboard, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: st, receipts: receipts, board: board, log: log, now: time.Now}
}

// Purchase spends userID's points on an item. The balance check and the
// deduction happen in one conditional update, so concurrent purchases
// cannot overdraw. Once points are deducted the purchase succeeds: a failed
// purchase-log insert or receipt email is logged and swallowed.
func (s *Service) Purchase(ctx context.Context, userID string, req Request) (*Result, error) {
	item, err := s.resolve(req)
	if err != nil {
		return nil, err
	}

	profile, err := s.store.GetProfile(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.New(apperr.KindNotFound, "Profile not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamFailure, fmt.Errorf("get profile: %w", err))
	}
	if profile.TotalPoints < item.PointsCost {
		return nil, apperr.New(apperr.KindInsufficientBalance, "Insufficient points")
	}

	balance, err := s.store.DeductPoints(ctx, userID, item.PointsCost)
	switch {
	case errors.Is(err, store.ErrInsufficientBalance):
		return nil, apperr.New(apperr.KindInsufficientBalance, "Insufficient points")
	case errors.Is(err, store.ErrNotFound):
		return nil, apperr.New(apperr.KindNotFound, "Profile not found")
	case err != nil:
		return nil, apperr.Wrap(apperr.KindUpstreamFailure, fmt.Errorf("deduct points: %w", err))
	}

	log := s.log.With("user_id", userID, "item_id", item.ID)
	log.Info("points deducted", "cost", item.PointsCost, "balance", balance)

	_, err = s.store.InsertPurchase(ctx, store.PurchaseData{
		UserID:      userID,
		ItemID:      item.ID,
		ItemName:    item.Name,
		ItemType:    string(item.Type),
		PointsSpent: item.PointsCost,
	})
	if err != nil {
		log.Error("purchase record failed", "error", err)
	}

	if s.board != nil {
		if err := s.board.Set(ctx, userID, balance); err != nil {
			log.Warn("leaderboard update failed", "error", err)
		}
	}

	if s.receipts != nil && profile.Email != "" {
		err := s.receipts.SendReceipt(ctx, Receipt{
			To:          profile.Email,
			Username:    profile.Username,
			ItemName:    item.Name,
			PointsSpent: item.PointsCost,
			NewBalance:  balance,
			PurchasedAt: s.now().UTC(),
		})
		if err != nil {
			log.Warn("receipt not sent", "error", err)
		}
	}

	info, err := rank.For(max(balance, 0))
	if err != nil {
		return nil, err
	}
	return &Result{Success: true, NewBalance: balance, Rank: info}, nil
}

// resolve checks the request against the catalog. Name, type and cost are
// taken from the catalog; a client-sent cost that disagrees is rejected.
func (s *Service) resolve(req Request) (Item, error) {
	id := strings.TrimSpace(req.ItemID)
	if id == "" {
		return Item{}, apperr.New(apperr.KindInvalidInput, "itemId is required")
	}
	if req.PointsCost <= 0 {
		return Item{}, apperr.New(apperr.KindInvalidInput, "pointsCost must be positive")
	}
	item, ok := Find(id)
	if !ok {
		return Item{}, apperr.New(apperr.KindNotFound, "Item %q not found", id)
	}
	if req.PointsCost != item.PointsCost {
		return Item{}, apperr.New(apperr.KindInvalidInput, "pointsCost %d does not match item price %d", req.PointsCost, item.PointsCost)
	}
	return item, nil
}
