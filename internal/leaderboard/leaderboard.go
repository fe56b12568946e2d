// Package leaderboard ranks users by total points in a Redis sorted set,
// falling back to the database when Redis is not configured.
package leaderboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/lyfeline/internal/store"
)

// Key is the sorted set holding user ids scored by total points.
const Key = "leaderboard:points"

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Directory resolves user ids to display data and is the source of truth
// for point totals.
type Directory interface {
	TopProfiles(ctx context.Context, limit int) ([]store.LeaderEntry, error)
	LeadersByID(ctx context.Context, ids []string) (map[string]store.LeaderEntry, error)
}

// Entry is one leaderboard row.
type Entry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Points      int    `json:"points"`
}

// Board is the points leaderboard. A nil client disables Redis; reads are
// then served from the directory and writes are dropped.
type Board struct {
	client *redis.Client
	dir    Directory
}

// New creates a leaderboard. client may be nil.
func New(client *redis.Client, dir Directory) *Board {
	return &Board{client: client, dir: dir}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Enabled reports whether Redis backs the board.
func (b *Board) Enabled() bool { return b.client != nil }

// Set records userID's total as read from the database. Totals are written
// whole rather than as increments so users outside the startup sync land on
// the board with their real score.
func (b *Board) Set(ctx context.Context, userID string, total int) error {
	if b.client == nil {
		return nil
	}
	return b.client.ZAdd(ctx, Key, redis.Z{Score: float64(total), Member: userID}).Err()
}

// Top returns the highest-scoring users, best first.
func (b *Board) Top(ctx context.Context, limit int) ([]Entry, error) {
	limit = clampLimit(limit)
	if b.client == nil {
		return b.topFromDirectory(ctx, limit)
	}

	results, err := b.client.ZRevRangeWithScores(ctx, Key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	ids := make([]string, len(results))
	for i, z := range results {
		ids[i], _ = z.Member.(string)
	}
	known, err := b.dir.LeadersByID(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve leaders: %w", err)
	}

	entries := make([]Entry, len(results))
	for i, z := range results {
		e := Entry{Rank: i + 1, UserID: ids[i], Points: int(z.Score)}
		if p, ok := known[ids[i]]; ok {
			e.Username = p.Username
			e.DisplayName = p.DisplayName
		}
		entries[i] = e
	}
	return entries, nil
}

func (b *Board) topFromDirectory(ctx context.Context, limit int) ([]Entry, error) {
	leaders, err := b.dir.TopProfiles(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	entries := make([]Entry, len(leaders))
	for i, l := range leaders {
		entries[i] = Entry{
			Rank:        i + 1,
			UserID:      l.UserID,
			Username:    l.Username,
			DisplayName: l.DisplayName,
			Points:      l.TotalPoints,
		}
	}
	return entries, nil
}

// RankOf returns userID's 1-based position, or 0 when the user is not on
// the board or Redis is disabled.
func (b *Board) RankOf(ctx context.Context, userID string) (int, error) {
	if b.client == nil {
		return 0, nil
	}
	r, err := b.client.ZRevRank(ctx, Key, userID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return int(r) + 1, nil
}

// Sync replaces the sorted set with the top n profiles from the directory.
func (b *Board) Sync(ctx context.Context, n int) (int, error) {
	if b.client == nil {
		return 0, nil
	}
	leaders, err := b.dir.TopProfiles(ctx, n)
	if err != nil {
		return 0, fmt.Errorf("load profiles: %w", err)
	}
	members := make([]redis.Z, len(leaders))
	for i, l := range leaders {
		members[i] = redis.Z{Score: float64(l.TotalPoints), Member: l.UserID}
	}
	_, err = b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, Key)
		if len(members) > 0 {
			pipe.ZAdd(ctx, Key, members...)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("write leaderboard: %w", err)
	}
	return len(members), nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}
