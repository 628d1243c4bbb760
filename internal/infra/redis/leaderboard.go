package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sciquiz-service/internal/domain"
)

// Leaderboard is a Redis-backed implementation of game.LeaderboardStore.
// Results are appended to a list per series so insertion order survives
// restarts; ranking happens in-process when the board is read.
type Leaderboard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLeaderboard(client *redis.Client, ttl time.Duration) *Leaderboard {
	return &Leaderboard{client: client, ttl: ttl}
}

func (l *Leaderboard) Append(seriesID string, r domain.CompetitionResult) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	ctx := context.Background()
	key := l.key(seriesID)
	if err := l.client.RPush(ctx, key, raw).Err(); err != nil {
		return fmt.Errorf("append result: %w", err)
	}
	if l.ttl > 0 {
		_ = l.client.Expire(ctx, key, l.ttl).Err()
	}
	return nil
}

func (l *Leaderboard) List(seriesID string) ([]domain.CompetitionResult, error) {
	raws, err := l.client.LRange(context.Background(), l.key(seriesID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	results := make([]domain.CompetitionResult, 0, len(raws))
	for _, raw := range raws {
		var r domain.CompetitionResult
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		results = append(results, r)
	}
	return results, nil
}

func (l *Leaderboard) Clear(seriesID string) error {
	if err := l.client.Del(context.Background(), l.key(seriesID)).Err(); err != nil {
		return fmt.Errorf("clear leaderboard: %w", err)
	}
	return nil
}

func (l *Leaderboard) key(seriesID string) string {
	return "leaderboard:" + seriesID
}
