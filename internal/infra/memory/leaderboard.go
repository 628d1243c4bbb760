package memory

import (
	"sync"

	"sciquiz-service/internal/domain"
)

// Leaderboard is an in-memory implementation of game.LeaderboardStore.
type Leaderboard struct {
	mu      sync.RWMutex
	results map[string][]domain.CompetitionResult
}

func NewLeaderboard() *Leaderboard {
	return &Leaderboard{
		results: make(map[string][]domain.CompetitionResult),
	}
}

func (l *Leaderboard) Append(seriesID string, r domain.CompetitionResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results[seriesID] = append(l.results[seriesID], r)
	return nil
}

func (l *Leaderboard) List(seriesID string) ([]domain.CompetitionResult, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]domain.CompetitionResult(nil), l.results[seriesID]...), nil
}

func (l *Leaderboard) Clear(seriesID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.results, seriesID)
	return nil
}
