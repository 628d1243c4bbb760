package game

import (
	"sort"

	"sciquiz-service/internal/domain"
)

// LeaderboardStore keeps competition results for a series. The store is
// append-only during a series; a new series clears it explicitly.
type LeaderboardStore interface {
	Append(seriesID string, r domain.CompetitionResult) error
	List(seriesID string) ([]domain.CompetitionResult, error)
	Clear(seriesID string) error
}

// Rank orders results by score descending with elapsed time ascending as the
// tie-break. The sort is stable, so full ties keep insertion order.
func Rank(results []domain.CompetitionResult) []domain.RankedResult {
	sorted := append([]domain.CompetitionResult(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Seconds < sorted[j].Seconds
	})
	ranked := make([]domain.RankedResult, len(sorted))
	for i, r := range sorted {
		ranked[i] = domain.RankedResult{CompetitionResult: r, Rank: i + 1}
	}
	return ranked
}

// RankOf returns the 1-based rank of the result with the given id, or 0 if
// it is not on the board.
func RankOf(ranked []domain.RankedResult, id string) int {
	for _, r := range ranked {
		if r.ID == id {
			return r.Rank
		}
	}
	return 0
}
