package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"sciquiz-service/internal/domain"
)

func TestLeaderboardRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	board := NewLeaderboard(newClient(mr), time.Minute)

	if err := board.Append("s1", domain.CompetitionResult{ID: "a", Name: "A", Score: 2, Seconds: 40}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := board.Append("s1", domain.CompetitionResult{ID: "b", Name: "B", Score: 3, Seconds: 35}); err != nil {
		t.Fatalf("append: %v", err)
	}

	results, err := board.List("s1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(results) != 2 || results[0].ID != "a" || results[1].Seconds != 35 {
		t.Fatalf("unexpected results: %+v", results)
	}

	if err := board.Clear("s1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	results, err = board.List("s1")
	if err != nil {
		t.Fatalf("list after clear: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty board, got %+v", results)
	}
}
