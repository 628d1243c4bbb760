package game

import (
	"testing"

	"sciquiz-service/internal/domain"
)

func TestRankOrdersByScoreThenTime(t *testing.T) {
	ranked := Rank([]domain.CompetitionResult{
		{ID: "a", Name: "A", Score: 2, Seconds: 40},
		{ID: "b", Name: "B", Score: 3, Seconds: 50},
		{ID: "c", Name: "C", Score: 2, Seconds: 30},
	})
	want := []string{"b", "c", "a"}
	for i, id := range want {
		if ranked[i].ID != id || ranked[i].Rank != i+1 {
			t.Fatalf("position %d: expected %s, got %+v", i, id, ranked[i])
		}
	}
}

func TestRankStableOnFullTies(t *testing.T) {
	ranked := Rank([]domain.CompetitionResult{
		{ID: "first", Score: 1, Seconds: 10},
		{ID: "second", Score: 1, Seconds: 10},
	})
	if ranked[0].ID != "first" || ranked[1].ID != "second" {
		t.Fatalf("tie broke insertion order: %+v", ranked)
	}
}

func TestRankOf(t *testing.T) {
	ranked := Rank([]domain.CompetitionResult{
		{ID: "a", Score: 1},
		{ID: "b", Score: 2},
	})
	if got := RankOf(ranked, "a"); got != 2 {
		t.Fatalf("expected rank 2, got %d", got)
	}
	if got := RankOf(ranked, "missing"); got != 0 {
		t.Fatalf("expected 0 for unknown id, got %d", got)
	}
}

func TestPercentRounding(t *testing.T) {
	cases := []struct {
		score, total, want int
	}{
		{2, 3, 67},
		{1, 3, 33},
		{1, 2, 50},
		{0, 5, 0},
		{5, 5, 100},
		{0, 0, 0},
	}
	for _, c := range cases {
		if got := percentOf(c.score, c.total); got != c.want {
			t.Fatalf("percentOf(%d, %d) = %d, want %d", c.score, c.total, got, c.want)
		}
	}
}

func TestFormatSeconds(t *testing.T) {
	if got := formatSeconds(95); got != "01:35" {
		t.Fatalf("expected 01:35, got %q", got)
	}
	if got := formatSeconds(0); got != "00:00" {
		t.Fatalf("expected 00:00, got %q", got)
	}
}
