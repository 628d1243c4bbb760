package game

import (
	"fmt"
	"math/rand"

	"sciquiz-service/internal/domain"
)

// Outcome is the final result of a match. Winner is empty for solo modes and
// for draws; Draw distinguishes the two in head-to-head modes.
type Outcome struct {
	Winner      string         `json:"winner,omitempty"`
	Draw        bool           `json:"draw,omitempty"`
	Score       int            `json:"score"`
	Total       int            `json:"total"`
	Percent     int            `json:"percent"`
	Scores      map[string]int `json:"scores,omitempty"`
	RosterSizes map[string]int `json:"rosterSizes,omitempty"`
}

// Strategy is the per-mode rules engine: who answers, when the question is
// done, when the match is over, and who won.
type Strategy interface {
	// Participants is the full answer roster for the match.
	Participants() []string
	// Init seeds per-match state (scores, rosters) on a fresh session.
	Init(s *Session)
	// BeginQuestion performs per-question setup (duel option shuffles).
	BeginQuestion(s *Session, rnd *rand.Rand)
	// Active lists who may still answer the active question.
	Active(s *Session) []string
	// MapSelection translates a participant's displayed option position to
	// the canonical option index.
	MapSelection(s *Session, participant string, selected int) int
	// OnAnswer applies scoring and roster effects of a resolved answer.
	OnAnswer(s *Session, ans domain.UserAnswer)
	// RevealReady reports whether the advance condition holds for the
	// active question.
	RevealReady(s *Session) bool
	// FinishNow reports whether the match must end without the post-reveal
	// delay (team elimination, team set exhaustion).
	FinishNow(s *Session) bool
	// AfterReveal performs turn bookkeeping before the index advances.
	AfterReveal(s *Session)
	// Outcome computes the final result.
	Outcome(s *Session) Outcome
}

func newStrategy(cfg MatchConfig) (Strategy, error) {
	switch cfg.Mode {
	case domain.ModePractice, domain.ModeAdvanced:
		name := cfg.PlayerName
		if name == "" {
			name = "Player"
		}
		return &soloStrategy{name: name}, nil
	case domain.ModeCompetition:
		if cfg.PlayerName == "" {
			return nil, fmt.Errorf("competition requires a player name: %w", domain.ErrInvalidConfig)
		}
		return &soloStrategy{name: cfg.PlayerName}, nil
	case domain.ModeDuel:
		p1, p2 := cfg.Player1, cfg.Player2
		if p1 == "" {
			p1 = "Player 1"
		}
		if p2 == "" {
			p2 = "Player 2"
		}
		if p1 == p2 {
			return nil, fmt.Errorf("duelists need distinct names: %w", domain.ErrInvalidConfig)
		}
		return &duelStrategy{p1: p1, p2: p2}, nil
	case domain.ModeTeam:
		return newTeamStrategy(cfg.Team1, cfg.Team2)
	default:
		return nil, fmt.Errorf("unknown mode %q: %w", cfg.Mode, domain.ErrInvalidConfig)
	}
}

// soloStrategy covers Practice, Advanced practice and Competition: one
// participant, one answer per question, score +1 on correct.
type soloStrategy struct {
	name string
}

func (st *soloStrategy) Participants() []string { return []string{st.name} }

func (st *soloStrategy) Init(s *Session) {
	s.Scores[st.name] = 0
}

func (st *soloStrategy) BeginQuestion(*Session, *rand.Rand) {}

func (st *soloStrategy) Active(s *Session) []string {
	if s.Locked(st.name) {
		return nil
	}
	return []string{st.name}
}

func (st *soloStrategy) MapSelection(_ *Session, _ string, selected int) int { return selected }

func (st *soloStrategy) OnAnswer(s *Session, ans domain.UserAnswer) {
	if ans.Correct {
		s.Scores[st.name]++
	}
}

func (st *soloStrategy) RevealReady(s *Session) bool { return len(s.current) > 0 }

func (st *soloStrategy) FinishNow(*Session) bool { return false }

func (st *soloStrategy) AfterReveal(*Session) {}

func (st *soloStrategy) Outcome(s *Session) Outcome {
	score := s.Scores[st.name]
	total := len(s.Questions)
	return Outcome{
		Score:   score,
		Total:   total,
		Percent: percentOf(score, total),
	}
}

func percentOf(score, total int) int {
	if total == 0 {
		return 0
	}
	return int(float64(score)/float64(total)*100 + 0.5)
}
