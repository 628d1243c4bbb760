package game

import (
	"fmt"
	"math/rand"

	"sciquiz-service/internal/domain"
)

// teamStrategy is the elimination relay: one active member answers per
// question, turn alternates between teams every question, a wrong answer
// eliminates the responder, and an emptied roster loses on the spot.
type teamStrategy struct {
	team1, team2 domain.TeamConfig
}

func newTeamStrategy(t1, t2 domain.TeamConfig) (*teamStrategy, error) {
	if len(t1.Members) == 0 || len(t2.Members) == 0 {
		return nil, fmt.Errorf("both teams need members: %w", domain.ErrInvalidConfig)
	}
	if t1.Name == "" {
		t1.Name = "Team 1"
	}
	if t2.Name == "" {
		t2.Name = "Team 2"
	}
	if t1.Name == t2.Name {
		return nil, fmt.Errorf("teams need distinct names: %w", domain.ErrInvalidConfig)
	}
	return &teamStrategy{team1: t1, team2: t2}, nil
}

// teamState is the turn scheduler: full rosters, shrinking active subsets,
// and per-team pointers that always rest on an active member.
type teamState struct {
	sides       [2]*teamSide
	turn        int
	lastCorrect bool
}

type teamSide struct {
	name    string
	members []string
	active  map[string]bool
	pointer int
}

func newTeamSide(cfg domain.TeamConfig) *teamSide {
	active := make(map[string]bool, len(cfg.Members))
	for _, m := range cfg.Members {
		active[m] = true
	}
	return &teamSide{name: cfg.Name, members: cfg.Members, active: active}
}

func (t *teamSide) activeCount() int {
	n := 0
	for _, ok := range t.active {
		if ok {
			n++
		}
	}
	return n
}

func (t *teamSide) currentMember() string { return t.members[t.pointer] }

// advancePointer moves to the next active member, wrapping over eliminated
// ones. Callers must ensure at least one member is still active.
func (t *teamSide) advancePointer() {
	for {
		t.pointer = (t.pointer + 1) % len(t.members)
		if t.active[t.members[t.pointer]] {
			return
		}
	}
}

func (st *teamStrategy) Participants() []string {
	all := append([]string(nil), st.team1.Members...)
	return append(all, st.team2.Members...)
}

func (st *teamStrategy) Init(s *Session) {
	s.Scores[st.team1.Name] = 0
	s.Scores[st.team2.Name] = 0
	s.team = &teamState{
		sides: [2]*teamSide{newTeamSide(st.team1), newTeamSide(st.team2)},
	}
}

func (st *teamStrategy) BeginQuestion(*Session, *rand.Rand) {}

func (st *teamStrategy) Active(s *Session) []string {
	side := s.team.sides[s.team.turn]
	if side.activeCount() == 0 {
		return nil
	}
	member := side.currentMember()
	if s.Locked(member) {
		return nil
	}
	return []string{member}
}

func (st *teamStrategy) MapSelection(_ *Session, _ string, selected int) int { return selected }

func (st *teamStrategy) OnAnswer(s *Session, ans domain.UserAnswer) {
	side := s.team.sides[s.team.turn]
	s.team.lastCorrect = ans.Correct
	if ans.Correct {
		s.Scores[side.name]++
		return
	}
	delete(side.active, ans.Participant)
}

func (st *teamStrategy) RevealReady(s *Session) bool { return len(s.current) > 0 }

// FinishNow ends the match immediately when a roster empties, and on the
// last question there is nothing to advance to, so the relay skips the
// reveal delay there too.
func (st *teamStrategy) FinishNow(s *Session) bool {
	if s.team.sides[0].activeCount() == 0 || s.team.sides[1].activeCount() == 0 {
		return true
	}
	return s.Index == len(s.Questions)-1
}

// AfterReveal rotates the turn. A responder who answered correctly keeps
// their queue position for the team's next turn; after an elimination the
// team's pointer moves to its next surviving member.
func (st *teamStrategy) AfterReveal(s *Session) {
	side := s.team.sides[s.team.turn]
	if !s.team.lastCorrect && side.activeCount() > 0 {
		side.advancePointer()
	}
	s.team.turn = 1 - s.team.turn
}

func (st *teamStrategy) Outcome(s *Session) Outcome {
	s1, s2 := s.team.sides[0], s.team.sides[1]
	out := Outcome{
		Total:       len(s.Questions),
		Scores:      map[string]int{s1.name: s.Scores[s1.name], s2.name: s.Scores[s2.name]},
		RosterSizes: map[string]int{s1.name: s1.activeCount(), s2.name: s2.activeCount()},
	}
	switch {
	case s1.activeCount() == 0:
		out.Winner = s2.name
	case s2.activeCount() == 0:
		out.Winner = s1.name
	case s1.activeCount() != s2.activeCount():
		if s1.activeCount() > s2.activeCount() {
			out.Winner = s1.name
		} else {
			out.Winner = s2.name
		}
	case s.Scores[s1.name] != s.Scores[s2.name]:
		if s.Scores[s1.name] > s.Scores[s2.name] {
			out.Winner = s1.name
		} else {
			out.Winner = s2.name
		}
	default:
		out.Draw = true
	}
	return out
}

// TurnInfo exposes the relay turn for snapshots: team at bat, member at bat,
// and active roster sizes. Nil for non-team sessions.
type TurnInfo struct {
	Team    string         `json:"team"`
	Player  string         `json:"player"`
	Rosters map[string]int `json:"rosters"`
}

func (s *Session) turnInfo() *TurnInfo {
	if s.team == nil {
		return nil
	}
	side := s.team.sides[s.team.turn]
	info := &TurnInfo{
		Team: side.name,
		Rosters: map[string]int{
			s.team.sides[0].name: s.team.sides[0].activeCount(),
			s.team.sides[1].name: s.team.sides[1].activeCount(),
		},
	}
	if side.activeCount() > 0 {
		info.Player = side.currentMember()
	}
	return info
}
