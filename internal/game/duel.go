package game

import (
	"math/rand"

	"sciquiz-service/internal/domain"
)

// duelStrategy is head-to-head play. A question advances as soon as either
// side answers correctly, or once both sides have answered; each side sees
// the options in its own shuffled order so neither can read off the other.
type duelStrategy struct {
	p1, p2 string
}

// duelState maps, per participant, displayed option position to canonical
// option index for the active question.
type duelState struct {
	views map[string][]int
}

func (st *duelStrategy) Participants() []string { return []string{st.p1, st.p2} }

func (st *duelStrategy) Init(s *Session) {
	s.Scores[st.p1] = 0
	s.Scores[st.p2] = 0
	s.duel = &duelState{views: make(map[string][]int)}
}

func (st *duelStrategy) BeginQuestion(s *Session, rnd *rand.Rand) {
	n := len(s.Question().Options)
	s.duel.views[st.p1] = rnd.Perm(n)
	s.duel.views[st.p2] = rnd.Perm(n)
}

func (st *duelStrategy) Active(s *Session) []string {
	var open []string
	for _, p := range []string{st.p1, st.p2} {
		if !s.Locked(p) {
			open = append(open, p)
		}
	}
	return open
}

func (st *duelStrategy) MapSelection(s *Session, participant string, selected int) int {
	if selected == domain.NoSelection {
		return domain.NoSelection
	}
	view := s.duel.views[participant]
	if selected < 0 || selected >= len(view) {
		return domain.NoSelection
	}
	return view[selected]
}

func (st *duelStrategy) OnAnswer(s *Session, ans domain.UserAnswer) {
	if ans.Correct {
		s.Scores[ans.Participant]++
	}
}

func (st *duelStrategy) RevealReady(s *Session) bool {
	for _, ans := range s.current {
		if ans.Correct {
			return true
		}
	}
	return len(s.current) == 2
}

func (st *duelStrategy) FinishNow(*Session) bool { return false }

func (st *duelStrategy) AfterReveal(*Session) {}

func (st *duelStrategy) Outcome(s *Session) Outcome {
	out := Outcome{
		Total:  len(s.Questions),
		Scores: map[string]int{st.p1: s.Scores[st.p1], st.p2: s.Scores[st.p2]},
	}
	switch {
	case s.Scores[st.p1] > s.Scores[st.p2]:
		out.Winner = st.p1
	case s.Scores[st.p2] > s.Scores[st.p1]:
		out.Winner = st.p2
	default:
		out.Draw = true
	}
	return out
}

// OptionViews returns, per duelist, the option texts in that duelist's
// shuffled order. Empty for non-duel sessions.
func (s *Session) OptionViews() map[string][]string {
	if s.duel == nil {
		return nil
	}
	opts := s.Question().Options
	views := make(map[string][]string, len(s.duel.views))
	for p, perm := range s.duel.views {
		ordered := make([]string, len(perm))
		for pos, canonical := range perm {
			ordered[pos] = opts[canonical]
		}
		views[p] = ordered
	}
	return views
}
