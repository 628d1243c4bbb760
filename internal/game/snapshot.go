package game

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"sciquiz-service/internal/domain"
)

// QuestionView is the presentation of the active question. PerPlayer is set
// only for duels, where each side sees its own option order.
type QuestionView struct {
	Prompt    string              `json:"prompt"`
	Options   []string            `json:"options"`
	PerPlayer map[string][]string `json:"perPlayer,omitempty"`
	// CorrectIndex is -1 while the question is open and the canonical
	// correct index once the reveal started.
	CorrectIndex int `json:"correctIndex"`
}

// Snapshot is a point-in-time copy of orchestrator state, safe to hand to
// presentation layers without locking.
type Snapshot struct {
	Phase          Phase                 `json:"phase"`
	Mode           domain.Mode           `json:"mode,omitempty"`
	Level          int                   `json:"level,omitempty"`
	Error          string                `json:"error,omitempty"`
	QuestionIndex  int                   `json:"questionIndex"`
	QuestionCount  int                   `json:"questionCount"`
	Question       *QuestionView         `json:"question,omitempty"`
	TimerRemaining int                   `json:"timerRemaining"`
	Reveal         bool                  `json:"reveal"`
	Current        []domain.UserAnswer   `json:"current,omitempty"`
	Scores         map[string]int        `json:"scores,omitempty"`
	Turn           *TurnInfo             `json:"turn,omitempty"`
	Outcome        *Outcome              `json:"outcome,omitempty"`
	Elapsed        string                `json:"elapsed,omitempty"`
	Rank           int                   `json:"rank,omitempty"`
	Leaderboard    []domain.RankedResult `json:"leaderboard,omitempty"`
	Review         []ReviewEntry         `json:"review,omitempty"`
}

// ReviewEntry pairs a question with the answers it received, for the
// post-match review screen.
type ReviewEntry struct {
	Question domain.Question     `json:"question"`
	Answers  []domain.UserAnswer `json:"answers,omitempty"`
}

// Snapshot returns the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	snap := Snapshot{
		Phase: o.phase,
		Mode:  o.cfg.Mode,
		Level: o.level,
		Error: o.lastError,
	}
	s := o.session
	if s == nil {
		return snap
	}
	snap.QuestionIndex = s.Index
	snap.QuestionCount = len(s.Questions)
	snap.Scores = copyScores(s.Scores)
	snap.Turn = s.turnInfo()

	switch o.phase {
	case PhasePlaying:
		q := s.Question()
		view := &QuestionView{
			Prompt:       q.Prompt,
			Options:      q.Options,
			PerPlayer:    s.OptionViews(),
			CorrectIndex: domain.NoSelection,
		}
		if o.revealPending {
			view.CorrectIndex = q.CorrectIndex
			snap.Reveal = true
			snap.Current = currentAnswers(s)
		}
		snap.Question = view
		snap.TimerRemaining = s.Timer.Remaining
	case PhaseFinished, PhaseReviewing:
		snap.Outcome = o.outcome
		snap.Elapsed = formatSeconds(int(math.Round(o.finishedAt.Sub(s.StartedAt).Seconds())))
		if o.cfg.Mode == domain.ModeCompetition {
			results, err := o.boards.List(o.seriesID)
			if err != nil {
				o.logger.Warn("list leaderboard", zap.Error(err))
			} else {
				snap.Leaderboard = Rank(results)
				snap.Rank = RankOf(snap.Leaderboard, o.lastResultID)
			}
		}
		if o.phase == PhaseReviewing {
			snap.Review = reviewEntries(s)
		}
	}
	return snap
}

// Subscribe registers a snapshot channel and returns it with its cancel
// function. The channel is buffered; a subscriber that falls behind misses
// intermediate snapshots rather than blocking the orchestrator.
func (o *Orchestrator) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)
	o.mu.Lock()
	o.subscribers[ch] = struct{}{}
	ch <- o.snapshotLocked()
	o.mu.Unlock()
	return ch, func() {
		o.mu.Lock()
		delete(o.subscribers, ch)
		o.mu.Unlock()
	}
}

func (o *Orchestrator) broadcastLocked() {
	if len(o.subscribers) == 0 {
		return
	}
	snap := o.snapshotLocked()
	for ch := range o.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
}

func currentAnswers(s *Session) []domain.UserAnswer {
	out := make([]domain.UserAnswer, 0, len(s.current))
	for _, ans := range s.current {
		out = append(out, ans)
	}
	return out
}

func reviewEntries(s *Session) []ReviewEntry {
	entries := make([]ReviewEntry, len(s.Questions))
	for i, q := range s.Questions {
		entries[i] = ReviewEntry{Question: q}
	}
	for _, ans := range s.Answers {
		if ans.QuestionIndex >= 0 && ans.QuestionIndex < len(entries) {
			entries[ans.QuestionIndex].Answers = append(entries[ans.QuestionIndex].Answers, ans)
		}
	}
	return entries
}

func copyScores(scores map[string]int) map[string]int {
	out := make(map[string]int, len(scores))
	for k, v := range scores {
		out[k] = v
	}
	return out
}

// formatSeconds renders elapsed time as mm:ss.
func formatSeconds(total int) string {
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
