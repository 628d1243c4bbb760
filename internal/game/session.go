package game

import (
	"time"

	"sciquiz-service/internal/domain"
)

// MatchConfig carries everything a start action needs. Topics, difficulties
// and formats are passed through opaquely to the generation collaborator.
type MatchConfig struct {
	Mode               domain.Mode
	Topics             []string
	Difficulties       []string
	Formats            []string
	QuestionCount      int
	SecondsPerQuestion int

	PlayerName string
	Player1    string
	Player2    string
	Team1      domain.TeamConfig
	Team2      domain.TeamConfig

	// Imported is a pre-parsed question set from the import collaborator.
	// When non-empty it is used instead of calling the generator, shuffled
	// on every (re)start.
	Imported []domain.Question
}

type answerKey struct {
	question    int
	participant string
}

// Session is the state of one running match. It is owned exclusively by the
// Orchestrator; strategies receive it by reference, presentation layers only
// ever see snapshots.
type Session struct {
	ID        string
	Mode      domain.Mode
	Questions []domain.Question
	Index     int
	Scores    map[string]int
	Answers   []domain.UserAnswer
	StartedAt time.Time
	Timer     Countdown

	locks   map[answerKey]struct{}
	current map[string]domain.UserAnswer

	duel *duelState
	team *teamState
}

func newSession(id string, mode domain.Mode, qs []domain.Question, seconds int, startedAt time.Time) *Session {
	return &Session{
		ID:        id,
		Mode:      mode,
		Questions: qs,
		Scores:    make(map[string]int),
		StartedAt: startedAt,
		Timer:     Countdown{Total: seconds, Remaining: seconds},
		locks:     make(map[answerKey]struct{}),
		current:   make(map[string]domain.UserAnswer),
	}
}

// Question returns the active question.
func (s *Session) Question() domain.Question { return s.Questions[s.Index] }

// Locked reports whether the participant already has an effective answer for
// the active question.
func (s *Session) Locked(participant string) bool {
	_, ok := s.locks[answerKey{question: s.Index, participant: participant}]
	return ok
}

// record stores the participant's one effective answer for the active question.
func (s *Session) record(ans domain.UserAnswer) {
	s.locks[answerKey{question: ans.QuestionIndex, participant: ans.Participant}] = struct{}{}
	s.current[ans.Participant] = ans
	s.Answers = append(s.Answers, ans)
}

// resetQuestion clears per-question state after the index moved.
func (s *Session) resetQuestion() {
	s.current = make(map[string]domain.UserAnswer)
	s.Timer.Reset()
}
