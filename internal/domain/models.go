package domain

// Mode selects the rules engine for a match.
type Mode string

const (
	ModePractice    Mode = "practice"
	ModeCompetition Mode = "competition"
	ModeDuel        Mode = "duel"
	ModeTeam        Mode = "team"
	ModeAdvanced    Mode = "advanced"
)

// NoSelection marks an answer that was never chosen (timed out or skipped).
const NoSelection = -1

// Question is a multiple-choice question. Identity is positional within its
// set; the explanation is filled in later by the review collaborator.
type Question struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation,omitempty"`
}

// UserAnswer records the one effective answer of a participant for a
// question. SelectedIndex is the canonical option index (NoSelection if the
// participant never picked one).
type UserAnswer struct {
	QuestionIndex int    `json:"questionIndex"`
	Participant   string `json:"participant"`
	SelectedIndex int    `json:"selectedIndex"`
	Correct       bool   `json:"correct"`
}

// CompetitionResult is one finished solo-competitive run on the leaderboard.
type CompetitionResult struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Score   int    `json:"score"`
	Seconds int    `json:"seconds"`
}

// RankedResult is a CompetitionResult with its 1-based leaderboard position.
type RankedResult struct {
	CompetitionResult
	Rank int `json:"rank"`
}

// TeamConfig names a team and its fixed member order for a match.
type TeamConfig struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}
