package domain

import "errors"

var (
	// ErrEmptyQuestionSet is returned when generation or import yields zero questions.
	ErrEmptyQuestionSet = errors.New("question set is empty")
	// ErrMalformedQuestion indicates a question with no options or an out-of-range correct index.
	ErrMalformedQuestion = errors.New("malformed question")
	// ErrGenerationFailed wraps failures of the question-generation collaborator.
	ErrGenerationFailed = errors.New("question generation failed")
	// ErrSetNotFound indicates an uploaded question set could not be loaded.
	ErrSetNotFound = errors.New("question set not found")
	// ErrMatchInProgress is returned when a start action arrives while a fetch is in flight.
	ErrMatchInProgress = errors.New("match start already in progress")
	// ErrWrongPhase is returned when an action is not valid in the current phase.
	ErrWrongPhase = errors.New("action not allowed in current phase")
	// ErrUnknownParticipant is returned for answers from names outside the match roster.
	ErrUnknownParticipant = errors.New("participant not part of this match")
	// ErrInvalidConfig indicates a match configuration the chosen mode cannot play.
	ErrInvalidConfig = errors.New("invalid match configuration")
)
