package questions

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"sciquiz-service/internal/domain"
)

// Request describes one generation call to the question collaborator.
type Request struct {
	Level        int
	Topics       []string
	Count        int
	Difficulties []string
	Formats      []string
}

// Key returns a stable cache key for the request. Slices are sorted so that
// equivalent requests hash the same.
func (r Request) Key() string {
	topics := append([]string(nil), r.Topics...)
	sort.Strings(topics)
	diffs := append([]string(nil), r.Difficulties...)
	sort.Strings(diffs)
	formats := append([]string(nil), r.Formats...)
	sort.Strings(formats)
	parts := []string{
		strconv.Itoa(r.Level),
		strconv.Itoa(r.Count),
		strings.Join(topics, ","),
		strings.Join(diffs, ","),
		strings.Join(formats, ","),
	}
	return strings.Join(parts, "|")
}

// Source generates an ordered question set (the generation collaborator).
type Source interface {
	Generate(ctx context.Context, req Request) ([]domain.Question, error)
}

// SetLoader loads a pre-parsed uploaded question set by id (the import collaborator).
type SetLoader interface {
	LoadSet(ctx context.Context, setID string) ([]domain.Question, error)
}

// ValidateSet rejects empty sets and structurally broken questions. Partial
// data is never accepted.
func ValidateSet(qs []domain.Question) error {
	if len(qs) == 0 {
		return domain.ErrEmptyQuestionSet
	}
	for i, q := range qs {
		if len(q.Options) < 2 {
			return fmt.Errorf("question %d has %d options: %w", i, len(q.Options), domain.ErrMalformedQuestion)
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return fmt.Errorf("question %d correct index %d out of range: %w", i, q.CorrectIndex, domain.ErrMalformedQuestion)
		}
	}
	return nil
}
