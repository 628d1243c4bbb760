package game

import "sciquiz-service/internal/domain"

// Resolve reports whether the selected canonical option index answers the
// question correctly. NoSelection is always incorrect.
func Resolve(q domain.Question, selected int) bool {
	return selected != domain.NoSelection && selected == q.CorrectIndex
}
