package game

// Countdown is the per-question timer state, counted in whole seconds.
// Ticking is driven by the orchestrator's scheduler; keeping the countdown as
// plain state lets tests advance it without real time passing.
type Countdown struct {
	Total     int `json:"total"`
	Remaining int `json:"remaining"`
}

// Reset restores the full duration for a new question.
func (c *Countdown) Reset() { c.Remaining = c.Total }

// Tick consumes one second and reports whether the countdown just expired.
func (c *Countdown) Tick() bool {
	if c.Remaining > 0 {
		c.Remaining--
	}
	return c.Remaining == 0
}
