package game

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sciquiz-service/internal/domain"
	"sciquiz-service/internal/questions"
)

// Phase is where the orchestrator's state machine currently sits.
type Phase string

const (
	PhaseSelecting   Phase = "selecting"
	PhaseConfiguring Phase = "configuring"
	PhaseLoading     Phase = "loading"
	PhasePlaying     Phase = "playing"
	PhaseFinished    Phase = "finished"
	PhaseReviewing   Phase = "reviewing"
)

const (
	defaultSecondsPerQuestion = 30
	defaultRevealDelay        = 1500 * time.Millisecond
)

// Options tunes an Orchestrator. Zero values fall back to production
// defaults; tests inject a manual scheduler, a fixed clock and a seeded rand.
type Options struct {
	Logger      *zap.Logger
	Scheduler   Scheduler
	Now         func() time.Time
	Rand        *rand.Rand
	RevealDelay time.Duration
	// DefaultSeconds is the per-question time used when a match config does
	// not set one.
	DefaultSeconds int
}

// Orchestrator runs one quiz match at a time: the phase machine, per-question
// timers, deferred reveal advances and result bookkeeping. It owns the
// Session for the lifetime of a match; nothing else mutates it.
type Orchestrator struct {
	logger         *zap.Logger
	source         questions.Source
	boards         LeaderboardStore
	sched          Scheduler
	now            func() time.Time
	rnd            *rand.Rand
	revealDelay    time.Duration
	defaultSeconds int
	seriesID       string

	mu            sync.Mutex
	phase         Phase
	level         int
	lastError     string
	cfg           MatchConfig
	session       *Session
	strategy      Strategy
	outcome       *Outcome
	finishedAt    time.Time
	lastResultID  string
	revealPending bool

	// epoch invalidates scheduled callbacks: every question change, reset or
	// reload bumps it, so a late tick or advance can never touch a session
	// it was not scheduled for.
	epoch         uint64
	cancelTick    func()
	cancelAdvance func()

	subscribers map[chan Snapshot]struct{}
}

// NewOrchestrator wires a match engine to its question source and
// leaderboard store.
func NewOrchestrator(source questions.Source, boards LeaderboardStore, opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Scheduler == nil {
		opts.Scheduler = NewScheduler()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.RevealDelay <= 0 {
		opts.RevealDelay = defaultRevealDelay
	}
	if opts.DefaultSeconds <= 0 {
		opts.DefaultSeconds = defaultSecondsPerQuestion
	}
	return &Orchestrator{
		logger:         opts.Logger,
		source:         source,
		boards:         boards,
		sched:          opts.Scheduler,
		now:            opts.Now,
		rnd:            opts.Rand,
		revealDelay:    opts.RevealDelay,
		defaultSeconds: opts.DefaultSeconds,
		seriesID:       uuid.NewString(),
		phase:          PhaseSelecting,
		subscribers:    make(map[chan Snapshot]struct{}),
	}
}

// SelectLevel records the grade/level and moves on to configuration.
func (o *Orchestrator) SelectLevel(level int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase != PhaseSelecting && o.phase != PhaseConfiguring {
		return domain.ErrWrongPhase
	}
	o.level = level
	o.phase = PhaseConfiguring
	o.lastError = ""
	o.broadcastLocked()
	return nil
}

// StartMatch fetches a question set for the configuration and begins play.
// While the fetch is in flight the orchestrator sits in Loading and refuses
// new start or answer actions; a fetch whose session was abandoned in the
// meantime is discarded without effect.
func (o *Orchestrator) StartMatch(ctx context.Context, cfg MatchConfig) error {
	o.mu.Lock()
	if o.phase == PhaseLoading {
		o.mu.Unlock()
		return domain.ErrMatchInProgress
	}
	if o.phase != PhaseConfiguring {
		o.mu.Unlock()
		return domain.ErrWrongPhase
	}
	strategy, err := newStrategy(cfg)
	if err != nil {
		o.mu.Unlock()
		return err
	}
	if cfg.Mode == domain.ModeCompetition {
		// A fresh competitive series starts with an empty leaderboard.
		if err := o.boards.Clear(o.seriesID); err != nil {
			o.logger.Warn("clear leaderboard", zap.Error(err))
		}
	}
	o.cfg = cfg
	o.phase = PhaseLoading
	o.lastError = ""
	epoch := o.bumpEpochLocked()
	level := o.level
	o.broadcastLocked()
	o.mu.Unlock()

	qs, err := o.fetchQuestions(ctx, cfg, level)
	return o.finishLoading(epoch, strategy, qs, err)
}

// RecordAnswer applies one participant's answer for the active question.
// Only the first answer per participant per question has effect; repeats and
// answers from inactive participants are silent no-ops.
func (o *Orchestrator) RecordAnswer(participant string, selected int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase != PhasePlaying {
		return domain.ErrWrongPhase
	}
	if !containsString(o.strategy.Participants(), participant) {
		return domain.ErrUnknownParticipant
	}
	o.applyAnswerLocked(participant, selected)
	return nil
}

// EndMatch abandons any running or loading match, clears the series
// leaderboard and returns to level selection.
func (o *Orchestrator) EndMatch() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.bumpEpochLocked()
	o.session = nil
	o.strategy = nil
	o.outcome = nil
	o.revealPending = false
	o.lastError = ""
	o.lastResultID = ""
	o.cfg = MatchConfig{}
	o.level = 0
	if err := o.boards.Clear(o.seriesID); err != nil {
		o.logger.Warn("clear leaderboard", zap.Error(err))
	}
	o.phase = PhaseSelecting
	o.broadcastLocked()
}

// ReviewResults switches from the finished screen to the answer review.
func (o *Orchestrator) ReviewResults() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase != PhaseFinished {
		return domain.ErrWrongPhase
	}
	o.phase = PhaseReviewing
	o.broadcastLocked()
	return nil
}

// BackToResults returns from review to the finished screen. Scores are
// untouched in both directions.
func (o *Orchestrator) BackToResults() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase != PhaseReviewing {
		return domain.ErrWrongPhase
	}
	o.phase = PhaseFinished
	o.broadcastLocked()
	return nil
}

// PlayAgain replays the same question set from the top with scores reset.
// Practice and Advanced only.
func (o *Orchestrator) PlayAgain() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase != PhaseFinished {
		return domain.ErrWrongPhase
	}
	if o.cfg.Mode != domain.ModePractice && o.cfg.Mode != domain.ModeAdvanced {
		return domain.ErrWrongPhase
	}
	strategy, err := newStrategy(o.cfg)
	if err != nil {
		return err
	}
	o.beginMatchLocked(strategy, o.session.Questions)
	return nil
}

// Continue fetches a fresh question set with the same settings and keeps
// playing. Advanced practice only.
func (o *Orchestrator) Continue(ctx context.Context) error {
	return o.restart(ctx, nil, domain.ModeAdvanced)
}

// NextRunner starts the next competitor's run on a fresh question set. The
// series leaderboard is kept.
func (o *Orchestrator) NextRunner(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("next runner needs a name: %w", domain.ErrInvalidConfig)
	}
	return o.restart(ctx, func(cfg *MatchConfig) { cfg.PlayerName = name }, domain.ModeCompetition)
}

// Rematch replays a duel or team match with the same participants on a fresh
// question set; team rosters are restored to full strength.
func (o *Orchestrator) Rematch(ctx context.Context) error {
	return o.restart(ctx, nil, domain.ModeDuel, domain.ModeTeam)
}

// NewSeries ends a competitive series: the leaderboard is cleared and the
// orchestrator returns to configuration.
func (o *Orchestrator) NewSeries() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase != PhaseFinished || o.cfg.Mode != domain.ModeCompetition {
		return domain.ErrWrongPhase
	}
	if err := o.boards.Clear(o.seriesID); err != nil {
		o.logger.Warn("clear leaderboard", zap.Error(err))
	}
	o.discardSessionLocked()
	return nil
}

// NextMatch returns to configuration for a new duel/team pairing.
func (o *Orchestrator) NextMatch() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase != PhaseFinished || (o.cfg.Mode != domain.ModeDuel && o.cfg.Mode != domain.ModeTeam) {
		return domain.ErrWrongPhase
	}
	if err := o.boards.Clear(o.seriesID); err != nil {
		o.logger.Warn("clear leaderboard", zap.Error(err))
	}
	o.cfg.Player1, o.cfg.Player2 = "", ""
	o.cfg.Team1, o.cfg.Team2 = domain.TeamConfig{}, domain.TeamConfig{}
	o.discardSessionLocked()
	return nil
}

// AttachExplanations fills in explanations produced by the review
// collaborator, in question order.
func (o *Orchestrator) AttachExplanations(explanations []string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase != PhaseFinished && o.phase != PhaseReviewing {
		return domain.ErrWrongPhase
	}
	for i := 0; i < len(explanations) && i < len(o.session.Questions); i++ {
		o.session.Questions[i].Explanation = explanations[i]
	}
	o.broadcastLocked()
	return nil
}

func (o *Orchestrator) discardSessionLocked() {
	o.bumpEpochLocked()
	o.session = nil
	o.strategy = nil
	o.outcome = nil
	o.revealPending = false
	o.lastResultID = ""
	o.phase = PhaseConfiguring
	o.broadcastLocked()
}

func (o *Orchestrator) restart(ctx context.Context, mutate func(*MatchConfig), modes ...domain.Mode) error {
	o.mu.Lock()
	if o.phase != PhaseFinished {
		o.mu.Unlock()
		return domain.ErrWrongPhase
	}
	if !containsMode(modes, o.cfg.Mode) {
		o.mu.Unlock()
		return domain.ErrWrongPhase
	}
	if mutate != nil {
		mutate(&o.cfg)
	}
	strategy, err := newStrategy(o.cfg)
	if err != nil {
		o.mu.Unlock()
		return err
	}
	cfg := o.cfg
	o.phase = PhaseLoading
	o.lastError = ""
	epoch := o.bumpEpochLocked()
	level := o.level
	o.broadcastLocked()
	o.mu.Unlock()

	qs, err := o.fetchQuestions(ctx, cfg, level)
	return o.finishLoading(epoch, strategy, qs, err)
}

// fetchQuestions obtains the ordered set for a match: the imported set
// (shuffled) when one was uploaded, otherwise the generation collaborator.
func (o *Orchestrator) fetchQuestions(ctx context.Context, cfg MatchConfig, level int) ([]domain.Question, error) {
	var qs []domain.Question
	if len(cfg.Imported) > 0 {
		o.mu.Lock()
		qs = shuffledQuestions(cfg.Imported, o.rnd)
		o.mu.Unlock()
	} else {
		generated, err := o.source.Generate(ctx, questions.Request{
			Level:        level,
			Topics:       cfg.Topics,
			Count:        cfg.QuestionCount,
			Difficulties: cfg.Difficulties,
			Formats:      cfg.Formats,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
		}
		qs = generated
	}
	if err := questions.ValidateSet(qs); err != nil {
		return nil, err
	}
	return qs, nil
}

func (o *Orchestrator) finishLoading(epoch uint64, strategy Strategy, qs []domain.Question, err error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.epoch != epoch || o.phase != PhaseLoading {
		// The session this fetch belonged to was abandoned; drop the result.
		o.logger.Debug("discarding stale question set")
		return nil
	}
	if err != nil {
		o.phase = PhaseConfiguring
		o.lastError = err.Error()
		o.logger.Warn("match start failed", zap.Error(err))
		o.broadcastLocked()
		return err
	}
	o.beginMatchLocked(strategy, qs)
	return nil
}

func (o *Orchestrator) beginMatchLocked(strategy Strategy, qs []domain.Question) {
	o.bumpEpochLocked()
	seconds := o.cfg.SecondsPerQuestion
	if seconds <= 0 {
		seconds = o.defaultSeconds
	}
	s := newSession(uuid.NewString(), o.cfg.Mode, qs, seconds, o.now())
	strategy.Init(s)
	strategy.BeginQuestion(s, o.rnd)
	o.session = s
	o.strategy = strategy
	o.outcome = nil
	o.lastResultID = ""
	o.revealPending = false
	o.phase = PhasePlaying
	o.scheduleTickLocked()
	o.logger.Info("match started",
		zap.String("session", s.ID),
		zap.String("mode", string(o.cfg.Mode)),
		zap.Int("questions", len(qs)))
	o.broadcastLocked()
}

func (o *Orchestrator) applyAnswerLocked(participant string, selected int) {
	if o.revealPending || o.session.Locked(participant) {
		return
	}
	if !containsString(o.strategy.Active(o.session), participant) {
		return
	}
	canonical := o.strategy.MapSelection(o.session, participant, selected)
	ans := domain.UserAnswer{
		QuestionIndex: o.session.Index,
		Participant:   participant,
		SelectedIndex: canonical,
		Correct:       Resolve(o.session.Question(), canonical),
	}
	o.session.record(ans)
	o.strategy.OnAnswer(o.session, ans)
	if o.strategy.RevealReady(o.session) {
		o.beginRevealLocked()
		return
	}
	o.broadcastLocked()
}

// beginRevealLocked pauses the timer, and either finishes on the spot (team
// elimination) or schedules the deferred advance so feedback can be seen
// before the question changes.
func (o *Orchestrator) beginRevealLocked() {
	o.revealPending = true
	if o.cancelTick != nil {
		o.cancelTick()
		o.cancelTick = nil
	}
	if o.strategy.FinishNow(o.session) {
		o.finishLocked()
		return
	}
	epoch := o.epoch
	o.cancelAdvance = o.sched.After(o.revealDelay, func() { o.advance(epoch) })
	o.broadcastLocked()
}

func (o *Orchestrator) advance(epoch uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if epoch != o.epoch || o.phase != PhasePlaying || !o.revealPending {
		return
	}
	if o.session.Index >= len(o.session.Questions)-1 {
		o.finishLocked()
		return
	}
	o.strategy.AfterReveal(o.session)
	o.session.Index++
	o.session.resetQuestion()
	o.revealPending = false
	o.bumpEpochLocked()
	o.strategy.BeginQuestion(o.session, o.rnd)
	o.scheduleTickLocked()
	o.broadcastLocked()
}

func (o *Orchestrator) finishLocked() {
	o.bumpEpochLocked()
	o.phase = PhaseFinished
	o.finishedAt = o.now()
	out := o.strategy.Outcome(o.session)
	o.outcome = &out
	if o.cfg.Mode == domain.ModeCompetition {
		elapsed := int(math.Round(o.finishedAt.Sub(o.session.StartedAt).Seconds()))
		result := domain.CompetitionResult{
			ID:      uuid.NewString(),
			Name:    o.cfg.PlayerName,
			Score:   out.Score,
			Seconds: elapsed,
		}
		if err := o.boards.Append(o.seriesID, result); err != nil {
			o.logger.Warn("append competition result", zap.Error(err))
		}
		o.lastResultID = result.ID
	}
	o.logger.Info("match finished",
		zap.String("session", o.session.ID),
		zap.String("mode", string(o.cfg.Mode)),
		zap.String("winner", out.Winner))
	o.broadcastLocked()
}

func (o *Orchestrator) scheduleTickLocked() {
	epoch := o.epoch
	o.cancelTick = o.sched.After(time.Second, func() { o.tick(epoch) })
}

func (o *Orchestrator) tick(epoch uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if epoch != o.epoch || o.phase != PhasePlaying || o.revealPending {
		return
	}
	if !o.session.Timer.Tick() {
		o.scheduleTickLocked()
		o.broadcastLocked()
		return
	}
	// Time is up: every participant still open gets a forced no-selection
	// answer, evaluated as incorrect.
	for _, p := range o.strategy.Active(o.session) {
		o.applyAnswerLocked(p, domain.NoSelection)
	}
	if !o.revealPending && o.phase == PhasePlaying {
		o.broadcastLocked()
	}
}

// bumpEpochLocked invalidates all scheduled callbacks and returns the new
// epoch value.
func (o *Orchestrator) bumpEpochLocked() uint64 {
	o.epoch++
	if o.cancelTick != nil {
		o.cancelTick()
		o.cancelTick = nil
	}
	if o.cancelAdvance != nil {
		o.cancelAdvance()
		o.cancelAdvance = nil
	}
	return o.epoch
}

func shuffledQuestions(qs []domain.Question, rnd *rand.Rand) []domain.Question {
	out := append([]domain.Question(nil), qs...)
	rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func containsMode(list []domain.Mode, want domain.Mode) bool {
	for _, m := range list {
		if m == want {
			return true
		}
	}
	return false
}
