// Package reaction implements the reaction-time game: wait for the stimulus,
// then respond as fast as possible.
package reaction

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MJE43/mindful-arcade/internal/clock"
	"github.com/MJE43/mindful-arcade/internal/games"
	"github.com/MJE43/mindful-arcade/internal/rng"
)

// State is the engine's phase.
type State string

const (
	StateIdle    State = "idle"
	StateWaiting State = "waiting"
	StateReady   State = "ready"
	StateClicked State = "clicked"
	StateEarly   State = "early"
)

// Outcome classifies a trial.
type Outcome string

const (
	OutcomePending  Outcome = "pending"
	OutcomeTooEarly Outcome = "tooEarly"
	OutcomeMeasured Outcome = "measured"
)

const (
	MinDelay   = 1000 * time.Millisecond
	MaxDelay   = 5000 * time.Millisecond
	MaxScore   = 1000
	FloorScore = 100
)

// Trial is a single armed attempt. Only one lives at a time.
type Trial struct {
	ArmedAt    time.Time  `json:"armed_at"`
	StimulusAt time.Time  `json:"stimulus_at,omitzero"`
	ClickedAt  time.Time  `json:"clicked_at,omitzero"`
	Outcome    Outcome    `json:"outcome"`
	Round      *rng.Round `json:"round,omitempty"`
}

// View is the read-only projection hosts render.
type View struct {
	State     State  `json:"state"`
	Trial     *Trial `json:"trial,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
	BestMs    int64  `json:"best_ms"`
	Attempts  int    `json:"attempts"`
	Score     int    `json:"score"`
}

// Engine is the reaction timer state machine.
type Engine struct {
	mu       sync.Mutex
	opts     games.Options
	log      *zap.Logger
	out      *games.Outbox
	stimulus *clock.Slot

	state    State
	trial    *Trial
	latency  time.Duration
	best     time.Duration
	attempts int
	score    int
}

// New creates an idle reaction engine.
func New(opts games.Options) *Engine {
	opts = opts.WithDefaults()
	e := &Engine{
		opts:  opts,
		log:   opts.Logger.With(zap.String("game", games.IDReaction)),
		out:   games.NewOutbox(opts.Reporter, opts.Listener),
		state: StateIdle,
	}
	e.stimulus = clock.NewSlot(opts.Clock, &e.mu, e.out.Flush)
	return e
}

func (e *Engine) ID() string { return games.IDReaction }

// Score computes the points for a measured latency.
func Score(latency time.Duration) int {
	score := MaxScore - int(latency.Milliseconds())
	if score < FloorScore {
		score = FloorScore
	}
	if score > MaxScore {
		score = MaxScore
	}
	return score
}

// Start arms a new trial. It is ignored while a trial is pending.
func (e *Engine) Start() {
	e.mu.Lock()
	e.startLocked()
	e.mu.Unlock()
	e.out.Flush()
}

func (e *Engine) startLocked() {
	switch e.state {
	case StateIdle, StateClicked, StateEarly:
	default:
		return
	}

	round := rng.BeginRound(e.opts.Source)
	span := float64(MaxDelay - MinDelay)
	delay := MinDelay + time.Duration(e.opts.Source.Float64()*span)

	e.state = StateWaiting
	e.latency = 0
	e.score = 0
	e.trial = &Trial{ArmedAt: e.opts.Clock.Now(), Outcome: OutcomePending, Round: round}
	e.stimulus.Arm(delay, e.fireLocked)

	e.log.Debug("stimulus armed", zap.Duration("delay", delay))
	e.publishLocked()
}

func (e *Engine) fireLocked() {
	if e.state != StateWaiting {
		return
	}
	e.state = StateReady
	e.trial.StimulusAt = e.opts.Clock.Now()
	e.publishLocked()
}

// Click registers the user's response.
func (e *Engine) Click() {
	e.mu.Lock()
	e.clickLocked()
	e.mu.Unlock()
	e.out.Flush()
}

// Select is Click; the value is ignored.
func (e *Engine) Select(int) { e.Click() }

func (e *Engine) clickLocked() {
	switch e.state {
	case StateWaiting:
		e.stimulus.Cancel()
		e.state = StateEarly
		e.trial.ClickedAt = e.opts.Clock.Now()
		e.trial.Outcome = OutcomeTooEarly
		e.log.Debug("clicked too early")
		e.publishLocked()

	case StateReady:
		now := e.opts.Clock.Now()
		e.trial.ClickedAt = now
		e.trial.Outcome = OutcomeMeasured
		e.latency = now.Sub(e.trial.StimulusAt)
		e.score = Score(e.latency)
		e.attempts++
		if e.attempts == 1 || e.latency < e.best {
			e.best = e.latency
		}
		e.state = StateClicked

		e.log.Debug("reaction measured",
			zap.Duration("latency", e.latency),
			zap.Int("score", e.score),
		)
		e.out.Report(games.IDReaction, e.score, e.viewLocked())
		e.publishLocked()
	}
}

// Reset returns to idle and clears the best time and attempt count.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.stimulus.Cancel()
	e.state = StateIdle
	e.trial = nil
	e.latency = 0
	e.best = 0
	e.attempts = 0
	e.score = 0
	e.publishLocked()
	e.mu.Unlock()
	e.out.Flush()
}

// Snapshot returns the current view.
func (e *Engine) Snapshot() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked()
}

// View implements games.Engine.
func (e *Engine) View() any { return e.Snapshot() }

func (e *Engine) viewLocked() View {
	v := View{
		State:     e.state,
		LatencyMs: e.latency.Milliseconds(),
		BestMs:    e.best.Milliseconds(),
		Attempts:  e.attempts,
		Score:     e.score,
	}
	if e.trial != nil {
		t := *e.trial
		v.Trial = &t
	}
	return v
}

func (e *Engine) publishLocked() {
	e.out.Publish(games.IDReaction, string(e.state), e.viewLocked())
}
