// Package arithmetic implements the timed mental-math drill: answer as many
// multiple-choice questions as possible before the round clock runs out.
package arithmetic

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
	StateIdle      State = "idle"
	StatePlaying   State = "playing"
	StateCompleted State = "completed"
)

// Feedback marks the outcome of the current question's answer.
type Feedback string

const (
	FeedbackNone      Feedback = ""
	FeedbackCorrect   Feedback = "correct"
	FeedbackIncorrect Feedback = "incorrect"
)

const (
	RoundSeconds      = 60
	Tick              = time.Second
	PointsPerCorrect  = 10
	NextQuestionDelay = 1000 * time.Millisecond
)

// View is the read-only projection hosts render.
type View struct {
	State    State     `json:"state"`
	Question *Question `json:"question,omitempty"`
	Selected *int      `json:"selected,omitempty"`
	Feedback Feedback  `json:"feedback,omitempty"`
	Score    int       `json:"score"`
	Answered int       `json:"answered"`
	TimeLeft int       `json:"time_left"`

	// Round is set when questions are drawn from a replayable source.
	Round *rng.Round `json:"round,omitempty"`
}

// Engine is the arithmetic drill state machine.
type Engine struct {
	mu      sync.Mutex
	opts    games.Options
	log     *zap.Logger
	out     *games.Outbox
	ticker  *clock.Slot
	advance *clock.Slot

	state    State
	round    *rng.Round
	question *Question
	selected *int
	feedback Feedback
	score    int
	answered int
	timeLeft int
}

// New creates an idle drill.
func New(opts games.Options) *Engine {
	opts = opts.WithDefaults()
	e := &Engine{
		opts:     opts,
		log:      opts.Logger.With(zap.String("game", games.IDFocus)),
		out:      games.NewOutbox(opts.Reporter, opts.Listener),
		state:    StateIdle,
		timeLeft: RoundSeconds,
	}
	e.ticker = clock.NewSlot(opts.Clock, &e.mu, e.out.Flush)
	e.advance = clock.NewSlot(opts.Clock, &e.mu, e.out.Flush)
	return e
}

func (e *Engine) ID() string { return games.IDFocus }

// Start begins a round. It is ignored while a round is running.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.state != StatePlaying {
		e.score = 0
		e.answered = 0
		e.timeLeft = RoundSeconds
		e.state = StatePlaying
		e.round = rng.BeginRound(e.opts.Source)
		e.nextQuestionLocked()
		e.ticker.Arm(Tick, e.tickLocked)
		e.log.Debug("round started")
	}
	e.mu.Unlock()
	e.out.Flush()
}

func (e *Engine) nextQuestionLocked() {
	if e.state != StatePlaying {
		return
	}
	q := Generate(e.opts.Source)
	e.question = &q
	e.selected = nil
	e.feedback = FeedbackNone
	e.publishLocked()
}

func (e *Engine) tickLocked() {
	if e.state != StatePlaying {
		return
	}
	e.timeLeft--
	if e.timeLeft > 0 {
		e.ticker.Arm(Tick, e.tickLocked)
		e.publishLocked()
		return
	}

	e.timeLeft = 0
	e.advance.Cancel()
	e.state = StateCompleted
	e.log.Debug("round over", zap.Int("score", e.score), zap.Int("answered", e.answered))
	e.out.Report(games.IDFocus, e.score, e.viewLocked())
	e.publishLocked()
}

// Answer submits value for the current question. Only the first answer to a
// question counts, and values not among the choices are ignored.
func (e *Engine) Answer(value int) {
	e.mu.Lock()
	e.answerLocked(value)
	e.mu.Unlock()
	e.out.Flush()
}

// Select is Answer.
func (e *Engine) Select(value int) { e.Answer(value) }

func (e *Engine) answerLocked(value int) {
	if e.state != StatePlaying || e.question == nil || e.selected != nil {
		return
	}
	if !e.question.Has(value) {
		return
	}

	e.selected = &value
	e.answered++
	if value == e.question.Answer {
		e.score += PointsPerCorrect
		e.feedback = FeedbackCorrect
	} else {
		e.feedback = FeedbackIncorrect
	}
	e.advance.Arm(NextQuestionDelay, e.nextQuestionLocked)
	e.publishLocked()
}

// Reset abandons the round and returns to idle.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.ticker.Cancel()
	e.advance.Cancel()
	e.state = StateIdle
	e.round = nil
	e.question = nil
	e.selected = nil
	e.feedback = FeedbackNone
	e.score = 0
	e.answered = 0
	e.timeLeft = RoundSeconds
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
		State:    e.state,
		Feedback: e.feedback,
		Score:    e.score,
		Answered: e.answered,
		TimeLeft: e.timeLeft,
		Round:    e.round,
	}
	if e.question != nil {
		q := *e.question
		v.Question = &q
	}
	if e.selected != nil {
		s := *e.selected
		v.Selected = &s
	}
	return v
}

func (e *Engine) publishLocked() {
	e.out.Publish(games.IDFocus, string(e.state), e.viewLocked())
}
