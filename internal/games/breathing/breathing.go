// Package breathing implements the paced breathing exercise: a fixed
// inhale, hold, exhale rotation that completes after a set number of cycles.
package breathing

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/MJE43/mindful-arcade/internal/clock"
	"github.com/MJE43/mindful-arcade/internal/games"
)

// Phase is one step of the breathing rotation.
type Phase string

const (
	PhaseInhale Phase = "inhale"
	PhaseHold   Phase = "hold"
	PhaseExhale Phase = "exhale"
)

// Label is the instruction shown for the phase.
func (p Phase) Label() string {
	switch p {
	case PhaseHold:
		return "Hold"
	case PhaseExhale:
		return "Breathe Out"
	default:
		return "Breathe In"
	}
}

func (p Phase) next() Phase {
	switch p {
	case PhaseInhale:
		return PhaseHold
	case PhaseHold:
		return PhaseExhale
	default:
		return PhaseInhale
	}
}

// Control is the outer run state.
type Control string

const (
	ControlIdle      Control = "idle"
	ControlRunning   Control = "running"
	ControlPaused    Control = "paused"
	ControlCompleted Control = "completed"
)

const (
	PhaseSeconds = 4
	TargetCycles = 5
	Tick         = time.Second
)

// View is the read-only projection hosts render.
type View struct {
	Control      Control `json:"control"`
	Phase        Phase   `json:"phase"`
	Label        string  `json:"label"`
	Remaining    int     `json:"remaining"`
	Progress     float64 `json:"progress"`
	Cycles       int     `json:"cycles"`
	TotalSeconds int     `json:"total_seconds"`
}

// Engine is the breathing pacer.
type Engine struct {
	mu     sync.Mutex
	log    *zap.Logger
	out    *games.Outbox
	ticker *clock.Slot

	control   Control
	phase     Phase
	remaining int
	cycles    int
	total     int
}

// New creates an idle pacer.
func New(opts games.Options) *Engine {
	opts = opts.WithDefaults()
	e := &Engine{
		log: opts.Logger.With(zap.String("game", games.IDMindful)),
		out: games.NewOutbox(opts.Reporter, opts.Listener),
	}
	e.ticker = clock.NewSlot(opts.Clock, &e.mu, e.out.Flush)
	e.resetLocked()
	return e
}

func (e *Engine) ID() string { return games.IDMindful }

// Start begins a fresh session from idle or after completion. On a paused
// session it resumes.
func (e *Engine) Start() {
	e.mu.Lock()
	switch e.control {
	case ControlIdle, ControlCompleted:
		e.resetLocked()
		e.control = ControlRunning
		e.ticker.Arm(Tick, e.tickLocked)
		e.publishLocked()
	case ControlPaused:
		e.resumeLocked()
	}
	e.mu.Unlock()
	e.out.Flush()
}

func (e *Engine) tickLocked() {
	if e.control != ControlRunning {
		return
	}
	e.total++
	e.remaining--
	if e.remaining <= 0 {
		e.phase = e.phase.next()
		e.remaining = PhaseSeconds
		if e.phase == PhaseInhale {
			e.cycles++
		}
	}

	if e.cycles >= TargetCycles {
		e.control = ControlCompleted
		e.log.Debug("session complete", zap.Int("cycles", e.cycles), zap.Int("total_seconds", e.total))
		e.out.Report(games.IDMindful, e.cycles, e.viewLocked())
		e.publishLocked()
		return
	}
	e.ticker.Arm(Tick, e.tickLocked)
	e.publishLocked()
}

// Pause stops ticking without touching phase or counters.
func (e *Engine) Pause() {
	e.mu.Lock()
	if e.control == ControlRunning {
		e.ticker.Cancel()
		e.control = ControlPaused
		e.publishLocked()
	}
	e.mu.Unlock()
	e.out.Flush()
}

// Resume continues a paused session.
func (e *Engine) Resume() {
	e.mu.Lock()
	e.resumeLocked()
	e.mu.Unlock()
	e.out.Flush()
}

func (e *Engine) resumeLocked() {
	if e.control != ControlPaused {
		return
	}
	e.control = ControlRunning
	e.ticker.Arm(Tick, e.tickLocked)
	e.publishLocked()
}

// Toggle pauses a running session and resumes a paused one.
func (e *Engine) Toggle() {
	e.mu.Lock()
	switch e.control {
	case ControlRunning:
		e.ticker.Cancel()
		e.control = ControlPaused
		e.publishLocked()
	case ControlPaused:
		e.resumeLocked()
	}
	e.mu.Unlock()
	e.out.Flush()
}

// Select is Toggle; the value is ignored.
func (e *Engine) Select(int) { e.Toggle() }

// Reset stops ticking and restores the initial phase and counters.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.resetLocked()
	e.publishLocked()
	e.mu.Unlock()
	e.out.Flush()
}

func (e *Engine) resetLocked() {
	e.ticker.Cancel()
	e.control = ControlIdle
	e.phase = PhaseInhale
	e.remaining = PhaseSeconds
	e.cycles = 0
	e.total = 0
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
	return View{
		Control:      e.control,
		Phase:        e.phase,
		Label:        e.phase.Label(),
		Remaining:    e.remaining,
		Progress:     float64(PhaseSeconds-e.remaining) / PhaseSeconds * 100,
		Cycles:       e.cycles,
		TotalSeconds: e.total,
	}
}

func (e *Engine) publishLocked() {
	e.out.Publish(games.IDMindful, string(e.control), e.viewLocked())
}
