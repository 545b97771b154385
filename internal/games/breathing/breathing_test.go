package breathing

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MJE43/mindful-arcade/internal/clock"
	"github.com/MJE43/mindful-arcade/internal/games"
)

type recorder struct{ scores []int }

func (r *recorder) Report(gameID string, score int) {
	if gameID == games.IDMindful {
		r.scores = append(r.scores, score)
	}
}

func newEngine(t *testing.T) (*Engine, *clock.Manual, *recorder) {
	t.Helper()
	m := clock.NewManual(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	rec := &recorder{}
	return New(games.Options{Clock: m, Reporter: rec}), m, rec
}

const cycle = 3 * PhaseSeconds * time.Second

func TestInitialView(t *testing.T) {
	e, _, _ := newEngine(t)
	want := View{
		Control:   ControlIdle,
		Phase:     PhaseInhale,
		Label:     "Breathe In",
		Remaining: PhaseSeconds,
	}
	if diff := cmp.Diff(want, e.Snapshot()); diff != "" {
		t.Errorf("initial view (-want +got):\n%s", diff)
	}
}

func TestPhaseRotation(t *testing.T) {
	e, m, _ := newEngine(t)
	e.Start()

	m.Advance(time.Second)
	v := e.Snapshot()
	assert.Equal(t, PhaseSeconds-1, v.Remaining)
	assert.InDelta(t, 25.0, v.Progress, 1e-9)

	m.Advance(3 * time.Second)
	v = e.Snapshot()
	assert.Equal(t, PhaseHold, v.Phase)
	assert.Equal(t, "Hold", v.Label)
	assert.Equal(t, PhaseSeconds, v.Remaining)
	assert.Zero(t, v.Progress)

	m.Advance(PhaseSeconds * time.Second)
	v = e.Snapshot()
	assert.Equal(t, PhaseExhale, v.Phase)
	assert.Equal(t, "Breathe Out", v.Label)
	assert.Zero(t, v.Cycles)

	m.Advance(PhaseSeconds*time.Second - time.Millisecond)
	assert.Zero(t, e.Snapshot().Cycles, "cycle must not count before exhale ends")
	m.Advance(time.Millisecond)
	v = e.Snapshot()
	assert.Equal(t, PhaseInhale, v.Phase)
	assert.Equal(t, 1, v.Cycles)
	assert.Equal(t, 12, v.TotalSeconds)
}

func TestCompletesAtExactlyFiveCycles(t *testing.T) {
	e, m, rec := newEngine(t)
	e.Start()

	m.Advance(4*cycle - time.Millisecond)
	assert.Equal(t, 3, e.Snapshot().Cycles)
	m.Advance(time.Millisecond)
	assert.Equal(t, 4, e.Snapshot().Cycles)
	assert.Equal(t, ControlRunning, e.Snapshot().Control)

	m.Advance(cycle)
	v := e.Snapshot()
	require.Equal(t, ControlCompleted, v.Control)
	assert.Equal(t, TargetCycles, v.Cycles)
	assert.Equal(t, 60, v.TotalSeconds)
	assert.Equal(t, []int{5}, rec.scores)
	assert.Zero(t, m.Pending())

	m.Advance(time.Hour)
	assert.Equal(t, TargetCycles, e.Snapshot().Cycles)
	assert.Len(t, rec.scores, 1)
}

func TestPauseKeepsPhaseAndCounters(t *testing.T) {
	e, m, rec := newEngine(t)
	e.Start()
	m.Advance(5 * time.Second)

	e.Pause()
	paused := e.Snapshot()
	assert.Equal(t, ControlPaused, paused.Control)
	assert.Zero(t, m.Pending())

	m.Advance(time.Minute)
	afterWait := e.Snapshot()
	if diff := cmp.Diff(paused, afterWait); diff != "" {
		t.Errorf("paused pacer changed (-before +after):\n%s", diff)
	}

	e.Resume()
	assert.Equal(t, ControlRunning, e.Snapshot().Control)
	m.Advance(5*cycle - 5*time.Second)
	assert.Equal(t, ControlCompleted, e.Snapshot().Control)
	assert.Equal(t, 60, e.Snapshot().TotalSeconds)
	assert.Equal(t, []int{5}, rec.scores)
}

func TestToggleAndStartResume(t *testing.T) {
	e, m, _ := newEngine(t)

	e.Toggle()
	assert.Equal(t, ControlIdle, e.Snapshot().Control, "toggle does not start an idle pacer")

	e.Start()
	m.Advance(2 * time.Second)
	e.Toggle()
	assert.Equal(t, ControlPaused, e.Snapshot().Control)
	e.Toggle()
	assert.Equal(t, ControlRunning, e.Snapshot().Control)

	e.Pause()
	e.Start()
	v := e.Snapshot()
	assert.Equal(t, ControlRunning, v.Control)
	assert.Equal(t, 2, v.TotalSeconds, "start on a paused pacer resumes it")
}

func TestPauseWhenNotRunningIgnored(t *testing.T) {
	e, _, _ := newEngine(t)
	e.Pause()
	e.Resume()
	assert.Equal(t, ControlIdle, e.Snapshot().Control)
}

func TestResetStopsTicking(t *testing.T) {
	e, m, rec := newEngine(t)
	e.Start()
	m.Advance(cycle + 3*time.Second)

	e.Reset()
	assert.Zero(t, m.Pending())
	m.Advance(10 * cycle)

	v := e.Snapshot()
	assert.Equal(t, ControlIdle, v.Control)
	assert.Zero(t, v.Cycles)
	assert.Zero(t, v.TotalSeconds)
	assert.Empty(t, rec.scores)
}

func TestResetIdempotent(t *testing.T) {
	for _, setup := range []func(e *Engine, m *clock.Manual){
		func(e *Engine, m *clock.Manual) {},
		func(e *Engine, m *clock.Manual) { e.Start(); m.Advance(7 * time.Second) },
		func(e *Engine, m *clock.Manual) { e.Start(); m.Advance(time.Second); e.Pause() },
		func(e *Engine, m *clock.Manual) { e.Start(); m.Advance(5 * cycle) },
	} {
		e, m, _ := newEngine(t)
		setup(e, m)
		e.Reset()
		once := e.Snapshot()
		e.Reset()
		if diff := cmp.Diff(once, e.Snapshot()); diff != "" {
			t.Errorf("second reset changed state (-once +twice):\n%s", diff)
		}
	}
}
