package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/MJE43/mindful-arcade/internal/arcade"
	"github.com/MJE43/mindful-arcade/internal/clock"
	"github.com/MJE43/mindful-arcade/internal/games"
	"github.com/MJE43/mindful-arcade/internal/games/arithmetic"
	"github.com/MJE43/mindful-arcade/internal/games/breathing"
	"github.com/MJE43/mindful-arcade/internal/games/memory"
	"github.com/MJE43/mindful-arcade/internal/games/reaction"
	"github.com/MJE43/mindful-arcade/internal/rng"
)

func newTestModel(t *testing.T) (Model, *arcade.Arcade, *clock.Manual) {
	t.Helper()
	m := clock.NewManual(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	a := arcade.New(arcade.Config{Clock: m, Source: rng.NewSequence(0)})
	t.Cleanup(a.Close)
	return New(a, nil), a, m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}
	return m
}

func TestGameSelection(t *testing.T) {
	m, _, _ := newTestModel(t)
	if m.Active() != games.IDFocus {
		t.Fatalf("Expected focus selected first, got %s", m.Active())
	}

	m = press(t, m, "3")
	if m.Active() != games.IDReaction {
		t.Errorf("Expected reaction after 3, got %s", m.Active())
	}
	m = press(t, m, "tab")
	if m.Active() != games.IDMindful {
		t.Errorf("Expected mindful after tab, got %s", m.Active())
	}
	m = press(t, m, "tab")
	if m.Active() != games.IDFocus {
		t.Errorf("Expected tab to wrap to focus, got %s", m.Active())
	}
	m = press(t, m, "9")
	if m.Active() != games.IDFocus {
		t.Errorf("Expected unknown digit to be ignored, got %s", m.Active())
	}
}

func TestReactionThroughKeys(t *testing.T) {
	m, a, clk := newTestModel(t)
	m = press(t, m, "3", "s")
	clk.Advance(reaction.MinDelay + 200*time.Millisecond)
	m = press(t, m, "space")

	v, _ := a.Snapshot(games.IDReaction)
	rv := v.(reaction.View)
	if rv.State != reaction.StateClicked || rv.Score != 800 {
		t.Fatalf("Expected clicked with 800 points, got %+v", rv)
	}
	if !strings.Contains(m.View(), "200 ms") {
		t.Errorf("Expected latency in view:\n%s", m.View())
	}
	if a.Scores()[games.IDReaction] != 800 {
		t.Errorf("Expected board to hold 800, got %v", a.Scores())
	}
}

func TestPauseToggle(t *testing.T) {
	m, a, clk := newTestModel(t)
	m = press(t, m, "4", "s")
	clk.Advance(2 * time.Second)

	m = press(t, m, "p")
	v, _ := a.Snapshot(games.IDMindful)
	if v.(breathing.View).Control != breathing.ControlPaused {
		t.Fatalf("Expected paused, got %+v", v)
	}
	if !strings.Contains(m.View(), "paused") {
		t.Error("Expected paused marker in view")
	}

	m = press(t, m, "p")
	v, _ = a.Snapshot(games.IDMindful)
	if v.(breathing.View).Control != breathing.ControlRunning {
		t.Fatalf("Expected running, got %+v", v)
	}
}

func TestPauseUnsupported(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = press(t, m, "2", "p")
	if !strings.Contains(m.status, "not available") {
		t.Errorf("Expected status message, got %q", m.status)
	}
	m = press(t, m, "s")
	if m.status != "" {
		t.Errorf("Expected status cleared on next key, got %q", m.status)
	}
}

func TestMemoryCursor(t *testing.T) {
	m, a, clk := newTestModel(t)
	m = press(t, m, "2", "right")
	if m.Cursor() != 0 {
		t.Fatalf("Expected cursor to stay put without cards, got %d", m.Cursor())
	}

	m = press(t, m, "s")
	clk.Advance(memory.PreviewTicks * memory.Tick)

	m = press(t, m, "left")
	if m.Cursor() != 0 {
		t.Errorf("Expected cursor clamped at 0, got %d", m.Cursor())
	}
	m = press(t, m, "right", "down")
	if m.Cursor() != 1+memoryColumns {
		t.Errorf("Expected cursor %d, got %d", 1+memoryColumns, m.Cursor())
	}

	m = press(t, m, "enter")
	v, _ := a.Snapshot(games.IDMemory)
	mv := v.(memory.View)
	if !mv.Cards[m.Cursor()].Flipped {
		t.Errorf("Expected card under cursor flipped, got %+v", mv.Cards[m.Cursor()])
	}
}

func TestArithmeticAnswerUnderCursor(t *testing.T) {
	m, a, _ := newTestModel(t)
	m = press(t, m, "1", "s", "right", "down")
	if m.Cursor() != 3 {
		t.Fatalf("Expected cursor 3, got %d", m.Cursor())
	}
	m = press(t, m, "down")
	if m.Cursor() != 3 {
		t.Errorf("Expected cursor clamped at 3, got %d", m.Cursor())
	}

	m = press(t, m, "enter")
	v, _ := a.Snapshot(games.IDFocus)
	av := v.(arithmetic.View)
	if av.Selected == nil || *av.Selected != av.Question.Choices[3] {
		t.Fatalf("Expected choice 3 selected, got %+v", av)
	}
	if av.Answered != 1 {
		t.Errorf("Expected 1 answered, got %d", av.Answered)
	}
	if !strings.Contains(m.View(), av.Question.String()) {
		t.Errorf("Expected question in view:\n%s", m.View())
	}
}

func TestResetAndQuit(t *testing.T) {
	m, a, _ := newTestModel(t)
	m = press(t, m, "4", "s", "r")
	v, _ := a.Snapshot(games.IDMindful)
	if v.(breathing.View).Control != breathing.ControlIdle {
		t.Fatalf("Expected idle after reset, got %+v", v)
	}

	next, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
	if next.(Model).View() != "" {
		t.Error("Expected empty view after quit")
	}
}

func TestFrameTick(t *testing.T) {
	m, _, _ := newTestModel(t)
	if m.Init() == nil {
		t.Fatal("Expected frame command from Init")
	}
	_, cmd := m.Update(FrameMsg(time.Now()))
	if cmd == nil {
		t.Error("Expected the frame loop to continue")
	}
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	if next.(Model).width != 100 {
		t.Error("Expected width to be recorded")
	}
}
