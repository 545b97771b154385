// Package tui is a Bubble Tea terminal host for the arcade. Engines run on
// the real clock; the model redraws from their snapshots on a fixed frame
// tick and forwards key presses as presentation events.
package tui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/MJE43/mindful-arcade/internal/arcade"
	"github.com/MJE43/mindful-arcade/internal/games"
	"github.com/MJE43/mindful-arcade/internal/games/arithmetic"
	"github.com/MJE43/mindful-arcade/internal/games/breathing"
	"github.com/MJE43/mindful-arcade/internal/games/memory"
)

// memoryColumns is the width of the card grid.
const memoryColumns = 4

// Model is the root Bubble Tea model.
type Model struct {
	arcade *arcade.Arcade
	ids    []string
	active int
	cursor int
	status string
	styles Styles
	log    *zap.Logger
	width  int
	height int
	quit   bool
}

// New builds a model over a. The first catalog game is selected.
func New(a *arcade.Arcade, log *zap.Logger) Model {
	if log == nil {
		log = zap.NewNop()
	}
	var ids []string
	for _, g := range a.Games() {
		ids = append(ids, g.ID)
	}
	return Model{
		arcade: a,
		ids:    ids,
		styles: DefaultStyles(),
		log:    log,
	}
}

// Active returns the selected game id.
func (m Model) Active() string {
	if len(m.ids) == 0 {
		return ""
	}
	return m.ids[m.active]
}

// Cursor returns the card or choice index under the cursor.
func (m Model) Cursor() int { return m.cursor }

func (m Model) Init() tea.Cmd {
	return frameCmd(FrameRate)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case FrameMsg:
		if m.quit {
			return m, nil
		}
		return m, frameCmd(FrameRate)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch key := msg.String(); key {
	case "q", "ctrl+c":
		m.quit = true
		m.arcade.Close()
		return m, tea.Quit

	case "1", "2", "3", "4":
		if n := int(key[0] - '1'); n < len(m.ids) {
			m.active = n
			m.cursor = 0
		}

	case "tab":
		m.active = (m.active + 1) % len(m.ids)
		m.cursor = 0

	case "s":
		m.dispatch(arcade.ActionStart, 0)
		m.cursor = 0

	case "r":
		m.dispatch(arcade.ActionReset, 0)
		m.cursor = 0

	case "p":
		m.togglePause()

	case " ", "enter":
		m.activate()

	case "left", "h":
		m.moveCursor(-1)
	case "right", "l":
		m.moveCursor(1)
	case "up", "k":
		m.moveCursor(-m.rowStride())
	case "down", "j":
		m.moveCursor(m.rowStride())
	}
	return m, nil
}

func (m *Model) dispatch(action arcade.Action, value int) {
	id := m.Active()
	if err := m.arcade.Do(id, action, value); err != nil {
		if errors.Is(err, arcade.ErrUnsupportedAction) {
			m.status = string(action) + " is not available here"
			return
		}
		m.log.Warn("dispatch", zap.String("game", id), zap.String("action", string(action)), zap.Error(err))
		m.status = err.Error()
	}
}

// activate sends the game's primary input: a click, the card under the
// cursor or the highlighted answer.
func (m *Model) activate() {
	switch v := m.snapshot().(type) {
	case memory.View:
		if m.cursor < len(v.Cards) {
			m.dispatch(arcade.ActionSelect, v.Cards[m.cursor].ID)
		}
	case arithmetic.View:
		if v.Question != nil && m.cursor < len(v.Question.Choices) {
			m.dispatch(arcade.ActionSelect, v.Question.Choices[m.cursor])
		}
	default:
		m.dispatch(arcade.ActionSelect, 0)
	}
}

func (m *Model) togglePause() {
	v, ok := m.snapshot().(breathing.View)
	if !ok {
		m.dispatch(arcade.ActionPause, 0)
		return
	}
	if v.Control == breathing.ControlRunning {
		m.dispatch(arcade.ActionPause, 0)
	} else {
		m.dispatch(arcade.ActionResume, 0)
	}
}

// cursorSpan is the number of selectable cells in the active game.
func (m Model) cursorSpan() int {
	switch v := m.snapshot().(type) {
	case memory.View:
		return len(v.Cards)
	case arithmetic.View:
		return arithmetic.ChoiceCount
	}
	return 0
}

func (m Model) rowStride() int {
	if m.Active() == games.IDMemory {
		return memoryColumns
	}
	return 2
}

func (m *Model) moveCursor(delta int) {
	span := m.cursorSpan()
	if span == 0 {
		return
	}
	next := m.cursor + delta
	if next < 0 || next >= span {
		return
	}
	m.cursor = next
}

func (m Model) snapshot() any {
	v, err := m.arcade.Snapshot(m.Active())
	if err != nil {
		return nil
	}
	return v
}
