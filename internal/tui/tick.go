package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// FrameRate is how often the model re-reads engine snapshots.
const FrameRate = 10

// FrameMsg triggers a redraw.
type FrameMsg time.Time

// frameCmd schedules the next FrameMsg at the given rate per second.
func frameCmd(rate int) tea.Cmd {
	interval := time.Second / time.Duration(rate)
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return FrameMsg(t)
	})
}
