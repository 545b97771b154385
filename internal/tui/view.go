package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/MJE43/mindful-arcade/internal/games"
	"github.com/MJE43/mindful-arcade/internal/games/arithmetic"
	"github.com/MJE43/mindful-arcade/internal/games/breathing"
	"github.com/MJE43/mindful-arcade/internal/games/memory"
	"github.com/MJE43/mindful-arcade/internal/games/reaction"
)

func (m Model) View() string {
	if m.quit {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Mindful Arcade"))
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")

	spec, _ := games.Lookup(m.Active())
	body := m.styles.Info.Render(spec.Description) + "\n\n" + m.renderGame()
	b.WriteString(m.styles.Panel.Render(body))
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(m.styles.Warning.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.renderScores())
	b.WriteString(m.styles.Help.Render("1-4 game • s start • space/enter act • arrows move • p pause • r reset • q quit"))
	return b.String()
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, len(m.ids))
	for i, id := range m.ids {
		spec, _ := games.Lookup(id)
		label := fmt.Sprintf("%d %s", i+1, spec.Title)
		if i == m.active {
			tabs = append(tabs, m.styles.ActiveTab.Render(label))
		} else {
			tabs = append(tabs, m.styles.Tab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderScores() string {
	best := m.arcade.Scores()
	parts := make([]string, 0, len(m.ids))
	for _, id := range m.ids {
		spec, _ := games.Lookup(id)
		score, ok := best[id]
		val := "-"
		if ok {
			val = fmt.Sprint(score)
		}
		parts = append(parts, fmt.Sprintf("%s %s", spec.Title, val))
	}
	return m.styles.Muted.Render("Best: "+strings.Join(parts, " · ")) + "\n"
}

func (m Model) renderGame() string {
	switch v := m.snapshot().(type) {
	case reaction.View:
		return m.renderReaction(v)
	case memory.View:
		return m.renderMemory(v)
	case arithmetic.View:
		return m.renderArithmetic(v)
	case breathing.View:
		return m.renderBreathing(v)
	}
	return m.styles.Muted.Render("no game selected")
}

func (m Model) renderReaction(v reaction.View) string {
	var line string
	switch v.State {
	case reaction.StateIdle:
		line = "Press s to start."
	case reaction.StateWaiting:
		line = m.styles.Error.Render("Wait for green...")
	case reaction.StateReady:
		line = m.styles.Success.Render("CLICK NOW!")
	case reaction.StateClicked:
		line = m.styles.Success.Render(fmt.Sprintf("%d ms, %d points", v.LatencyMs, v.Score))
	case reaction.StateEarly:
		line = m.styles.Warning.Render("Too early! Press s to try again.")
	}

	stats := fmt.Sprintf("Attempts: %d", v.Attempts)
	if v.BestMs > 0 {
		stats += fmt.Sprintf("   Best: %d ms", v.BestMs)
	}
	return line + "\n\n" + m.styles.Muted.Render(stats)
}

func (m Model) renderMemory(v memory.View) string {
	if v.State == memory.StateIdle {
		return "Press s to deal the cards."
	}

	var rows []string
	var row []string
	for i, c := range v.Cards {
		face, style := "??", m.styles.Card
		switch {
		case c.Matched:
			face, style = string(c.Symbol), m.styles.CardDone
		case c.Flipped || v.State == memory.StatePreview:
			face, style = string(c.Symbol), m.styles.CardOpen
		}
		if i == m.cursor && v.State == memory.StatePlaying {
			style = m.styles.Cursor
		}
		row = append(row, style.Render(face))
		if len(row) == memoryColumns {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}

	status := fmt.Sprintf("Moves: %d   Time: %ds", v.Moves, v.ElapsedSeconds)
	switch v.State {
	case memory.StatePreview:
		status = fmt.Sprintf("Memorize! %d", v.PreviewLeft)
	case memory.StateCompleted:
		status = m.styles.Success.Render(fmt.Sprintf("Completed in %d moves, %d points", v.Moves, v.Score))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...) + "\n\n" + status
}

func (m Model) renderArithmetic(v arithmetic.View) string {
	header := fmt.Sprintf("Score: %d   Answered: %d   Time: %ds", v.Score, v.Answered, v.TimeLeft)
	switch v.State {
	case arithmetic.StateIdle:
		return "Press s to start a 60 second round."
	case arithmetic.StateCompleted:
		return m.styles.Success.Render(fmt.Sprintf("Time's up! %d points from %d answers.", v.Score, v.Answered))
	}
	if v.Question == nil {
		return header
	}

	choices := make([]string, len(v.Question.Choices))
	for i, c := range v.Question.Choices {
		style := m.styles.Choice
		switch {
		case v.Selected != nil && c == v.Question.Answer:
			style = style.BorderForeground(colorPrimary)
		case v.Selected != nil && c == *v.Selected:
			style = style.BorderForeground(colorError)
		case i == m.cursor:
			style = style.BorderForeground(colorWarning)
		}
		choices[i] = style.Render(fmt.Sprint(c))
	}

	feedback := ""
	switch v.Feedback {
	case arithmetic.FeedbackCorrect:
		feedback = m.styles.Success.Render("Correct!")
	case arithmetic.FeedbackIncorrect:
		feedback = m.styles.Error.Render(fmt.Sprintf("The answer was %d", v.Question.Answer))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Muted.Render(header),
		"",
		m.styles.Title.Render(v.Question.String()+" = ?"),
		lipgloss.JoinHorizontal(lipgloss.Top, choices[:2]...),
		lipgloss.JoinHorizontal(lipgloss.Top, choices[2:]...),
		feedback,
	)
}

func (m Model) renderBreathing(v breathing.View) string {
	if v.Control == breathing.ControlIdle {
		return "Press s to begin. Follow the prompts for five cycles."
	}
	if v.Control == breathing.ControlCompleted {
		return m.styles.Success.Render(fmt.Sprintf("Session complete: %d cycles in %ds.", v.Cycles, v.TotalSeconds))
	}

	const barWidth = 24
	filled := int(v.Progress / 100 * barWidth)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	label := m.styles.Title.Render(fmt.Sprintf("%s  %d", v.Label, v.Remaining))
	if v.Control == breathing.ControlPaused {
		label += m.styles.Warning.Render("  (paused)")
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		label,
		m.styles.Info.Render(bar),
		m.styles.Muted.Render(fmt.Sprintf("Cycle %d of %d   %ds", v.Cycles+1, breathing.TargetCycles, v.TotalSeconds)),
	)
}
