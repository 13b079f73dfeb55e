package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/pantry/internal/logtail"
)

// maxProblemRows bounds the entries rendered from the log tail.
const maxProblemRows = 200

func (m Model) handleProblemsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.problemsViewport.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.problemsViewport.ScrollDown(1)
	case key.Matches(msg, m.keys.PageUp):
		m.problemsViewport.PageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.problemsViewport.PageDown()
	case key.Matches(msg, m.keys.Top):
		m.problemsViewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.problemsViewport.GotoBottom()
	}
	return m, nil
}

func (m *Model) updateProblemsViewport() {
	width := max(m.width-4, 10)
	height := max(m.contentHeight()-2, 1)
	if m.problemsViewport.Width == 0 {
		m.problemsViewport = viewport.New(width, height)
	}
	m.problemsViewport.Width = width
	m.problemsViewport.Height = height
	m.problemsViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))
	m.problemsViewport.SetContent(m.renderProblemsContent(width))
}

func (m Model) renderProblems() string {
	title := fmt.Sprintf("Problems (%d)", len(m.problems))
	return m.renderTitledBox(title, m.problemsViewport.View(), m.width, m.contentHeight(), true)
}

// renderProblemsContent lists request health followed by recent warnings
// and errors from the log file, newest first.
func (m Model) renderProblemsContent(width int) string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	label := func(s string) string { return bg.Render(fmt.Sprintf("%-12s", s), styles.FaintText) }

	var b strings.Builder
	b.WriteString(bg.Render("Requests", styles.AccentText.Bold(true)))
	b.WriteString("\n")

	snap := m.snapshot
	switch {
	case snap.IsOffline():
		b.WriteString(label("Status") + bg.Render("Offline", styles.DangerText))
	case snap.ConsecutiveFailures > 0:
		b.WriteString(label("Status") + bg.Render("Degraded", styles.WarningText))
	default:
		b.WriteString(label("Status") + bg.Render("OK", styles.SuccessText))
	}
	b.WriteString("\n")
	b.WriteString(label("Failures") + bg.Render(fmt.Sprintf("%d in a row", snap.ConsecutiveFailures), styles.Text))
	b.WriteString("\n")
	b.WriteString(label("In flight") + bg.Render(fmt.Sprintf("%d", snap.InFlight), styles.Text))
	b.WriteString("\n")
	if snap.LastError != nil {
		b.WriteString(label("Last error") +
			bg.Render(snap.LastFailedOp, styles.WarningText) + bg.Render(": ", styles.FaintText) +
			bg.Render(truncate(snap.LastError.Error(), max(width-20, 10)), styles.DangerText))
		b.WriteString("\n")
	}
	if !snap.LastUpdated.IsZero() {
		b.WriteString(label("Updated") + bg.Render(snap.LastUpdated.Format("15:04:05"), styles.MutedText))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(bg.Render("Log", styles.AccentText.Bold(true)))
	if m.config != nil {
		b.WriteString(bg.Space() + bg.Render(truncateMiddle(m.config.LogPath(), max(width-6, 10)), styles.FaintText))
	}
	b.WriteString("\n")

	switch {
	case m.problemsErr != nil:
		b.WriteString(bg.Render("Cannot read log: "+m.problemsErr.Error(), styles.DangerText))
		b.WriteString("\n")
	case len(m.problems) == 0:
		b.WriteString(bg.Render("No warnings or errors", styles.MutedText))
		b.WriteString("\n")
	default:
		for i, entry := range m.problems {
			if i >= maxProblemRows {
				break
			}
			b.WriteString(m.formatProblem(entry, width, styles, bg))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// formatProblem renders one entry: time, level badge, message, then its
// attributes on an indented line.
func (m Model) formatProblem(e logtail.Entry, width int, styles Styles, bg BgStyle) string {
	ts := "--:--:--"
	if !e.Time.IsZero() {
		ts = e.Time.Local().Format("15:04:05")
	}
	line := bg.Render(ts, styles.FaintText) + bg.Space() +
		styles.LevelStyle(e.Level).Render(e.Level.String()) + bg.Space() +
		bg.Render(truncate(e.Message, max(width-18, 10)), styles.Text)

	attrs := e.SortedAttrs()
	if len(attrs) == 0 {
		return line
	}
	detail := truncate(strings.Join(attrs, " "), max(width-4, 10))
	return line + "\n" + bg.Spaces(4) + bg.Render(detail, styles.MutedText)
}
