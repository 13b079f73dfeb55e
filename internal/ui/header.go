package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/pantry/internal/mealdb"
)

// renderHeader renders the status line: logo, connection state, current
// view and favorites count.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)

	parts := []string{bg.Render("pantry", styles.Logo)}

	snap := m.snapshot
	switch {
	case snap.IsOffline():
		parts = append(parts, bg.Render("● OFFLINE", styles.DangerText))
	case snap.InFlight > 0:
		parts = append(parts, bg.Render(fmt.Sprintf("● Loading %d", snap.InFlight), styles.WarningText))
	default:
		parts = append(parts, bg.Render("● ONLINE", styles.SuccessText))
	}

	parts = append(parts,
		bg.Render("View:", styles.MutedText)+bg.Space()+bg.Render(m.currentView.String(), styles.Text),
		bg.Render("Favorites:", styles.MutedText)+bg.Space()+bg.Render(fmt.Sprintf("%d", len(m.favorites)), styles.Text),
	)

	if snap.LastError != nil && m.width >= 100 {
		msg := classifyError(snap.LastError)
		parts = append(parts, bg.Render(snap.LastFailedOp+" "+msg, styles.DangerText))
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(styles.Header.Render(bg.Join(parts, sep)))
}

// classifyError turns a request error into a short status label.
func classifyError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "deadline exceeded") || strings.Contains(msg, "timeout"):
		return "TIMEOUT"
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host"):
		return "UNREACHABLE"
	case strings.Contains(msg, "decode"):
		return "BAD RESPONSE"
	case errors.Is(err, mealdb.ErrFetchFailed):
		return "FAILED"
	default:
		return "ERROR"
	}
}

// renderCommandBar renders the key hints for the current view.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewCategory:
		commands = []cmd{
			{"j/k", "Navigate"},
			{"enter", "Open"},
			{"R", "Reload"},
			{"esc", "Home"},
		}
	case ViewDetail:
		commands = []cmd{
			{"s", "Save"},
			{"x", "Remove"},
			{"j/k", "Scroll"},
			{"R", "Reload"},
			{"esc", "Back"},
		}
	case ViewFavorites:
		commands = []cmd{
			{"/", "Search"},
			{"enter", "Open"},
			{"x", "Remove"},
			{"esc", "Clear"},
		}
	case ViewProblems:
		commands = []cmd{
			{"j/k", "Scroll"},
			{"R", "Refresh"},
			{"esc", "Home"},
		}
	default: // ViewHome
		commands = []cmd{
			{"r", "Reroll"},
			{"o", "Open"},
			{"s", "Save"},
			{"←/→", "Pane"},
			{"enter", "Open"},
			{"f", "Favorites"},
			{"p", "Problems"},
		}
	}
	commands = append(commands, cmd{"tab", "Views"}, cmd{"?", "More"})

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+2)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	if m.currentView == ViewFavorites && m.searchQuery != "" {
		segments = append(segments, bg.Render("/"+truncate(m.searchQuery, 18), styles.AccentText))
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}
