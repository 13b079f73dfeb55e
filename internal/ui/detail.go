package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/pantry/internal/mealdb"
)

// shownMeal returns the meal the detail screen is displaying, if it has
// arrived.
func (m Model) shownMeal() (mealdb.Meal, bool) {
	if m.detailID == "" || m.shown.ID != m.detailID {
		return mealdb.Meal{}, false
	}
	return m.shown, true
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	meal, ok := m.shownMeal()
	switch {
	case key.Matches(msg, m.keys.Save):
		if ok && m.store != nil {
			m.store.Save(meal)
		}
	case key.Matches(msg, m.keys.Remove):
		if ok && m.store != nil {
			m.store.Remove(meal)
		}
	case key.Matches(msg, m.keys.Up):
		m.detailViewport.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.detailViewport.ScrollDown(1)
	case key.Matches(msg, m.keys.PageUp):
		m.detailViewport.PageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.detailViewport.PageDown()
	case key.Matches(msg, m.keys.Top):
		m.detailViewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.detailViewport.GotoBottom()
	}
	return m, nil
}

// updateDetailViewport resizes the viewport and re-renders its content.
func (m *Model) updateDetailViewport() {
	width := max(m.width-4, 10)
	height := max(m.contentHeight()-2, 1)
	if m.detailViewport.Width == 0 {
		m.detailViewport = viewport.New(width, height)
	}
	m.detailViewport.Width = width
	m.detailViewport.Height = height
	m.detailViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))
	m.detailViewport.SetContent(m.renderDetailContent(width))
}

func (m Model) renderDetail() string {
	height := m.contentHeight()
	if m.detailID == "" {
		msg := m.theme.Styles().MutedText.Render("Open a meal from any list to see it here")
		return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, msg)
	}
	title := "Meal"
	if meal, ok := m.shownMeal(); ok {
		title = meal.Name
	}
	return m.renderTitledBox(title, m.detailViewport.View(), m.width, height, true)
}

// renderDetailContent renders the full recipe for the viewport.
func (m Model) renderDetailContent(width int) string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()

	meal, ok := m.shownMeal()
	if !ok {
		if m.detailID == "" {
			return ""
		}
		return bg.Render(m.emptyHint("Loading meal "+m.detailID), styles.MutedText)
	}

	var b strings.Builder
	heading := bg.Render(meal.Name, styles.Text.Bold(true))
	if m.saved[meal.ID] {
		heading += bg.Spaces(2) + bg.Render("★ Saved", styles.WarningText.Bold(true))
	}
	b.WriteString(heading)
	b.WriteString("\n")
	if origin := mealOrigin(meal); origin != "" {
		b.WriteString(bg.Render(origin, styles.AccentText))
		b.WriteString("\n")
	}
	if tags := meal.TagList(); len(tags) > 0 {
		b.WriteString(bg.Render("Tags", styles.FaintText) + bg.Space() +
			bg.Render(strings.Join(tags, ", "), styles.InfoText))
		b.WriteString("\n")
	}

	if len(meal.Ingredients) > 0 {
		b.WriteString("\n")
		b.WriteString(bg.Render(fmt.Sprintf("Ingredients (%d)", len(meal.Ingredients)), styles.AccentText.Bold(true)))
		b.WriteString("\n")
		for _, ing := range meal.Ingredients {
			line := bg.Render("•", styles.FaintText) + bg.Space()
			if measure := strings.TrimSpace(ing.Measure); measure != "" {
				line += bg.Render(measure, styles.MutedText) + bg.Space()
			}
			line += bg.Render(ing.Name, styles.Text)
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	if instructions := strings.TrimSpace(meal.Instructions); instructions != "" {
		b.WriteString("\n")
		b.WriteString(bg.Render("Instructions", styles.AccentText.Bold(true)))
		b.WriteString("\n")
		wrap := styles.Text.Background(lipgloss.Color(m.theme.FocusBg)).Width(width)
		for _, para := range strings.Split(instructions, "\n") {
			para = strings.TrimSpace(para)
			if para == "" {
				continue
			}
			b.WriteString(wrap.Render(para))
			b.WriteString("\n")
		}
	}

	links := []struct{ label, url string }{
		{"YouTube", meal.YouTube},
		{"Source", meal.Source},
	}
	wroteLinks := false
	for _, link := range links {
		if strings.TrimSpace(link.url) == "" {
			continue
		}
		if !wroteLinks {
			b.WriteString("\n")
			wroteLinks = true
		}
		b.WriteString(bg.Render(fmt.Sprintf("%-8s", link.label), styles.FaintText) +
			bg.Render(truncateMiddle(link.url, max(width-9, 10)), styles.InfoText))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.saved[meal.ID] {
		b.WriteString(bg.Render("x", styles.AccentText) + bg.Render(" remove from favorites", styles.FaintText))
	} else {
		b.WriteString(bg.Render("s", styles.AccentText) + bg.Render(" save to favorites", styles.FaintText))
	}
	return b.String()
}
