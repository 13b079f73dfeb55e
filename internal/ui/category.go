package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (m Model) handleCategoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.categoryMeals)
	switch {
	case key.Matches(msg, m.keys.Up):
		m.mealSel = clampIndex(m.mealSel-1, n)
	case key.Matches(msg, m.keys.Down):
		m.mealSel = clampIndex(m.mealSel+1, n)
	case key.Matches(msg, m.keys.Top):
		m.mealSel = 0
	case key.Matches(msg, m.keys.Bottom):
		m.mealSel = clampIndex(n-1, n)
	case key.Matches(msg, m.keys.PageDown):
		m.mealSel = clampIndex(m.mealSel+m.contentHeight()-2, n)
	case key.Matches(msg, m.keys.PageUp):
		m.mealSel = clampIndex(m.mealSel-m.contentHeight()+2, n)
	case key.Matches(msg, m.keys.Open):
		if m.mealSel < n {
			m.openMeal(m.categoryMeals[m.mealSel].ID, nil)
		}
	}
	return m, nil
}

func (m Model) renderCategory() string {
	height := m.contentHeight()
	styles := m.theme.Styles()

	if m.categoryName == "" {
		msg := styles.MutedText.Render("Pick a category on the home screen")
		return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, msg)
	}

	title := fmt.Sprintf("%s (%d)", m.categoryName, len(m.categoryMeals))
	var content string
	switch {
	case !m.categoryLoaded:
		content = styles.MutedText.Render(m.emptyHint("Loading..."))
	case len(m.categoryMeals) == 0:
		content = styles.MutedText.Render("No meals in this category")
	default:
		rows := summaryRows(m.categoryMeals, m.saved)
		content = m.renderRows(rows, m.mealSel, m.width-2, height-2, true)
	}
	return m.renderTitledBox(title, content, m.width, height, true)
}
