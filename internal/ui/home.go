package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/pantry/internal/mealdb"
)

const randomCardHeight = 9

func (m Model) handleHomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Left):
		m.homePane = 0
	case key.Matches(msg, m.keys.Right):
		m.homePane = 1
	case key.Matches(msg, m.keys.Up):
		m.moveHome(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveHome(1)
	case key.Matches(msg, m.keys.Top):
		m.moveHome(-len(m.categories) - len(m.popular))
	case key.Matches(msg, m.keys.Bottom):
		m.moveHome(len(m.categories) + len(m.popular))
	case key.Matches(msg, m.keys.OpenRandom):
		if m.hasRandom {
			m.openMeal(m.random.ID, &m.random)
		}
	case key.Matches(msg, m.keys.Save):
		if m.hasRandom && m.store != nil {
			m.store.Save(m.random)
		}
	case key.Matches(msg, m.keys.Remove):
		if m.hasRandom && m.store != nil && m.saved[m.random.ID] {
			m.store.Remove(m.random)
		}
	case key.Matches(msg, m.keys.Open):
		if m.homePane == 0 {
			if m.catSel < len(m.categories) {
				m.openCategory(m.categories[m.catSel].Name)
			}
		} else if m.popularSel < len(m.popular) {
			m.openMeal(m.popular[m.popularSel].ID, nil)
		}
	}
	return m, nil
}

func (m *Model) moveHome(delta int) {
	if m.homePane == 0 {
		m.catSel = clampIndex(m.catSel+delta, len(m.categories))
		return
	}
	m.popularSel = clampIndex(m.popularSel+delta, len(m.popular))
}

// openCategory switches to the category screen and requests its meals.
func (m *Model) openCategory(name string) {
	m.categoryName = name
	m.categoryMeals = nil
	m.categoryLoaded = false
	m.mealSel = 0
	m.previousView = m.currentView
	m.currentView = ViewCategory
	if m.store != nil {
		m.store.RequestMealsByCategory(name)
	}
	m.savePrefs()
}

// openMeal switches to the detail screen for id. A known full meal is shown
// right away; otherwise the screen waits for the detail request.
func (m *Model) openMeal(id string, known *mealdb.Meal) {
	if id == "" {
		return
	}
	m.detailID = id
	m.shown = mealdb.Meal{}
	if known != nil {
		m.shown = known.Clone()
	} else if fav, ok := m.favorite(id); ok {
		m.shown = fav
	}
	if m.currentView != ViewDetail {
		m.previousView = m.currentView
	}
	m.currentView = ViewDetail
	if known == nil && m.store != nil {
		m.store.RequestMealDetail(id)
	}
	m.detailViewport.GotoTop()
	m.updateDetailViewport()
}

func (m Model) renderHome() string {
	height := m.contentHeight()
	leftWidth := m.width * 35 / 100
	if m.width >= 160 {
		leftWidth = m.width * 25 / 100
	}
	rightWidth := m.width - leftWidth

	catFocused := m.homePane == 0
	catRows := make([]string, len(m.categories))
	for i, c := range m.categories {
		catRows[i] = c.Name
	}
	catContent := m.renderRows(catRows, m.catSel, leftWidth-2, height-2, catFocused)
	if len(m.categories) == 0 {
		catContent = m.theme.Styles().MutedText.Render(m.emptyHint("No categories"))
	}
	catTitle := fmt.Sprintf("Categories (%d)", len(m.categories))
	left := m.renderTitledBox(catTitle, catContent, leftWidth, height, catFocused)

	cardHeight := min(randomCardHeight, height/2)
	card := m.renderTitledBox("Random meal", m.renderRandomCard(rightWidth-4), rightWidth, cardHeight, false)

	popFocused := m.homePane == 1
	popRows := summaryRows(m.popular, m.saved)
	popHeight := height - cardHeight
	popContent := m.renderRows(popRows, m.popularSel, rightWidth-2, popHeight-2, popFocused)
	if len(m.popular) == 0 {
		popContent = m.theme.Styles().MutedText.Render(m.emptyHint("Nothing popular yet"))
	}
	popTitle := fmt.Sprintf("Popular: %s", m.popularCategory())
	popular := m.renderTitledBox(popTitle, popContent, rightWidth, popHeight, popFocused)

	right := lipgloss.JoinVertical(lipgloss.Left, card, popular)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (m Model) renderRandomCard(width int) string {
	bg := NewBgStyle(m.theme.SurfaceAlt)
	styles := m.theme.Styles()
	if !m.hasRandom {
		return bg.Render(m.emptyHint("Rolling the dice"), styles.MutedText)
	}
	meal := m.random

	var lines []string
	name := bg.Render(truncate(meal.Name, width), styles.Text.Bold(true))
	if m.saved[meal.ID] {
		name += bg.Space() + bg.Render("★", styles.WarningText)
	}
	lines = append(lines, name)
	if origin := mealOrigin(meal); origin != "" {
		lines = append(lines, bg.Render(origin, styles.AccentText))
	}
	if tags := meal.TagList(); len(tags) > 0 {
		lines = append(lines, bg.Render(truncate(strings.Join(tags, ", "), width), styles.InfoText))
	}
	lines = append(lines, bg.Render(fmt.Sprintf("%d ingredients", len(meal.Ingredients)), styles.MutedText))
	lines = append(lines, "")
	lines = append(lines,
		bg.Render("o", styles.AccentText)+bg.Render(" open  ", styles.FaintText)+
			bg.Render("r", styles.AccentText)+bg.Render(" reroll  ", styles.FaintText)+
			bg.Render("s", styles.AccentText)+bg.Render(" save", styles.FaintText))
	return strings.Join(lines, "\n")
}

func (m Model) popularCategory() string {
	if m.store == nil {
		return "-"
	}
	return m.store.PopularCategory()
}

// emptyHint explains an empty list, pointing at the network when requests
// keep failing.
func (m Model) emptyHint(text string) string {
	if m.snapshot.IsOffline() {
		return text + " (offline, R to retry)"
	}
	if m.snapshot.InFlight > 0 {
		return "Loading..."
	}
	return text
}

func summaryRows(meals []mealdb.MealSummary, saved map[string]bool) []string {
	rows := make([]string, len(meals))
	for i, meal := range meals {
		marker := "  "
		if saved[meal.ID] {
			marker = "★ "
		}
		rows[i] = marker + meal.Name
	}
	return rows
}

// mealOrigin formats "Category · Area" with whichever parts are known.
func mealOrigin(meal mealdb.Meal) string {
	var parts []string
	if c := strings.TrimSpace(meal.Category); c != "" {
		parts = append(parts, c)
	}
	if a := strings.TrimSpace(meal.Area); a != "" {
		parts = append(parts, a)
	}
	return strings.Join(parts, " · ")
}
