package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/pantry/internal/mealdb"
)

func (m *Model) setFavorites(meals []mealdb.Meal) {
	m.favorites = meals
	m.saved = make(map[string]bool, len(meals))
	for _, meal := range meals {
		m.saved[meal.ID] = true
	}
	m.favoriteSel = clampIndex(m.favoriteSel, len(m.visibleFavorites()))
	m.updateDetailViewport()
}

func (m Model) favorite(id string) (mealdb.Meal, bool) {
	for _, meal := range m.favorites {
		if meal.ID == id {
			return meal.Clone(), true
		}
	}
	return mealdb.Meal{}, false
}

// visibleFavorites returns the favorites list, or the search hits in rank
// order while a search is active.
func (m Model) visibleFavorites() []mealdb.Meal {
	if m.searchQuery == "" {
		return m.favorites
	}
	byID := make(map[string]mealdb.Meal, len(m.favorites))
	for _, meal := range m.favorites {
		byID[meal.ID] = meal
	}
	out := make([]mealdb.Meal, 0, len(m.searchIDs))
	for _, id := range m.searchIDs {
		if meal, ok := byID[id]; ok {
			out = append(out, meal)
		}
	}
	return out
}

func (m Model) handleFavoritesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := m.visibleFavorites()
	n := len(visible)
	switch {
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.searchInput.SetValue(m.searchQuery)
		m.searchInput.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Up):
		m.favoriteSel = clampIndex(m.favoriteSel-1, n)
	case key.Matches(msg, m.keys.Down):
		m.favoriteSel = clampIndex(m.favoriteSel+1, n)
	case key.Matches(msg, m.keys.Top):
		m.favoriteSel = 0
	case key.Matches(msg, m.keys.Bottom):
		m.favoriteSel = clampIndex(n-1, n)
	case key.Matches(msg, m.keys.Open):
		if m.favoriteSel < n {
			meal := visible[m.favoriteSel]
			m.openMeal(meal.ID, &meal)
		}
	case key.Matches(msg, m.keys.Remove):
		if m.favoriteSel < n && m.store != nil {
			m.store.Remove(visible[m.favoriteSel])
		}
	}
	return m, nil
}

// handleSearchInput handles keyboard input while the search box is open.
func (m Model) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Open):
		query := strings.TrimSpace(m.searchInput.Value())
		m.searching = false
		m.searchInput.Blur()
		if query == "" {
			m.clearSearch()
			return m, nil
		}
		m.searchQuery = query
		m.searchIDs = nil
		m.searchErr = nil
		return m, m.searchCmd(query)

	case key.Matches(msg, m.keys.Back):
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m *Model) clearSearch() {
	m.searchQuery = ""
	m.searchIDs = nil
	m.searchErr = nil
	m.searchInput.SetValue("")
	m.favoriteSel = 0
}

func (m Model) renderFavorites() string {
	height := m.contentHeight()
	styles := m.theme.Styles()
	visible := m.visibleFavorites()

	title := fmt.Sprintf("Favorites (%d)", len(m.favorites))
	if m.searchQuery != "" {
		title = fmt.Sprintf("Favorites matching %q (%d)", m.searchQuery, len(visible))
	}

	listHeight := height - 2
	var footer string
	if m.searching || m.searchErr != nil {
		listHeight--
		if m.searching {
			footer = m.searchInput.View()
		} else {
			footer = styles.DangerText.Render("search failed: " + m.searchErr.Error())
		}
	}

	var content string
	switch {
	case len(m.favorites) == 0:
		content = styles.MutedText.Render("No favorites yet. Press s on a meal to save it.")
	case len(visible) == 0 && m.searchQuery != "":
		content = styles.MutedText.Render("No favorites match")
	default:
		rows := make([]string, len(visible))
		for i, meal := range visible {
			row := meal.Name
			if origin := mealOrigin(meal); origin != "" {
				row += "  ·  " + origin
			}
			rows[i] = row
		}
		content = m.renderRows(rows, m.favoriteSel, m.width-2, listHeight, true)
	}
	if footer != "" {
		lines := strings.Count(content, "\n") + 1
		pad := max(listHeight-lines, 0)
		content += strings.Repeat("\n", pad+1) + footer
	}

	return m.renderTitledBox(title, content, m.width, height, true)
}
