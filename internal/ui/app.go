package ui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/pantry/internal/config"
	"github.com/five82/pantry/internal/logtail"
	"github.com/five82/pantry/internal/mealdb"
	"github.com/five82/pantry/internal/observable"
	"github.com/five82/pantry/internal/prefs"
	"github.com/five82/pantry/internal/state"
)

// View represents the current screen.
type View int

const (
	ViewHome View = iota
	ViewCategory
	ViewDetail
	ViewFavorites
	ViewProblems
)

var viewCycle = []View{ViewHome, ViewCategory, ViewDetail, ViewFavorites, ViewProblems}

func (v View) String() string {
	switch v {
	case ViewCategory:
		return "Category"
	case ViewDetail:
		return "Detail"
	case ViewFavorites:
		return "Favorites"
	case ViewProblems:
		return "Problems"
	default:
		return "Home"
	}
}

// Store is the part of state.Store the UI reads and drives.
type Store interface {
	RandomMeal() *observable.Slot[mealdb.Meal]
	MealDetail() *observable.Slot[mealdb.Meal]
	CategoryMeals() *observable.Slot[[]mealdb.MealSummary]
	Categories() *observable.Slot[[]mealdb.Category]
	PopularItems() *observable.Slot[[]mealdb.MealSummary]
	PopularCategory() string

	RequestRandomMeal()
	RequestMealDetail(id string)
	RequestMealsByCategory(category string)
	RequestCategories()
	RequestPopularItems()

	Save(meal mealdb.Meal)
	Remove(meal mealdb.Meal)
	Favorites() *observable.Subscription[[]mealdb.Meal]

	Snapshot() state.Snapshot
}

// Searcher ranks favorite meal ids for a free-text query.
type Searcher interface {
	Search(ctx context.Context, text string, limit int) ([]string, error)
}

const (
	defaultPollTick  = 2 * time.Second
	problemsLogLines = 500
	searchLimit      = 50
)

// Options configures the UI.
type Options struct {
	Context      context.Context
	Store        Store
	Search       Searcher
	Config       *config.Config
	PollTick     time.Duration
	ThemeName    string
	LastCategory string
	PrefsPath    string
	Logger       *slog.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	store     Store
	search    Searcher
	config    *config.Config
	prefsPath string
	pollTick  time.Duration
	logger    *slog.Logger
	keys      keyMap
	subs      *subscriptions

	// UI state
	theme        Theme
	currentView  View
	previousView View
	width        int
	height       int
	ready        bool
	showHelp     bool

	// Home
	random     mealdb.Meal
	hasRandom  bool
	categories []mealdb.Category
	popular    []mealdb.MealSummary
	homePane   int // 0 = categories, 1 = popular
	catSel     int
	popularSel int

	// Category
	categoryName   string
	categoryMeals  []mealdb.MealSummary
	categoryLoaded bool
	mealSel        int

	// Detail
	detailID       string
	shown          mealdb.Meal
	detailViewport viewport.Model

	// Favorites
	favorites   []mealdb.Meal
	saved       map[string]bool
	favoriteSel int
	searchInput textinput.Model
	searching   bool
	searchQuery string
	searchIDs   []string
	searchErr   error

	// Problems
	snapshot         state.Snapshot
	problems         []logtail.Entry
	problemsErr      error
	problemsViewport viewport.Model
}

// New creates a new Bubble Tea model and subscribes to the store's slots.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = defaultPollTick
	}
	themeName := opts.ThemeName
	if themeName == "" {
		themeName = prefs.Defaults().Theme
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ti := textinput.New()
	ti.Placeholder = "Search favorites..."
	ti.CharLimit = 100

	return Model{
		ctx:          ctx,
		store:        opts.Store,
		search:       opts.Search,
		config:       opts.Config,
		prefsPath:    prefsPath,
		pollTick:     pollTick,
		logger:       logger,
		keys:         DefaultKeyMap(),
		subs:         subscribe(opts.Store),
		theme:        GetTheme(themeName),
		currentView:  ViewHome,
		categoryName: strings.TrimSpace(opts.LastCategory),
		saved:        make(map[string]bool),
		searchInput:  ti,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	cmds = append(cmds, m.subs.listen()...)
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
		if m.categoryName != "" {
			cmds = append(cmds, requestCategoryCmd(m.store, m.categoryName))
		}
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.updateDetailViewport()
		m.updateProblemsViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		if m.currentView == ViewProblems {
			m.updateProblemsViewport()
		}
		return m, nil

	case problemsMsg:
		m.problems = msg.entries
		m.problemsErr = msg.err
		m.updateProblemsViewport()
		return m, nil

	case searchResultMsg:
		if msg.query != m.searchQuery {
			return m, nil // superseded
		}
		m.searchIDs = msg.ids
		m.searchErr = msg.err
		m.favoriteSel = 0
		return m, nil

	case randomMealMsg:
		m.random = mealdb.Meal(msg)
		m.hasRandom = true
		return m, m.listenRandom()

	case mealDetailMsg:
		meal := mealdb.Meal(msg)
		if meal.ID == m.detailID {
			m.shown = meal
			m.updateDetailViewport()
		}
		return m, m.listenDetail()

	case categoryMealsMsg:
		m.categoryMeals = msg
		m.categoryLoaded = true
		m.mealSel = clampIndex(m.mealSel, len(m.categoryMeals))
		return m, m.listenCategory()

	case categoriesMsg:
		m.categories = msg
		m.catSel = clampIndex(m.catSel, len(m.categories))
		if m.categoryName != "" {
			for i, c := range m.categories {
				if strings.EqualFold(c.Name, m.categoryName) {
					m.catSel = i
					break
				}
			}
		}
		return m, m.listenCategories()

	case popularItemsMsg:
		m.popular = msg
		m.popularSel = clampIndex(m.popularSel, len(m.popular))
		return m, m.listenPopular()

	case favoritesMsg:
		m.setFavorites(msg)
		var cmd tea.Cmd
		if m.searchQuery != "" {
			cmd = m.searchCmd(m.searchQuery)
		}
		return m, tea.Batch(m.listenFavorites(), cmd)
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	return b.String()
}

func (m Model) renderContent() string {
	switch m.currentView {
	case ViewCategory:
		return m.renderCategory()
	case ViewDetail:
		return m.renderDetail()
	case ViewFavorites:
		return m.renderFavorites()
	case ViewProblems:
		return m.renderProblems()
	default:
		return m.renderHome()
	}
}

// contentHeight is the space below the header and command bar.
func (m Model) contentHeight() int {
	return max(m.height-2, 3)
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}
	if m.searching {
		return m.handleSearchInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		m.updateDetailViewport()
		m.updateProblemsViewport()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		return m.switchView(m.cycleView(1))

	case key.Matches(msg, m.keys.ShiftTab):
		return m.switchView(m.cycleView(-1))

	case key.Matches(msg, m.keys.ViewHome):
		return m.switchView(ViewHome)

	case key.Matches(msg, m.keys.ViewFavorites):
		return m.switchView(ViewFavorites)

	case key.Matches(msg, m.keys.ViewProblems):
		return m.switchView(ViewProblems)

	case key.Matches(msg, m.keys.Back):
		return m.back()

	case key.Matches(msg, m.keys.Reroll):
		if m.store != nil {
			m.store.RequestRandomMeal()
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m.reload()
	}

	switch m.currentView {
	case ViewHome:
		return m.handleHomeKey(msg)
	case ViewCategory:
		return m.handleCategoryKey(msg)
	case ViewDetail:
		return m.handleDetailKey(msg)
	case ViewFavorites:
		return m.handleFavoritesKey(msg)
	case ViewProblems:
		return m.handleProblemsKey(msg)
	}
	return m, nil
}

func (m Model) cycleView(step int) View {
	idx := 0
	for i, v := range viewCycle {
		if v == m.currentView {
			idx = i
			break
		}
	}
	n := len(viewCycle)
	return viewCycle[((idx+step)%n+n)%n]
}

func (m Model) switchView(v View) (tea.Model, tea.Cmd) {
	if v == m.currentView {
		return m, nil
	}
	m.previousView = m.currentView
	m.currentView = v
	if v == ViewProblems {
		m.updateProblemsViewport()
		return m, m.loadProblemsCmd()
	}
	return m, nil
}

// back leaves the current screen: detail returns to where it was opened
// from, everything else returns home.
func (m Model) back() (tea.Model, tea.Cmd) {
	switch m.currentView {
	case ViewFavorites:
		if m.searchQuery != "" {
			m.clearSearch()
			return m, nil
		}
	case ViewDetail:
		prev := m.previousView
		if prev == ViewDetail {
			prev = ViewHome
		}
		m.currentView = prev
		return m, nil
	}
	m.currentView = ViewHome
	return m, nil
}

// reload re-issues the requests behind the current screen.
func (m Model) reload() (tea.Model, tea.Cmd) {
	if m.currentView == ViewProblems {
		return m, tea.Batch(fetchSnapshotCmd(m.store), m.loadProblemsCmd())
	}
	if m.store == nil {
		return m, nil
	}
	switch m.currentView {
	case ViewHome:
		m.store.RequestCategories()
		m.store.RequestPopularItems()
	case ViewCategory:
		if m.categoryName != "" {
			m.store.RequestMealsByCategory(m.categoryName)
		}
	case ViewDetail:
		if m.detailID != "" {
			m.store.RequestMealDetail(m.detailID)
		}
	}
	return m, nil
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.currentView == ViewProblems {
		cmds = append(cmds, m.loadProblemsCmd())
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) savePrefs() {
	p := prefs.Prefs{Theme: m.theme.Name, LastCategory: m.categoryName}
	if err := prefs.Save(m.prefsPath, p); err != nil {
		m.logger.Warn("save preferences failed", "error", err)
	}
}

// Subscription re-arming, one per message type.

func (m Model) listenRandom() tea.Cmd {
	if m.subs == nil {
		return nil
	}
	return waitFor(m.subs.random, func(v mealdb.Meal) tea.Msg { return randomMealMsg(v) })
}

func (m Model) listenDetail() tea.Cmd {
	if m.subs == nil {
		return nil
	}
	return waitFor(m.subs.detail, func(v mealdb.Meal) tea.Msg { return mealDetailMsg(v) })
}

func (m Model) listenCategory() tea.Cmd {
	if m.subs == nil {
		return nil
	}
	return waitFor(m.subs.category, func(v []mealdb.MealSummary) tea.Msg { return categoryMealsMsg(v) })
}

func (m Model) listenCategories() tea.Cmd {
	if m.subs == nil {
		return nil
	}
	return waitFor(m.subs.categories, func(v []mealdb.Category) tea.Msg { return categoriesMsg(v) })
}

func (m Model) listenPopular() tea.Cmd {
	if m.subs == nil {
		return nil
	}
	return waitFor(m.subs.popular, func(v []mealdb.MealSummary) tea.Msg { return popularItemsMsg(v) })
}

func (m Model) listenFavorites() tea.Cmd {
	if m.subs == nil {
		return nil
	}
	return waitFor(m.subs.favorites, func(v []mealdb.Meal) tea.Msg { return favoritesMsg(v) })
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type problemsMsg struct {
	entries []logtail.Entry
	err     error
}

type searchResultMsg struct {
	query string
	ids   []string
	err   error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// requestCategoryCmd asks the store for the meals of category. The result
// arrives through the category meals subscription, so the command yields no
// message.
func requestCategoryCmd(store Store, category string) tea.Cmd {
	return func() tea.Msg {
		store.RequestMealsByCategory(category)
		return nil
	}
}

func fetchSnapshotCmd(store Store) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func (m Model) loadProblemsCmd() tea.Cmd {
	if m.config == nil {
		return nil
	}
	path := m.config.LogPath()
	return func() tea.Msg {
		entries, err := logtail.ReadEntries(path, problemsLogLines)
		return problemsMsg{entries: logtail.Problems(entries), err: err}
	}
}

func (m Model) searchCmd(query string) tea.Cmd {
	if m.search == nil {
		return nil
	}
	ctx, search := m.ctx, m.search
	return func() tea.Msg {
		ids, err := search.Search(ctx, query, searchLimit)
		return searchResultMsg{query: query, ids: ids, err: err}
	}
}

func clampIndex(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	m := New(opts)
	defer m.subs.cancel()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
