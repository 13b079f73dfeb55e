package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/pantry/internal/mealdb"
	"github.com/five82/pantry/internal/observable"
)

// Messages carrying slot values into Update.
type (
	randomMealMsg    mealdb.Meal
	mealDetailMsg    mealdb.Meal
	categoryMealsMsg []mealdb.MealSummary
	categoriesMsg    []mealdb.Category
	popularItemsMsg  []mealdb.MealSummary
	favoritesMsg     []mealdb.Meal
)

// subscriptions holds the live slot subscriptions of one program run.
type subscriptions struct {
	random     *observable.Subscription[mealdb.Meal]
	detail     *observable.Subscription[mealdb.Meal]
	category   *observable.Subscription[[]mealdb.MealSummary]
	categories *observable.Subscription[[]mealdb.Category]
	popular    *observable.Subscription[[]mealdb.MealSummary]
	favorites  *observable.Subscription[[]mealdb.Meal]
}

func subscribe(store Store) *subscriptions {
	if store == nil {
		return nil
	}
	return &subscriptions{
		random:     store.RandomMeal().Subscribe(),
		detail:     store.MealDetail().Subscribe(),
		category:   store.CategoryMeals().Subscribe(),
		categories: store.Categories().Subscribe(),
		popular:    store.PopularItems().Subscribe(),
		favorites:  store.Favorites(),
	}
}

// listen returns one command per subscription.
func (s *subscriptions) listen() []tea.Cmd {
	if s == nil {
		return nil
	}
	return []tea.Cmd{
		waitFor(s.random, func(v mealdb.Meal) tea.Msg { return randomMealMsg(v) }),
		waitFor(s.detail, func(v mealdb.Meal) tea.Msg { return mealDetailMsg(v) }),
		waitFor(s.category, func(v []mealdb.MealSummary) tea.Msg { return categoryMealsMsg(v) }),
		waitFor(s.categories, func(v []mealdb.Category) tea.Msg { return categoriesMsg(v) }),
		waitFor(s.popular, func(v []mealdb.MealSummary) tea.Msg { return popularItemsMsg(v) }),
		waitFor(s.favorites, func(v []mealdb.Meal) tea.Msg { return favoritesMsg(v) }),
	}
}

func (s *subscriptions) cancel() {
	if s == nil {
		return
	}
	s.random.Cancel()
	s.detail.Cancel()
	s.category.Cancel()
	s.categories.Cancel()
	s.popular.Cancel()
	if s.favorites != nil {
		s.favorites.Cancel()
	}
}

// waitFor blocks on the next value of sub and wraps it as a message. Update
// must call it again after each message to keep listening. A closed
// subscription ends the chain.
func waitFor[T any](sub *observable.Subscription[T], wrap func(T) tea.Msg) tea.Cmd {
	if sub == nil {
		return nil
	}
	return func() tea.Msg {
		v, ok := <-sub.C()
		if !ok {
			return nil
		}
		return wrap(v)
	}
}
