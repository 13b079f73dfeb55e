package state

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/five82/pantry/internal/mealdb"
	"github.com/five82/pantry/internal/observable"
)

// DefaultPopularCategory feeds the popular items slot when no category is
// configured.
const DefaultPopularCategory = "Seafood"

// Ordering decides which of several overlapping results for one slot wins.
type Ordering int

const (
	// OrderByCompletion publishes every result in the order it arrives, so
	// the last request to complete wins.
	OrderByCompletion Ordering = iota
	// OrderByIssue publishes a result only if no newer request was issued
	// for the same slot in the meantime.
	OrderByIssue
)

func (o Ordering) String() string {
	switch o {
	case OrderByIssue:
		return "issue"
	default:
		return "completion"
	}
}

// ParseOrdering maps "completion" or "issue" to an Ordering. Anything else
// yields OrderByCompletion.
func ParseOrdering(s string) Ordering {
	if strings.EqualFold(strings.TrimSpace(s), "issue") {
		return OrderByIssue
	}
	return OrderByCompletion
}

// Favorites is the subset of the favorites store used by Store.
type Favorites interface {
	Upsert(ctx context.Context, meal mealdb.Meal) error
	Delete(ctx context.Context, meal mealdb.Meal) error
	Observe() *observable.Subscription[[]mealdb.Meal]
}

// Options configure a Store.
type Options struct {
	Ordering        Ordering
	PopularCategory string
	Logger          *slog.Logger
}

var errNoFavorites = errors.New("favorites store unavailable")

// ErrClosed is returned by blocking requests issued after Close.
var ErrClosed = errors.New("state store closed")

// Store owns the observable slots of one screen session and the requests
// that fill them.
type Store struct {
	service         mealdb.Service
	favorites       Favorites
	logger          *slog.Logger
	ordering        Ordering
	popularCategory string

	ctx    context.Context
	cancel context.CancelFunc

	// mu guards closed against wg.Add so Close never races a new request.
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup

	randomMeal    *observable.Slot[mealdb.Meal]
	mealDetail    *observable.Slot[mealdb.Meal]
	categoryMeals *observable.Slot[[]mealdb.MealSummary]
	categories    *observable.Slot[[]mealdb.Category]
	popularItems  *observable.Slot[[]mealdb.MealSummary]

	randomGen, detailGen, categoryGen, categoriesGen, popularGen atomic.Uint64

	diag diagnostics
}

// New creates a Store. A nil favorites store makes Save and Remove report
// failures to the diagnostics snapshot.
func New(service mealdb.Service, favorites Favorites, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	popular := strings.TrimSpace(opts.PopularCategory)
	if popular == "" {
		popular = DefaultPopularCategory
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		service:         service,
		favorites:       favorites,
		logger:          logger,
		ordering:        opts.Ordering,
		popularCategory: popular,
		ctx:             ctx,
		cancel:          cancel,
		randomMeal:      observable.NewSlot("random_meal", logger, cloneMeal),
		mealDetail:      observable.NewSlot("meal_detail", logger, cloneMeal),
		categoryMeals:   observable.NewSlot("category_meals", logger, cloneSlice[mealdb.MealSummary]),
		categories:      observable.NewSlot("categories", logger, cloneSlice[mealdb.Category]),
		popularItems:    observable.NewSlot("popular_items", logger, cloneSlice[mealdb.MealSummary]),
	}
}

// RandomMeal is the slot filled by RequestRandomMeal.
func (s *Store) RandomMeal() *observable.Slot[mealdb.Meal] { return s.randomMeal }

// MealDetail is the slot filled by RequestMealDetail.
func (s *Store) MealDetail() *observable.Slot[mealdb.Meal] { return s.mealDetail }

// CategoryMeals is the slot filled by RequestMealsByCategory.
func (s *Store) CategoryMeals() *observable.Slot[[]mealdb.MealSummary] { return s.categoryMeals }

// Categories is the slot filled by RequestCategories.
func (s *Store) Categories() *observable.Slot[[]mealdb.Category] { return s.categories }

// PopularItems is the slot filled by RequestPopularItems.
func (s *Store) PopularItems() *observable.Slot[[]mealdb.MealSummary] { return s.popularItems }

// PopularCategory returns the category behind the popular items slot.
func (s *Store) PopularCategory() string { return s.popularCategory }

// Ordering returns the overlap policy in use.
func (s *Store) Ordering() Ordering { return s.ordering }

// RequestRandomMeal fetches a random meal. An empty answer leaves the slot
// as it was.
func (s *Store) RequestRandomMeal() {
	launch(s, "random", s.randomMeal, &s.randomGen, func(ctx context.Context) (mealdb.Meal, bool, error) {
		return single(s.service.RandomMeal(ctx))
	})
}

// RefreshRandomMeal fetches a random meal like RequestRandomMeal but blocks
// until the result has reached the slot and returns the fetch error, if any.
func (s *Store) RefreshRandomMeal(ctx context.Context) error {
	if !s.track() {
		return ErrClosed
	}
	defer s.done()
	token := s.randomGen.Add(1)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	err := apply(ctx, s, "random", s.randomMeal, &s.randomGen, token, func(ctx context.Context) (mealdb.Meal, bool, error) {
		return single(s.service.RandomMeal(ctx))
	})
	s.randomMeal.Sync()
	return err
}

// RequestMealDetail fetches the meal with id. An empty answer leaves the slot
// as it was.
func (s *Store) RequestMealDetail(id string) {
	launch(s, "lookup", s.mealDetail, &s.detailGen, func(ctx context.Context) (mealdb.Meal, bool, error) {
		return single(s.service.MealDetail(ctx, id))
	})
}

// RequestMealsByCategory fetches the meals of category. An empty answer
// clears the slot.
func (s *Store) RequestMealsByCategory(category string) {
	launch(s, "filter", s.categoryMeals, &s.categoryGen, func(ctx context.Context) ([]mealdb.MealSummary, bool, error) {
		meals, err := s.service.MealsByCategory(ctx, category)
		return meals, err == nil, err
	})
}

// RequestCategories fetches every category. An empty answer clears the slot.
func (s *Store) RequestCategories() {
	launch(s, "categories", s.categories, &s.categoriesGen, func(ctx context.Context) ([]mealdb.Category, bool, error) {
		categories, err := s.service.Categories(ctx)
		return categories, err == nil, err
	})
}

// RequestPopularItems fetches the meals of the popular category.
func (s *Store) RequestPopularItems() {
	launch(s, "popular", s.popularItems, &s.popularGen, func(ctx context.Context) ([]mealdb.MealSummary, bool, error) {
		meals, err := s.service.MealsByCategory(ctx, s.popularCategory)
		return meals, err == nil, err
	})
}

// Save stores meal as a favorite in the background.
func (s *Store) Save(meal mealdb.Meal) {
	meal = meal.Clone()
	s.write("save", meal.ID, func(ctx context.Context) error {
		if s.favorites == nil {
			return errNoFavorites
		}
		return s.favorites.Upsert(ctx, meal)
	})
}

// Remove deletes meal from the favorites in the background.
func (s *Store) Remove(meal mealdb.Meal) {
	s.write("remove", meal.ID, func(ctx context.Context) error {
		if s.favorites == nil {
			return errNoFavorites
		}
		return s.favorites.Delete(ctx, meal)
	})
}

// Favorites subscribes to the live favorites list. It returns nil when the
// store has no favorites backend.
func (s *Store) Favorites() *observable.Subscription[[]mealdb.Meal] {
	if s.favorites == nil {
		return nil
	}
	return s.favorites.Observe()
}

// Snapshot returns the current diagnostics.
func (s *Store) Snapshot() Snapshot {
	return s.diag.get()
}

// Wait blocks until every request and write issued so far has finished and
// its result has reached the slots. It must not run concurrently with new
// requests.
func (s *Store) Wait() {
	s.wg.Wait()
	s.randomMeal.Sync()
	s.mealDetail.Sync()
	s.categoryMeals.Sync()
	s.categories.Sync()
	s.popularItems.Sync()
	if f, ok := s.favorites.(interface{ Sync() }); ok {
		f.Sync()
	}
}

// Close cancels in-flight requests, waits for background work and stops the
// slots. Later requests are ignored.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()

	s.randomMeal.Close()
	s.mealDetail.Close()
	s.categoryMeals.Close()
	s.categories.Close()
	s.popularItems.Close()
}

// Shutdown satisfies the container's shutdowner interface.
func (s *Store) Shutdown() error {
	s.Close()
	return nil
}

// track registers one unit of background work. It reports false once the
// store is closed.
func (s *Store) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.wg.Add(1)
	s.diag.begin()
	return true
}

func (s *Store) done() {
	s.diag.end()
	s.wg.Done()
}

// launch runs fetch in the background and posts its result to slot. fetch
// reports false to leave the slot untouched.
func launch[T any](s *Store, op string, slot *observable.Slot[T], gen *atomic.Uint64, fetch func(context.Context) (T, bool, error)) {
	if !s.track() {
		s.logger.Debug("request after close ignored", slog.String("op", op))
		return
	}
	token := gen.Add(1)

	go func() {
		defer s.done()
		_ = apply(s.ctx, s, op, slot, gen, token, fetch)
	}()
}

// apply runs fetch and posts its result to slot. It returns the fetch error.
func apply[T any](ctx context.Context, s *Store, op string, slot *observable.Slot[T], gen *atomic.Uint64, token uint64, fetch func(context.Context) (T, bool, error)) error {
	value, publish, err := fetch(ctx)
	if err != nil {
		s.reportFailure(ctx, op, err)
		return err
	}
	s.diag.succeeded()
	if !publish {
		s.logger.Debug("empty payload, slot unchanged", slog.String("op", op), slog.String("slot", slot.Name()))
		return nil
	}

	var accept func() bool
	if s.ordering == OrderByIssue {
		accept = func() bool { return gen.Load() == token }
	}
	slot.PostIf(value, accept)
	return nil
}

func (s *Store) write(op, id string, fn func(context.Context) error) {
	if !s.track() {
		s.logger.Debug("write after close ignored", slog.String("op", op), slog.String("meal_id", id))
		return
	}
	go func() {
		defer s.done()
		if err := fn(context.Background()); err != nil {
			s.diag.failed(op, err)
			s.logger.Warn("favorites write failed",
				slog.String("op", op),
				slog.String("meal_id", id),
				slog.String("error", err.Error()))
		}
	}()
}

func (s *Store) reportFailure(ctx context.Context, op string, err error) {
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		s.logger.Debug("request cancelled", slog.String("op", op))
		return
	}
	s.diag.fetchFailed(op, err)
	s.logger.Warn("meal request failed",
		slog.String("op", op),
		slog.String("error", err.Error()))
}

func single(meal *mealdb.Meal, err error) (mealdb.Meal, bool, error) {
	if err != nil || meal == nil {
		return mealdb.Meal{}, false, err
	}
	return *meal, true, nil
}

func cloneMeal(m mealdb.Meal) mealdb.Meal { return m.Clone() }

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
