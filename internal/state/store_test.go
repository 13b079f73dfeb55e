package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/pantry/internal/mealdb"
	"github.com/five82/pantry/internal/observable"
)

// fakeService answers from queued responses. A gate registered for a key
// holds that call until the gate is closed.
type fakeService struct {
	mu      sync.Mutex
	random  []randomResult
	details map[string]mealdb.Meal
	byCat   map[string][]mealdb.MealSummary
	cats    []mealdb.Category
	err     error
	gates   map[string]chan struct{}
	started chan string
}

type randomResult struct {
	meal *mealdb.Meal
	err  error
}

func newFakeService() *fakeService {
	return &fakeService{
		details: map[string]mealdb.Meal{},
		byCat:   map[string][]mealdb.MealSummary{},
		gates:   map[string]chan struct{}{},
		started: make(chan string, 16),
	}
}

func (f *fakeService) gate(key string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[key] = ch
	return ch
}

func (f *fakeService) wait(ctx context.Context, key string) error {
	f.mu.Lock()
	ch := f.gates[key]
	f.mu.Unlock()
	select {
	case f.started <- key:
	default:
	}
	if ch == nil {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return &mealdb.FetchError{Op: key, Err: ctx.Err()}
	}
}

func (f *fakeService) RandomMeal(ctx context.Context) (*mealdb.Meal, error) {
	if err := f.wait(ctx, "random"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.random) == 0 {
		return nil, nil
	}
	next := f.random[0]
	f.random = f.random[1:]
	return next.meal, next.err
}

func (f *fakeService) MealDetail(ctx context.Context, id string) (*mealdb.Meal, error) {
	if err := f.wait(ctx, "lookup:"+id); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, &mealdb.FetchError{Op: "lookup", Err: f.err}
	}
	meal, ok := f.details[id]
	if !ok {
		return nil, nil
	}
	return &meal, nil
}

func (f *fakeService) MealsByCategory(ctx context.Context, category string) ([]mealdb.MealSummary, error) {
	if err := f.wait(ctx, "filter:"+category); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, &mealdb.FetchError{Op: "filter", Err: f.err}
	}
	meals := f.byCat[category]
	if meals == nil {
		return []mealdb.MealSummary{}, nil
	}
	return meals, nil
}

func (f *fakeService) Categories(ctx context.Context) ([]mealdb.Category, error) {
	if err := f.wait(ctx, "categories"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, &mealdb.FetchError{Op: "categories", Err: f.err}
	}
	if f.cats == nil {
		return []mealdb.Category{}, nil
	}
	return f.cats, nil
}

func (f *fakeService) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// fakeFavorites records writes in memory.
type fakeFavorites struct {
	mu    sync.Mutex
	meals []mealdb.Meal
	err   error
	slot  *observable.Slot[[]mealdb.Meal]
}

func newFakeFavorites() *fakeFavorites {
	return &fakeFavorites{slot: observable.NewSlot[[]mealdb.Meal]("favorites", nil, nil)}
}

func (f *fakeFavorites) Upsert(_ context.Context, meal mealdb.Meal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for i := range f.meals {
		if f.meals[i].ID == meal.ID {
			f.meals[i] = meal
			f.slot.Post(append([]mealdb.Meal(nil), f.meals...))
			return nil
		}
	}
	f.meals = append(f.meals, meal)
	f.slot.Post(append([]mealdb.Meal(nil), f.meals...))
	return nil
}

func (f *fakeFavorites) Delete(_ context.Context, meal mealdb.Meal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for i := range f.meals {
		if f.meals[i].ID == meal.ID {
			f.meals = append(f.meals[:i], f.meals[i+1:]...)
			f.slot.Post(append([]mealdb.Meal(nil), f.meals...))
			return nil
		}
	}
	return nil
}

func (f *fakeFavorites) Observe() *observable.Subscription[[]mealdb.Meal] {
	return f.slot.Subscribe()
}

func (f *fakeFavorites) Sync() {
	f.slot.Sync()
}

func newTestStore(t *testing.T, svc mealdb.Service, favs Favorites, ordering Ordering) *Store {
	t.Helper()
	s := New(svc, favs, Options{Ordering: ordering})
	t.Cleanup(s.Close)
	return s
}

func awaitStarted(t *testing.T, f *fakeService, key string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case got := <-f.started:
			if got == key {
				return
			}
		case <-deadline:
			t.Fatalf("request %q never started", key)
		}
	}
}

func awaitValue[T any](t *testing.T, sub *observable.Subscription[T], match func(T) bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case v, ok := <-sub.C():
			require.True(t, ok, "subscription closed")
			if match(v) {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for slot value")
		}
	}
}

func meal(id, name string) *mealdb.Meal {
	return &mealdb.Meal{ID: id, Name: name}
}

func TestStore_SlotsStartEmpty(t *testing.T) {
	s := newTestStore(t, newFakeService(), nil, OrderByCompletion)

	_, ok := s.RandomMeal().Get()
	assert.False(t, ok)
	_, ok = s.MealDetail().Get()
	assert.False(t, ok)
	_, ok = s.CategoryMeals().Get()
	assert.False(t, ok)
	_, ok = s.Categories().Get()
	assert.False(t, ok)
	_, ok = s.PopularItems().Get()
	assert.False(t, ok)
}

func TestStore_EmptyRandomKeepsPreviousMeal(t *testing.T) {
	svc := newFakeService()
	svc.random = []randomResult{{meal: meal("52772", "Teriyaki Chicken Casserole")}, {meal: nil}}
	s := newTestStore(t, svc, nil, OrderByCompletion)

	s.RequestRandomMeal()
	s.Wait()
	got, ok := s.RandomMeal().Get()
	require.True(t, ok)
	assert.Equal(t, "52772", got.ID)

	s.RequestRandomMeal()
	s.Wait()
	got, ok = s.RandomMeal().Get()
	require.True(t, ok)
	assert.Equal(t, "52772", got.ID)
	assert.Zero(t, s.Snapshot().ConsecutiveFailures)
}

func TestStore_EmptyDetailKeepsPreviousMeal(t *testing.T) {
	svc := newFakeService()
	svc.details["52772"] = *meal("52772", "Teriyaki Chicken Casserole")
	s := newTestStore(t, svc, nil, OrderByCompletion)

	s.RequestMealDetail("52772")
	s.Wait()
	s.RequestMealDetail("00000")
	s.Wait()

	got, ok := s.MealDetail().Get()
	require.True(t, ok)
	assert.Equal(t, "52772", got.ID)
}

func TestStore_EmptyByCategoryClearsSlot(t *testing.T) {
	svc := newFakeService()
	svc.byCat["Seafood"] = []mealdb.MealSummary{{ID: "52959"}, {ID: "52819"}}
	s := newTestStore(t, svc, nil, OrderByCompletion)

	s.RequestMealsByCategory("Seafood")
	s.Wait()
	got, _ := s.CategoryMeals().Get()
	require.Len(t, got, 2)

	s.RequestMealsByCategory("Goat")
	s.Wait()
	got, ok := s.CategoryMeals().Get()
	require.True(t, ok)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStore_EmptyCategoriesClearsSlot(t *testing.T) {
	svc := newFakeService()
	svc.cats = []mealdb.Category{{ID: "1", Name: "Beef"}}
	s := newTestStore(t, svc, nil, OrderByCompletion)

	s.RequestCategories()
	s.Wait()
	got, _ := s.Categories().Get()
	require.Len(t, got, 1)

	svc.mu.Lock()
	svc.cats = nil
	svc.mu.Unlock()

	s.RequestCategories()
	s.Wait()
	got, ok := s.Categories().Get()
	require.True(t, ok)
	assert.Empty(t, got)
}

func TestStore_PopularItemsUsesConfiguredCategory(t *testing.T) {
	svc := newFakeService()
	svc.byCat["Dessert"] = []mealdb.MealSummary{{ID: "52768", Name: "Apple Frangipan Tart"}}
	s := New(svc, nil, Options{PopularCategory: " Dessert "})
	t.Cleanup(s.Close)

	s.RequestPopularItems()
	s.Wait()

	got, ok := s.PopularItems().Get()
	require.True(t, ok)
	assert.Equal(t, []mealdb.MealSummary{{ID: "52768", Name: "Apple Frangipan Tart"}}, got)
	assert.Equal(t, "Dessert", s.PopularCategory())

	_, ok = s.CategoryMeals().Get()
	assert.False(t, ok, "popular items must not touch the category slot")
}

func TestStore_DefaultPopularCategory(t *testing.T) {
	s := newTestStore(t, newFakeService(), nil, OrderByCompletion)
	assert.Equal(t, DefaultPopularCategory, s.PopularCategory())
}

func TestStore_FailuresNeverMutateSlots(t *testing.T) {
	svc := newFakeService()
	svc.details["52772"] = *meal("52772", "Teriyaki Chicken Casserole")
	svc.byCat["Seafood"] = []mealdb.MealSummary{{ID: "52959"}}
	svc.cats = []mealdb.Category{{ID: "1", Name: "Beef"}}
	svc.random = []randomResult{
		{meal: meal("52772", "Teriyaki Chicken Casserole")},
		{err: &mealdb.FetchError{Op: "random", Err: errors.New("connection refused")}},
	}
	s := newTestStore(t, svc, nil, OrderByCompletion)

	s.RequestRandomMeal()
	s.RequestMealDetail("52772")
	s.RequestMealsByCategory("Seafood")
	s.RequestCategories()
	s.RequestPopularItems()
	s.Wait()

	sub := s.CategoryMeals().Subscribe()
	defer sub.Cancel()
	<-sub.C()

	svc.setErr(errors.New("status 500"))
	s.RequestRandomMeal()
	s.RequestMealDetail("52772")
	s.RequestMealsByCategory("Seafood")
	s.RequestCategories()
	s.RequestPopularItems()
	s.Wait()

	random, _ := s.RandomMeal().Get()
	assert.Equal(t, "52772", random.ID)
	detail, _ := s.MealDetail().Get()
	assert.Equal(t, "52772", detail.ID)
	byCat, _ := s.CategoryMeals().Get()
	assert.Equal(t, []mealdb.MealSummary{{ID: "52959"}}, byCat)
	cats, _ := s.Categories().Get()
	assert.Equal(t, []mealdb.Category{{ID: "1", Name: "Beef"}}, cats)
	popular, _ := s.PopularItems().Get()
	assert.Equal(t, []mealdb.MealSummary{{ID: "52959"}}, popular)

	select {
	case v := <-sub.C():
		t.Fatalf("failed request published %v", v)
	default:
	}

	snap := s.Snapshot()
	assert.Equal(t, 5, snap.ConsecutiveFailures)
	assert.Equal(t, 5, snap.FetchFailures)
	assert.True(t, snap.IsOffline())
	require.Error(t, snap.LastError)
	assert.ErrorIs(t, snap.LastError, mealdb.ErrFetchFailed)
	assert.Zero(t, snap.InFlight)
}

func TestStore_SuccessResetsFailures(t *testing.T) {
	svc := newFakeService()
	svc.random = []randomResult{
		{err: &mealdb.FetchError{Op: "random", Err: errors.New("timeout")}},
		{meal: meal("52772", "Teriyaki Chicken Casserole")},
	}
	s := newTestStore(t, svc, nil, OrderByCompletion)

	s.RequestRandomMeal()
	s.Wait()
	snap := s.Snapshot()
	assert.Equal(t, 1, snap.ConsecutiveFailures)
	assert.Equal(t, "random", snap.LastFailedOp)
	assert.False(t, snap.IsOffline())

	s.RequestRandomMeal()
	s.Wait()
	snap = s.Snapshot()
	assert.Zero(t, snap.ConsecutiveFailures)
	assert.NoError(t, snap.LastError)
	assert.False(t, snap.LastUpdated.IsZero())
}

func TestStore_OverlappingDetailLastCompletedWins(t *testing.T) {
	svc := newFakeService()
	svc.details["52772"] = *meal("52772", "Teriyaki Chicken Casserole")
	svc.details["52773"] = *meal("52773", "Honey Teriyaki Salmon")
	first := svc.gate("lookup:52772")
	second := svc.gate("lookup:52773")
	s := newTestStore(t, svc, nil, OrderByCompletion)

	sub := s.MealDetail().Subscribe()
	defer sub.Cancel()

	s.RequestMealDetail("52772")
	awaitStarted(t, svc, "lookup:52772")
	s.RequestMealDetail("52773")
	awaitStarted(t, svc, "lookup:52773")

	close(second)
	awaitValue(t, sub, func(m mealdb.Meal) bool { return m.ID == "52773" })

	close(first)
	s.Wait()

	got, ok := s.MealDetail().Get()
	require.True(t, ok)
	assert.Equal(t, "52772", got.ID)
}

func TestStore_OverlappingDetailNewestIssueWins(t *testing.T) {
	svc := newFakeService()
	svc.details["52772"] = *meal("52772", "Teriyaki Chicken Casserole")
	svc.details["52773"] = *meal("52773", "Honey Teriyaki Salmon")
	first := svc.gate("lookup:52772")
	second := svc.gate("lookup:52773")
	s := newTestStore(t, svc, nil, OrderByIssue)

	sub := s.MealDetail().Subscribe()
	defer sub.Cancel()

	s.RequestMealDetail("52772")
	awaitStarted(t, svc, "lookup:52772")
	s.RequestMealDetail("52773")
	awaitStarted(t, svc, "lookup:52773")

	close(second)
	awaitValue(t, sub, func(m mealdb.Meal) bool { return m.ID == "52773" })

	close(first)
	s.Wait()

	got, ok := s.MealDetail().Get()
	require.True(t, ok)
	assert.Equal(t, "52773", got.ID)

	select {
	case v := <-sub.C():
		t.Fatalf("stale result %s was published", v.ID)
	default:
	}
}

func TestStore_SaveAndRemoveReachFavorites(t *testing.T) {
	favs := newFakeFavorites()
	s := newTestStore(t, newFakeService(), favs, OrderByCompletion)

	sub := s.Favorites()
	require.NotNil(t, sub)
	defer sub.Cancel()

	s.Save(*meal("52772", "Teriyaki Chicken Casserole"))
	awaitValue(t, sub, func(list []mealdb.Meal) bool { return len(list) == 1 && list[0].ID == "52772" })

	s.Remove(*meal("52772", ""))
	awaitValue(t, sub, func(list []mealdb.Meal) bool { return len(list) == 0 })

	_, ok := s.RandomMeal().Get()
	assert.False(t, ok, "writes must not touch fetch slots")
}

func TestStore_WriteFailureIsRecorded(t *testing.T) {
	favs := newFakeFavorites()
	favs.err = errors.New("disk I/O error")
	s := newTestStore(t, newFakeService(), favs, OrderByCompletion)

	s.Save(*meal("52772", "Teriyaki Chicken Casserole"))
	s.Wait()

	snap := s.Snapshot()
	assert.Equal(t, "save", snap.LastFailedOp)
	assert.EqualError(t, snap.LastError, "disk I/O error")
	assert.Equal(t, 1, snap.ConsecutiveFailures)
	assert.Zero(t, snap.FetchFailures, "write failures are not API failures")

	s.Save(*meal("52773", "Honey Teriyaki Salmon"))
	s.Wait()
	assert.False(t, s.Snapshot().IsOffline())
}

func TestStore_WaitCoversFavoritesList(t *testing.T) {
	favs := newFakeFavorites()
	s := newTestStore(t, newFakeService(), favs, OrderByCompletion)

	s.Save(*meal("52772", "Teriyaki Chicken Casserole"))
	s.Wait()

	list, ok := favs.slot.Get()
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, "52772", list[0].ID)
}

func TestStore_RefreshRandomMealReturnsOutcome(t *testing.T) {
	svc := newFakeService()
	svc.random = []randomResult{
		{err: &mealdb.FetchError{Op: "random", Err: errors.New("timeout")}},
		{meal: meal("52772", "Teriyaki Chicken Casserole")},
	}
	s := newTestStore(t, svc, nil, OrderByIssue)

	err := s.RefreshRandomMeal(context.Background())
	require.ErrorIs(t, err, mealdb.ErrFetchFailed)
	assert.Equal(t, 1, s.Snapshot().FetchFailures)

	require.NoError(t, s.RefreshRandomMeal(context.Background()))
	got, ok := s.RandomMeal().Get()
	require.True(t, ok, "result is applied before RefreshRandomMeal returns")
	assert.Equal(t, "52772", got.ID)
	assert.Zero(t, s.Snapshot().FetchFailures)

	s.Close()
	assert.ErrorIs(t, s.RefreshRandomMeal(context.Background()), ErrClosed)
}

func TestStore_RefreshRandomMealCallerCancelIsNotAFailure(t *testing.T) {
	svc := newFakeService()
	svc.gate("random")
	s := newTestStore(t, svc, nil, OrderByCompletion)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.RefreshRandomMeal(ctx) }()
	awaitStarted(t, svc, "random")
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("RefreshRandomMeal ignored cancellation")
	}
	assert.Zero(t, s.Snapshot().FetchFailures)
}

func TestStore_NoFavoritesBackend(t *testing.T) {
	s := newTestStore(t, newFakeService(), nil, OrderByCompletion)
	assert.Nil(t, s.Favorites())

	s.Remove(*meal("52772", ""))
	s.Wait()
	assert.ErrorIs(t, s.Snapshot().LastError, errNoFavorites)
}

func TestStore_CloseCancelsInFlightAndIgnoresLaterRequests(t *testing.T) {
	svc := newFakeService()
	svc.gate("categories")
	s := New(svc, nil, Options{})

	sub := s.Categories().Subscribe()
	s.RequestCategories()
	awaitStarted(t, svc, "categories")

	s.Close()
	s.Close()

	_, ok := <-sub.C()
	assert.False(t, ok, "slot subscriptions end at close")
	assert.Zero(t, s.Snapshot().ConsecutiveFailures, "cancellation at close is not a failure")

	s.RequestRandomMeal()
	s.Save(*meal("52772", ""))
	s.Wait()
	assert.Zero(t, s.Snapshot().InFlight)
}

func TestParseOrdering(t *testing.T) {
	assert.Equal(t, OrderByIssue, ParseOrdering(" Issue "))
	assert.Equal(t, OrderByCompletion, ParseOrdering("completion"))
	assert.Equal(t, OrderByCompletion, ParseOrdering(""))
	assert.Equal(t, "issue", OrderByIssue.String())
}
