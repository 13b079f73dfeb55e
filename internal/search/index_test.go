package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/pantry/internal/mealdb"
	"github.com/five82/pantry/internal/observable"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := New(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

var (
	teriyaki = mealdb.Meal{
		ID:       "52772",
		Name:     "Teriyaki Chicken Casserole",
		Category: "Chicken",
		Area:     "Japanese",
		Tags:     "Meat,Casserole",
		Ingredients: []mealdb.Ingredient{
			{Name: "soy sauce", Measure: "3/4 cup"},
			{Name: "brown sugar", Measure: "1/4 cup"},
		},
	}
	salmon = mealdb.Meal{
		ID:       "52773",
		Name:     "Honey Teriyaki Salmon",
		Category: "Seafood",
		Area:     "Japanese",
		Tags:     "Fish",
		Ingredients: []mealdb.Ingredient{
			{Name: "Salmon", Measure: "1 lb"},
			{Name: "Honey", Measure: "2 tbs"},
		},
	}
	tart = mealdb.Meal{
		ID:       "52768",
		Name:     "Apple Frangipan Tart",
		Category: "Dessert",
		Area:     "British",
		Tags:     "Tart,Baking,Fruity",
	}
)

func TestSearch_Fields(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Replace([]mealdb.Meal{teriyaki, salmon, tart}))
	ctx := context.Background()

	tests := []struct {
		query string
		want  []string
	}{
		{"salmon", []string{"52773"}},
		{"soy", []string{"52772"}},
		{"seafood", []string{"52773"}},
		{"dessert", []string{"52768"}},
		{"japanese", []string{"52772", "52773"}},
		{"Casserole", []string{"52772"}},
		{"fruity", []string{"52768"}},
		{"salmn", []string{"52773"}},
		{"teri", []string{"52772", "52773"}},
		{"lasagne", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := idx.Search(ctx, tt.query, 10)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestSearch_NameRanksFirst(t *testing.T) {
	idx := newTestIndex(t)
	other := mealdb.Meal{ID: "1", Name: "Fish Pie", Ingredients: []mealdb.Ingredient{{Name: "honey"}}}
	require.NoError(t, idx.Replace([]mealdb.Meal{other, salmon}))

	got, err := idx.Search(context.Background(), "honey", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "52773", got[0])
}

func TestSearch_BlankQuery(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Replace([]mealdb.Meal{teriyaki}))

	got, err := idx.Search(context.Background(), "  ", 10)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReplace_DropsMissingMeals(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Replace([]mealdb.Meal{teriyaki, salmon}))
	require.NoError(t, idx.Replace([]mealdb.Meal{salmon}))

	count, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	got, err := idx.Search(ctx, "chicken", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIndexMealAndRemove(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexMeal(tart))
	got, err := idx.Search(ctx, "apple", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"52768"}, got)

	require.NoError(t, idx.Remove("52768"))
	got, err = idx.Search(ctx, "apple", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFollow_TracksFavoritesList(t *testing.T) {
	idx := newTestIndex(t)
	slot := observable.NewSlot[[]mealdb.Meal]("favorites", nil, nil)
	defer slot.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Follow(ctx, idx, slot.Subscribe()) }()

	slot.Post([]mealdb.Meal{teriyaki, salmon})
	require.Eventually(t, func() bool {
		n, err := idx.Count()
		return err == nil && n == 2
	}, 2*time.Second, 10*time.Millisecond)

	slot.Post([]mealdb.Meal{salmon})
	require.Eventually(t, func() bool {
		n, err := idx.Count()
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Follow did not return after cancel")
	}
}

func TestFollow_ReturnsWhenSubscriptionCloses(t *testing.T) {
	idx := newTestIndex(t)
	slot := observable.NewSlot[[]mealdb.Meal]("favorites", nil, nil)
	sub := slot.Subscribe()

	done := make(chan error, 1)
	go func() { done <- Follow(context.Background(), idx, sub) }()
	slot.Close()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Follow did not return after slot close")
	}
}
