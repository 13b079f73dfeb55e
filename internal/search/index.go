package search

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/five82/pantry/internal/mealdb"
)

// DefaultLimit caps results when Search is called with a non-positive limit.
const DefaultLimit = 50

// Index is an in-memory full-text index over the favorites list.
//
// Thread safety: all public methods are safe for concurrent use.
type Index struct {
	index  bleve.Index
	logger *slog.Logger

	mu  sync.RWMutex
	ids map[string]struct{}
}

// New creates an empty index. The favorites table is the source of truth and
// is small, so the index lives in memory and is rebuilt from the table on
// start.
func New(logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &Index{
		index:  index,
		logger: logger,
		ids:    make(map[string]struct{}),
	}, nil
}

// Close releases the index.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.index.Close()
}

// Shutdown satisfies the container's shutdowner interface.
func (x *Index) Shutdown() error {
	return x.Close()
}

// IndexMeal adds or replaces one meal.
func (x *Index) IndexMeal(meal mealdb.Meal) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.index.Index(meal.ID, document(meal)); err != nil {
		return fmt.Errorf("index %s: %w", meal.ID, err)
	}
	x.ids[meal.ID] = struct{}{}
	return nil
}

// Remove drops one meal from the index.
func (x *Index) Remove(id string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.index.Delete(id); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	delete(x.ids, id)
	return nil
}

// Replace makes the index hold exactly meals, in one batch.
func (x *Index) Replace(meals []mealdb.Meal) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	keep := make(map[string]struct{}, len(meals))
	batch := x.index.NewBatch()
	for _, meal := range meals {
		if err := batch.Index(meal.ID, document(meal)); err != nil {
			return fmt.Errorf("batch index %s: %w", meal.ID, err)
		}
		keep[meal.ID] = struct{}{}
	}
	for id := range x.ids {
		if _, ok := keep[id]; !ok {
			batch.Delete(id)
		}
	}
	if err := x.index.Batch(batch); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	x.ids = keep

	x.logger.Debug("favorites index rebuilt", slog.Int("documents", len(keep)))
	return nil
}

// Count returns the number of indexed meals.
func (x *Index) Count() (uint64, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.index.DocCount()
}

// Search returns the IDs of the meals matching text, best match first. Blank
// text matches nothing.
func (x *Index) Search(ctx context.Context, text string, limit int) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildQuery(text), limit, 0, false)
	result, err := x.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	ids := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

func buildQuery(text string) query.Query {
	lower := strings.ToLower(text)
	queries := []query.Query{}

	nameMatch := bleve.NewMatchQuery(text)
	nameMatch.SetField("name")
	nameMatch.SetBoost(3.0)
	queries = append(queries, nameMatch)

	ingredientMatch := bleve.NewMatchQuery(text)
	ingredientMatch.SetField("ingredients")
	ingredientMatch.SetBoost(1.5)
	queries = append(queries, ingredientMatch)

	for _, field := range []string{"category", "area"} {
		match := bleve.NewMatchQuery(text)
		match.SetField(field)
		queries = append(queries, match)
	}

	tagTerm := bleve.NewTermQuery(lower)
	tagTerm.SetField("tags")
	queries = append(queries, tagTerm)

	fuzzy := bleve.NewFuzzyQuery(lower)
	fuzzy.SetFuzziness(1)
	fuzzy.SetField("name")
	fuzzy.SetBoost(0.8)
	queries = append(queries, fuzzy)

	if len(lower) >= 2 {
		prefix := bleve.NewPrefixQuery(lower)
		prefix.SetField("name")
		prefix.SetBoost(0.5)
		queries = append(queries, prefix)
	}

	return bleve.NewDisjunctionQuery(queries...)
}
