package search

import (
	"context"
	"log/slog"

	"github.com/five82/pantry/internal/mealdb"
	"github.com/five82/pantry/internal/observable"
)

// Follow rebuilds idx from every favorites list delivered on sub until ctx
// ends or the subscription closes. It cancels sub before returning.
func Follow(ctx context.Context, idx *Index, sub *observable.Subscription[[]mealdb.Meal]) error {
	defer sub.Cancel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case meals, ok := <-sub.C():
			if !ok {
				return nil
			}
			if err := idx.Replace(meals); err != nil {
				idx.logger.Warn("favorites index update failed",
					slog.Int("favorites", len(meals)),
					slog.String("error", err.Error()))
			}
		}
	}
}
