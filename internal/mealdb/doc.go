// Package mealdb provides an HTTP client for TheMealDB public API.
//
// # Overview
//
// This package is the only place Pantry talks to the network. It exposes four
// read-only operations behind the Service interface and converts the API's
// loosely typed JSON into value types.
//
// # Architecture
//
//   - client.go: HTTP client, rate limiting, error normalization
//   - types.go: Meal, MealSummary, Category and the list envelopes
//
// # API Endpoints
//
// All paths are relative to the base URL (default
// https://www.themealdb.com/api/json/v1/1/):
//
//   - GET random.php: one random meal
//   - GET lookup.php?i=<id>: one meal by identifier
//   - GET filter.php?c=<category>: meal summaries in a category
//   - GET categories.php: all categories
//
// # Result Shapes
//
// Every call ends in exactly one of three outcomes:
//
//   - payload: a meal, or a non-empty slice
//   - empty payload: nil meal with nil error, or an empty non-nil slice
//   - failure: a *FetchError
//
// An empty body, {"meals": null} and {"meals": []} all count as an empty
// payload, not a failure.
//
// # Error Handling
//
// Transport errors, non-2xx statuses, malformed JSON and a cancelled rate
// limiter wait are all wrapped in *FetchError, so callers can write:
//
//	meal, err := client.RandomMeal(ctx)
//	if errors.Is(err, mealdb.ErrFetchFailed) {
//		logger.Warn("random meal fetch failed", "error", err)
//	}
//
// Example error messages:
//   - "mealdb random: execute request: dial tcp: connection refused"
//   - "mealdb categories: api categories.php returned status 500"
//   - "mealdb lookup: decode response: unexpected end of JSON input"
//
// The client never retries. Retry policy belongs to the caller.
//
// # Ingredients
//
// The API spreads ingredients over strIngredient1..20 and strMeasure1..20.
// Meal.UnmarshalJSON folds them into an ordered []Ingredient and drops blank
// slots; Meal.MarshalJSON writes them back in the same numbered form.
//
// # Thread Safety
//
// The Client is safe for concurrent use. Requests share one token-bucket
// limiter so bursts from several screens stay polite to the public API.
package mealdb
