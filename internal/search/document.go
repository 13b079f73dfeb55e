package search

import (
	"strings"

	"github.com/five82/pantry/internal/mealdb"
)

// document is the indexed form of a favorite meal. Field names match the
// index mapping.
func document(meal mealdb.Meal) map[string]any {
	doc := map[string]any{
		"id":   meal.ID,
		"name": meal.Name,
	}
	if meal.Category != "" {
		doc["category"] = meal.Category
	}
	if meal.Area != "" {
		doc["area"] = meal.Area
	}
	if tags := meal.TagList(); len(tags) > 0 {
		lower := make([]string, len(tags))
		for i, tag := range tags {
			lower[i] = strings.ToLower(tag)
		}
		doc["tags"] = lower
	}
	if len(meal.Ingredients) > 0 {
		names := make([]string, 0, len(meal.Ingredients))
		for _, ing := range meal.Ingredients {
			names = append(names, ing.Name)
		}
		doc["ingredients"] = names
	}
	return doc
}
