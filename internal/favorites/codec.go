package favorites

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/five82/pantry/internal/mealdb"
)

// encodeIngredients renders the ingredient list as the JSON text stored in
// the ingredients column. A nil list is stored as an empty array.
func encodeIngredients(in []mealdb.Ingredient) (string, error) {
	if in == nil {
		in = []mealdb.Ingredient{}
	}
	data, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("encode ingredients: %w", err)
	}
	return string(data), nil
}

// decodeIngredients is the inverse of encodeIngredients. Empty text and an
// empty array both decode to nil.
func decodeIngredients(text string) ([]mealdb.Ingredient, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	var out []mealdb.Ingredient
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("decode ingredients: %w", err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
