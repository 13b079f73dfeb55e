package mealdb

import (
	"encoding/json"
	"strconv"
	"strings"
)

// maxIngredients is the number of strIngredientN/strMeasureN pairs the API
// exposes per meal.
const maxIngredients = 20

// Meal is a full recipe record as returned by lookup.php and random.php.
type Meal struct {
	ID              string
	Name            string
	Thumbnail       string
	Category        string
	Area            string
	Instructions    string
	YouTube         string
	Tags            string
	Source          string
	DrinkAlternate  string
	ImageSource     string
	CreativeCommons string
	DateModified    string
	Ingredients     []Ingredient
}

// Ingredient pairs an ingredient name with its measure.
type Ingredient struct {
	Name    string `json:"name"`
	Measure string `json:"measure"`
}

// Clone returns a copy of m that shares no slices with it.
func (m Meal) Clone() Meal {
	if m.Ingredients != nil {
		m.Ingredients = append([]Ingredient(nil), m.Ingredients...)
	}
	return m
}

// TagList splits the comma separated Tags field.
func (m Meal) TagList() []string {
	var out []string
	for _, tag := range strings.Split(m.Tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// Summary projects the meal to its list-view form.
func (m Meal) Summary() MealSummary {
	return MealSummary{ID: m.ID, Name: m.Name, Thumbnail: m.Thumbnail}
}

// UnmarshalJSON decodes the flat API shape. Every value is a nullable
// string, and ingredients arrive as numbered strIngredientN/strMeasureN keys.
func (m *Meal) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	field := func(key string) string {
		value, ok := raw[key]
		if !ok {
			return ""
		}
		var s *string
		if err := json.Unmarshal(value, &s); err != nil || s == nil {
			return ""
		}
		return *s
	}

	*m = Meal{
		ID:              strings.TrimSpace(field("idMeal")),
		Name:            field("strMeal"),
		Thumbnail:       field("strMealThumb"),
		Category:        field("strCategory"),
		Area:            field("strArea"),
		Instructions:    field("strInstructions"),
		YouTube:         field("strYoutube"),
		Tags:            field("strTags"),
		Source:          field("strSource"),
		DrinkAlternate:  field("strDrinkAlternate"),
		ImageSource:     field("strImageSource"),
		CreativeCommons: field("strCreativeCommonsConfirmed"),
		DateModified:    field("dateModified"),
	}
	for i := 1; i <= maxIngredients; i++ {
		n := strconv.Itoa(i)
		name := strings.TrimSpace(field("strIngredient" + n))
		if name == "" {
			continue
		}
		m.Ingredients = append(m.Ingredients, Ingredient{
			Name:    name,
			Measure: strings.TrimSpace(field("strMeasure" + n)),
		})
	}
	return nil
}

// MarshalJSON encodes the meal back into the flat API shape.
func (m Meal) MarshalJSON() ([]byte, error) {
	out := map[string]string{
		"idMeal":                      m.ID,
		"strMeal":                     m.Name,
		"strMealThumb":                m.Thumbnail,
		"strCategory":                 m.Category,
		"strArea":                     m.Area,
		"strInstructions":             m.Instructions,
		"strYoutube":                  m.YouTube,
		"strTags":                     m.Tags,
		"strSource":                   m.Source,
		"strDrinkAlternate":           m.DrinkAlternate,
		"strImageSource":              m.ImageSource,
		"strCreativeCommonsConfirmed": m.CreativeCommons,
		"dateModified":                m.DateModified,
	}
	for i, ing := range m.Ingredients {
		if i >= maxIngredients {
			break
		}
		n := strconv.Itoa(i + 1)
		out["strIngredient"+n] = ing.Name
		out["strMeasure"+n] = ing.Measure
	}
	return json.Marshal(out)
}

// MealSummary is the lightweight projection returned by filter.php.
type MealSummary struct {
	ID        string `json:"idMeal"`
	Name      string `json:"strMeal"`
	Thumbnail string `json:"strMealThumb"`
}

// Category is a named grouping of meals from categories.php.
type Category struct {
	ID          string `json:"idCategory"`
	Name        string `json:"strCategory"`
	Description string `json:"strCategoryDescription"`
	Thumbnail   string `json:"strCategoryThumb"`
}

// MealList mirrors the lookup.php and random.php payloads.
type MealList struct {
	Meals []Meal `json:"meals"`
}

// SummaryList mirrors the filter.php payload.
type SummaryList struct {
	Meals []MealSummary `json:"meals"`
}

// CategoryList mirrors the categories.php payload.
type CategoryList struct {
	Categories []Category `json:"categories"`
}
