package mealdb

import (
	"encoding/json"
	"reflect"
	"testing"
)

const teriyakiPayload = `{
	"idMeal": "52772",
	"strMeal": "Teriyaki Chicken Casserole",
	"strDrinkAlternate": null,
	"strCategory": "Chicken",
	"strArea": "Japanese",
	"strInstructions": "Preheat oven to 350° F.",
	"strMealThumb": "https://www.themealdb.com/images/media/meals/wvpsxx1468256321.jpg",
	"strTags": "Meat,Casserole",
	"strYoutube": "https://www.youtube.com/watch?v=4aZr5hZXP_s",
	"strIngredient1": "soy sauce",
	"strIngredient2": "water",
	"strIngredient3": " ",
	"strIngredient4": "brown sugar",
	"strIngredient5": null,
	"strMeasure1": "3/4 cup",
	"strMeasure2": "1/2 cup",
	"strMeasure3": " ",
	"strMeasure4": "1/4 cup ",
	"strMeasure5": null,
	"strSource": null,
	"dateModified": null
}`

func TestMeal_UnmarshalCollapsesIngredients(t *testing.T) {
	var m Meal
	if err := json.Unmarshal([]byte(teriyakiPayload), &m); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if m.ID != "52772" || m.Category != "Chicken" || m.Area != "Japanese" {
		t.Fatalf("meal = %#v, want id 52772 Chicken/Japanese", m)
	}
	if m.DrinkAlternate != "" || m.Source != "" {
		t.Fatalf("null fields should decode as empty strings: %#v", m)
	}
	want := []Ingredient{
		{Name: "soy sauce", Measure: "3/4 cup"},
		{Name: "water", Measure: "1/2 cup"},
		{Name: "brown sugar", Measure: "1/4 cup"},
	}
	if !reflect.DeepEqual(m.Ingredients, want) {
		t.Fatalf("Ingredients = %#v, want %#v", m.Ingredients, want)
	}
}

func TestMeal_MarshalRoundTripsThroughAPIShape(t *testing.T) {
	in := Meal{
		ID:          "52773",
		Name:        "Honey Teriyaki Salmon",
		Category:    "Seafood",
		Ingredients: []Ingredient{{Name: "Salmon", Measure: "1 lb"}, {Name: "Olive Oil", Measure: "2 tablespoon"}},
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal raw returned error: %v", err)
	}
	if raw["strIngredient2"] != "Olive Oil" || raw["strMeasure1"] != "1 lb" {
		t.Fatalf("encoded shape = %v, want numbered ingredient keys", raw)
	}

	var out Meal
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip = %#v, want %#v", out, in)
	}
}

func TestMeal_CloneDoesNotShareIngredients(t *testing.T) {
	m := Meal{ID: "1", Ingredients: []Ingredient{{Name: "Egg"}}}
	dup := m.Clone()
	dup.Ingredients[0].Name = "Flour"
	if m.Ingredients[0].Name != "Egg" {
		t.Fatalf("Clone shares ingredient slice")
	}
}

func TestMeal_TagList(t *testing.T) {
	m := Meal{Tags: " Meat, Casserole,,"}
	got := m.TagList()
	if len(got) != 2 || got[0] != "Meat" || got[1] != "Casserole" {
		t.Fatalf("TagList = %#v, want [Meat Casserole]", got)
	}
	if (Meal{}).TagList() != nil {
		t.Fatalf("TagList on empty tags should be nil")
	}
}
