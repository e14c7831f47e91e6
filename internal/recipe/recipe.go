package recipe

import "time"

// OriginMealPlan marks recipes minted during plan materialization.
const OriginMealPlan = "mealPlan"

// Recipe is a fully materialized recipe stored in the shared catalog.
// Plans reference recipes by ID; recipes are never owned by a plan and
// never deduplicated, so the same dish may exist under many IDs.
type Recipe struct {
	ID                string    `json:"id,omitempty"`
	RecipeTitle       string    `json:"recipe_title"`
	Ingredients       []string  `json:"ingredients"`
	Directions        []string  `json:"directions"`
	CuisineType       string    `json:"cuisine_type"`
	CookingDifficulty string    `json:"cooking_difficulty"`
	CookingTime       string    `json:"cooking_time"`
	Diet              []string  `json:"diet,omitempty"`
	RecipeSummary     string    `json:"recipe_summary,omitempty"`
	Origin            string    `json:"origin"`
	OriginDescription string    `json:"origin_description"`
	CreatedAt         time.Time `json:"created_at"`
}
