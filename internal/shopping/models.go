package shopping

import "time"

// ShoppingList is a consolidated shopping list persisted for a meal plan.
// Quantities in Rendered are a best-effort merge by the model, not verified
// arithmetic.
type ShoppingList struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	MealPlanID string    `json:"meal_plan_id"`
	Items      []string  `json:"items"`
	Rendered   string    `json:"rendered"`
	CreatedAt  time.Time `json:"created_at"`
}
