package prefs

import (
	"time"

	"baba-meal-planner/internal/planner"
)

// UserPreferences are per-user defaults merged into plan requests at the
// surface boundary. The planner itself never reads preferences.
type UserPreferences struct {
	UserID              string                `json:"user_id"`
	DietaryPreferences  []string              `json:"dietary_preferences,omitempty"`
	PreferredCookingOil string                `json:"preferred_cooking_oil,omitempty"`
	CalorieTarget       int                   `json:"calorie_target,omitempty"`
	DefaultSlots        []planner.TimeSlot    `json:"default_slots,omitempty"`
	DefaultVariety      planner.VarietyPolicy `json:"default_variety,omitempty"`
	IncludeShoppingList bool                  `json:"include_shopping_list"`
	AutoPlanEnabled     bool                  `json:"auto_plan_enabled"`
	AutoPlanPrompt      string                `json:"auto_plan_prompt,omitempty"`
	DeliveryChatID      int64                 `json:"delivery_chat_id,omitempty"`
	UpdatedAt           time.Time             `json:"-"`
}

// Resolve merges stored defaults into fields the request leaves unset.
// Explicit request values always win. A nil stored value returns the
// request unchanged.
func Resolve(req planner.PlanRequest, stored *UserPreferences) planner.PlanRequest {
	if stored == nil {
		return req
	}

	if len(req.DietaryPreferences) == 0 {
		req.DietaryPreferences = stored.DietaryPreferences
	}
	if req.PreferredCookingOil == "" {
		req.PreferredCookingOil = stored.PreferredCookingOil
	}
	if req.CalorieTarget == 0 {
		req.CalorieTarget = stored.CalorieTarget
	}
	if len(req.Slots) == 0 {
		req.Slots = stored.DefaultSlots
	}
	if req.Variety == "" {
		req.Variety = stored.DefaultVariety
	}
	if !req.IncludeShoppingList {
		req.IncludeShoppingList = stored.IncludeShoppingList
	}
	return req
}
