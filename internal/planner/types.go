package planner

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRequest marks request validation failures so surfaces can map
// them to a caller error instead of a server fault.
var ErrInvalidRequest = errors.New("invalid plan request")

// IsInvalidRequest reports whether err stems from request validation.
func IsInvalidRequest(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}

// PlanType selects the shape of a generated plan.
type PlanType string

const (
	PlanWeekly PlanType = "weekly"
	PlanDaily  PlanType = "daily"
)

// VarietyPolicy controls how many distinct days and slots are generated,
// duplicated, or reused. The leftovers and meal_prep_sunday policies are
// communicated to the generator as instructions only; the resulting plan is
// not structurally verified against them.
type VarietyPolicy string

const (
	VarietyVaried         VarietyPolicy = "varied"
	VarietySameEveryDay   VarietyPolicy = "same_every_day"
	VarietySameEveryWeek  VarietyPolicy = "same_every_week"
	VarietyLeftovers      VarietyPolicy = "leftovers"
	VarietyMealPrepSunday VarietyPolicy = "meal_prep_sunday"
)

// TimeSlot is one meal occasion within a day.
type TimeSlot string

const (
	SlotBreakfast TimeSlot = "breakfast"
	SlotLunch     TimeSlot = "lunch"
	SlotDinner    TimeSlot = "dinner"
	SlotSnack     TimeSlot = "snack"
)

// canonicalDayNames are the labels for day numbers 1..7. The week is
// Monday-start by convention; day numbers do not track calendar weekdays.
var canonicalDayNames = [7]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// SlotSkeleton is the lightweight draft of one slot before materialization.
type SlotSkeleton struct {
	TimeSlot    TimeSlot `json:"time_slot"`
	RecipeName  string   `json:"recipe_name"`
	Description string   `json:"description"`
}

// MaterializedSlot is a skeleton slot bound to a persisted recipe.
type MaterializedSlot struct {
	SlotSkeleton
	RecipeID string `json:"recipe_id,omitempty"`
}

// Day is one day of a weekly plan.
type Day struct {
	Number int                `json:"day"`
	Name   string             `json:"day_name"`
	Slots  []MaterializedSlot `json:"slots"`
}

// Plan is the persisted result of one invocation. Plans are immutable once
// written; re-invocation always creates a new Plan.
type Plan struct {
	ID           string             `json:"id"`
	Type         PlanType           `json:"type"`
	Variety      VarietyPolicy      `json:"variety"`
	Days         []Day              `json:"days,omitempty"`
	Slots        []MaterializedSlot `json:"slots,omitempty"`
	BabaTip      string             `json:"baba_tip"`
	ShoppingList string             `json:"shopping_list,omitempty"`
	Source       string             `json:"source"`
	CreatedAt    time.Time          `json:"created_at"`
}

// Plan sources.
const (
	SourceGenerated = "generated"
	SourceReused    = "reuseLastWeek"
)

// RecipeIDs collects the persisted recipe IDs referenced by the plan, in
// materialization order.
func (p *Plan) RecipeIDs() []string {
	var ids []string
	for _, day := range p.Days {
		for _, slot := range day.Slots {
			if slot.RecipeID != "" {
				ids = append(ids, slot.RecipeID)
			}
		}
	}
	for _, slot := range p.Slots {
		if slot.RecipeID != "" {
			ids = append(ids, slot.RecipeID)
		}
	}
	return ids
}

// PlanRequest is the caller-facing contract shared by the bot, the API, and
// the scheduler. Field tags follow the wire contract.
type PlanRequest struct {
	MealPlanPrompt      string        `json:"mealPlanPrompt"`
	IngredientsOnHand   []string      `json:"ingredientsOnHand,omitempty"`
	CalorieTarget       int           `json:"calorieTarget,omitempty"`
	DietaryPreferences  []string      `json:"dietaryPreferences,omitempty"`
	PreferredCookingOil string        `json:"preferredCookingOil,omitempty"`
	Type                PlanType      `json:"type"`
	IncludeShoppingList bool          `json:"includeShoppingList"`
	Variety             VarietyPolicy `json:"variety"`
	Slots               []TimeSlot    `json:"slots"`
	ReuseLastWeek       bool          `json:"reuseLastWeek"`
}

// PlanResult is returned to every invoking surface.
type PlanResult struct {
	PlanID       string `json:"planId"`
	PlainText    string `json:"plainTextPlan"`
	LinkedText   string `json:"linkedPlan"`
	ShoppingList string `json:"shoppingList,omitempty"`
}

// ValidateRequest normalizes and validates a request before any upstream
// call is made. An empty slot set defaults to breakfast, lunch and dinner;
// empty type and variety default to weekly/varied.
func ValidateRequest(req *PlanRequest) error {
	if req.MealPlanPrompt == "" {
		return fmt.Errorf("%w: mealPlanPrompt must not be empty", ErrInvalidRequest)
	}
	if req.CalorieTarget < 0 {
		return fmt.Errorf("%w: calorieTarget must not be negative, got %d", ErrInvalidRequest, req.CalorieTarget)
	}

	if req.Type == "" {
		req.Type = PlanWeekly
	}
	switch req.Type {
	case PlanWeekly, PlanDaily:
	default:
		return fmt.Errorf("%w: unknown plan type %q", ErrInvalidRequest, req.Type)
	}

	if req.Variety == "" {
		req.Variety = VarietyVaried
	}
	switch req.Variety {
	case VarietyVaried, VarietySameEveryDay, VarietySameEveryWeek, VarietyLeftovers, VarietyMealPrepSunday:
	default:
		return fmt.Errorf("%w: unknown variety policy %q", ErrInvalidRequest, req.Variety)
	}

	if len(req.Slots) == 0 {
		req.Slots = []TimeSlot{SlotBreakfast, SlotLunch, SlotDinner}
	}
	for _, slot := range req.Slots {
		switch slot {
		case SlotBreakfast, SlotLunch, SlotDinner, SlotSnack:
		default:
			return fmt.Errorf("%w: unknown time slot %q", ErrInvalidRequest, slot)
		}
	}

	return nil
}

func slotRequested(slot TimeSlot, requested []TimeSlot) bool {
	for _, s := range requested {
		if s == slot {
			return true
		}
	}
	return false
}
