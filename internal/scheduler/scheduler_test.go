package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"baba-meal-planner/internal/planner"
	"baba-meal-planner/internal/prefs"
)

func TestBuildWeeklyRequestUsesStoredPrompt(t *testing.T) {
	user := &prefs.UserPreferences{
		UserID:             "user-1",
		AutoPlanPrompt:     "fish twice a week, no mushrooms",
		DietaryPreferences: []string{"pescatarian"},
		DefaultSlots:       []planner.TimeSlot{planner.SlotDinner},
	}

	req := buildWeeklyRequest(user)

	assert.Equal(t, "fish twice a week, no mushrooms", req.MealPlanPrompt)
	assert.Equal(t, planner.PlanWeekly, req.Type)
	assert.True(t, req.IncludeShoppingList)
	assert.Equal(t, []string{"pescatarian"}, req.DietaryPreferences)
	assert.Equal(t, []planner.TimeSlot{planner.SlotDinner}, req.Slots)
}

func TestBuildWeeklyRequestDefaultPrompt(t *testing.T) {
	req := buildWeeklyRequest(&prefs.UserPreferences{UserID: "user-2"})
	assert.NotEmpty(t, req.MealPlanPrompt)
}
