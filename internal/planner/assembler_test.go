package planner

import (
	"strings"
	"testing"
	"time"
)

func TestAssembleWeeklyPlan(t *testing.T) {
	plan := &Plan{
		ID:      "plan-1",
		Type:    PlanWeekly,
		BabaTip: "Soak the beans overnight.",
		Days: []Day{
			{Number: 1, Name: "Monday", Slots: []MaterializedSlot{
				{SlotSkeleton: SlotSkeleton{TimeSlot: SlotLunch, RecipeName: "Bean soup", Description: "Hearty soup"}, RecipeID: "r-1"},
			}},
		},
		ShoppingList: "- 500g dried beans",
	}

	result := assemble(plan)

	if result.PlanID != "plan-1" {
		t.Errorf("Expected plan ID plan-1, got %q", result.PlanID)
	}

	for _, text := range []string{result.PlainText, result.LinkedText} {
		if !strings.Contains(text, "Baba's tip: Soak the beans overnight.") {
			t.Errorf("Expected the tip header in %q", text)
		}
		if !strings.Contains(text, "Monday") {
			t.Errorf("Expected the day name in %q", text)
		}
		if !strings.Contains(text, "lunch: Bean soup - Hearty soup") {
			t.Errorf("Expected the slot line in %q", text)
		}
		if !strings.Contains(text, "Shopping list (quantities are approximate):") {
			t.Errorf("Expected the shopping list section in %q", text)
		}
	}

	if strings.Contains(result.PlainText, "[recipe:r-1]") {
		t.Error("Plain rendering must not contain recipe links")
	}
	if !strings.Contains(result.LinkedText, "[recipe:r-1]") {
		t.Error("Linked rendering must contain the recipe link")
	}
}

func TestAssembleDegradedPlan(t *testing.T) {
	plan := &Plan{ID: "plan-2", Type: PlanWeekly, BabaTip: "Free-form note"}

	result := assemble(plan)
	if !strings.Contains(result.PlainText, "Free-form note") {
		t.Errorf("Expected the note in the rendering, got %q", result.PlainText)
	}
	if result.ShoppingList != "" {
		t.Errorf("Expected no shopping list, got %q", result.ShoppingList)
	}
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	plans := []StoredPlan{
		{RowID: 1, CreatedAt: base},
		{RowID: 3, CreatedAt: base.Add(48 * time.Hour)},
		{RowID: 2, CreatedAt: base.Add(24 * time.Hour)},
	}

	SortNewestFirst(plans)

	want := []int64{3, 2, 1}
	for i, p := range plans {
		if p.RowID != want[i] {
			t.Errorf("Position %d: expected row %d, got %d", i, want[i], p.RowID)
		}
	}
}
