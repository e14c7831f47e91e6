package planner

import (
	"fmt"
	"strings"
)

// assemble builds the two human-facing renderings of a plan: a plain-text
// version for email and notifications, and a link-annotated version for
// interactive surfaces that can resolve recipe IDs.
func assemble(plan *Plan) *PlanResult {
	return &PlanResult{
		PlanID:       plan.ID,
		PlainText:    renderPlan(plan, false),
		LinkedText:   renderPlan(plan, true),
		ShoppingList: plan.ShoppingList,
	}
}

func renderPlan(plan *Plan, linked bool) string {
	var sb strings.Builder

	if plan.BabaTip != "" {
		sb.WriteString("Baba's tip: " + plan.BabaTip + "\n")
	}

	if plan.Type == PlanWeekly {
		for _, day := range plan.Days {
			sb.WriteString("\n" + day.Name + "\n")
			for _, slot := range day.Slots {
				writeSlotLine(&sb, slot, linked)
			}
		}
	} else {
		if len(plan.Slots) > 0 {
			sb.WriteString("\n")
		}
		for _, slot := range plan.Slots {
			writeSlotLine(&sb, slot, linked)
		}
	}

	if plan.ShoppingList != "" {
		sb.WriteString("\nShopping list (quantities are approximate):\n")
		sb.WriteString(plan.ShoppingList)
		sb.WriteString("\n")
	}

	return sb.String()
}

func writeSlotLine(sb *strings.Builder, slot MaterializedSlot, linked bool) {
	fmt.Fprintf(sb, "  %s: %s", slot.TimeSlot, slot.RecipeName)
	if slot.Description != "" {
		fmt.Fprintf(sb, " - %s", slot.Description)
	}
	if linked && slot.RecipeID != "" {
		fmt.Fprintf(sb, " [recipe:%s]", slot.RecipeID)
	}
	sb.WriteString("\n")
}
