package planner

import (
	"context"
	"fmt"
	"log"
)

// reuseLastWeek clones the most recent prior weekly plan, filtered to the
// requested slot set, referencing the existing recipe IDs. No recipe writes
// happen on this branch. Returns found=false when there is no prior plan,
// which is not an error: the caller falls back to normal generation.
func (p *Planner) reuseLastWeek(ctx context.Context, userID string, req PlanRequest) (*PlanResult, bool, error) {
	candidates, err := p.plans.ListRecentByUserAndType(ctx, userID, PlanWeekly, reuseCandidateLimit)
	if err != nil {
		log.Printf("Warning: could not read prior plans for user %s, generating instead: %v", userID, err)
		return nil, false, nil
	}
	if len(candidates) == 0 {
		return nil, false, nil
	}

	// The store gives no ordering guarantee; sort before picking.
	SortNewestFirst(candidates)
	prior := candidates[0].Plan

	plan := p.newPlan(req, SourceReused)
	plan.BabaTip = prior.BabaTip

	for _, day := range prior.Days {
		filtered := make([]MaterializedSlot, 0, len(day.Slots))
		for _, slot := range day.Slots {
			if slotRequested(slot.TimeSlot, req.Slots) {
				filtered = append(filtered, slot)
			}
		}
		// Days emptied by slot filtering are dropped from the clone.
		if len(filtered) == 0 {
			continue
		}
		plan.Days = append(plan.Days, Day{Number: day.Number, Name: day.Name, Slots: filtered})
	}

	if err := p.plans.Save(ctx, userID, plan); err != nil {
		return nil, false, fmt.Errorf("failed to persist reused plan: %w", err)
	}

	return assemble(plan), true, nil
}
