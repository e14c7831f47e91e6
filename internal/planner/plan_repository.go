package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"baba-meal-planner/internal/planner/plandb"
)

// StoredPlan is one persisted plan row with its decoded document.
type StoredPlan struct {
	RowID     int64
	UserID    string
	Plan      Plan
	CreatedAt time.Time
}

// PlanRepository is an append-only, database-backed store of plans.
type PlanRepository struct {
	queries *plandb.Queries
	db      *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{
		queries: plandb.New(d),
		db:      d,
	}
}

// Save inserts a new plan for the user. Plans are never updated in place.
func (r *PlanRepository) Save(ctx context.Context, userID string, plan *Plan) error {
	planJSON, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan to JSON: %w", err)
	}

	err = r.queries.InsertMealPlan(ctx, plandb.InsertMealPlanParams{
		UserID:    userID,
		PlanType:  string(plan.Type),
		PlanData:  string(planJSON),
		CreatedAt: plan.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to insert meal plan: %w", err)
	}
	return nil
}

// ListRecentByUserAndType returns up to limit plans of the given type for a
// user. Rows come back in storage order with NO ordering guarantee; callers
// must sort by CreatedAt themselves (see SortNewestFirst).
func (r *PlanRepository) ListRecentByUserAndType(ctx context.Context, userID string, planType PlanType, limit int) ([]StoredPlan, error) {
	dbPlans, err := r.queries.ListRecentMealPlansByUserAndType(ctx, plandb.ListRecentMealPlansByUserAndTypeParams{
		UserID:   userID,
		PlanType: string(planType),
		Limit:    int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list recent meal plans for user %s: %w", userID, err)
	}

	var plans []StoredPlan
	for _, dbPlan := range dbPlans {
		var plan Plan
		if err := json.Unmarshal([]byte(dbPlan.PlanData), &plan); err != nil {
			log.Printf("Warning: failed to unmarshal plan row %d: %v", dbPlan.ID, err)
			continue
		}
		plans = append(plans, StoredPlan{
			RowID:     dbPlan.ID,
			UserID:    dbPlan.UserID,
			Plan:      plan,
			CreatedAt: dbPlan.CreatedAt,
		})
	}
	return plans, nil
}

// SortNewestFirst orders plans by creation time, newest first. The store
// gives no ordering guarantee, so this is an explicit step rather than an
// assumption about row order.
func SortNewestFirst(plans []StoredPlan) {
	sort.Slice(plans, func(i, j int) bool {
		return plans[i].CreatedAt.After(plans[j].CreatedAt)
	})
}
