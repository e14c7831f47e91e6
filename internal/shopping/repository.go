package shopping

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"baba-meal-planner/internal/shopping/shoppingdb"
)

// Repository handles persistence of shopping lists.
type Repository struct {
	queries *shoppingdb.Queries
	db      *sql.DB
}

// NewRepository creates a new shopping list repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{
		queries: shoppingdb.New(d),
		db:      d,
	}
}

type storedList struct {
	Items    []string `json:"items"`
	Rendered string   `json:"rendered"`
}

// Save creates a new shopping list row and returns its ID.
func (r *Repository) Save(ctx context.Context, list *ShoppingList) (int64, error) {
	itemsJSON, err := json.Marshal(storedList{Items: list.Items, Rendered: list.Rendered})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal shopping list items: %w", err)
	}

	id, err := r.queries.InsertShoppingList(ctx, shoppingdb.InsertShoppingListParams{
		UserID:     list.UserID,
		MealPlanID: list.MealPlanID,
		Items:      string(itemsJSON),
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to insert shopping list: %w", err)
	}

	return id, nil
}

// GetByMealPlanID retrieves a shopping list by meal plan ID. Returns nil when
// the plan has no stored list.
func (r *Repository) GetByMealPlanID(ctx context.Context, mealPlanID string) (*ShoppingList, error) {
	dbList, err := r.queries.GetShoppingListByMealPlanID(ctx, mealPlanID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get shopping list by meal plan ID: %w", err)
	}

	var stored storedList
	if err := json.Unmarshal([]byte(dbList.Items), &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shopping list items: %w", err)
	}

	return &ShoppingList{
		ID:         dbList.ID,
		UserID:     dbList.UserID,
		MealPlanID: dbList.MealPlanID,
		Items:      stored.Items,
		Rendered:   stored.Rendered,
		CreatedAt:  dbList.CreatedAt,
	}, nil
}
