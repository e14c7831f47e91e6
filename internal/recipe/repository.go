package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"baba-meal-planner/internal/recipe/recipedb"

	"github.com/google/uuid"
)

// Repository is a database-backed, append-only catalog of recipes.
type Repository struct {
	queries *recipedb.Queries
	db      *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{
		queries: recipedb.New(d),
		db:      d,
	}
}

// Save mints an ID for the recipe, inserts it, and returns the ID.
// The catalog is append-only; there is no update path.
func (r *Repository) Save(ctx context.Context, rec Recipe) (string, error) {
	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()

	recipeJSON, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal recipe to JSON: %w", err)
	}

	err = r.queries.InsertRecipe(ctx, recipedb.InsertRecipeParams{
		ID:        rec.ID,
		Data:      string(recipeJSON),
		CreatedAt: rec.CreatedAt,
	})
	if err != nil {
		return "", fmt.Errorf("failed to insert recipe: %w", err)
	}

	return rec.ID, nil
}

// Get retrieves a recipe by its ID. Returns nil when not found.
func (r *Repository) Get(ctx context.Context, id string) (*Recipe, error) {
	dbRecipe, err := r.queries.GetRecipeByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recipe by ID: %w", err)
	}

	var rec Recipe
	if err := json.Unmarshal([]byte(dbRecipe.Data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe JSON: %w", err)
	}

	return &rec, nil
}

// GetByIDs retrieves multiple recipes by their IDs.
func (r *Repository) GetByIDs(ctx context.Context, ids []string) ([]Recipe, error) {
	dbRecipes, err := r.queries.GetRecipesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipes by IDs: %w", err)
	}

	var recipes []Recipe
	for _, dbRec := range dbRecipes {
		var rec Recipe
		if err := json.Unmarshal([]byte(dbRec.Data), &rec); err != nil {
			log.Printf("Warning: failed to unmarshal recipe JSON for ID %s: %v", dbRec.ID, err)
			continue
		}
		recipes = append(recipes, rec)
	}
	return recipes, nil
}

// Count returns the number of recipes in the catalog.
func (r *Repository) Count(ctx context.Context) (int, error) {
	count, err := r.queries.CountRecipes(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return int(count), nil
}
