package prefs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"baba-meal-planner/internal/prefs/prefsdb"
)

// Repository stores one preferences document per user.
type Repository struct {
	queries *prefsdb.Queries
	db      *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{
		queries: prefsdb.New(d),
		db:      d,
	}
}

// Get returns the stored preferences for a user, or nil when the user has
// never saved any.
func (r *Repository) Get(ctx context.Context, userID string) (*UserPreferences, error) {
	row, err := r.queries.GetUserPreferences(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences for user %s: %w", userID, err)
	}

	var p UserPreferences
	if err := json.Unmarshal([]byte(row.Data), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal preferences for user %s: %w", userID, err)
	}
	p.UserID = row.UserID
	p.UpdatedAt = row.UpdatedAt
	return &p, nil
}

// Upsert writes the full preferences document for a user, replacing any
// previous version.
func (r *Repository) Upsert(ctx context.Context, p *UserPreferences) error {
	p.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	err = r.queries.UpsertUserPreferences(ctx, prefsdb.UpsertUserPreferencesParams{
		UserID:    p.UserID,
		Data:      string(data),
		UpdatedAt: p.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert preferences for user %s: %w", p.UserID, err)
	}
	return nil
}

// ListAutoPlanUsers returns every user who opted into the weekly automatic
// plan. Rows that fail to decode are skipped with a warning.
func (r *Repository) ListAutoPlanUsers(ctx context.Context) ([]*UserPreferences, error) {
	rows, err := r.queries.ListUserPreferences(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}

	var users []*UserPreferences
	for _, row := range rows {
		var p UserPreferences
		if err := json.Unmarshal([]byte(row.Data), &p); err != nil {
			log.Printf("Warning: failed to unmarshal preferences for user %s: %v", row.UserID, err)
			continue
		}
		if !p.AutoPlanEnabled {
			continue
		}
		p.UserID = row.UserID
		p.UpdatedAt = row.UpdatedAt
		users = append(users, &p)
	}
	return users, nil
}
