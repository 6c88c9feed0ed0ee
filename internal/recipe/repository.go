package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a recipe does not exist.
var ErrNotFound = errors.New("recipe not found")

// Repository is a database-backed repository for recipes.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Save inserts a recipe, assigning an id when it has none.
func (r *Repository) Save(ctx context.Context, rec *MealRecipe) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	ingredients, err := json.Marshal(rec.Ingredients)
	if err != nil {
		return fmt.Errorf("failed to marshal ingredients: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO meal_recipes (id, meal_id, text, ingredients, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.MealID, rec.Text, string(ingredients), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save recipe for meal %s: %w", rec.MealID, err)
	}
	return nil
}

// Get retrieves a recipe by its ID.
func (r *Repository) Get(ctx context.Context, id string) (*MealRecipe, error) {
	var rec MealRecipe
	var ingredients string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, meal_id, text, ingredients, created_at FROM meal_recipes WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.MealID, &rec.Text, &ingredients, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(ingredients), &rec.Ingredients); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ingredients: %w", err)
	}
	return &rec, nil
}
