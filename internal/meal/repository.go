package meal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"mealhow/internal/shared"
)

// Repository stores meal and image documents in SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// SaveImage creates or replaces an image document.
func (r *Repository) SaveImage(ctx context.Context, img Image) error {
	thumbs, err := json.Marshal(img.Thumbnails)
	if err != nil {
		return fmt.Errorf("failed to marshal thumbnails: %w", err)
	}
	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO meal_images (id, full_name, thumbnails, created_at) VALUES (?, ?, ?, ?)`,
		img.ID, img.FullName, string(thumbs), img.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save meal image %s: %w", img.ID, err)
	}
	return nil
}

// GetImage loads an image document.
func (r *Repository) GetImage(ctx context.Context, id string) (*Image, error) {
	var img Image
	var thumbs string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, full_name, thumbnails, created_at FROM meal_images WHERE id = ?`, id,
	).Scan(&img.ID, &img.FullName, &thumbs, &img.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: image %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meal image %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(thumbs), &img.Thumbnails); err != nil {
		return nil, fmt.Errorf("failed to unmarshal thumbnails: %w", err)
	}
	return &img, nil
}

// ExistingImageIDs reports which of ids already have an image document.
func (r *Repository) ExistingImageIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(ids) == 0 {
		return existing, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := `SELECT id FROM meal_images WHERE id IN (` + placeholders(len(ids)) + `)`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query meal images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan meal image id: %w", err)
		}
		existing[id] = true
	}
	return existing, rows.Err()
}

// UpsertMeal saves a meal. Recipe fields of an existing meal are preserved.
func (r *Repository) UpsertMeal(ctx context.Context, m Meal) error {
	now := time.Now().UTC()
	status := m.RecipeStatus
	if status == "" {
		status = shared.JobPending
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO meals (id, full_name, calories, protein, carbs, fats, preparation_time, image_id, recipe_id, recipe_status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   full_name = excluded.full_name,
		   calories = excluded.calories,
		   protein = excluded.protein,
		   carbs = excluded.carbs,
		   fats = excluded.fats,
		   preparation_time = excluded.preparation_time,
		   image_id = excluded.image_id,
		   updated_at = excluded.updated_at`,
		m.ID, m.FullName, m.Calories, m.Protein, m.Carbs, m.Fats, m.PreparationTime,
		m.ImageID, m.RecipeID, string(status), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert meal %s: %w", m.ID, err)
	}
	return nil
}

const mealColumns = `id, full_name, calories, protein, carbs, fats, preparation_time, image_id, recipe_id, recipe_status, created_at, updated_at`

func scanMeal(row interface{ Scan(...any) error }) (*Meal, error) {
	var m Meal
	var status string
	err := row.Scan(&m.ID, &m.FullName, &m.Calories, &m.Protein, &m.Carbs, &m.Fats,
		&m.PreparationTime, &m.ImageID, &m.RecipeID, &status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.RecipeStatus, err = shared.ParseJobStatus(status)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMeal loads a meal document.
func (r *Repository) GetMeal(ctx context.Context, id string) (*Meal, error) {
	m, err := scanMeal(r.db.QueryRowContext(ctx, `SELECT `+mealColumns+` FROM meals WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meal %s: %w", id, err)
	}
	return m, nil
}

// GetMeals loads several meals in the order of ids. A missing id is an error.
func (r *Repository) GetMeals(ctx context.Context, ids []string) ([]Meal, error) {
	meals := make([]Meal, 0, len(ids))
	for _, id := range ids {
		m, err := r.GetMeal(ctx, id)
		if err != nil {
			return nil, err
		}
		meals = append(meals, *m)
	}
	return meals, nil
}

// UpdateRecipeStatus moves the meal's recipe job to next. The update only
// applies while the stored status may still move to next, so of two
// concurrent callers starting the same job one gets ErrInvalidTransition.
func (r *Repository) UpdateRecipeStatus(ctx context.Context, id string, next shared.JobStatus) error {
	from := shared.Predecessors(next)
	args := []any{string(next), time.Now().UTC(), id}
	for _, s := range from {
		args = append(args, string(s))
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE meals SET recipe_status = ?, updated_at = ?
		 WHERE id = ? AND recipe_status IN (`+placeholders(len(from))+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to update recipe status of meal %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	m, err := r.GetMeal(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("meal %s: %w", id, shared.TransitionError(m.RecipeStatus, next))
}

// SetRecipe links a stored recipe to the meal.
func (r *Repository) SetRecipe(ctx context.Context, mealID, recipeID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE meals SET recipe_id = ?, updated_at = ? WHERE id = ?`,
		recipeID, time.Now().UTC(), mealID,
	)
	if err != nil {
		return fmt.Errorf("failed to link recipe to meal %s: %w", mealID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, mealID)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
