package shopping

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"mealhow/internal/shared"
)

// ErrNotFound is returned when a shopping list does not exist.
var ErrNotFound = errors.New("shopping list not found")

// Repository handles persistence of shopping lists.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new shopping list repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Create inserts an empty pending list and fills in its id.
func (r *Repository) Create(ctx context.Context, list *ShoppingList) error {
	if list.ID == "" {
		list.ID = uuid.NewString()
	}
	list.Status = shared.JobPending
	list.CreatedAt = time.Now().UTC()
	list.UpdatedAt = list.CreatedAt

	items, err := marshalItems(list.Items)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO shopping_lists (id, user_id, status, items, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		list.ID, list.UserID, string(list.Status), items, list.CreatedAt, list.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert shopping list: %w", err)
	}
	return nil
}

// Get retrieves a shopping list by id.
func (r *Repository) Get(ctx context.Context, id string) (*ShoppingList, error) {
	var list ShoppingList
	var status, items string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, status, items, created_at, updated_at FROM shopping_lists WHERE id = ?`, id,
	).Scan(&list.ID, &list.UserID, &status, &items, &list.CreatedAt, &list.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shopping list %s: %w", id, err)
	}

	if list.Status, err = shared.ParseJobStatus(status); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(items), &list.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shopping list items: %w", err)
	}
	return &list, nil
}

// UpdateStatus moves the list to next. The update only applies while the
// stored status may still move to next.
func (r *Repository) UpdateStatus(ctx context.Context, id string, next shared.JobStatus) error {
	from := shared.Predecessors(next)
	args := []any{string(next), time.Now().UTC(), id}
	for _, s := range from {
		args = append(args, string(s))
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE shopping_lists SET status = ?, updated_at = ?
		 WHERE id = ? AND status IN (`+strings.TrimSuffix(strings.Repeat("?,", len(from)), ",")+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to update status of shopping list %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	list, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("shopping list %s: %w", id, shared.TransitionError(list.Status, next))
}

// AppendItems adds items after the ones already on the list.
func (r *Repository) AppendItems(ctx context.Context, id string, items []Item) error {
	list, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	encoded, err := marshalItems(append(list.Items, items...))
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE shopping_lists SET items = ?, updated_at = ? WHERE id = ?`,
		encoded, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to save items of shopping list %s: %w", id, err)
	}
	return nil
}

func marshalItems(items []Item) (string, error) {
	if items == nil {
		items = []Item{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to marshal shopping list items: %w", err)
	}
	return string(data), nil
}
