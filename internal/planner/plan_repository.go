package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"mealhow/internal/dietplan"
	"mealhow/internal/shared"
)

// ErrNotFound is returned when no meal plan matches.
var ErrNotFound = errors.New("meal plan not found")

// PlanRepository is a database-backed repository for meal plans.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{db: d}
}

// Create inserts a new pending plan and fills in its id and timestamps.
func (r *PlanRepository) Create(ctx context.Context, p *MealPlan) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Status = shared.JobPending
	p.State = shared.PlanNone
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt

	details, err := marshalDetails(p.Details)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO meal_plans (id, user_id, calories_goal, status, state, details, error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, '', ?, ?)`,
		p.ID, p.UserID, p.CaloriesGoal, string(p.Status), string(p.State), details, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert meal plan for user %s: %w", p.UserID, err)
	}
	return nil
}

const planColumns = `id, user_id, calories_goal, status, state, details, error, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(row scanner) (*MealPlan, error) {
	var p MealPlan
	var status, state, details string
	err := row.Scan(&p.ID, &p.UserID, &p.CaloriesGoal, &status, &state, &details, &p.Error, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if p.Status, err = shared.ParseJobStatus(status); err != nil {
		return nil, err
	}
	p.State = shared.PlanState(state)
	if err := json.Unmarshal([]byte(details), &p.Details); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan details: %w", err)
	}
	return &p, nil
}

// Get loads a plan by id.
func (r *PlanRepository) Get(ctx context.Context, id string) (*MealPlan, error) {
	p, err := scanPlan(r.db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM meal_plans WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meal plan %s: %w", id, err)
	}
	return p, nil
}

// UpdateStatus moves the plan's job status to next. reason is stored for
// failures. The update only applies while the stored status may still move to next.
func (r *PlanRepository) UpdateStatus(ctx context.Context, id string, next shared.JobStatus, reason string) error {
	from := shared.Predecessors(next)
	args := []any{string(next), reason, time.Now().UTC(), id}
	for _, s := range from {
		args = append(args, string(s))
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE meal_plans SET status = ?, error = ?, updated_at = ?
		 WHERE id = ? AND status IN (`+strings.TrimSuffix(strings.Repeat("?,", len(from)), ",")+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to update status of meal plan %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	p, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("meal plan %s: %w", id, shared.TransitionError(p.Status, next))
}

// Activate stores the final details, marks the plan done and makes it the
// user's active plan. The previous active plan is archived in the same transaction.
func (r *PlanRepository) Activate(ctx context.Context, id string, details dietplan.Plan) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	p, err := scanPlan(tx.QueryRowContext(ctx, `SELECT `+planColumns+` FROM meal_plans WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to get meal plan %s: %w", id, err)
	}
	if _, err = p.Status.Transition(shared.JobDone); err != nil {
		return fmt.Errorf("meal plan %s: %w", id, err)
	}
	if !p.State.CanTransitionTo(shared.PlanActive) {
		return fmt.Errorf("meal plan %s: %w: %q -> %q", id, shared.ErrInvalidTransition, p.State, shared.PlanActive)
	}

	encoded, err := marshalDetails(details)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	if _, err = tx.ExecContext(ctx,
		`UPDATE meal_plans SET state = ?, updated_at = ? WHERE user_id = ? AND state = ? AND id <> ?`,
		string(shared.PlanArchived), now, p.UserID, string(shared.PlanActive), id,
	); err != nil {
		return fmt.Errorf("failed to archive previous meal plan: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE meal_plans SET status = ?, state = ?, details = ?, error = '', updated_at = ? WHERE id = ?`,
		string(shared.JobDone), string(shared.PlanActive), encoded, now, id,
	); err != nil {
		return fmt.Errorf("failed to activate meal plan %s: %w", id, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit meal plan activation: %w", err)
	}
	return nil
}

// GetActiveByUser returns the user's current plan.
func (r *PlanRepository) GetActiveByUser(ctx context.Context, userID string) (*MealPlan, error) {
	p, err := scanPlan(r.db.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM meal_plans WHERE user_id = ? AND state = ? ORDER BY updated_at DESC LIMIT 1`,
		userID, string(shared.PlanActive),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no active plan for user %s", ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active meal plan for user %s: %w", userID, err)
	}
	return p, nil
}

// ListRecentByUser retrieves the N most recent meal plans for a given user.
func (r *PlanRepository) ListRecentByUser(ctx context.Context, userID string, limit int) ([]MealPlan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+planColumns+` FROM meal_plans WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent meal plans for user %s: %w", userID, err)
	}
	defer rows.Close()

	var plans []MealPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal plan: %w", err)
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

func marshalDetails(details dietplan.Plan) (string, error) {
	if details == nil {
		return "{}", nil
	}
	data, err := json.Marshal(details)
	if err != nil {
		return "", fmt.Errorf("failed to marshal plan details: %w", err)
	}
	return string(data), nil
}
