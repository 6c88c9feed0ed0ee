package planner

import (
	"time"

	"mealhow/internal/dietplan"
	"mealhow/internal/shared"
)

// MealPlan is the stored result of one plan generation request.
type MealPlan struct {
	ID           string           `json:"id"`
	UserID       string           `json:"user_id"`
	CaloriesGoal int              `json:"calories_goal"`
	Status       shared.JobStatus `json:"status"`
	State        shared.PlanState `json:"state,omitempty"`
	Details      dietplan.Plan    `json:"details"`
	Error        string           `json:"error,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}
