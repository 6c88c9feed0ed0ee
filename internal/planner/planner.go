package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mealhow/internal/dietplan"
	"mealhow/internal/logger"
	"mealhow/internal/shared"
)

// ErrInvalidRequest is returned for requests that cannot produce a plan.
var ErrInvalidRequest = errors.New("invalid meal plan request")

// PlanGenerator composes the optimal plan for a prompt.
type PlanGenerator interface {
	Optimal(ctx context.Context, prompt string, caloriesGoal int) (dietplan.Plan, error)
	PlanLength() int
}

// MealSaver persists the meals of a plan and their images.
type MealSaver interface {
	SaveMealsAndImages(ctx context.Context, plan dietplan.Plan) ([]string, error)
}

// Request is one user's plan generation request.
type Request struct {
	UserID string
	Input  dietplan.PromptInput
}

// Service runs the whole meal plan generation flow.
type Service struct {
	plans     *PlanRepository
	generator PlanGenerator
	meals     MealSaver
	log       *logger.Logger
}

// NewService creates a new Service.
func NewService(plans *PlanRepository, generator PlanGenerator, meals MealSaver, log *logger.Logger) *Service {
	return &Service{
		plans:     plans,
		generator: generator,
		meals:     meals,
		log:       log.With("service", "PlanService"),
	}
}

// Generate creates the plan document, composes the optimal plan, stores its
// meals and images and activates the plan. On failure the document is marked
// failed and the error is returned.
func (s *Service) Generate(ctx context.Context, req Request) (*MealPlan, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidRequest)
	}
	req.Input.Days = s.generator.PlanLength()
	prompt, err := dietplan.BuildPrompt(req.Input)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	plan := &MealPlan{UserID: req.UserID, CaloriesGoal: req.Input.CaloriesGoal}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, err
	}
	log := s.log.With("plan_id", plan.ID, "user_id", plan.UserID)
	start := time.Now()

	if err := s.plans.UpdateStatus(ctx, plan.ID, shared.JobInProgress, ""); err != nil {
		return nil, err
	}

	details, err := s.run(ctx, prompt, req.Input.CaloriesGoal, plan.ID)
	if err != nil {
		if markErr := s.plans.UpdateStatus(context.WithoutCancel(ctx), plan.ID, shared.JobFailed, err.Error()); markErr != nil {
			log.Error("Failed to mark meal plan as failed", "error", markErr)
		}
		log.Error("Meal plan generation failed", "error", err)
		return nil, err
	}

	stored, err := s.plans.Get(ctx, plan.ID)
	if err != nil {
		return nil, err
	}
	log.Info("Meal plan generated", "days", len(details), "latency", time.Since(start).String())
	return stored, nil
}

func (s *Service) run(ctx context.Context, prompt string, goal int, planID string) (dietplan.Plan, error) {
	details, err := s.generator.Optimal(ctx, prompt, goal)
	if err != nil {
		return nil, fmt.Errorf("failed to compose optimal meal plan: %w", err)
	}
	if _, err := s.meals.SaveMealsAndImages(ctx, details); err != nil {
		return nil, fmt.Errorf("failed to save meals and images: %w", err)
	}
	if err := s.plans.Activate(ctx, planID, details); err != nil {
		return nil, err
	}
	return details, nil
}
