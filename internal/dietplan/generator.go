package dietplan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mealhow/internal/llm"
	"mealhow/internal/logger"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoVariants is returned when no completion request succeeded.
	ErrNoVariants = errors.New("no meal plan variant could be generated")
	// ErrEmptyPlan is returned when the variants parsed into zero usable days.
	ErrEmptyPlan = errors.New("optimal meal plan is empty")
)

// FailurePolicy decides what a failed variant request does to the whole batch.
type FailurePolicy int

const (
	// FailFast cancels the sibling requests and fails the batch.
	FailFast FailurePolicy = iota
	// TolerateFailures skips failed variants as long as one succeeds.
	TolerateFailures
)

// GeneratorOptions configures a Generator.
type GeneratorOptions struct {
	Variants   int
	PlanLength int
	Policy     FailurePolicy
}

// Generator requests several plan variants concurrently and composes the optimal plan.
type Generator struct {
	textGen    llm.TextGenerator
	variants   int
	planLength int
	policy     FailurePolicy
	log        *logger.Logger
}

// NewGenerator creates a Generator. textGen is usually a quality gate.
func NewGenerator(textGen llm.TextGenerator, opts GeneratorOptions, log *logger.Logger) *Generator {
	if opts.Variants < 1 {
		opts.Variants = 3
	}
	if opts.PlanLength < 1 {
		opts.PlanLength = 7
	}
	return &Generator{
		textGen:    textGen,
		variants:   opts.Variants,
		planLength: opts.PlanLength,
		policy:     opts.Policy,
		log:        log.With("service", "PlanGenerator"),
	}
}

// PlanLength is the number of days a plan covers.
func (g *Generator) PlanLength() int {
	return g.planLength
}

// RequestVariants issues the completion requests concurrently and parses every
// answer. Variants are returned in issue order.
func (g *Generator) RequestVariants(ctx context.Context, prompt string) ([]Variant, error) {
	results := make([]Variant, g.variants)
	succeeded := make([]bool, g.variants)

	eg, egctx := errgroup.WithContext(ctx)
	for i := 0; i < g.variants; i++ {
		eg.Go(func() error {
			start := time.Now()
			resp, err := g.textGen.GenerateContent(egctx, prompt)
			if err != nil {
				if g.policy == TolerateFailures {
					g.log.Warn("Skipping failed plan variant", "variant", i+1, "error", err)
					return nil
				}
				return fmt.Errorf("failed to request meal plan variant %d: %w", i+1, err)
			}

			entries := ParsePlan(resp.Content)
			results[i] = BuildVariant(entries)
			succeeded[i] = true

			g.log.Debug("Plan variant parsed",
				"variant", i+1,
				"meals", len(entries),
				"days", len(results[i]),
				"latency", time.Since(start).String(),
			)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	variants := make([]Variant, 0, g.variants)
	for i, ok := range succeeded {
		if ok {
			variants = append(variants, results[i])
		}
	}
	if len(variants) == 0 {
		return nil, ErrNoVariants
	}
	return variants, nil
}

// Optimal requests the variants for prompt and selects the best day of each
// against the daily calorie goal.
func (g *Generator) Optimal(ctx context.Context, prompt string, caloriesGoal int) (Plan, error) {
	variants, err := g.RequestVariants(ctx, prompt)
	if err != nil {
		return nil, err
	}

	plan := SelectOptimal(variants, caloriesGoal, g.planLength)
	if len(plan) == 0 {
		return nil, ErrEmptyPlan
	}
	if len(plan) < g.planLength {
		g.log.Warn("Optimal plan has partial coverage", "days", len(plan), "plan_length", g.planLength)
	}
	return plan, nil
}
