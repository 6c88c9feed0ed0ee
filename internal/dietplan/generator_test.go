package dietplan

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"mealhow/internal/llm"
	"mealhow/internal/logger"
)

const planHeader = "Day;Meal time;Meal name;Preparation time;Calories;Protein;Carbs;Fats\n"

// cyclingGenerator hands out its responses in call order.
type cyclingGenerator struct {
	responses []string
	errs      []error
	calls     atomic.Int32
}

func (g *cyclingGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	i := int(g.calls.Add(1)-1) % len(g.responses)
	if i < len(g.errs) && g.errs[i] != nil {
		return llm.ContentResponse{}, g.errs[i]
	}
	return llm.ContentResponse{Content: g.responses[i]}, nil
}

func completion(rows ...string) string {
	return "Here you go:\n" + planHeader + strings.Join(rows, "\n")
}

func TestGeneratorOptimal(t *testing.T) {
	ctx := context.Background()

	t.Run("ComposesBestDays", func(t *testing.T) {
		gen := &cyclingGenerator{responses: []string{
			completion(
				"Monday;Breakfast;Oats;10;900;20;50;10",
				"Monday;Dinner;Steak;30;1200;60;10;40",
				"Tuesday;Lunch;Salad;10;1500;30;20;10",
			),
			"I'm sorry, I can't do that.",
			completion(
				"Monday;Lunch;Pasta;20;1950;50;200;40",
				"Tuesday;Lunch;Burrito;15;2010;60;180;50",
				"Wednesday;Lunch;Soup;15;1800;40;150;30",
			),
		}}

		g := NewGenerator(gen, GeneratorOptions{Variants: 3, PlanLength: 7}, logger.Nop())
		plan, err := g.Optimal(ctx, "prompt", 2000)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		if got := plan.Days(); len(got) != 3 {
			t.Fatalf("Expected 3 covered days, got %v", got)
		}
		if plan[1].Total.Calories != 1950 {
			t.Errorf("Expected day 1 total 1950, got %d", plan[1].Total.Calories)
		}
		if plan[2].Meals[0].MealName != "Burrito" {
			t.Errorf("Expected day 2 burrito, got %+v", plan[2].Meals)
		}
		if gen.calls.Load() != 3 {
			t.Errorf("Expected 3 completion requests, got %d", gen.calls.Load())
		}
	})

	t.Run("FailFast", func(t *testing.T) {
		boom := errors.New("upstream unavailable")
		gen := &cyclingGenerator{
			responses: []string{"", completion("Monday;Lunch;Pasta;20;2000;50;200;40")},
			errs:      []error{boom},
		}

		g := NewGenerator(gen, GeneratorOptions{Variants: 2, PlanLength: 7, Policy: FailFast}, logger.Nop())
		if _, err := g.Optimal(ctx, "prompt", 2000); !errors.Is(err, boom) {
			t.Fatalf("Expected the upstream error, got %v", err)
		}
	})

	t.Run("TolerateFailures", func(t *testing.T) {
		gen := &cyclingGenerator{
			responses: []string{"", completion("Monday;Lunch;Pasta;20;2000;50;200;40")},
			errs:      []error{errors.New("upstream unavailable")},
		}

		g := NewGenerator(gen, GeneratorOptions{Variants: 2, PlanLength: 7, Policy: TolerateFailures}, logger.Nop())
		plan, err := g.Optimal(ctx, "prompt", 2000)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if plan[1].Total.Calories != 2000 {
			t.Errorf("Unexpected plan: %+v", plan)
		}
	})

	t.Run("AllFailedTolerated", func(t *testing.T) {
		gen := &cyclingGenerator{
			responses: []string{""},
			errs:      []error{errors.New("upstream unavailable")},
		}

		g := NewGenerator(gen, GeneratorOptions{Variants: 3, PlanLength: 7, Policy: TolerateFailures}, logger.Nop())
		if _, err := g.Optimal(ctx, "prompt", 2000); !errors.Is(err, ErrNoVariants) {
			t.Fatalf("Expected ErrNoVariants, got %v", err)
		}
	})

	t.Run("AllGarbled", func(t *testing.T) {
		gen := &cyclingGenerator{responses: []string{"no table at all"}}

		g := NewGenerator(gen, GeneratorOptions{Variants: 2, PlanLength: 7}, logger.Nop())
		if _, err := g.Optimal(ctx, "prompt", 2000); !errors.Is(err, ErrEmptyPlan) {
			t.Fatalf("Expected ErrEmptyPlan, got %v", err)
		}
	})
}

func TestBuildPrompt(t *testing.T) {
	protein := 120
	prompt, err := BuildPrompt(PromptInput{
		CaloriesGoal:       2200,
		ProteinGoal:        &protein,
		PreferredCuisines:  []string{"Italian", "Thai"},
		IngredientsToAvoid: []string{"peanuts"},
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	for _, want := range []string{
		"7-day meal plan",
		"2200 kcal",
		"120 g of protein",
		"Italian, Thai",
		"peanuts",
		"Day;Meal time;Meal name;Preparation time;Calories;Protein;Carbs;Fats",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}
	if strings.Contains(prompt, "minutes to prepare") {
		t.Error("Expected no preparation time constraint when none was given")
	}

	if _, err := BuildPrompt(PromptInput{}); err == nil {
		t.Error("Expected an error for a missing calories goal")
	}
}
