package dietplan

import (
	"context"
	"net/http"
	"testing"
	"time"

	"mealhow/internal/config"
	"mealhow/internal/llm"
	"mealhow/internal/logger"
)

// TestGenerator_LiveEval asks the configured model for real plans and checks
// they parse into a usable composite.
// Run with: go test -v ./internal/dietplan -run TestGenerator_LiveEval
func TestGenerator_LiveEval(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping live eval in short mode")
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		t.Skip("Skipping: No API keys found in environment")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	client := llm.NewOpenAIClient(cfg, &http.Client{Timeout: 2 * time.Minute})
	gate := llm.NewQualityGate(client, 3, time.Second, logger.Nop())
	gen := NewGenerator(gate, GeneratorOptions{Variants: 2, PlanLength: 3, Policy: TolerateFailures}, logger.Nop())

	prompt, err := BuildPrompt(PromptInput{CaloriesGoal: 2000, Days: 3})
	if err != nil {
		t.Fatal(err)
	}

	plan, err := gen.Optimal(ctx, prompt, 2000)
	if err != nil {
		t.Fatalf("Generator failed: %v", err)
	}

	// EVAL A: every requested day is covered
	if len(plan) != 3 {
		t.Errorf("COVERAGE FAIL: expected 3 days, got %v", plan.Days())
	}

	// EVAL B: daily totals stay in a sane range around the goal
	for _, d := range plan.Days() {
		total := plan[d].Total.Calories
		if total < 1000 || total > 3000 {
			t.Errorf("CALORIES FAIL: day %d totals %d kcal for a 2000 kcal goal", d, total)
		}
		for _, m := range plan[d].Meals {
			if m.MealName == "" || m.ID == "" {
				t.Errorf("FORMAT FAIL: incomplete meal %+v", m)
			}
		}
	}
}
