package dietplan

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed plan_prompt.md
var planPrompt string

var planTemplate = template.Must(
	template.New("plan").Funcs(template.FuncMap{"join": strings.Join}).Parse(planPrompt),
)

// PromptInput holds the user's planning preferences.
type PromptInput struct {
	CaloriesGoal       int
	ProteinGoal        *int
	PreparationTime    *int
	PreferredCuisines  []string
	IngredientsToAvoid []string
	HealthIssues       []string
	Days               int
}

// BuildPrompt renders the meal plan request for the language model.
func BuildPrompt(in PromptInput) (string, error) {
	if in.CaloriesGoal <= 0 {
		return "", fmt.Errorf("calories goal must be positive, got %d", in.CaloriesGoal)
	}
	if in.Days <= 0 {
		in.Days = 7
	}

	var buf bytes.Buffer
	if err := planTemplate.Execute(&buf, in); err != nil {
		return "", fmt.Errorf("failed to render meal plan prompt: %w", err)
	}
	return buf.String(), nil
}
