package recipe

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"text/template"

	"mealhow/internal/llm"
	"mealhow/internal/logger"
	"mealhow/internal/meal"
	"mealhow/internal/shared"
)

//go:embed recipe_prompt.md
var recipePrompt string

var recipeTemplate = template.Must(template.New("recipe").Parse(recipePrompt))

// Service generates and stores recipes for meals.
type Service struct {
	meals   *meal.Repository
	recipes *Repository
	textGen llm.TextGenerator
	log     *logger.Logger
}

// NewService creates a new Service. textGen is usually a quality gate.
func NewService(meals *meal.Repository, recipes *Repository, textGen llm.TextGenerator, log *logger.Logger) *Service {
	return &Service{
		meals:   meals,
		recipes: recipes,
		textGen: textGen,
		log:     log.With("service", "RecipeService"),
	}
}

// Generate writes the recipe of mealID. A meal whose recipe is already done is
// returned as is, so redelivered events are harmless.
func (s *Service) Generate(ctx context.Context, mealID string) (*MealRecipe, error) {
	m, err := s.meals.GetMeal(ctx, mealID)
	if err != nil {
		return nil, err
	}
	if m.RecipeStatus == shared.JobDone && m.RecipeID != "" {
		s.log.Info("Recipe already generated", "meal_id", mealID)
		return s.recipes.Get(ctx, m.RecipeID)
	}

	if err := s.meals.UpdateRecipeStatus(ctx, mealID, shared.JobInProgress); err != nil {
		return nil, err
	}

	rec, err := s.generate(ctx, m)
	if err != nil {
		if markErr := s.meals.UpdateRecipeStatus(context.WithoutCancel(ctx), mealID, shared.JobFailed); markErr != nil {
			s.log.Error("Failed to mark recipe as failed", "meal_id", mealID, "error", markErr)
		}
		return nil, err
	}

	if err := s.meals.UpdateRecipeStatus(ctx, mealID, shared.JobDone); err != nil {
		return nil, err
	}
	s.log.Info("Recipe generated", "meal_id", mealID, "ingredients", len(rec.Ingredients))
	return rec, nil
}

func (s *Service) generate(ctx context.Context, m *meal.Meal) (*MealRecipe, error) {
	var buf bytes.Buffer
	if err := recipeTemplate.Execute(&buf, map[string]string{"Meal": m.Label()}); err != nil {
		return nil, fmt.Errorf("failed to render recipe prompt: %w", err)
	}

	resp, err := s.textGen.GenerateContent(ctx, buf.String())
	if err != nil {
		return nil, fmt.Errorf("failed to generate recipe for %s: %w", m.ID, err)
	}

	rec := &MealRecipe{MealID: m.ID, Text: resp.Content}
	if section := ExtractSection(resp.Content, "ngredients", "nstructions"); section != "" {
		rec.Ingredients = ExtractIngredients(section)
	}

	if err := s.recipes.Save(ctx, rec); err != nil {
		return nil, err
	}
	if err := s.meals.SetRecipe(ctx, m.ID, rec.ID); err != nil {
		return nil, err
	}
	return rec, nil
}
