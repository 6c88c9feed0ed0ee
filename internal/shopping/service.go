package shopping

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"text/template"

	"golang.org/x/sync/errgroup"

	"mealhow/internal/llm"
	"mealhow/internal/logger"
	"mealhow/internal/meal"
	"mealhow/internal/recipe"
	"mealhow/internal/shared"
)

var (
	//go:embed shopping_meals_prompt.md
	mealsPrompt string
	//go:embed shopping_ingredients_prompt.md
	ingredientsPrompt string

	mealsTemplate       = template.Must(template.New("meals").Parse(mealsPrompt))
	ingredientsTemplate = template.Must(template.New("ingredients").Parse(ingredientsPrompt))
)

// Service fills shopping lists from the meals of a plan.
type Service struct {
	lists   *Repository
	meals   *meal.Repository
	recipes *recipe.Repository
	textGen llm.TextGenerator
	log     *logger.Logger
}

// NewService creates a new Service. textGen is usually a quality gate.
func NewService(lists *Repository, meals *meal.Repository, recipes *recipe.Repository, textGen llm.TextGenerator, log *logger.Logger) *Service {
	return &Service{
		lists:   lists,
		meals:   meals,
		recipes: recipes,
		textGen: textGen,
		log:     log.With("service", "ShoppingListService"),
	}
}

// Generate appends the products for mealIDs to the list. Meals with a finished
// recipe contribute their ingredients, the others their names.
func (s *Service) Generate(ctx context.Context, listID string, mealIDs []string) (*ShoppingList, error) {
	list, err := s.lists.Get(ctx, listID)
	if err != nil {
		return nil, err
	}
	if list.Status == shared.JobDone {
		s.log.Info("Shopping list already generated", "list_id", listID)
		return list, nil
	}

	if err := s.lists.UpdateStatus(ctx, listID, shared.JobInProgress); err != nil {
		return nil, err
	}

	if err := s.fill(ctx, listID, mealIDs); err != nil {
		if markErr := s.lists.UpdateStatus(context.WithoutCancel(ctx), listID, shared.JobFailed); markErr != nil {
			s.log.Error("Failed to mark shopping list as failed", "list_id", listID, "error", markErr)
		}
		return nil, err
	}

	if err := s.lists.UpdateStatus(ctx, listID, shared.JobDone); err != nil {
		return nil, err
	}
	return s.lists.Get(ctx, listID)
}

func (s *Service) fill(ctx context.Context, listID string, mealIDs []string) error {
	meals, err := s.meals.GetMeals(ctx, mealIDs)
	if err != nil {
		return err
	}

	var labels, ingredients []string
	for _, m := range meals {
		if m.RecipeStatus == shared.JobDone && m.RecipeID != "" {
			rec, err := s.recipes.Get(ctx, m.RecipeID)
			if err != nil {
				return err
			}
			ingredients = append(ingredients, rec.Ingredients...)
			continue
		}
		labels = append(labels, m.Label())
	}

	var fromMeals, fromIngredients []Item
	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		fromMeals, err = s.request(egctx, mealsTemplate, labels)
		return err
	})
	eg.Go(func() error {
		var err error
		fromIngredients, err = s.request(egctx, ingredientsTemplate, ingredients)
		return err
	})
	if err := eg.Wait(); err != nil {
		return err
	}

	items := append(fromMeals, fromIngredients...)
	s.log.Info("Shopping list items parsed", "list_id", listID, "meals", len(meals), "items", len(items))
	return s.lists.AppendItems(ctx, listID, items)
}

// request skips the completion when there is nothing to ask about.
func (s *Service) request(ctx context.Context, tmpl *template.Template, lines []string) ([]Item, error) {
	if len(lines) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, lines); err != nil {
		return nil, fmt.Errorf("failed to render %s prompt: %w", tmpl.Name(), err)
	}

	resp, err := s.textGen.GenerateContent(ctx, buf.String())
	if err != nil {
		return nil, fmt.Errorf("failed to generate shopping list from %s: %w", tmpl.Name(), err)
	}
	return ParseItems(resp.Content), nil
}
