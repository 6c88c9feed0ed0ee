package shopping

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"mealhow/internal/database"
	"mealhow/internal/llm"
	"mealhow/internal/logger"
	"mealhow/internal/meal"
	"mealhow/internal/recipe"
	"mealhow/internal/shared"
)

type MockTextGenerator struct {
	mu      sync.Mutex
	prompts []string
	err     error
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.err != nil {
		return llm.ContentResponse{}, m.err
	}
	if strings.Contains(prompt, "recipe ingredients") {
		return llm.ContentResponse{Content: "Product name;Quantity;Product category\nTortillas;1;Bakery"}, nil
	}
	return llm.ContentResponse{Content: "Product name;Quantity;Product category\nOats;80 g;Pantry\nMilk;200 ml;Dairy"}, nil
}

type fixture struct {
	lists   *Repository
	meals   *meal.Repository
	recipes *recipe.Repository
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "shopping.db"), logger.Nop())
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	f := fixture{
		lists:   NewRepository(db.SQL),
		meals:   meal.NewRepository(db.SQL),
		recipes: recipe.NewRepository(db.SQL),
	}

	for _, m := range []meal.Meal{
		{ID: "oats-400", FullName: "Oats", Calories: 400, ImageID: "oats"},
		{ID: "wrap-450", FullName: "Wrap", Calories: 450, ImageID: "wrap"},
	} {
		if err := f.meals.UpsertMeal(ctx, m); err != nil {
			t.Fatalf("Failed to seed meal: %v", err)
		}
	}
	return f
}

func (f fixture) finishRecipe(t *testing.T, mealID string, ingredients ...string) {
	t.Helper()
	ctx := context.Background()
	rec := &recipe.MealRecipe{MealID: mealID, Text: "text", Ingredients: ingredients}
	if err := f.recipes.Save(ctx, rec); err != nil {
		t.Fatalf("Failed to save recipe: %v", err)
	}
	if err := f.meals.UpdateRecipeStatus(ctx, mealID, shared.JobInProgress); err != nil {
		t.Fatal(err)
	}
	if err := f.meals.SetRecipe(ctx, mealID, rec.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.meals.UpdateRecipeStatus(ctx, mealID, shared.JobDone); err != nil {
		t.Fatal(err)
	}
}

func TestServiceGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("MixesRecipesAndMeals", func(t *testing.T) {
		f := setup(t)
		f.finishRecipe(t, "wrap-450", "1 tortilla")

		list := &ShoppingList{UserID: "u1"}
		if err := f.lists.Create(ctx, list); err != nil {
			t.Fatalf("Failed to create list: %v", err)
		}

		gen := &MockTextGenerator{}
		svc := NewService(f.lists, f.meals, f.recipes, gen, logger.Nop())

		got, err := svc.Generate(ctx, list.ID, []string{"oats-400", "wrap-450"})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if got.Status != shared.JobDone {
			t.Errorf("Expected done status, got %s", got.Status)
		}
		if len(got.Items) != 3 {
			t.Fatalf("Expected 3 items, got %+v", got.Items)
		}
		if got.Items[0].Name != "Oats" || got.Items[2].Name != "Tortillas" {
			t.Errorf("Expected meal items before ingredient items, got %+v", got.Items)
		}
		if len(gen.prompts) != 2 {
			t.Errorf("Expected 2 completions, got %d", len(gen.prompts))
		}
	})

	t.Run("SkipsEmptyInput", func(t *testing.T) {
		f := setup(t)
		list := &ShoppingList{UserID: "u1"}
		if err := f.lists.Create(ctx, list); err != nil {
			t.Fatalf("Failed to create list: %v", err)
		}

		gen := &MockTextGenerator{}
		svc := NewService(f.lists, f.meals, f.recipes, gen, logger.Nop())

		if _, err := svc.Generate(ctx, list.ID, []string{"oats-400"}); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "Oats (400 calories)") {
			t.Errorf("Expected a single meal-name completion, got %q", gen.prompts)
		}
	})

	t.Run("FailureMarksFailed", func(t *testing.T) {
		f := setup(t)
		list := &ShoppingList{UserID: "u1"}
		if err := f.lists.Create(ctx, list); err != nil {
			t.Fatalf("Failed to create list: %v", err)
		}

		boom := errors.New("timeout")
		svc := NewService(f.lists, f.meals, f.recipes, &MockTextGenerator{err: boom}, logger.Nop())

		if _, err := svc.Generate(ctx, list.ID, []string{"oats-400"}); !errors.Is(err, boom) {
			t.Fatalf("Expected timeout error, got %v", err)
		}
		stored, _ := f.lists.Get(ctx, list.ID)
		if stored.Status != shared.JobFailed {
			t.Errorf("Expected failed status, got %s", stored.Status)
		}
	})

	t.Run("UnknownMealFails", func(t *testing.T) {
		f := setup(t)
		list := &ShoppingList{UserID: "u1"}
		if err := f.lists.Create(ctx, list); err != nil {
			t.Fatalf("Failed to create list: %v", err)
		}
		svc := NewService(f.lists, f.meals, f.recipes, &MockTextGenerator{}, logger.Nop())

		if _, err := svc.Generate(ctx, list.ID, []string{"missing-1"}); !errors.Is(err, meal.ErrNotFound) {
			t.Fatalf("Expected meal.ErrNotFound, got %v", err)
		}
	})
}
