package meal

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"mealhow/internal/database"
	"mealhow/internal/logger"
	"mealhow/internal/shared"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "meal.db"), logger.Nop())
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRepository(db.SQL)
}

func TestNewImage(t *testing.T) {
	img := NewImage("oats", "Oats", "https://cdn/")
	if len(img.Thumbnails) != 3 {
		t.Fatalf("Expected 3 thumbnails, got %d", len(img.Thumbnails))
	}
	if img.Thumbnails[1].URL != "https://cdn/oats_512x512.jpg" {
		t.Errorf("Unexpected thumbnail URL: %s", img.Thumbnails[1].URL)
	}
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	m := Meal{ID: "oats-400", FullName: "Oats", Calories: 400, ImageID: "oats"}

	t.Run("GetMissing", func(t *testing.T) {
		if _, err := repo.GetMeal(ctx, "nope-1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpsertAndGet", func(t *testing.T) {
		if err := repo.UpsertMeal(ctx, m); err != nil {
			t.Fatalf("Failed to upsert meal: %v", err)
		}
		got, err := repo.GetMeal(ctx, m.ID)
		if err != nil {
			t.Fatalf("Failed to get meal: %v", err)
		}
		if got.FullName != "Oats" || got.RecipeStatus != shared.JobPending {
			t.Errorf("Unexpected meal: %+v", got)
		}
	})

	t.Run("RecipeStatusTransitions", func(t *testing.T) {
		if err := repo.UpdateRecipeStatus(ctx, m.ID, shared.JobDone); !errors.Is(err, shared.ErrInvalidTransition) {
			t.Errorf("Expected ErrInvalidTransition for pending -> done, got %v", err)
		}
		if err := repo.UpdateRecipeStatus(ctx, m.ID, shared.JobInProgress); err != nil {
			t.Fatalf("Failed to start recipe job: %v", err)
		}
		if err := repo.SetRecipe(ctx, m.ID, "recipe-1"); err != nil {
			t.Fatalf("Failed to link recipe: %v", err)
		}
		if err := repo.UpdateRecipeStatus(ctx, m.ID, shared.JobDone); err != nil {
			t.Fatalf("Failed to finish recipe job: %v", err)
		}
	})

	t.Run("UpsertKeepsRecipe", func(t *testing.T) {
		updated := m
		updated.FullName = "Overnight Oats"
		if err := repo.UpsertMeal(ctx, updated); err != nil {
			t.Fatalf("Failed to upsert meal: %v", err)
		}
		got, err := repo.GetMeal(ctx, m.ID)
		if err != nil {
			t.Fatalf("Failed to get meal: %v", err)
		}
		if got.FullName != "Overnight Oats" || got.RecipeID != "recipe-1" || got.RecipeStatus != shared.JobDone {
			t.Errorf("Expected name update with recipe kept, got %+v", got)
		}
	})

	t.Run("Images", func(t *testing.T) {
		if err := repo.SaveImage(ctx, NewImage("oats", "Oats", "https://cdn/")); err != nil {
			t.Fatalf("Failed to save image: %v", err)
		}
		existing, err := repo.ExistingImageIDs(ctx, []string{"oats", "salad"})
		if err != nil {
			t.Fatalf("Failed to query images: %v", err)
		}
		if !existing["oats"] || existing["salad"] {
			t.Errorf("Unexpected existing ids: %v", existing)
		}
		img, err := repo.GetImage(ctx, "oats")
		if err != nil {
			t.Fatalf("Failed to get image: %v", err)
		}
		if len(img.Thumbnails) != 3 {
			t.Errorf("Expected thumbnails to round-trip, got %+v", img.Thumbnails)
		}
	})

	t.Run("GetMealsMissing", func(t *testing.T) {
		if _, err := repo.GetMeals(ctx, []string{m.ID, "nope-1"}); !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestUpdateRecipeStatusSingleWinner(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	if err := repo.UpsertMeal(ctx, Meal{ID: "oats-400", FullName: "Oats", Calories: 400, ImageID: "oats"}); err != nil {
		t.Fatal(err)
	}

	const workers = 8
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.UpdateRecipeStatus(ctx, "oats-400", shared.JobInProgress)
		}()
	}
	wg.Wait()
	close(errs)

	winners := 0
	for err := range errs {
		switch {
		case err == nil:
			winners++
		case !errors.Is(err, shared.ErrInvalidTransition):
			t.Errorf("Expected ErrInvalidTransition for losers, got %v", err)
		}
	}
	if winners != 1 {
		t.Errorf("Expected exactly one caller to start the job, got %d", winners)
	}

	if err := repo.UpdateRecipeStatus(ctx, "missing-1", shared.JobInProgress); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for a missing meal, got %v", err)
	}
}
