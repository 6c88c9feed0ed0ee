package dietplan

import "testing"

const sampleCompletion = `Sure! Here is the plan.

Day;Meal time;Meal name;Preparation time;Calories;Protein;Carbs;Fats
Monday;Breakfast;Almond Porridge;10 min;450 kcal;15g;60g;14g
Monday;Lunch;Chicken Caesar Wrap;15;650;40;55;25
Monday;Dinner;Grilled Salmon;25;900;55;40;45
Tuesday;Breakfast;Greek Yogurt Bowl;5;400;25;45;10
Tuesday;Lunch;Lentil Soup;30;n/a;20;60;8
`

func TestParsePlan(t *testing.T) {
	entries := ParsePlan(sampleCompletion)

	if len(entries) != 4 {
		t.Fatalf("Expected 4 entries (one uncoercible row dropped), got %d: %+v", len(entries), entries)
	}

	first := entries[0]
	if first.Day != 1 || first.MealName != "Almond Porridge" {
		t.Errorf("Unexpected first entry: %+v", first)
	}
	if first.Calories != 450 || first.Protein != 15 || first.PreparationTime != 10 {
		t.Errorf("Expected numeric fields to be coerced, got %+v", first)
	}
	if first.ID != "almond_porridge-450" {
		t.Errorf("Expected id 'almond_porridge-450', got %q", first.ID)
	}
	if first.ImageID() != "almond_porridge" {
		t.Errorf("Expected image id 'almond_porridge', got %q", first.ImageID())
	}
	if entries[3].Day != 2 {
		t.Errorf("Expected Tuesday to become day 2, got %d", entries[3].Day)
	}

	t.Run("Garbled", func(t *testing.T) {
		if got := ParsePlan("I'm sorry, I can't create a meal plan."); len(got) != 0 {
			t.Errorf("Expected no entries, got %+v", got)
		}
	})

	t.Run("QuotedMealName", func(t *testing.T) {
		raw := "Day;Meal time;Meal name;Preparation time;Calories;Protein;Carbs;Fats\n" +
			"Monday;Breakfast;\"Overnight\" oats;10;450;15;60;14\n" +
			"Monday;Lunch;Chicken Caesar Wrap;15;650;40;55;25\n" +
			"Tuesday;Breakfast;Greek Yogurt Bowl;5;400;25;45;10\n" +
			"Tuesday;Dinner;Grilled Salmon;25;900;55;40;45\n"

		got := ParsePlan(raw)
		if len(got) != 4 {
			t.Fatalf("Expected 4 entries, got %d: %+v", len(got), got)
		}
		if got[0].MealName != "Overnight oats" || got[0].ID != "overnight_oats-450" {
			t.Errorf("Unexpected quoted entry: %+v", got[0])
		}
	})

	t.Run("NamelessRowsDropped", func(t *testing.T) {
		raw := "1;Breakfast; ;10;450;15;60;14\n" +
			"1;Lunch;\"\";10;450;15;60;14\n" +
			"1;Snack;!!!;5;100;1;20;0\n" +
			"1;Dinner;Grilled Salmon;25;900;55;40;45\n"

		got := ParsePlan(raw)
		if len(got) != 1 || got[0].MealName != "Grilled Salmon" {
			t.Fatalf("Expected only the named row, got %+v", got)
		}
		if got[0].ImageID() == "" {
			t.Error("Expected a non-empty image id")
		}
	})

	t.Run("HeaderOnly", func(t *testing.T) {
		header := "Day;Meal time;Meal name;Preparation time;Calories;Protein;Carbs;Fats"
		if got := ParsePlan(header); len(got) != 0 {
			t.Errorf("Expected no entries, got %+v", got)
		}
	})
}

func TestMealID(t *testing.T) {
	if got := MealID("Chicken Caesar Wrap!", 450); got != "chicken_caesar_wrap-450" {
		t.Errorf("MealID = %q", got)
	}
	if got := SnakeCase("  Tofu & Rice  "); got != "tofu_rice" {
		t.Errorf("SnakeCase = %q", got)
	}
}
