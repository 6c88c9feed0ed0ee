package dietplan

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// MealEntry is one parsed row of a generated meal plan.
type MealEntry struct {
	ID              string `json:"id"`
	Day             int    `json:"day"`
	MealTime        string `json:"meal_time"`
	MealName        string `json:"meal_name"`
	PreparationTime int    `json:"preparation_time"`
	Calories        int    `json:"calories"`
	Protein         int    `json:"protein"`
	Carbs           int    `json:"carbs"`
	Fats            int    `json:"fats"`
}

// ImageID is the meal id without the calorie suffix, shared by every
// calorie variant of the same dish.
func (m MealEntry) ImageID() string {
	id, _, _ := strings.Cut(m.ID, "-")
	return id
}

// Totals are the summed nutrition values of one day.
type Totals struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fats     int `json:"fats"`
}

func (t *Totals) add(m MealEntry) {
	t.Calories += m.Calories
	t.Protein += m.Protein
	t.Carbs += m.Carbs
	t.Fats += m.Fats
}

// DayPlan holds the meals of a single day and their totals.
type DayPlan struct {
	Meals []MealEntry `json:"meals"`
	Total Totals      `json:"total"`
}

// Variant is one candidate weekly plan keyed by day number.
type Variant map[int]DayPlan

// Plan is the per-day best-fit composite of several variants.
// Days no variant covered are absent.
type Plan map[int]DayPlan

// Days returns the covered day numbers in ascending order.
func (p Plan) Days() []int {
	days := make([]int, 0, len(p))
	for d := range p {
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}

// Meals returns every meal of the plan ordered by day.
func (p Plan) Meals() []MealEntry {
	var meals []MealEntry
	for _, d := range p.Days() {
		meals = append(meals, p[d].Meals...)
	}
	return meals
}

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// SnakeCase lower-cases s and collapses every run of non-word characters into "_".
func SnakeCase(s string) string {
	s = strings.ToLower(s)
	s = nonWord.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// MealID builds the stable meal key, e.g. "chicken_caesar_wrap-450".
func MealID(name string, calories int) string {
	return fmt.Sprintf("%s-%d", SnakeCase(name), calories)
}
