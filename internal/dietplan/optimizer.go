package dietplan

import "math"

// Aggregate sums the nutrition values of entries per day.
func Aggregate(entries []MealEntry) map[int]Totals {
	totals := make(map[int]Totals)
	for _, e := range entries {
		t := totals[e.Day]
		t.add(e)
		totals[e.Day] = t
	}
	return totals
}

// BuildVariant groups entries by day, keeping their order, and attaches the daily totals.
func BuildVariant(entries []MealEntry) Variant {
	totals := Aggregate(entries)
	v := make(Variant, len(totals))
	for _, e := range entries {
		day := v[e.Day]
		day.Meals = append(day.Meals, e)
		day.Total = totals[e.Day]
		v[e.Day] = day
	}
	return v
}

// SelectOptimal picks, for every day in 1..planLength, the variant day whose
// calories are closest to goal. Ties keep the earlier variant.
func SelectOptimal(variants []Variant, goal, planLength int) Plan {
	best := make(map[int]int, planLength)
	for day := 1; day <= planLength; day++ {
		best[day] = math.MaxInt
	}

	plan := make(Plan)
	for _, v := range variants {
		for day, dp := range v {
			bestDiff, ok := best[day]
			if !ok {
				continue
			}
			diff := abs(dp.Total.Calories - goal)
			if diff < bestDiff {
				plan[day] = dp
				best[day] = diff
			}
		}
	}
	return plan
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
