package dietplan

import "strings"

// PlanFields are the columns a meal plan completion is expected to contain.
var PlanFields = []string{
	"day",
	"meal_time",
	"meal_name",
	"preparation_time",
	"calories",
	"protein",
	"carbs",
	"fats",
}

const (
	planHeaderKeyword = "preparation"
	planDelimiter     = ';'
)

// ParsePlan turns one raw completion into meal entries. Rows that cannot be
// coerced or have no usable meal name are dropped.
func ParsePlan(raw string) []MealEntry {
	rows := ExtractRows(Normalize(raw), planHeaderKeyword, PlanFields, planDelimiter)

	entries := make([]MealEntry, 0, len(rows))
	for _, row := range rows {
		entry, ok := entryFromRow(row)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// cleanText trims a text field and drops the quotes models wrap names in.
func cleanText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}

func entryFromRow(row Row) (MealEntry, bool) {
	entry := MealEntry{
		MealTime: cleanText(row["meal_time"]),
		MealName: cleanText(row["meal_name"]),
	}
	if SnakeCase(entry.MealName) == "" {
		return MealEntry{}, false
	}

	numeric := []struct {
		field string
		dst   *int
	}{
		{"day", &entry.Day},
		{"preparation_time", &entry.PreparationTime},
		{"calories", &entry.Calories},
		{"protein", &entry.Protein},
		{"carbs", &entry.Carbs},
		{"fats", &entry.Fats},
	}
	for _, n := range numeric {
		v, err := CoerceInt(row[n.field])
		if err != nil {
			return MealEntry{}, false
		}
		*n.dst = v
	}

	entry.ID = MealID(entry.MealName, entry.Calories)
	return entry, true
}
