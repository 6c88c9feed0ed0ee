package recipe

import (
	"strings"
	"time"
	"unicode"
)

// MealRecipe is the generated recipe of one meal.
type MealRecipe struct {
	ID          string    `json:"id"`
	MealID      string    `json:"meal_id"`
	Text        string    `json:"text"`
	Ingredients []string  `json:"ingredients"`
	CreatedAt   time.Time `json:"created_at"`
}

// ExtractSection returns the lines after the first line containing start and
// before the next line containing end. It returns "" when start is missing.
func ExtractSection(text, start, end string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	from := -1
	for i, line := range lines {
		if strings.Contains(line, start) {
			from = i + 1
			break
		}
	}
	if from < 0 {
		return ""
	}

	to := len(lines)
	for i := from; i < len(lines); i++ {
		if end != "" && strings.Contains(lines[i], end) {
			to = i
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines[from:to], "\n"))
}

// ExtractIngredients reads bullet or numbered lines of an ingredients section.
// When there are none every non-empty line counts. Items are trimmed and lower-cased.
func ExtractIngredients(section string) []string {
	var listed, plain []string
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if item, ok := stripListMarker(line); ok {
			if item != "" {
				listed = append(listed, strings.ToLower(item))
			}
			continue
		}
		plain = append(plain, strings.ToLower(line))
	}
	if len(listed) > 0 {
		return listed
	}
	return plain
}

func stripListMarker(line string) (string, bool) {
	for _, marker := range []string{"-", "*", "•"} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(strings.TrimPrefix(line, marker)), true
		}
	}

	digits := strings.IndexFunc(line, func(r rune) bool { return !unicode.IsDigit(r) })
	if digits > 0 && (line[digits] == '.' || line[digits] == ')') {
		return strings.TrimSpace(line[digits+1:]), true
	}
	return "", false
}
