package dietplan

import (
	"regexp"
	"strings"
)

// dayPatterns map day names and abbreviations to their number. Matches are
// word-bounded so food words like "Almond" or "Fries" survive.
var dayPatterns = []struct {
	re  *regexp.Regexp
	day string
}{
	{regexp.MustCompile(`\b(?:Monday|monday|MONDAY|Mon|mon)\b`), "1"},
	{regexp.MustCompile(`\b(?:Tuesday|tuesday|TUESDAY|Tues|tues|Tue|tue)\b`), "2"},
	{regexp.MustCompile(`\b(?:Wednesday|wednesday|WEDNESDAY|Wed|wed)\b`), "3"},
	{regexp.MustCompile(`\b(?:Thursday|thursday|THURSDAY|Thurs|thurs|Thur|thur|Thu|thu)\b`), "4"},
	{regexp.MustCompile(`\b(?:Friday|friday|FRIDAY|Fri|fri)\b`), "5"},
	{regexp.MustCompile(`\b(?:Saturday|saturday|SATURDAY|Sat|sat)\b`), "6"},
	{regexp.MustCompile(`\b(?:Sunday|sunday|SUNDAY|Sun|sun)\b`), "7"},
}

// repairs undo the fragments a naive day substitution leaves behind in food
// names. Order matters: longer fragments first.
var repairs = strings.NewReplacer(
	"Al1ds", "Almonds",
	"al1ds", "almonds",
	"Al1d", "Almond",
	"al1d", "almond",
	"Sal1", "Salmon",
	"sal1", "salmon",
	"5es", "Fries",
	"Le1", "Lemon",
	"le1", "lemon",
	"5ed", "Fried",
)

// Normalize rewrites day names into day numbers and repairs known corruptions
// so the text can be parsed as a table.
func Normalize(text string) string {
	for _, p := range dayPatterns {
		text = replaceDay(text, p.re, p.day)
	}
	return repairs.Replace(text)
}

// replaceDay skips hyphenated compounds ("Sun-dried").
func replaceDay(text string, re *regexp.Regexp, day string) string {
	matches := re.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		if m[1] < len(text) && text[m[1]] == '-' {
			continue
		}
		sb.WriteString(text[last:m[0]])
		sb.WriteString(day)
		last = m[1]
	}
	sb.WriteString(text[last:])
	return sb.String()
}
