package dietplan

import "strings"

// Row maps field names to their raw, untrimmed values.
type Row map[string]string

// ExtractRows recovers a delimited table from free text. Leading prose is
// skipped, lines mentioning excludeKeyword are dropped, rows that mixed commas
// into the delimiter are repaired and anything else with the wrong number of
// fields is discarded.
func ExtractRows(text, excludeKeyword string, fields []string, delim rune) []Row {
	if len(fields) == 0 {
		return nil
	}

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	start := len(lines)
	for i, line := range lines {
		if strings.ContainsRune(line, delim) {
			start = i
			break
		}
	}

	keyword := strings.ToLower(excludeKeyword)
	want := len(fields) - 1
	var kept []string

	for _, line := range lines[start:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if keyword != "" && strings.Contains(strings.ToLower(line), keyword) {
			continue
		}

		delims := strings.Count(line, string(delim))
		switch {
		case delims == want:
			kept = append(kept, line)
		case delims+strings.Count(line, ",") == want:
			kept = append(kept, strings.ReplaceAll(line, ",", string(delim)))
		}
	}

	rows := make([]Row, 0, len(kept))
	for _, line := range kept {
		// Quotes carry no meaning; each line is split on its own.
		record := strings.Split(line, string(delim))
		if len(record) != len(fields) {
			continue
		}
		row := make(Row, len(fields))
		for i, name := range fields {
			row[name] = record[i]
		}
		rows = append(rows, row)
	}
	return rows
}
