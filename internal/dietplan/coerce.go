package dietplan

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotNumeric marks a field with no digits before its decimal point.
var ErrNotNumeric = errors.New("value is not numeric")

// CoerceInt keeps the integral part of s and concatenates its digits:
// "1,200.5kcal" becomes 1200.
func CoerceInt(s string) (int, error) {
	integral, _, _ := strings.Cut(strings.TrimSpace(s), ".")
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, integral)

	if digits == "" {
		return 0, fmt.Errorf("%w: %q", ErrNotNumeric, s)
	}

	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrNotNumeric, s, err)
	}
	return n, nil
}
