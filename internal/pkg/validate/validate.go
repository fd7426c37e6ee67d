package validate

import (
	"slices"
	"strings"
	"unicode/utf8"
)

func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

// MaxLength counts runes of the trimmed value.
func MaxLength(value string, max int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(value)) <= max
}

// Text reports whether value is present and at most max runes once trimmed.
func Text(value string, max int) bool {
	return Required(value) && MaxLength(value, max)
}

func OneOf[T comparable](value T, allowed ...T) bool {
	return slices.Contains(allowed, value)
}
