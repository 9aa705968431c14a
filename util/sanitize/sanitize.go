package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// nonKebabRegex matches characters not allowed in kebab-case names
	nonKebabRegex = regexp.MustCompile(`[^a-z0-9-]+`)

	// multiDashRegex matches multiple consecutive dashes
	multiDashRegex = regexp.MustCompile(`-+`)
)

// ForFilename sanitizes a string for use in a filename (kebab-case).
func ForFilename(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "-")
	// Remove non-alphanumeric characters, except hyphens
	s = nonKebabRegex.ReplaceAllString(s, "")
	// Collapse multiple hyphens
	s = multiDashRegex.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 { // Truncate long names
		s = s[:50]
	}
	return s
}

// ForJobID sanitizes a task name for the middle segment of a job identifier.
// The first 20 characters are kept; anything that is not a letter, digit, or
// hyphen becomes a hyphen. Trailing hyphens are kept so the segment length
// stays predictable.
func ForJobID(s string) string {
	runes := []rune(s)
	if len(runes) > 20 {
		runes = runes[:20]
	}

	var b strings.Builder
	for _, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteRune('-')
		}
	}

	return strings.ToLower(b.String())
}
