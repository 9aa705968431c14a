package summarize

import (
	"regexp"
)

var placeholderRe = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Render substitutes {{name}} placeholders in a prompt template. Unknown
// placeholders are left in place, so a typo in an override shows up in
// the rendered prompt instead of silently disappearing.
func Render(template string, vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		name := match[2 : len(match)-2]
		if value, ok := vars[name]; ok {
			return value
		}
		return match
	})
}

// ExtractVariables lists a template's distinct placeholder names in order
// of first appearance. Used by `config validate` to sanity-check prompt
// overrides.
func ExtractVariables(template string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range placeholderRe.FindAllStringSubmatch(template, -1) {
		if seen[m[1]] {
			continue
		}
		seen[m[1]] = true
		names = append(names, m[1])
	}
	return names
}
