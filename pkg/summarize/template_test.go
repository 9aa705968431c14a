package summarize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderSubstitutesVariables(t *testing.T) {
	got := Render("Hello {{name}}, today is {{date}}.", map[string]string{
		"name": "world",
		"date": "2026-01-16",
	})
	assert.Equal(t, "Hello world, today is 2026-01-16.", got)
}

func TestRenderRepeatedVariable(t *testing.T) {
	got := Render("{{x}} and {{x}} again", map[string]string{"x": "once"})
	assert.Equal(t, "once and once again", got)
}

func TestRenderLeavesUnknownPlaceholders(t *testing.T) {
	got := Render("known {{a}}, unknown {{b}}", map[string]string{"a": "yes"})
	assert.Equal(t, "known yes, unknown {{b}}", got)
}

func TestRenderEmptyValue(t *testing.T) {
	got := Render("before {{gone}} after", map[string]string{"gone": ""})
	assert.Equal(t, "before  after", got)
}

func TestExtractVariables(t *testing.T) {
	names := ExtractVariables("{{date}} then {{transcript}} then {{date}} again")
	assert.Equal(t, []string{"date", "transcript"}, names)
}

func TestExtractVariablesNone(t *testing.T) {
	assert.Empty(t, ExtractVariables("no placeholders here"))
}
