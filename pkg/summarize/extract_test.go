package summarize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/daily/errors"
)

func TestExtractJSONFenced(t *testing.T) {
	response := "Here is the summary:\n```json\n{\"summary\": \"did things\"}\n```\nDone."
	assert.Equal(t, `{"summary": "did things"}`, ExtractJSON(response))
}

func TestExtractJSONBareBraces(t *testing.T) {
	response := `Sure. {"summary": "did things", "nested": {"a": 1}} hope that helps`
	assert.Equal(t, `{"summary": "did things", "nested": {"a": 1}}`, ExtractJSON(response))
}

func TestExtractJSONUnfencedPassthrough(t *testing.T) {
	assert.Equal(t, "no json here", ExtractJSON("  no json here\n"))
}

func TestExtractJSONUnclosedFenceFallsBack(t *testing.T) {
	response := "```json\n{\"summary\": \"still fine\"}"
	assert.Equal(t, `{"summary": "still fine"}`, ExtractJSON(response))
}

func TestExtractMarkdownFenced(t *testing.T) {
	response := "```markdown\n# Title\n\nBody text.\n```"
	assert.Equal(t, "# Title\n\nBody text.", ExtractMarkdown(response))
}

func TestExtractMarkdownGenericFence(t *testing.T) {
	response := "Some preamble.\n```md\n## Heading\n\nContent.\n```\n"
	assert.Equal(t, "## Heading\n\nContent.", ExtractMarkdown(response))
}

func TestExtractMarkdownUnfenced(t *testing.T) {
	assert.Equal(t, "## Plain\n\ntext", ExtractMarkdown("  ## Plain\n\ntext  \n"))
}

func TestParseSessionResponse(t *testing.T) {
	response := "```json\n" + `{
  "title": "fix-login-redirect",
  "summary": "Fixed the login redirect loop caused by a stale cookie domain.",
  "decisions": ["Keep cookies host-only"],
  "code_changes": ["auth/cookies.go: drop the domain attribute"],
  "learnings": ["Browsers ignore Secure cookies on http://localhost"],
  "skill_hints": ["debugging cookie scope issues"]
}` + "\n```"

	resp, err := ParseSessionResponse(response)
	require.NoError(t, err)
	assert.Equal(t, "fix-login-redirect", resp.Title)
	assert.Contains(t, resp.Summary, "redirect loop")
	assert.Len(t, resp.Decisions, 1)
	assert.Len(t, resp.SkillHints, 1)
}

func TestParseSessionResponseMalformed(t *testing.T) {
	_, err := ParseSessionResponse("the model rambled and produced no json")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSummarizerOutput, errors.GetCode(err))
}

func TestParseSessionResponseEmptySummary(t *testing.T) {
	_, err := ParseSessionResponse(`{"summary": "  "}`)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSummarizerOutput, errors.GetCode(err))
}

func TestParseDailyResponse(t *testing.T) {
	response := `{
  "overview": "Two auth sessions, both landed.",
  "insights": ["Cookie handling keeps biting"],
  "tomorrow_focus": ["Token refresh"],
  "skills": [{"name": "debug-cookie-auth", "description": "d", "content": "## When to Use\n\nc"}],
  "commands": []
}`

	resp, err := ParseDailyResponse(response)
	require.NoError(t, err)
	assert.Contains(t, resp.Overview, "auth sessions")
	require.Len(t, resp.Skills, 1)
	assert.Equal(t, "debug-cookie-auth", resp.Skills[0].Name)
	assert.Empty(t, resp.Commands)
}

func TestParseDailyResponseMissingOverview(t *testing.T) {
	_, err := ParseDailyResponse(`{"insights": ["x"]}`)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSummarizerOutput, errors.GetCode(err))
}

func TestNotExtractable(t *testing.T) {
	reason, declined := NotExtractable("NOT_EXTRACTABLE: [one-off workaround, will not recur]")
	assert.True(t, declined)
	assert.Equal(t, "one-off workaround, will not recur", reason)

	_, declined = NotExtractable("---\nname: real-skill\n---\n\n## Solution\n")
	assert.False(t, declined)
}
