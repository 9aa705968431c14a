package summarize

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/daily/errors"
	"github.com/grovetools/daily/testutil"
)

func sampleEntries() []map[string]interface{} {
	return []map[string]interface{}{
		{"type": "user", "role": "user", "content": "Fix the login redirect bug", "timestamp": "2026-01-16T10:00:00Z", "sessionId": "b2c4-ae01", "cwd": "/work/auth"},
		{"type": "assistant", "role": "assistant", "content": "The cookie domain looks wrong, checking.", "timestamp": "2026-01-16T10:02:00Z"},
		{"type": "tool_use", "tool_name": "Edit", "tool_input": map[string]interface{}{"file_path": "auth/cookies.go"}},
		{"type": "tool_use", "tool_name": "Bash", "tool_input": map[string]interface{}{"command": "go test ./auth/..."}},
		{"type": "tool_use", "tool_name": "Edit", "tool_input": map[string]interface{}{"file_path": "auth/cookies.go"}},
		{"type": "assistant", "role": "assistant", "content": "Fixed and tests pass.", "timestamp": "2026-01-16T10:25:00Z"},
		{"type": "TranscriptSummary", "summary": "Earlier compacted context."},
	}
}

func TestParseTranscript(t *testing.T) {
	path := testutil.WriteTranscript(t, t.TempDir(), "b2c4-ae01.jsonl", sampleEntries())

	tr, err := ParseTranscript(path)
	require.NoError(t, err)

	assert.Equal(t, "b2c4-ae01", tr.SessionID)
	assert.Equal(t, "/work/auth", tr.Cwd)
	assert.Len(t, tr.Messages, 3)
	assert.Equal(t, "user", tr.Messages[0].Role)
	assert.Equal(t, "Fix the login redirect bug", tr.Messages[0].Text)
	assert.Len(t, tr.ToolCalls, 3)
	assert.Equal(t, []string{"auth/cookies.go"}, tr.FilesModified, "Write/Edit targets are deduplicated")
	assert.Equal(t, "Earlier compacted context.", tr.Summary)
	assert.Equal(t, 25*time.Minute, tr.Duration())
}

func TestParseTranscriptSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jsonl")
	content := `{"type":"user","role":"user","content":"first","timestamp":"2026-01-16T10:00:00Z"}
this line is not json
{"type":"assistant","role":"assistant","content":"second","timestamp":"2026-01-16T10:01:00Z"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	tr, err := ParseTranscript(path)
	require.NoError(t, err)
	assert.Len(t, tr.Messages, 2)
}

func TestParseTranscriptMissingFile(t *testing.T) {
	_, err := ParseTranscript(filepath.Join(t.TempDir(), "nope.jsonl"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTranscriptNotFound, errors.GetCode(err))
}

func TestSessionIDFallsBackToFileStem(t *testing.T) {
	entries := []map[string]interface{}{
		{"type": "user", "role": "user", "content": "hello", "timestamp": "2026-01-16T10:00:00Z"},
	}
	path := testutil.WriteTranscript(t, t.TempDir(), "0a1b2c3d.jsonl", entries)

	tr, err := ParseTranscript(path)
	require.NoError(t, err)
	assert.Equal(t, "0a1b2c3d", tr.SessionID)
}

func TestParseTranscriptCapsLongMessages(t *testing.T) {
	entries := []map[string]interface{}{
		{"type": "user", "role": "user", "content": strings.Repeat("x", 2500)},
	}
	path := testutil.WriteTranscript(t, t.TempDir(), "long.jsonl", entries)

	tr, err := ParseTranscript(path)
	require.NoError(t, err)
	require.Len(t, tr.Messages, 1)
	assert.Len(t, tr.Messages[0].Text, maxMessageChars+3)
	assert.True(t, strings.HasSuffix(tr.Messages[0].Text, "..."))
}

func TestParseTranscriptSkipsStructuredContent(t *testing.T) {
	entries := []map[string]interface{}{
		{"type": "user", "role": "user", "content": []interface{}{
			map[string]interface{}{"type": "tool_result", "content": "blob"},
		}},
		{"type": "user", "role": "user", "content": "plain text survives"},
	}
	path := testutil.WriteTranscript(t, t.TempDir(), "blocks.jsonl", entries)

	tr, err := ParseTranscript(path)
	require.NoError(t, err)
	require.Len(t, tr.Messages, 1)
	assert.Equal(t, "plain text survives", tr.Messages[0].Text)
}

func TestCondensedText(t *testing.T) {
	path := testutil.WriteTranscript(t, t.TempDir(), "b2c4-ae01.jsonl", sampleEntries())
	tr, err := ParseTranscript(path)
	require.NoError(t, err)

	text := tr.CondensedText()

	assert.Contains(t, text, "## Conversation")
	assert.Contains(t, text, "1. **User**: Fix the login redirect bug")
	assert.Contains(t, text, "**Assistant**: Fixed and tests pass.")
	assert.Contains(t, text, "## Tools Used")
	assert.Contains(t, text, "- Bash: 1 times")
	assert.Contains(t, text, "- Edit: 2 times")
	assert.Contains(t, text, "## Files Modified")
	assert.Contains(t, text, "- auth/cookies.go")
	assert.Contains(t, text, "## Existing Summary")
	assert.Contains(t, text, "Earlier compacted context.")
}

func TestCondensedTextKeepsMostRecentUnderBudget(t *testing.T) {
	tr := &Transcript{}
	for i := 0; i < 50; i++ {
		tr.Messages = append(tr.Messages, Message{
			Role: "user",
			Text: fmt.Sprintf("msg-%03d %s", i, strings.Repeat("x", 1990)),
		})
	}

	text := tr.CondensedText()

	assert.LessOrEqual(t, len(text), maxConversationChars+200)
	assert.Contains(t, text, "earlier messages omitted")
	assert.NotContains(t, text, "msg-000")
	assert.Contains(t, text, "msg-049")
}

func TestCondensedTextEmptyTranscript(t *testing.T) {
	tr := &Transcript{}
	assert.Equal(t, "", tr.CondensedText())
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, ""},
		{42 * time.Second, "42s"},
		{3*time.Minute + 5*time.Second, "3m 5s"},
		{2*time.Hour + 14*time.Minute, "2h 14m"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
