// Package summarize turns Claude Code transcripts into session archives
// and daily digests by prompting the claude CLI in print mode.
package summarize

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/daily/errors"
	"github.com/grovetools/daily/logging"
)

const (
	// maxMessageChars caps one captured user or assistant turn.
	maxMessageChars = 2000
	// maxConversationChars caps the rendered conversation; when the
	// budget overflows, the oldest turns are dropped first.
	maxConversationChars = 80000
	// maxLineBytes bounds a single transcript line. Tool responses can
	// embed whole files, so the default scanner limit is far too small.
	maxLineBytes = 10 * 1024 * 1024
)

// Message is one captured conversation turn.
type Message struct {
	Role string
	Text string
}

// ToolCall records one tool invocation.
type ToolCall struct {
	Name  string
	Input map[string]interface{}
}

// Transcript is the distilled form of one session's JSONL log.
type Transcript struct {
	SessionID     string
	Cwd           string
	First         time.Time
	Last          time.Time
	Messages      []Message
	ToolCalls     []ToolCall
	FilesModified []string
	Summary       string
}

// transcriptEntry mirrors the subset of the JSONL schema the summarizer
// cares about. Content is raw because it may be a string or a structured
// block list; only string content is captured.
type transcriptEntry struct {
	Type      string                 `json:"type"`
	Role      string                 `json:"role"`
	Content   json.RawMessage        `json:"content"`
	Timestamp string                 `json:"timestamp"`
	SessionID string                 `json:"sessionId"`
	Cwd       string                 `json:"cwd"`
	ToolName  string                 `json:"tool_name"`
	ToolInput map[string]interface{} `json:"tool_input"`
	Summary   string                 `json:"summary"`
}

// ParseTranscript reads a JSONL transcript. Malformed lines are logged
// and skipped; a transcript with zero parsable lines is still returned
// so the caller can decide whether an empty session is an error.
func ParseTranscript(path string) (*Transcript, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.TranscriptNotFound(path)
		}
		return nil, errors.StorageIO("read", path, err)
	}
	defer f.Close()

	t := &Transcript{SessionID: sessionIDFromPath(path)}
	log := logging.NewLogger("summarize")

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry transcriptEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			log.WithFields(logrus.Fields{
				"path": path,
				"line": lineNo,
			}).WithError(err).Warn("Skipping malformed transcript line")
			continue
		}
		t.absorb(&entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.StorageIO("scan", path, err)
	}

	return t, nil
}

func (t *Transcript) absorb(e *transcriptEntry) {
	if e.SessionID != "" {
		t.SessionID = e.SessionID
	}
	if e.Cwd != "" {
		t.Cwd = e.Cwd
	}
	if ts, err := time.Parse(time.RFC3339, e.Timestamp); err == nil {
		if t.First.IsZero() || ts.Before(t.First) {
			t.First = ts
		}
		if ts.After(t.Last) {
			t.Last = ts
		}
	}

	if e.Type == "TranscriptSummary" && e.Summary != "" {
		t.Summary = e.Summary
	}

	if e.Role == "user" || e.Role == "assistant" {
		var text string
		if err := json.Unmarshal(e.Content, &text); err == nil && strings.TrimSpace(text) != "" {
			t.Messages = append(t.Messages, Message{
				Role: e.Role,
				Text: truncateText(strings.TrimSpace(text), maxMessageChars),
			})
		}
	}

	if e.ToolName != "" {
		t.ToolCalls = append(t.ToolCalls, ToolCall{Name: e.ToolName, Input: e.ToolInput})
		if e.ToolName == "Write" || e.ToolName == "Edit" {
			if path, ok := e.ToolInput["file_path"].(string); ok && path != "" {
				t.addModifiedFile(path)
			}
		}
	}
}

func (t *Transcript) addModifiedFile(path string) {
	for _, f := range t.FilesModified {
		if f == path {
			return
		}
	}
	t.FilesModified = append(t.FilesModified, path)
}

// Duration is the span between the first and last timestamped entries.
func (t *Transcript) Duration() time.Duration {
	if t.First.IsZero() || t.Last.IsZero() {
		return 0
	}
	return t.Last.Sub(t.First)
}

// CondensedText renders the transcript into the compact form fed to the
// summarizer prompt.
func (t *Transcript) CondensedText() string {
	var sections []string

	if conv := t.conversationSection(); conv != "" {
		sections = append(sections, conv)
	}
	if tools := t.toolsSection(); tools != "" {
		sections = append(sections, tools)
	}
	if len(t.FilesModified) > 0 {
		var b strings.Builder
		b.WriteString("## Files Modified\n")
		for _, f := range t.FilesModified {
			fmt.Fprintf(&b, "\n- %s", f)
		}
		sections = append(sections, b.String())
	}
	if t.Summary != "" {
		sections = append(sections, "## Existing Summary\n\n"+t.Summary)
	}

	return strings.Join(sections, "\n\n")
}

func (t *Transcript) conversationSection() string {
	if len(t.Messages) == 0 {
		return ""
	}

	lines := make([]string, len(t.Messages))
	total := 0
	for i, m := range t.Messages {
		role := "User"
		if m.Role == "assistant" {
			role = "Assistant"
		}
		lines[i] = fmt.Sprintf("**%s**: %s", role, m.Text)
		total += utf8.RuneCountInString(lines[i]) + 1
	}

	// Drop the oldest turns until the conversation fits the budget.
	start := 0
	for start < len(lines)-1 && total > maxConversationChars {
		total -= utf8.RuneCountInString(lines[start]) + 1
		start++
	}

	var b strings.Builder
	b.WriteString("## Conversation\n")
	if start > 0 {
		fmt.Fprintf(&b, "\n_%d earlier messages omitted._\n", start)
	}
	for i, line := range lines[start:] {
		fmt.Fprintf(&b, "\n%d. %s", i+1, line)
	}
	return b.String()
}

func (t *Transcript) toolsSection() string {
	if len(t.ToolCalls) == 0 {
		return ""
	}

	counts := make(map[string]int)
	for _, call := range t.ToolCalls {
		counts[call.Name]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("## Tools Used\n")
	for _, name := range names {
		fmt.Fprintf(&b, "\n- %s: %d times", name, counts[name])
	}
	return b.String()
}

// sessionIDFromPath derives a session id from the transcript filename,
// used when no entry carries one.
func sessionIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func truncateText(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// formatDuration renders a span the way job listings do.
func formatDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
