// Package archive reads and writes the date-partitioned store under the
// storage root: per-session markdown files, the consolidated daily digest,
// and extracted skills awaiting review. All writes go through a temp file
// and rename so a crashed worker never leaves a half-written document.
package archive

import (
	"fmt"
	"strings"
)

// Session is a summarized work session ready for archiving.
type Session struct {
	Title          string
	Date           string
	SessionID      string
	TranscriptPath string
	Cwd            string
	GitBranch      string
	Duration       string
	ToolCalls      int

	Summary     string
	Decisions   string
	CodeChanges string
	Learnings   string
	SkillHints  string
}

// NewSession creates a session archive with the identifying fields set.
func NewSession(title, date, sessionID, cwd string) *Session {
	return &Session{
		Title:     title,
		Date:      date,
		SessionID: sessionID,
		Cwd:       cwd,
	}
}

// SetFilesModified fills the code-changes section from a list of touched
// files.
func (s *Session) SetFilesModified(files []string) {
	if len(files) == 0 {
		s.CodeChanges = "_No files modified._"
		return
	}

	items := make([]string, len(files))
	for i, f := range files {
		items[i] = fmt.Sprintf("- `%s`", f)
	}
	s.CodeChanges = strings.Join(items, "\n")
}

// Markdown renders the archive document: YAML frontmatter for scan-time
// lookups, then the summarized sections.
func (s *Session) Markdown() string {
	var b strings.Builder

	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %q\n", s.Title)
	fmt.Fprintf(&b, "date: %s\n", s.Date)
	fmt.Fprintf(&b, "session_id: %s\n", s.SessionID)
	if s.TranscriptPath != "" {
		fmt.Fprintf(&b, "transcript_path: %s\n", s.TranscriptPath)
	}
	if s.Cwd != "" {
		fmt.Fprintf(&b, "cwd: %s\n", s.Cwd)
	}
	if s.GitBranch != "" {
		fmt.Fprintf(&b, "git_branch: %s\n", s.GitBranch)
	}
	if s.Duration != "" {
		fmt.Fprintf(&b, "duration: %s\n", s.Duration)
	}
	fmt.Fprintf(&b, "tool_calls: %d\n", s.ToolCalls)
	b.WriteString("---\n\n")

	fmt.Fprintf(&b, "# %s\n\n", s.Title)

	writeSection(&b, "Summary", s.Summary)
	writeSection(&b, "Key Decisions", s.Decisions)
	writeSection(&b, "Code Changes", s.CodeChanges)
	writeSection(&b, "Learnings", s.Learnings)
	writeSection(&b, "Skill Hints", s.SkillHints)

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeSection(b *strings.Builder, heading, content string) {
	fmt.Fprintf(b, "## %s\n\n", heading)
	if strings.TrimSpace(content) != "" {
		b.WriteString(strings.TrimRight(content, "\n"))
		b.WriteString("\n")
	}
	b.WriteString("\n")
}
