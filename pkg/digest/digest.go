// Package digest consolidates a date's session archives into a single
// daily digest file. The consolidator owns the filesystem protocol
// (write digest, then remove sessions, provenance-checked) and delegates
// all text synthesis to a Synthesizer collaborator.
package digest

import (
	"context"
	"strings"
	"time"

	"github.com/grovetools/daily/pkg/archive"
)

// Outcome classifies what a consolidation run did.
type Outcome string

const (
	// OutcomeDigested means new session content was synthesized into the digest.
	OutcomeDigested Outcome = "digested"
	// OutcomeNothing means there was no new work for the date.
	OutcomeNothing Outcome = "nothing-to-digest"
	// OutcomeRecovered means a crashed run left sessions behind that the
	// digest already reflects; they were deleted without re-summarizing.
	OutcomeRecovered Outcome = "recovered"
)

// Result reports a consolidation run.
type Result struct {
	Outcome  Outcome
	Date     string
	Consumed []string
	Digest   *archive.Digest
}

// Request is the synthesis input for one date. Sessions holds only the
// content the synthesizer has not seen yet, unless the run is forced.
type Request struct {
	Date     string
	Period   string
	Existing *archive.Digest
	Sessions []*archive.SessionFile

	// Regenerate is set on forced runs with no session files left: the
	// synthesizer rewrites the digest from its existing body alone.
	Regenerate bool
}

// SkillSuggestion is a reusable skill or command the synthesizer spotted
// across the day's sessions. Suggestions are parked for review, never
// installed directly.
type SkillSuggestion struct {
	Name        string
	Description string
	Content     string
}

// Synthesis is the synthesizer's answer for one date.
type Synthesis struct {
	Overview      string
	Insights      []string
	TomorrowFocus []string
	Skills        []SkillSuggestion
	Commands      []SkillSuggestion
}

// Synthesizer produces the digest prose. Implementations may call an
// external model and are expected to be slow.
type Synthesizer interface {
	SynthesizeDaily(ctx context.Context, req Request) (*Synthesis, error)
}

// PeriodOf buckets a wall-clock time into the day period recorded in
// digest provenance.
func PeriodOf(t time.Time) string {
	switch h := t.Hour(); {
	case h < 12:
		return "morning"
	case h < 18:
		return "afternoon"
	default:
		return "evening"
	}
}

// formatList renders items as a markdown bullet list.
func formatList(items []string) string {
	var lines []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if strings.HasPrefix(item, "-") {
			lines = append(lines, item)
			continue
		}
		lines = append(lines, "- "+item)
	}
	return strings.Join(lines, "\n")
}

// firstSummaryLine pulls the opening line of a session's Summary section
// for the digest's session list.
func firstSummaryLine(content string) string {
	lines := strings.Split(content, "\n")
	inSummary := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "## ") {
			inSummary = trimmed == "## Summary"
			continue
		}
		if !inSummary || trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if r := []rune(trimmed); len(r) > 140 {
			return string(r[:140]) + "..."
		}
		return trimmed
	}
	return ""
}
