package archive

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/grovetools/daily/errors"
)

// Digest is the consolidated summary for one date. Its frontmatter carries
// the provenance list: which session files were folded in. Consolidation
// checks that list to stay idempotent across reruns and crashes.
type Digest struct {
	Date       string
	DigestedAt time.Time
	Sessions   []string
	Periods    []string

	Overview       string
	SessionDetails string
	Insights       string
	TomorrowFocus  string
}

type digestMeta struct {
	Date          string    `yaml:"date"`
	DigestedAt    time.Time `yaml:"digested_at"`
	TotalSessions int       `yaml:"total_sessions"`
	Sessions      []string  `yaml:"sessions,omitempty"`
	Periods       []string  `yaml:"periods,omitempty"`
}

// NewDigest creates an empty digest for a date.
func NewDigest(date string) *Digest {
	return &Digest{
		Date:     date,
		Overview: "_No overview yet._",
	}
}

// HasSession reports whether a session name is already in the provenance.
func (d *Digest) HasSession(name string) bool {
	for _, s := range d.Sessions {
		if s == name {
			return true
		}
	}
	return false
}

// AddSessions unions names into the provenance, preserving order.
func (d *Digest) AddSessions(names []string) {
	for _, n := range names {
		if !d.HasSession(n) {
			d.Sessions = append(d.Sessions, n)
		}
	}
}

// AddPeriod records a contributing day period once.
func (d *Digest) AddPeriod(period string) {
	for _, p := range d.Periods {
		if p == period {
			return
		}
	}
	d.Periods = append(d.Periods, period)
}

// Markdown renders the digest document.
func (d *Digest) Markdown() string {
	meta := digestMeta{
		Date:          d.Date,
		DigestedAt:    d.DigestedAt,
		TotalSessions: len(d.Sessions),
		Sessions:      d.Sessions,
		Periods:       d.Periods,
	}

	metaBytes, err := yaml.Marshal(&meta)
	if err != nil {
		// A flat struct of strings and lists cannot fail to marshal.
		metaBytes = []byte(fmt.Sprintf("date: %s\n", d.Date))
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(metaBytes)
	b.WriteString("---\n\n")

	fmt.Fprintf(&b, "# Daily Summary: %s\n\n", d.Date)

	writeSection(&b, "Overview", d.Overview)
	writeSection(&b, "Sessions", d.SessionDetails)
	writeSection(&b, "Insights", d.Insights)
	writeSection(&b, "Tomorrow's Focus", d.TomorrowFocus)

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// ParseDigest reconstructs a digest from its markdown form.
func ParseDigest(content string) (*Digest, error) {
	metaText, body, ok := splitFrontmatter(content)
	if !ok {
		return nil, errors.New(errors.ErrCodeStorageIO, "digest has no frontmatter")
	}

	var meta digestMeta
	if err := yaml.Unmarshal([]byte(metaText), &meta); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageIO, "failed to parse digest frontmatter")
	}

	d := &Digest{
		Date:       meta.Date,
		DigestedAt: meta.DigestedAt,
		Sessions:   meta.Sessions,
		Periods:    meta.Periods,
	}

	sections := splitSections(body)
	d.Overview = sections["Overview"]
	d.SessionDetails = sections["Sessions"]
	d.Insights = sections["Insights"]
	d.TomorrowFocus = sections["Tomorrow's Focus"]

	return d, nil
}

// splitFrontmatter separates the `---` fenced YAML header from the body.
func splitFrontmatter(content string) (meta, body string, ok bool) {
	trimmed := strings.TrimPrefix(content, "\uFEFF")
	if !strings.HasPrefix(trimmed, "---\n") {
		return "", content, false
	}

	rest := trimmed[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return "", content, false
	}

	meta = rest[:end+1]
	body = rest[end+len("\n---"):]
	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimPrefix(body, "\n")
	return meta, body, true
}

// splitSections maps `## Heading` blocks to their trimmed content.
func splitSections(body string) map[string]string {
	sections := make(map[string]string)

	var current string
	var buf []string
	flush := func() {
		if current != "" {
			sections[current] = strings.TrimSpace(strings.Join(buf, "\n"))
		}
		buf = nil
	}

	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "## ") {
			flush()
			current = strings.TrimSpace(strings.TrimPrefix(line, "## "))
			continue
		}
		if strings.HasPrefix(line, "# ") {
			continue
		}
		buf = append(buf, line)
	}
	flush()

	return sections
}
