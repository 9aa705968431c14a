package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/grovetools/daily/errors"
	"github.com/grovetools/daily/pkg/paths"
	"github.com/grovetools/daily/util/sanitize"
)

// Skill kinds. A skill installs as ~/.claude/skills/<name>/SKILL.md, a
// command as ~/.claude/commands/<name>.md.
const (
	KindSkill   = "skill"
	KindCommand = "command"
)

// PendingSkill is a reusable pattern the summarizer extracted from a
// session, parked under pending-skills/<date>/ until someone approves or
// rejects it.
type PendingSkill struct {
	Name        string
	Kind        string
	Description string
	ExtractedAt time.Time
	Body        string

	// Set when loaded from disk.
	Date string
	Path string
}

type skillMeta struct {
	Name        string    `yaml:"name"`
	Kind        string    `yaml:"kind"`
	Description string    `yaml:"description"`
	ExtractedAt time.Time `yaml:"extracted_at"`
}

// Markdown renders the pending-skill document.
func (p *PendingSkill) Markdown() string {
	meta := skillMeta{
		Name:        p.Name,
		Kind:        p.Kind,
		Description: p.Description,
		ExtractedAt: p.ExtractedAt,
	}

	metaBytes, err := yaml.Marshal(&meta)
	if err != nil {
		metaBytes = []byte(fmt.Sprintf("name: %s\n", p.Name))
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(metaBytes)
	b.WriteString("---\n\n")
	b.WriteString(strings.TrimRight(p.Body, "\n"))
	b.WriteString("\n")
	return b.String()
}

// InstallDocument renders the document that lands in the Claude layout
// on approval: target frontmatter only, no review bookkeeping.
func (p *PendingSkill) InstallDocument() string {
	var b strings.Builder
	b.WriteString("---\n")
	if p.Kind != KindCommand {
		fmt.Fprintf(&b, "name: %s\n", p.Name)
	}
	fmt.Fprintf(&b, "description: %s\n", p.Description)
	b.WriteString("---\n\n")
	b.WriteString(strings.TrimRight(p.Body, "\n"))
	b.WriteString("\n")
	return b.String()
}

func parsePendingSkill(content string) (*PendingSkill, error) {
	metaText, body, ok := splitFrontmatter(content)
	if !ok {
		return nil, errors.New(errors.ErrCodeStorageIO, "pending skill has no frontmatter")
	}

	var meta skillMeta
	if err := yaml.Unmarshal([]byte(metaText), &meta); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageIO, "failed to parse pending skill frontmatter")
	}

	return &PendingSkill{
		Name:        meta.Name,
		Kind:        meta.Kind,
		Description: meta.Description,
		ExtractedAt: meta.ExtractedAt,
		Body:        strings.TrimSpace(body),
	}, nil
}

// WritePendingSkill parks a skill under the extraction date for review.
func (s *Store) WritePendingSkill(date string, p *PendingSkill) (string, error) {
	if err := ValidateDate(date); err != nil {
		return "", err
	}
	if p.Name == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "pending skill needs a name")
	}
	if p.Kind != KindSkill && p.Kind != KindCommand {
		return "", errors.New(errors.ErrCodeInvalidInput, fmt.Sprintf("unknown skill kind '%s'", p.Kind)).
			WithDetail("kind", p.Kind)
	}

	dir := filepath.Join(s.cfg.PendingSkillsDir(), date)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.StorageIO("create", dir, err)
	}

	path := filepath.Join(dir, sanitize.ForFilename(p.Name)+".md")
	if err := atomicWrite(path, []byte(p.Markdown())); err != nil {
		return "", err
	}

	s.log.WithFields(logrus.Fields{
		"skill": p.Name,
		"kind":  p.Kind,
		"date":  date,
	}).Debug("Parked pending skill")

	return path, nil
}

// ListPendingSkills returns everything awaiting review, newest date first,
// names sorted within a date. Unparseable files are skipped with a warning
// rather than sinking the listing.
func (s *Store) ListPendingSkills() ([]*PendingSkill, error) {
	root := s.cfg.PendingSkillsDir()
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.StorageIO("read", root, err)
	}

	var dates []string
	for _, entry := range entries {
		if entry.IsDir() && ValidateDate(entry.Name()) == nil {
			dates = append(dates, entry.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	var skills []*PendingSkill
	for _, date := range dates {
		dir := filepath.Join(root, date)
		files, err := os.ReadDir(dir)
		if err != nil {
			return nil, errors.StorageIO("read", dir, err)
		}

		var batch []*PendingSkill
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".md") {
				continue
			}

			path := filepath.Join(dir, f.Name())
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, errors.StorageIO("read", path, err)
			}

			p, err := parsePendingSkill(string(data))
			if err != nil {
				s.log.WithError(err).WithField("path", path).Warn("Skipping unparseable pending skill")
				continue
			}
			p.Date = date
			p.Path = path
			batch = append(batch, p)
		}

		sort.Slice(batch, func(a, b int) bool {
			return batch[a].Name < batch[b].Name
		})
		skills = append(skills, batch...)
	}

	return skills, nil
}

// findPendingSkill locates a pending entry by name. With an empty date the
// most recent match wins; otherwise only that date's folder is considered,
// since the same name can be parked on more than one date.
func (s *Store) findPendingSkill(date, name string) (*PendingSkill, error) {
	skills, err := s.ListPendingSkills()
	if err != nil {
		return nil, err
	}
	for _, p := range skills {
		if p.Name != name {
			continue
		}
		if date != "" && p.Date != date {
			continue
		}
		return p, nil
	}
	return nil, errors.SkillNotFound(name)
}

// ApprovePendingSkill installs a pending entry into the Claude layout and
// removes it from the review queue. The installed document keeps name and
// description but drops the review bookkeeping.
func (s *Store) ApprovePendingSkill(date, name string) (string, error) {
	p, err := s.findPendingSkill(date, name)
	if err != nil {
		return "", err
	}

	claudeDir := paths.ClaudeDir()
	slug := sanitize.ForFilename(p.Name)

	var target string
	if p.Kind == KindCommand {
		target = filepath.Join(paths.CommandsDir(claudeDir), slug+".md")
	} else {
		target = filepath.Join(paths.SkillsDir(claudeDir), slug, "SKILL.md")
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", errors.StorageIO("create", filepath.Dir(target), err)
	}
	if err := atomicWrite(target, []byte(p.InstallDocument())); err != nil {
		return "", err
	}

	if err := s.removePendingFile(p); err != nil {
		return "", err
	}

	s.log.WithFields(logrus.Fields{
		"skill":  p.Name,
		"kind":   p.Kind,
		"target": target,
	}).Info("Approved pending skill")

	return target, nil
}

// RejectPendingSkill drops a pending entry without installing it.
func (s *Store) RejectPendingSkill(date, name string) error {
	p, err := s.findPendingSkill(date, name)
	if err != nil {
		return err
	}
	return s.removePendingFile(p)
}

func (s *Store) removePendingFile(p *PendingSkill) error {
	if err := os.Remove(p.Path); err != nil && !os.IsNotExist(err) {
		return errors.StorageIO("remove", p.Path, err)
	}
	// Drop the date folder once it is empty; non-empty removal just fails
	// quietly.
	os.Remove(filepath.Dir(p.Path))
	return nil
}
