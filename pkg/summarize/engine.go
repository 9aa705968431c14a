package summarize

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/daily/config"
	"github.com/grovetools/daily/errors"
	"github.com/grovetools/daily/logging"
	"github.com/grovetools/daily/pkg/archive"
	"github.com/grovetools/daily/pkg/digest"
	"github.com/grovetools/daily/pkg/git"
	"github.com/grovetools/daily/pkg/profiling"
	"github.com/grovetools/daily/util/sanitize"
)

const noneIdentified = "None identified in this session."

// Engine renders prompts, runs the summarizer, and maps responses onto
// archive documents. It satisfies digest.Synthesizer.
type Engine struct {
	cfg     *config.Config
	prompts PromptSet
	runner  PromptRunner
	log     *logrus.Entry
}

// SessionResult is one summarized session plus the raw skill hints the
// worker may feed back through skill extraction.
type SessionResult struct {
	Session    *archive.Session
	SkillHints []string
}

// NewEngine builds an engine backed by the claude CLI.
func NewEngine(cfg *config.Config) (*Engine, error) {
	runner, err := NewRunner(cfg)
	if err != nil {
		return nil, err
	}
	return NewEngineWithRunner(cfg, runner), nil
}

// NewEngineWithRunner injects the prompt runner, for tests.
func NewEngineWithRunner(cfg *config.Config, runner PromptRunner) *Engine {
	return &Engine{
		cfg:     cfg,
		prompts: LoadPrompts(cfg),
		runner:  runner,
		log:     logging.NewLogger("summarize"),
	}
}

// SummarizeSession distills one transcript into a session archive. The
// model's suggested title names the document, with taskName as the
// fallback; the task name stays the file slug either way. cwd may be
// empty, in which case the transcript's recorded one is used.
func (e *Engine) SummarizeSession(ctx context.Context, transcriptPath, taskName, cwd string) (*SessionResult, error) {
	defer profiling.Start("summarize.SummarizeSession").Stop()

	tr, err := ParseTranscript(transcriptPath)
	if err != nil {
		return nil, err
	}
	if cwd == "" {
		cwd = tr.Cwd
	}

	branch := ""
	if boolVal(e.cfg.Archive.IncludeGitInfo, true) && cwd != "" {
		branch = git.CurrentBranch(ctx, cwd)
	}

	date := time.Now().Format("2006-01-02")
	prompt := Render(e.prompts.Session, map[string]string{
		"transcript": tr.CondensedText(),
		"cwd":        orNA(cwd),
		"git_branch": orNA(branch),
		"date":       date,
		"language":   languageName(e.cfg.Summarization.SummaryLanguage),
	})

	raw, err := e.runner.Run(ctx, prompt)
	if err != nil {
		return nil, err
	}
	resp, err := ParseSessionResponse(raw)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(resp.Title)
	if title == "" {
		title = strings.TrimSpace(taskName)
	}
	if title == "" {
		title = "session-" + time.Now().Format("150405")
	}

	sess := archive.NewSession(title, date, tr.SessionID, cwd)
	if !boolVal(e.cfg.Archive.IncludeCwd, true) {
		sess.Cwd = ""
	}
	sess.TranscriptPath = transcriptPath
	sess.GitBranch = branch
	if d := tr.Duration(); d > 0 {
		sess.Duration = formatDuration(d)
	}
	sess.ToolCalls = len(tr.ToolCalls)

	sess.Summary = strings.TrimSpace(resp.Summary)
	sess.Decisions = bulletsOrFallback(resp.Decisions)
	if len(resp.CodeChanges) > 0 {
		sess.CodeChanges = formatBullets(resp.CodeChanges)
	} else {
		sess.SetFilesModified(tr.FilesModified)
	}
	sess.Learnings = bulletsOrFallback(resp.Learnings)

	hints := resp.SkillHints
	if !boolVal(e.cfg.Summarization.EnableExtractionHints, true) {
		hints = nil
	}
	sess.SkillHints = bulletsOrFallback(hints)

	e.log.WithFields(logrus.Fields{
		"task":       taskName,
		"title":      title,
		"session_id": tr.SessionID,
		"tool_calls": sess.ToolCalls,
	}).Info("Summarized session")

	return &SessionResult{Session: sess, SkillHints: hints}, nil
}

// SynthesizeDaily implements digest.Synthesizer.
func (e *Engine) SynthesizeDaily(ctx context.Context, req digest.Request) (*digest.Synthesis, error) {
	defer profiling.Start("summarize.SynthesizeDaily").Stop()

	prompt := Render(e.prompts.Daily, map[string]string{
		"date":             req.Date,
		"current_time":     time.Now().Format("15:04"),
		"current_period":   req.Period,
		"existing_section": existingSection(req),
		"sessions_section": sessionsSection(req.Sessions),
		"language":         languageName(e.cfg.Summarization.SummaryLanguage),
	})

	raw, err := e.runner.Run(ctx, prompt)
	if err != nil {
		return nil, err
	}
	resp, err := ParseDailyResponse(raw)
	if err != nil {
		return nil, err
	}

	syn := &digest.Synthesis{
		Overview:      strings.TrimSpace(resp.Overview),
		Insights:      resp.Insights,
		TomorrowFocus: resp.TomorrowFocus,
	}
	if boolVal(e.cfg.Summarization.EnableExtractionHints, true) {
		for _, s := range resp.Skills {
			syn.Skills = append(syn.Skills, digest.SkillSuggestion(s))
		}
		for _, c := range resp.Commands {
			syn.Commands = append(syn.Commands, digest.SkillSuggestion(c))
		}
	}

	e.log.WithFields(logrus.Fields{
		"date":     req.Date,
		"sessions": len(req.Sessions),
	}).Info("Synthesized daily digest")

	return syn, nil
}

// ExtractPendingSkill runs the skill or command extraction prompt over an
// archived session. A (nil, nil) return means the quality gate declined.
func (e *Engine) ExtractPendingSkill(ctx context.Context, kind, sessionContent, hint, origin string) (*archive.PendingSkill, error) {
	defer profiling.Start("summarize.ExtractPendingSkill").Stop()

	tmpl := e.prompts.ExtractSkill
	if kind == archive.KindCommand {
		tmpl = e.prompts.ExtractCommand
	}

	prompt := Render(tmpl, map[string]string{
		"session_content": sessionContent,
		"skill_hint":      hint,
		"origin":          origin,
		"language":        languageName(e.cfg.Summarization.SummaryLanguage),
	})

	raw, err := e.runner.Run(ctx, prompt)
	if err != nil {
		return nil, err
	}

	md := ExtractMarkdown(raw)
	if reason, declined := NotExtractable(md); declined {
		e.log.WithFields(logrus.Fields{
			"hint":   hint,
			"reason": reason,
		}).Info("Extraction declined by quality gate")
		return nil, nil
	}

	name, description, body := parseExtractedDoc(md)
	if name == "" {
		name = sanitize.ForFilename(hint)
	}
	if name == "" || body == "" {
		return nil, errors.SummarizerOutput("extraction produced no usable document", nil)
	}

	return &archive.PendingSkill{
		Name:        name,
		Kind:        kind,
		Description: description,
		ExtractedAt: time.Now(),
		Body:        body,
	}, nil
}

func existingSection(req digest.Request) string {
	if req.Existing == nil {
		return ""
	}
	body := strings.TrimSpace(digestBody(req.Existing))
	if body == "" {
		return ""
	}
	if req.Regenerate {
		return "REGENERATE MODE: there are no new sessions. Rewrite and improve the existing digest below without inventing facts.\n\nExisting digest:\n\n" + body + "\n\n"
	}
	return "Existing digest for this date, from earlier in the day (merge into it, do not discard):\n\n" + body + "\n\n"
}

func sessionsSection(sessions []*archive.SessionFile) string {
	if len(sessions) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("New sessions to fold in:\n")
	for _, s := range sessions {
		fmt.Fprintf(&b, "\n### Session: %s\n\n%s\n", s.Name, strings.TrimSpace(s.Content))
	}
	return b.String()
}

// digestBody re-renders a digest's sections without frontmatter, for
// prompt context.
func digestBody(d *archive.Digest) string {
	var parts []string
	add := func(heading, content string) {
		if strings.TrimSpace(content) != "" {
			parts = append(parts, "## "+heading+"\n\n"+strings.TrimSpace(content))
		}
	}
	add("Overview", d.Overview)
	add("Sessions", d.SessionDetails)
	add("Insights", d.Insights)
	add("Tomorrow's Focus", d.TomorrowFocus)
	return strings.Join(parts, "\n\n")
}

// parseExtractedDoc splits an extracted markdown document into its
// frontmatter name/description and the section body.
func parseExtractedDoc(md string) (name, description, body string) {
	if !strings.HasPrefix(md, "---\n") {
		return "", "", strings.TrimSpace(md)
	}
	rest := md[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return "", "", strings.TrimSpace(md)
	}

	for _, line := range strings.Split(rest[:end], "\n") {
		if v, ok := strings.CutPrefix(line, "name:"); ok {
			name = strings.TrimSpace(v)
		}
		if v, ok := strings.CutPrefix(line, "description:"); ok {
			description = strings.TrimSpace(v)
		}
	}
	body = strings.TrimSpace(rest[end+len("\n---"):])
	return name, description, body
}

func formatBullets(items []string) string {
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

func bulletsOrFallback(items []string) string {
	if formatted := formatBullets(items); formatted != "" {
		return formatted
	}
	return noneIdentified
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func boolVal(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
