package summarize

import (
	"github.com/grovetools/daily/config"
)

// PromptSet holds the four prompt templates the engine renders. Each can
// be replaced wholesale through the prompt_templates config section.
type PromptSet struct {
	Session        string
	Daily          string
	ExtractSkill   string
	ExtractCommand string
}

// LoadPrompts returns the built-in templates with any configured
// overrides applied.
func LoadPrompts(cfg *config.Config) PromptSet {
	ps := PromptSet{
		Session:        sessionPromptTemplate,
		Daily:          dailyPromptTemplate,
		ExtractSkill:   skillPromptTemplate,
		ExtractCommand: commandPromptTemplate,
	}
	if o := cfg.PromptTemplates.SessionSummary; o != "" {
		ps.Session = o
	}
	if o := cfg.PromptTemplates.DailySummary; o != "" {
		ps.Daily = o
	}
	if o := cfg.PromptTemplates.SkillExtract; o != "" {
		ps.ExtractSkill = o
	}
	if o := cfg.PromptTemplates.CommandExtract; o != "" {
		ps.ExtractCommand = o
	}
	return ps
}

// languageName maps a config language code to the wording used in
// prompts.
func languageName(code string) string {
	switch code {
	case "zh":
		return "Chinese (中文)"
	default:
		return "English"
	}
}

const sessionPromptTemplate = `You are an expert at reviewing AI-assisted development sessions.

Context:
- Date: {{date}}
- Working directory: {{cwd}}
- Git branch: {{git_branch}}

Condensed transcript:

{{transcript}}

Summarize what actually happened in this session. For learnings and skill
hints, apply three gates before keeping an item: did a real pitfall happen
(踩过坑吗), will it come up again (下次还会遇到吗), and can it be stated
clearly (能说清楚吗). Drop anything that fails a gate rather than padding
the list.

Respond with ONLY a JSON object inside a ` + "```json" + ` fence:

` + "```json" + `
{
  "title": "kebab-case-topic-for-this-session",
  "summary": "Two to four sentences on what the session accomplished.",
  "decisions": ["A significant technical decision and why it was made."],
  "code_changes": ["A notable change, named by file or area."],
  "learnings": ["A hard-won, reusable lesson."],
  "skill_hints": ["A repeatable procedure worth extracting as a skill."]
}
` + "```" + `

Use empty arrays for categories with nothing that passes the gates.
Write all prose in {{language}}.
`

const dailyPromptTemplate = `You are consolidating one day's AI-assisted work sessions into a daily digest.

- Date: {{date}}
- Current time: {{current_time}} ({{current_period}})

{{existing_section}}{{sessions_section}}

Respond with ONLY a JSON object inside a ` + "```json" + ` fence:

` + "```json" + `
{
  "overview": "Two to four sentences on the day's arc so far.",
  "insights": ["A cross-session observation worth keeping."],
  "tomorrow_focus": ["A concrete next step."],
  "skills": [{"name": "kebab-case-name", "description": "One line on when it applies.", "content": "Markdown body with When to Use / Root Cause / Solution / Verification sections."}],
  "commands": [{"name": "kebab-case-name", "description": "One line on what it does.", "content": "Markdown body with an Instructions section."}]
}
` + "```" + `

Fold new material in without discarding insight from earlier in the day.
Only propose skills and commands that pass the gates: a real pitfall
(踩过坑吗), likely to recur (下次还会遇到吗), stateable clearly (能说清楚吗).
Use empty arrays otherwise. Write all prose in {{language}}.
`

const skillPromptTemplate = `You are extracting one reusable skill from an archived work session.

Skill hint: {{skill_hint}}

Session archive:

{{session_content}}

Apply the quality gates first: the session must show a real pitfall
(踩过坑吗) that will recur (下次还会遇到吗) and can be stated clearly
(能说清楚吗). If any gate fails, respond with exactly one line:

NOT_EXTRACTABLE: [reason]

Otherwise respond with ONLY a markdown document inside a ` + "```markdown" + ` fence:

` + "```markdown" + `
---
name: kebab-case-skill-name
description: One line on when this skill applies
origin: {{origin}}
confidence: verified
---

## When to Use

## Root Cause

## Solution

## Verification
` + "```" + `

Fill every section from what the session actually shows; do not invent
steps. Write all prose in {{language}}.
`

const commandPromptTemplate = `You are turning a repeated procedure from an archived work session into a reusable command.

Hint: {{skill_hint}}

Session archive:

{{session_content}}

If the session does not show a clearly repeatable procedure, respond with
exactly one line:

NOT_EXTRACTABLE: [reason]

Otherwise respond with ONLY a markdown document inside a ` + "```markdown" + ` fence:

` + "```markdown" + `
---
description: One line on what this command does
---

## Instructions
` + "```" + `

Write concrete, copy-runnable steps. Write all prose in {{language}}.
`
