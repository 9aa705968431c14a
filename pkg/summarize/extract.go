package summarize

import (
	"encoding/json"
	"strings"

	"github.com/grovetools/daily/errors"
)

// notExtractablePrefix marks a refusal from the skill extraction prompt.
const notExtractablePrefix = "NOT_EXTRACTABLE"

// SessionResponse is the JSON payload the model returns for one session.
type SessionResponse struct {
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	Decisions   []string `json:"decisions"`
	CodeChanges []string `json:"code_changes"`
	Learnings   []string `json:"learnings"`
	SkillHints  []string `json:"skill_hints"`
}

// DailyResponse is the JSON payload for a daily digest.
type DailyResponse struct {
	Overview      string       `json:"overview"`
	Insights      []string     `json:"insights"`
	TomorrowFocus []string     `json:"tomorrow_focus"`
	Skills        []Suggestion `json:"skills"`
	Commands      []Suggestion `json:"commands"`
}

// Suggestion is one reusable skill or command candidate in a daily
// response.
type Suggestion struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

// ExtractJSON pulls the JSON payload out of a model response: a ```json
// fence if present, otherwise the outermost brace pair, otherwise the
// trimmed response as-is.
func ExtractJSON(response string) string {
	if idx := strings.Index(response, "```json"); idx >= 0 {
		rest := response[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
	}

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start >= 0 && end > start {
		return strings.TrimSpace(response[start : end+1])
	}

	return strings.TrimSpace(response)
}

// ExtractMarkdown pulls a markdown document out of a model response: a
// ```markdown fence, any other fence (skipping its language tag line), or
// the trimmed response.
func ExtractMarkdown(response string) string {
	if idx := strings.Index(response, "```markdown"); idx >= 0 {
		rest := response[idx+len("```markdown"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
	}

	if idx := strings.Index(response, "```"); idx >= 0 {
		rest := response[idx+3:]
		if nl := strings.Index(rest, "\n"); nl >= 0 {
			rest = rest[nl+1:]
			if end := strings.Index(rest, "```"); end >= 0 {
				return strings.TrimSpace(rest[:end])
			}
		}
	}

	return strings.TrimSpace(response)
}

// ParseSessionResponse decodes a session summary response. A response
// without a usable summary is a summarizer output error; the job fails
// without retry.
func ParseSessionResponse(response string) (*SessionResponse, error) {
	var resp SessionResponse
	if err := json.Unmarshal([]byte(ExtractJSON(response)), &resp); err != nil {
		return nil, errors.SummarizerOutput("session response is not valid JSON", err)
	}
	if strings.TrimSpace(resp.Summary) == "" {
		return nil, errors.SummarizerOutput("session response has no summary", nil)
	}
	return &resp, nil
}

// ParseDailyResponse decodes a daily digest response.
func ParseDailyResponse(response string) (*DailyResponse, error) {
	var resp DailyResponse
	if err := json.Unmarshal([]byte(ExtractJSON(response)), &resp); err != nil {
		return nil, errors.SummarizerOutput("daily response is not valid JSON", err)
	}
	if strings.TrimSpace(resp.Overview) == "" {
		return nil, errors.SummarizerOutput("daily response has no overview", nil)
	}
	return &resp, nil
}

// NotExtractable reports whether an extraction response declined, and the
// reason it gave.
func NotExtractable(markdown string) (string, bool) {
	trimmed := strings.TrimSpace(markdown)
	if !strings.HasPrefix(trimmed, notExtractablePrefix) {
		return "", false
	}
	reason := strings.TrimPrefix(trimmed, notExtractablePrefix)
	reason = strings.TrimSpace(strings.TrimLeft(reason, ":"))
	reason = strings.Trim(reason, "[]")
	return reason, true
}
