package server

import (
	"strings"

	"github.com/grovetools/daily/pkg/archive"
	"github.com/grovetools/daily/pkg/jobs"
)

// apiResponse is the envelope every API handler writes. Exactly one of
// Data and Error is set.
type apiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type dateInfoDTO struct {
	Date         string `json:"date"`
	SessionCount int    `json:"session_count"`
	HasDigest    bool   `json:"has_digest"`
}

type sessionBriefDTO struct {
	Name           string `json:"name"`
	Title          string `json:"title"`
	SummaryPreview string `json:"summary_preview"`
}

type sessionMetadataDTO struct {
	Title     string `json:"title"`
	Date      string `json:"date"`
	SessionID string `json:"session_id,omitempty"`
	Cwd       string `json:"cwd,omitempty"`
	GitBranch string `json:"git_branch,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

type sessionDetailDTO struct {
	Name     string             `json:"name"`
	Content  string             `json:"content"`
	Metadata sessionMetadataDTO `json:"metadata"`
}

type digestDTO struct {
	Date           string   `json:"date"`
	DigestedAt     string   `json:"digested_at"`
	SessionCount   int      `json:"session_count"`
	Sessions       []string `json:"sessions"`
	Periods        []string `json:"periods,omitempty"`
	Overview       string   `json:"overview"`
	SessionDetails string   `json:"session_details,omitempty"`
	Insights       string   `json:"insights,omitempty"`
	TomorrowFocus  string   `json:"tomorrow_focus,omitempty"`
}

type jobDTO struct {
	ID         string `json:"id"`
	PID        int    `json:"pid"`
	TaskName   string `json:"task_name"`
	Type       string `json:"job_type"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
	Elapsed    string `json:"elapsed"`
}

type jobLogDTO struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

type digestQueuedDTO struct {
	Message      string `json:"message"`
	SessionCount int    `json:"session_count"`
	JobID        string `json:"job_id,omitempty"`
}

// eventPayload is one SSE message on /api/events.
type eventPayload struct {
	Type string   `json:"type"`
	Jobs []jobDTO `json:"jobs,omitempty"`
}

const timestampLayout = "2006-01-02 15:04:05"

func jobToDTO(j *jobs.Job) jobDTO {
	dto := jobDTO{
		ID:        j.ID,
		PID:       j.PID,
		TaskName:  j.TaskName,
		Type:      string(j.Type),
		Status:    string(j.Status),
		Error:     j.Error,
		StartedAt: j.StartedAt.Format(timestampLayout),
		Elapsed:   j.ElapsedHuman(),
	}
	if j.FinishedAt != nil {
		dto.FinishedAt = j.FinishedAt.Format(timestampLayout)
	}
	return dto
}

func jobsToDTOs(list []*jobs.Job) []jobDTO {
	out := make([]jobDTO, len(list))
	for i, j := range list {
		out[i] = jobToDTO(j)
	}
	return out
}

func digestToDTO(d *archive.Digest) digestDTO {
	return digestDTO{
		Date:           d.Date,
		DigestedAt:     d.DigestedAt.Format(timestampLayout),
		SessionCount:   len(d.Sessions),
		Sessions:       d.Sessions,
		Periods:        d.Periods,
		Overview:       d.Overview,
		SessionDetails: d.SessionDetails,
		Insights:       d.Insights,
		TomorrowFocus:  d.TomorrowFocus,
	}
}

func sessionToBrief(sf *archive.SessionFile) sessionBriefDTO {
	title := sf.Meta.Title
	if title == "" {
		title = sf.Name
	}
	return sessionBriefDTO{
		Name:           sf.Name,
		Title:          title,
		SummaryPreview: summaryPreview(sf.Content),
	}
}

func sessionToDetail(sf *archive.SessionFile) sessionDetailDTO {
	return sessionDetailDTO{
		Name:    sf.Name,
		Content: sf.Content,
		Metadata: sessionMetadataDTO{
			Title:     sf.Meta.Title,
			Date:      sf.Meta.Date,
			SessionID: sf.Meta.SessionID,
			Cwd:       sf.Meta.Cwd,
			GitBranch: sf.Meta.GitBranch,
			Duration:  sf.Meta.Duration,
		},
	}
}

const previewRunes = 200

// summaryPreview pulls the Summary section out of a session document and
// caps it at previewRunes runes for list views.
func summaryPreview(content string) string {
	const heading = "## Summary\n"
	start := strings.Index(content, heading)
	if start < 0 {
		return ""
	}
	rest := content[start+len(heading):]
	if end := strings.Index(rest, "\n## "); end >= 0 {
		rest = rest[:end]
	}

	text := strings.TrimSpace(rest)
	runes := []rune(text)
	if len(runes) > previewRunes {
		return string(runes[:previewRunes]) + "..."
	}
	return text
}
