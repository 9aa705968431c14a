// Package jobs tracks background summarization and digest workers.
//
// Every worker has one JSON record under <storage>/jobs plus a log file the
// worker's stdout and stderr are wired to. Records outlive their processes,
// so `daily jobs list` can report what ran after the fact.
package jobs

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/grovetools/daily/util/sanitize"
)

// JobStatus is the lifecycle state of a background job.
type JobStatus string

const (
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Display returns the capitalized form shown in terminal output.
func (s JobStatus) Display() string {
	switch s {
	case StatusRunning:
		return "Running"
	case StatusCompleted:
		return "Completed"
	case StatusFailed:
		return "Failed"
	default:
		return string(s)
	}
}

// IsTerminal reports whether the status can no longer change.
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// JobType records what triggered a job.
type JobType string

const (
	TypeSessionEnd    JobType = "session_end"
	TypeAutoSummarize JobType = "auto_summarize"
	TypeManual        JobType = "manual"
)

// Job is the persisted record of one background worker.
type Job struct {
	ID             string     `json:"id"`
	PID            int        `json:"pid"`
	TaskName       string     `json:"task_name"`
	Type           JobType    `json:"job_type"`
	TranscriptPath string     `json:"transcript_path,omitempty"`
	LogPath        string     `json:"log_path"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	Status         JobStatus  `json:"status"`
	Error          string     `json:"error,omitempty"`
}

// Elapsed returns the duration between start and finish, or until now for a
// job that is still running.
func (j *Job) Elapsed() time.Duration {
	end := time.Now()
	if j.FinishedAt != nil {
		end = *j.FinishedAt
	}
	return end.Sub(j.StartedAt)
}

// ElapsedHuman formats the elapsed time the way `jobs list` shows it.
func (j *Job) ElapsedHuman() string {
	secs := int(j.Elapsed().Seconds())

	switch {
	case secs < 60:
		return fmt.Sprintf("%ds", secs)
	case secs < 3600:
		return fmt.Sprintf("%dm %02ds", secs/60, secs%60)
	default:
		return fmt.Sprintf("%dh %02dm", secs/3600, (secs%3600)/60)
	}
}

// StartedDate returns the calendar date the job started on, in YYYY-MM-DD
// form. Guard files are keyed by it.
func (j *Job) StartedDate() string {
	return j.StartedAt.Format("2006-01-02")
}

// GenerateJobID builds a unique job id from the start timestamp, a sanitized
// slug of the task name, and a short random suffix. The timestamp prefix
// makes ids sort naturally by start time.
func GenerateJobID(taskName string) string {
	timestamp := time.Now().Format("20060102-150405")

	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		// Clock bits beat failing outright if the random source is gone.
		return fmt.Sprintf("%s-%s-%06x", timestamp, sanitize.ForJobID(taskName), time.Now().UnixNano()&0xffffff)
	}

	return fmt.Sprintf("%s-%s-%s", timestamp, sanitize.ForJobID(taskName), hex.EncodeToString(suffix))
}
