package errors

import (
	"fmt"
	"os/exec"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *GroveError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *GroveError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// JobNotFound creates a job not found error
func JobNotFound(jobID string) *GroveError {
	return New(ErrCodeJobNotFound, fmt.Sprintf("job '%s' not found", jobID)).
		WithDetail("jobId", jobID)
}

// JobAlreadyRunning creates an error for a duplicate job on the same task
func JobAlreadyRunning(date, taskName string) *GroveError {
	return New(ErrCodeJobAlreadyRunning,
		fmt.Sprintf("a job for task '%s' on %s is already running", taskName, date)).
		WithDetail("date", date).
		WithDetail("taskName", taskName)
}

// JobAlreadyFinished creates an error for operations on a terminal job
func JobAlreadyFinished(jobID, status string) *GroveError {
	return New(ErrCodeJobAlreadyFinished,
		fmt.Sprintf("job '%s' already finished with status %s", jobID, status)).
		WithDetail("jobId", jobID).
		WithDetail("status", status)
}

// SpawnFailed creates a worker spawn failure error
func SpawnFailed(taskName string, err error) *GroveError {
	return Wrap(err, ErrCodeSpawnFailed,
		fmt.Sprintf("failed to spawn background worker for '%s'", taskName)).
		WithDetail("taskName", taskName)
}

// ProcessVanished creates an error for a job whose process died without reporting
func ProcessVanished(jobID string, pid int) *GroveError {
	return New(ErrCodeProcessVanished,
		fmt.Sprintf("job '%s' process (pid %d) is no longer alive", jobID, pid)).
		WithDetail("jobId", jobID).
		WithDetail("pid", pid)
}

// SummarizerFailed creates a summarization failure error
func SummarizerFailed(taskName string, err error) *GroveError {
	return Wrap(err, ErrCodeSummarizerFailed,
		fmt.Sprintf("summarization failed for '%s'", taskName)).
		WithDetail("taskName", taskName)
}

// SummarizerOutput creates an error for an unparsable model response
func SummarizerOutput(reason string, err error) *GroveError {
	return Wrap(err, ErrCodeSummarizerOutput,
		fmt.Sprintf("could not parse summarizer response: %s", reason))
}

// TranscriptNotFound creates a transcript not found error
func TranscriptNotFound(path string) *GroveError {
	return New(ErrCodeTranscriptNotFound, fmt.Sprintf("transcript not found: %s", path)).
		WithDetail("path", path)
}

// StorageIO creates an archive storage I/O error
func StorageIO(op, path string, err error) *GroveError {
	return Wrap(err, ErrCodeStorageIO, fmt.Sprintf("storage %s failed: %s", op, path)).
		WithDetail("op", op).
		WithDetail("path", path)
}

// DateInvalid creates an error for a malformed date argument
func DateInvalid(date string) *GroveError {
	return New(ErrCodeDateInvalid, fmt.Sprintf("invalid date '%s', expected YYYY-MM-DD", date)).
		WithDetail("date", date)
}

// SessionNotFound creates a session archive not found error
func SessionNotFound(date, name string) *GroveError {
	return New(ErrCodeSessionNotFound,
		fmt.Sprintf("session '%s' not found for %s", name, date)).
		WithDetail("date", date).
		WithDetail("session", name)
}

// SkillNotFound creates a pending skill not found error
func SkillNotFound(name string) *GroveError {
	return New(ErrCodeSkillNotFound, fmt.Sprintf("no pending skill named '%s'", name)).
		WithDetail("skill", name)
}

// HookInput creates an error for malformed hook payloads on stdin
func HookInput(err error) *GroveError {
	return Wrap(err, ErrCodeHookInput, "failed to read hook input")
}

// CommandFailed creates a command execution failure error
func CommandFailed(cmd string, err error) *GroveError {
	groveErr := Wrap(err, ErrCodeCommandFailed, fmt.Sprintf("command failed: %s", cmd)).
		WithDetail("command", cmd)

	// Extract exit code if available
	if exitErr, ok := err.(*exec.ExitError); ok {
		groveErr = groveErr.WithDetail("exitCode", exitErr.ExitCode())
	}

	return groveErr
}

// CommandNotFound creates an error for a missing external binary
func CommandNotFound(cmd string) *GroveError {
	return New(ErrCodeCommandNotFound, fmt.Sprintf("command not found: %s", cmd)).
		WithDetail("command", cmd)
}
