package jobs

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusDisplay(t *testing.T) {
	assert.Equal(t, "Running", StatusRunning.Display())
	assert.Equal(t, "Completed", StatusCompleted.Display())
	assert.Equal(t, "Failed", StatusFailed.Display())
}

func TestStatusIsTerminal(t *testing.T) {
	assert.False(t, StatusRunning.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
}

func TestElapsedHuman(t *testing.T) {
	tests := []struct {
		name     string
		elapsed  time.Duration
		expected string
	}{
		{"seconds only", 42 * time.Second, "42s"},
		{"minutes and seconds", 3*time.Minute + 5*time.Second, "3m 05s"},
		{"hours and minutes", 2*time.Hour + 14*time.Minute + 59*time.Second, "2h 14m"},
		{"zero", 0, "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now().Add(-time.Hour)
			finish := start.Add(tt.elapsed)
			j := &Job{StartedAt: start, FinishedAt: &finish}
			assert.Equal(t, tt.expected, j.ElapsedHuman())
		})
	}
}

func TestElapsedRunningJob(t *testing.T) {
	j := &Job{StartedAt: time.Now().Add(-90 * time.Second), Status: StatusRunning}
	assert.InDelta(t, 90, j.Elapsed().Seconds(), 2)
}

func TestStartedDate(t *testing.T) {
	started, err := time.Parse(time.RFC3339, "2026-08-25T23:59:01+02:00")
	require.NoError(t, err)
	j := &Job{StartedAt: started}
	assert.Equal(t, "2026-08-25", j.StartedDate())
}

func TestGenerateJobID(t *testing.T) {
	id := GenerateJobID("My Project!")

	// Timestamp prefix, a 20-char-max sanitized slug, then a random suffix.
	pattern := regexp.MustCompile(`^\d{8}-\d{6}-my-project--[0-9a-f]{6}$`)
	assert.True(t, pattern.MatchString(id), "unexpected id format: %s", id)
}

func TestGenerateJobIDTruncatesLongNames(t *testing.T) {
	id := GenerateJobID("very-long-project-name-that-exceeds-the-limit")
	assert.Contains(t, id, "-very-long-project-na-")
}

func TestGenerateJobIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := GenerateJobID("same-task")
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
