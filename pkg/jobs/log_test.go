package jobs

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/daily/errors"
)

func saveCompletedJob(t *testing.T, r *Registry, id, task string) *Job {
	t.Helper()
	now := time.Now()
	finished := now.Add(time.Minute)
	j := &Job{
		ID:         id,
		TaskName:   task,
		Type:       TypeManual,
		Status:     StatusCompleted,
		StartedAt:  now,
		FinishedAt: &finished,
		LogPath:    r.LogPath(id),
	}
	require.NoError(t, r.save(j))
	return j
}

func TestReadLogTail(t *testing.T) {
	r, _ := newTestRegistry(t)
	j := saveCompletedJob(t, r, "20260825-090000-logged-abcdef", "logged")

	var lines []string
	for i := 1; i <= 10; i++ {
		lines = append(lines, fmt.Sprintf("step %d", i))
	}
	require.NoError(t, os.WriteFile(j.LogPath, []byte(strings.Join(lines, "\n")+"\n"), 0644))

	full, err := r.ReadLog(j.ID, 0)
	require.NoError(t, err)
	assert.Contains(t, full, "step 1")
	assert.Contains(t, full, "step 10")

	tail, err := r.ReadLog(j.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, "step 8\nstep 9\nstep 10", tail)
}

func TestReadLogNoOutputYet(t *testing.T) {
	r, _ := newTestRegistry(t)
	j := saveCompletedJob(t, r, "20260825-091500-silent-abcdef", "silent")

	content, err := r.ReadLog(j.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestReadLogUnknownJob(t *testing.T) {
	r, _ := newTestRegistry(t)

	_, err := r.ReadLog("20260825-092000-ghost-abcdef", 0)
	assert.Equal(t, errors.ErrCodeJobNotFound, errors.GetCode(err))
}

func oversizedLog(lineCount int) string {
	var b strings.Builder
	padding := strings.Repeat("x", 1024)
	for i := 0; i < lineCount; i++ {
		fmt.Fprintf(&b, "line-%04d %s\n", i, padding)
	}
	return b.String()
}

func TestReadLogTruncatesOversized(t *testing.T) {
	r, _ := newTestRegistry(t)
	j := saveCompletedJob(t, r, "20260825-093000-noisy-abcdef", "noisy")

	// ~1.15 MiB of output, which is past the display limit.
	require.NoError(t, os.WriteFile(j.LogPath, []byte(oversizedLog(1150)), 0644))

	content, err := r.ReadLog(j.ID, 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(content, "[... log truncated, showing last "), "missing truncation marker")
	assert.NotContains(t, content, "line-0000")
	assert.Contains(t, content, "line-1149")

	// Display truncation never rewrites the file itself.
	info, err := os.Stat(j.LogPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(MaxLogSize))
}

func TestTruncateLogIfNeeded(t *testing.T) {
	r, _ := newTestRegistry(t)
	j := saveCompletedJob(t, r, "20260825-094500-bloated-abcdef", "bloated")

	require.NoError(t, os.WriteFile(j.LogPath, []byte(oversizedLog(1150)), 0644))
	require.NoError(t, r.TruncateLogIfNeeded(j.ID))

	data, err := os.ReadFile(j.LogPath)
	require.NoError(t, err)
	assert.Less(t, int64(len(data)), int64(MaxLogSize))
	assert.Contains(t, string(data), "[... log truncated, showing last ")
	assert.Contains(t, string(data), "line-1149")

	// Already-small logs are left alone.
	before := string(data)
	require.NoError(t, r.TruncateLogIfNeeded(j.ID))
	after, err := os.ReadFile(j.LogPath)
	require.NoError(t, err)
	assert.Equal(t, before, string(after))
}

func TestTruncateLogMissingFile(t *testing.T) {
	r, _ := newTestRegistry(t)
	j := saveCompletedJob(t, r, "20260825-095000-quiet-abcdef", "quiet")

	assert.NoError(t, r.TruncateLogIfNeeded(j.ID))
}

func TestFollowStreamsUntilTerminal(t *testing.T) {
	r, _ := newTestRegistry(t)

	job, err := r.Create(CreateRequest{
		TaskName:   "followed-task",
		Type:       TypeManual,
		WorkerArgs: []string{"summarize"},
	})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(job.LogPath, []byte("starting up\n"), 0644))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var buf bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- r.Follow(ctx, job.ID, &buf)
	}()

	// Give the tail a moment to attach, then append more output and finish
	// the job.
	time.Sleep(200 * time.Millisecond)
	f, err := os.OpenFile(job.LogPath, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("halfway there\nall done\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	time.Sleep(200 * time.Millisecond)
	require.NoError(t, r.Complete(job.ID))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(8 * time.Second):
		t.Fatal("Follow did not return after the job finished")
	}

	out := buf.String()
	assert.Contains(t, out, "starting up")
	assert.Contains(t, out, "halfway there")
	assert.Contains(t, out, "all done")
}

func TestFollowUnknownJob(t *testing.T) {
	r, _ := newTestRegistry(t)

	err := r.Follow(context.Background(), "20260825-100000-ghost-abcdef", os.Stdout)
	assert.Equal(t, errors.ErrCodeJobNotFound, errors.GetCode(err))
}
