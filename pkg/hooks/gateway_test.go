package hooks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/daily/config"
	"github.com/grovetools/daily/errors"
	"github.com/grovetools/daily/pkg/jobs"
)

type fakeTriggers struct {
	digestCalls    int
	summarizeCalls int
	digestErr      error
	summarizeErr   error
}

func (f *fakeTriggers) CheckAutoDigest() ([]*jobs.Job, error) {
	f.digestCalls++
	return nil, f.digestErr
}

func (f *fakeTriggers) AutoSummarizeOnSessionStart() ([]*jobs.Job, error) {
	f.summarizeCalls++
	return nil, f.summarizeErr
}

type fakeCreator struct {
	requests []jobs.CreateRequest
	err      error
}

func (f *fakeCreator) Create(req jobs.CreateRequest) (*jobs.Job, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.requests = append(f.requests, req)
	return &jobs.Job{ID: "20260116-153042-test", TaskName: req.TaskName, Type: req.Type}, nil
}

func newTestGateway(t *testing.T) (*Gateway, *fakeTriggers, *fakeCreator) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DAILY_CONFIG", "")

	cfg := &config.Config{}
	cfg.Storage.Path = t.TempDir()
	cfg.SetDefaults()

	triggers := &fakeTriggers{}
	creator := &fakeCreator{}
	g := NewGateway(cfg, triggers, creator)
	g.now = func() time.Time {
		return time.Date(2026, 1, 16, 15, 30, 42, 0, time.Local)
	}
	return g, triggers, creator
}

func TestSessionStartRunsTriggerChecks(t *testing.T) {
	g, triggers, _ := newTestGateway(t)

	g.HandleSessionStart(&Input{SessionID: "abc", HookEventName: EventSessionStart})

	assert.Equal(t, 1, triggers.digestCalls)
	assert.Equal(t, 1, triggers.summarizeCalls)
}

func TestSessionStartDisabled(t *testing.T) {
	g, triggers, _ := newTestGateway(t)
	off := false
	g.cfg.Hooks.EnableSessionStart = &off

	g.HandleSessionStart(&Input{HookEventName: EventSessionStart})

	assert.Zero(t, triggers.digestCalls)
	assert.Zero(t, triggers.summarizeCalls)
}

func TestSessionStartSwallowsTriggerErrors(t *testing.T) {
	g, triggers, _ := newTestGateway(t)
	triggers.digestErr = errors.New(errors.ErrCodeStorageIO, "disk full")
	triggers.summarizeErr = errors.New(errors.ErrCodeStorageIO, "disk full")

	g.HandleSessionStart(&Input{HookEventName: EventSessionStart})

	// A failed digest check must not stop the summarize check.
	assert.Equal(t, 1, triggers.digestCalls)
	assert.Equal(t, 1, triggers.summarizeCalls)
}

func TestSessionEndSpawnsArchiveJob(t *testing.T) {
	g, _, creator := newTestGateway(t)

	job := g.HandleSessionEnd(&Input{
		SessionID:      "b2c4-ae01",
		TranscriptPath: "/tmp/transcripts/b2c4.jsonl",
		Cwd:            "/work/my-project",
		HookEventName:  EventSessionEnd,
		Reason:         ReasonUserExit,
	})

	require.NotNil(t, job)
	require.Len(t, creator.requests, 1)
	req := creator.requests[0]
	assert.Equal(t, "my-project-153042", req.TaskName)
	assert.Equal(t, jobs.TypeSessionEnd, req.Type)
	assert.Equal(t, "/tmp/transcripts/b2c4.jsonl", req.TranscriptPath)
	assert.Equal(t,
		[]string{"summarize", "--transcript", "/tmp/transcripts/b2c4.jsonl", "--task-name", "my-project-153042"},
		req.WorkerArgs)
}

func TestSessionEndIgnoresOtherReasons(t *testing.T) {
	g, _, creator := newTestGateway(t)

	for _, reason := range []string{"clear", "logout", "prompt_input_exit", ""} {
		job := g.HandleSessionEnd(&Input{
			TranscriptPath: "/tmp/t.jsonl",
			Cwd:            "/work/x",
			Reason:         reason,
		})
		assert.Nil(t, job, "reason %q must not archive", reason)
	}
	assert.Empty(t, creator.requests)
}

func TestSessionEndWithoutTranscript(t *testing.T) {
	g, _, creator := newTestGateway(t)

	job := g.HandleSessionEnd(&Input{Cwd: "/work/x", Reason: ReasonUserExit})

	assert.Nil(t, job)
	assert.Empty(t, creator.requests)
}

func TestSessionEndDisabled(t *testing.T) {
	g, _, creator := newTestGateway(t)
	off := false
	g.cfg.Hooks.EnableSessionEnd = &off

	job := g.HandleSessionEnd(&Input{
		TranscriptPath: "/tmp/t.jsonl",
		Cwd:            "/work/x",
		Reason:         ReasonUserExit,
	})

	assert.Nil(t, job)
	assert.Empty(t, creator.requests)
}

func TestSessionEndSwallowsSpawnFailure(t *testing.T) {
	g, _, creator := newTestGateway(t)
	creator.err = errors.SpawnFailed("fix-login", errors.New(errors.ErrCodeInternal, "fork failed"))

	job := g.HandleSessionEnd(&Input{
		TranscriptPath: "/tmp/t.jsonl",
		Cwd:            "/work/x",
		Reason:         ReasonUserExit,
	})

	assert.Nil(t, job)
}

func TestSessionEndSwallowsDuplicate(t *testing.T) {
	g, _, creator := newTestGateway(t)
	creator.err = errors.JobAlreadyRunning("2026-01-16", "x-153042")

	job := g.HandleSessionEnd(&Input{
		TranscriptPath: "/tmp/t.jsonl",
		Cwd:            "/work/x",
		Reason:         ReasonUserExit,
	})

	assert.Nil(t, job)
}

func TestEndTaskName(t *testing.T) {
	now := time.Date(2026, 1, 16, 15, 30, 42, 0, time.Local)

	tests := []struct {
		cwd  string
		want string
	}{
		{"/work/my-project", "my-project-153042"},
		{"/work/auth/", "auth-153042"},
		{"/", "session-153042"},
		{"", "session-153042"},
	}

	for _, tt := range tests {
		if got := endTaskName(tt.cwd, now); got != tt.want {
			t.Errorf("endTaskName(%q) = %q, want %q", tt.cwd, got, tt.want)
		}
	}
}
