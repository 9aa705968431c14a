package jobs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/daily/config"
	"github.com/grovetools/daily/errors"
	"github.com/grovetools/daily/pkg/process"
)

// fakeSupervisor records spawns and lets tests control process liveness.
type fakeSupervisor struct {
	mu       sync.Mutex
	nextPID  int
	alive    map[int]bool
	spawned  []process.SpawnSpec
	spawnErr error
	termErr  error

	// onSpawn runs after a successful spawn is recorded, before Spawn
	// returns. Tests use it to sabotage the world mid-Create.
	onSpawn func()
}

func newFakeSupervisor() *fakeSupervisor {
	return &fakeSupervisor{nextPID: 1000, alive: make(map[int]bool)}
}

func (f *fakeSupervisor) Spawn(spec process.SpawnSpec) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.spawnErr != nil {
		return 0, f.spawnErr
	}
	f.nextPID++
	f.alive[f.nextPID] = true
	f.spawned = append(f.spawned, spec)
	if f.onSpawn != nil {
		f.onSpawn()
	}
	return f.nextPID, nil
}

func (f *fakeSupervisor) IsAlive(pid int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alive[pid]
}

func (f *fakeSupervisor) Terminate(pid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.termErr != nil {
		return f.termErr
	}
	delete(f.alive, pid)
	return nil
}

// die simulates a worker exiting outside the registry's control.
func (f *fakeSupervisor) die(pid int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.alive, pid)
}

func (f *fakeSupervisor) lastSpawn() process.SpawnSpec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.spawned[len(f.spawned)-1]
}

func newTestRegistry(t *testing.T) (*Registry, *fakeSupervisor) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DAILY_CONFIG", "")

	cfg := &config.Config{}
	cfg.Storage.Path = t.TempDir()
	cfg.SetDefaults()

	sup := newFakeSupervisor()
	r, err := NewRegistryWithSupervisor(cfg, sup)
	require.NoError(t, err)
	return r, sup
}

func TestCreateSpawnsWorker(t *testing.T) {
	r, sup := newTestRegistry(t)

	job, err := r.Create(CreateRequest{
		TaskName:       "fix-login-bug",
		Type:           TypeManual,
		TranscriptPath: "/tmp/session.jsonl",
		WorkerArgs:     []string{"summarize", "--transcript", "/tmp/session.jsonl", "--task-name", "fix-login-bug"},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusRunning, job.Status)
	assert.NotZero(t, job.PID)
	assert.Equal(t, TypeManual, job.Type)
	assert.Equal(t, r.LogPath(job.ID), job.LogPath)

	// Worker receives the allocated id so it can report completion.
	spec := sup.lastSpawn()
	require.GreaterOrEqual(t, len(spec.Args), 2)
	assert.Equal(t, "--job-id", spec.Args[len(spec.Args)-2])
	assert.Equal(t, job.ID, spec.Args[len(spec.Args)-1])
	assert.Equal(t, job.LogPath, spec.LogPath)

	// Record is on disk with the real pid.
	loaded, err := r.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.PID, loaded.PID)
	assert.Equal(t, StatusRunning, loaded.Status)

	// Guard is held for the (date, task) pair.
	_, err = os.Stat(r.guardPath(job.StartedDate(), "fix-login-bug"))
	assert.NoError(t, err)
}

func TestCreateValidatesRequest(t *testing.T) {
	r, _ := newTestRegistry(t)

	_, err := r.Create(CreateRequest{WorkerArgs: []string{"summarize"}})
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))

	_, err = r.Create(CreateRequest{TaskName: "a-task"})
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
}

func TestCreateDuplicateSuppressed(t *testing.T) {
	r, sup := newTestRegistry(t)

	_, err := r.Create(CreateRequest{
		TaskName:   "payments-api-153000",
		Type:       TypeSessionEnd,
		WorkerArgs: []string{"summarize"},
	})
	require.NoError(t, err)

	_, err = r.Create(CreateRequest{
		TaskName:   "payments-api-153000",
		Type:       TypeSessionEnd,
		WorkerArgs: []string{"summarize"},
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeJobAlreadyRunning, errors.GetCode(err))

	// Only the first request spawned anything.
	assert.Len(t, sup.spawned, 1)
}

func TestCreateConcurrentSingleWinner(t *testing.T) {
	r, sup := newTestRegistry(t)

	const callers = 8
	errs := make([]error, callers)

	var start, done sync.WaitGroup
	start.Add(1)
	done.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer done.Done()
			start.Wait()
			_, errs[i] = r.Create(CreateRequest{
				TaskName:   "fix-login-bug",
				Type:       TypeSessionEnd,
				WorkerArgs: []string{"summarize"},
			})
		}(i)
	}
	start.Done()
	done.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, errors.ErrCodeJobAlreadyRunning, errors.GetCode(err))
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, sup.spawned, 1)

	running, err := r.List(FilterRunning)
	require.NoError(t, err)
	assert.Len(t, running, 1)
}

func TestCreateHonorsOwnerlessFreshGuard(t *testing.T) {
	r, sup := newTestRegistry(t)

	// A creator that just won the O_EXCL race holds the guard but has not
	// written its id yet. That guard is taken, not debris.
	date := time.Now().Format("2006-01-02")
	guard := r.guardPath(date, "fix-login-bug")
	require.NoError(t, os.WriteFile(guard, nil, 0644))

	_, err := r.Create(CreateRequest{
		TaskName:   "fix-login-bug",
		Type:       TypeSessionEnd,
		WorkerArgs: []string{"summarize"},
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeJobAlreadyRunning, errors.GetCode(err))
	assert.Empty(t, sup.spawned)
}

func TestCreateReapsAbandonedOwnerlessGuard(t *testing.T) {
	r, _ := newTestRegistry(t)

	// Same ownerless state, but old enough that its creator must have died
	// between the open and the write.
	date := time.Now().Format("2006-01-02")
	guard := r.guardPath(date, "fix-login-bug")
	require.NoError(t, os.WriteFile(guard, nil, 0644))
	stale := time.Now().Add(-time.Minute)
	require.NoError(t, os.Chtimes(guard, stale, stale))

	job, err := r.Create(CreateRequest{
		TaskName:   "fix-login-bug",
		Type:       TypeSessionEnd,
		WorkerArgs: []string{"summarize"},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, job.Status)
}

func TestCreateHonorsGuardAwaitingRecord(t *testing.T) {
	r, sup := newTestRegistry(t)

	// The id lands in the guard before the job record lands on disk. A
	// fresh guard naming an unknown job is an in-flight creator, not debris.
	date := time.Now().Format("2006-01-02")
	guard := r.guardPath(date, "fix-login-bug")
	require.NoError(t, os.WriteFile(guard, []byte("20260830-101500-fix-login-bug-aa11bb\n"), 0644))

	_, err := r.Create(CreateRequest{
		TaskName:   "fix-login-bug",
		Type:       TypeSessionEnd,
		WorkerArgs: []string{"summarize"},
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeJobAlreadyRunning, errors.GetCode(err))
	assert.Empty(t, sup.spawned)

	// Once the window passes with no record in sight, the guard is reaped.
	stale := time.Now().Add(-time.Minute)
	require.NoError(t, os.Chtimes(guard, stale, stale))

	_, err = r.Create(CreateRequest{
		TaskName:   "fix-login-bug",
		Type:       TypeSessionEnd,
		WorkerArgs: []string{"summarize"},
	})
	require.NoError(t, err)
	assert.Len(t, sup.spawned, 1)
}

func TestCreateReapsStaleGuard(t *testing.T) {
	r, sup := newTestRegistry(t)

	first, err := r.Create(CreateRequest{
		TaskName:   "api-refactor",
		Type:       TypeAutoSummarize,
		WorkerArgs: []string{"summarize"},
	})
	require.NoError(t, err)

	// The owner dies without ever reporting back. The guard must not block
	// the task forever.
	sup.die(first.PID)

	second, err := r.Create(CreateRequest{
		TaskName:   "api-refactor",
		Type:       TypeAutoSummarize,
		WorkerArgs: []string{"summarize"},
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCreateSpawnFailureRollsBack(t *testing.T) {
	r, sup := newTestRegistry(t)
	sup.spawnErr = fmt.Errorf("exec format error")

	_, err := r.Create(CreateRequest{
		TaskName:   "doomed-task",
		Type:       TypeManual,
		WorkerArgs: []string{"summarize"},
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSpawnFailed, errors.GetCode(err))

	// Neither record nor guard survives, so a retry is possible.
	jobs, err := r.List(FilterAll)
	require.NoError(t, err)
	assert.Empty(t, jobs)

	sup.spawnErr = nil
	_, err = r.Create(CreateRequest{
		TaskName:   "doomed-task",
		Type:       TypeManual,
		WorkerArgs: []string{"summarize"},
	})
	assert.NoError(t, err)
}

func TestCreateReportsOrphanedWorker(t *testing.T) {
	r, sup := newTestRegistry(t)

	// The jobs dir turns read-only the instant the worker launches, so the
	// pid write-back cannot land and the worker runs on unrecorded.
	sup.onSpawn = func() {
		require.NoError(t, os.Chmod(r.dir, 0555))
	}
	t.Cleanup(func() { os.Chmod(r.dir, 0755) })

	_, err := r.Create(CreateRequest{
		TaskName:   "runaway-task",
		Type:       TypeManual,
		WorkerArgs: []string{"summarize"},
	})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInternal, errors.GetCode(err))
	assert.Contains(t, err.Error(), "pid")

	// The worker really did start; the caller must not mistake this for a
	// failed spawn it can blindly retry.
	require.Len(t, sup.spawned, 1)

	// The earlier record survives with pid 0, so the next listing reconciles
	// it instead of leaving a phantom Running entry forever.
	require.NoError(t, os.Chmod(r.dir, 0755))
	all, err := r.List(FilterAll)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Zero(t, all[0].PID)
	assert.Equal(t, StatusFailed, all[0].Status)
}

func TestTrackRecordsForegroundJob(t *testing.T) {
	r, sup := newTestRegistry(t)

	// The calling process is alive as far as the supervisor can tell.
	sup.mu.Lock()
	sup.alive[os.Getpid()] = true
	sup.mu.Unlock()

	job, err := r.Track(CreateRequest{
		TaskName:       "fix-login-bug",
		Type:           TypeManual,
		TranscriptPath: "/tmp/session.jsonl",
	})
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), job.PID)
	assert.Equal(t, StatusRunning, job.Status)
	assert.Empty(t, sup.spawned)

	// The guard dedups against background workers for the same task.
	_, err = r.Create(CreateRequest{
		TaskName:   "fix-login-bug",
		Type:       TypeSessionEnd,
		WorkerArgs: []string{"summarize"},
	})
	assert.Equal(t, errors.ErrCodeJobAlreadyRunning, errors.GetCode(err))

	require.NoError(t, r.Complete(job.ID))
	loaded, err := r.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, loaded.Status)
}

func TestCompleteReleasesGuard(t *testing.T) {
	r, _ := newTestRegistry(t)

	job, err := r.Create(CreateRequest{
		TaskName:   "daily-notes",
		Type:       TypeSessionEnd,
		WorkerArgs: []string{"summarize"},
	})
	require.NoError(t, err)

	require.NoError(t, r.Complete(job.ID))

	loaded, err := r.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, loaded.Status)
	require.NotNil(t, loaded.FinishedAt)
	assert.Empty(t, loaded.Error)

	_, err = os.Stat(r.guardPath(job.StartedDate(), "daily-notes"))
	assert.True(t, os.IsNotExist(err))

	// Same task can run again once the first finished.
	_, err = r.Create(CreateRequest{
		TaskName:   "daily-notes",
		Type:       TypeSessionEnd,
		WorkerArgs: []string{"summarize"},
	})
	assert.NoError(t, err)
}

func TestFinishIsExactlyOnce(t *testing.T) {
	r, _ := newTestRegistry(t)

	job, err := r.Create(CreateRequest{
		TaskName:   "once-only",
		Type:       TypeManual,
		WorkerArgs: []string{"digest"},
	})
	require.NoError(t, err)

	require.NoError(t, r.Complete(job.ID))

	// A late failure report must not overwrite the terminal state.
	require.NoError(t, r.Fail(job.ID, "claude exited with status 1"))

	loaded, err := r.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, loaded.Status)
	assert.Empty(t, loaded.Error)
}

func TestFailRecordsReason(t *testing.T) {
	r, _ := newTestRegistry(t)

	job, err := r.Create(CreateRequest{
		TaskName:   "failing-task",
		Type:       TypeManual,
		WorkerArgs: []string{"summarize"},
	})
	require.NoError(t, err)

	require.NoError(t, r.Fail(job.ID, "claude exited with status 1"))

	loaded, err := r.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, loaded.Status)
	assert.Equal(t, "claude exited with status 1", loaded.Error)
	require.NotNil(t, loaded.FinishedAt)
}

func TestGetUnknownJob(t *testing.T) {
	r, _ := newTestRegistry(t)

	_, err := r.Get("20260825-120000-nope-abc123")
	assert.Equal(t, errors.ErrCodeJobNotFound, errors.GetCode(err))
}

func TestListReconcilesVanishedProcesses(t *testing.T) {
	r, sup := newTestRegistry(t)

	job, err := r.Create(CreateRequest{
		TaskName:   "crashy-task",
		Type:       TypeAutoSummarize,
		WorkerArgs: []string{"summarize"},
	})
	require.NoError(t, err)

	sup.die(job.PID)

	jobs, err := r.List(FilterAll)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, StatusFailed, jobs[0].Status)
	assert.Equal(t, "process vanished", jobs[0].Error)
	require.NotNil(t, jobs[0].FinishedAt)

	// The reconciled state is persisted, not just reported.
	loaded, err := r.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, loaded.Status)
}

func TestListFilters(t *testing.T) {
	r, _ := newTestRegistry(t)

	running, err := r.Create(CreateRequest{
		TaskName:   "still-going",
		Type:       TypeManual,
		WorkerArgs: []string{"summarize"},
	})
	require.NoError(t, err)

	recent, err := r.Create(CreateRequest{
		TaskName:   "just-done",
		Type:       TypeManual,
		WorkerArgs: []string{"summarize"},
	})
	require.NoError(t, err)
	require.NoError(t, r.Complete(recent.ID))

	// A job finished days ago only shows up with --all.
	oldStart := time.Now().Add(-72 * time.Hour)
	oldFinish := oldStart.Add(5 * time.Minute)
	old := &Job{
		ID:         "20260822-080000-done-long-ago-abcdef",
		TaskName:   "done-long-ago",
		Type:       TypeSessionEnd,
		Status:     StatusCompleted,
		StartedAt:  oldStart,
		FinishedAt: &oldFinish,
		LogPath:    r.LogPath("20260822-080000-done-long-ago-abcdef"),
	}
	require.NoError(t, r.save(old))

	all, err := r.List(FilterAll)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	runningOnly, err := r.List(FilterRunning)
	require.NoError(t, err)
	require.Len(t, runningOnly, 1)
	assert.Equal(t, running.ID, runningOnly[0].ID)

	recentOnly, err := r.List(FilterRecent)
	require.NoError(t, err)
	assert.Len(t, recentOnly, 2)
	for _, j := range recentOnly {
		assert.NotEqual(t, old.ID, j.ID)
	}
}

func TestListSortsNewestFirst(t *testing.T) {
	r, _ := newTestRegistry(t)

	base := time.Now()
	for i, task := range []string{"first", "second", "third"} {
		j := &Job{
			ID:        fmt.Sprintf("20260825-10000%d-%s-abcdef", i, task),
			TaskName:  task,
			Type:      TypeManual,
			Status:    StatusCompleted,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			LogPath:   r.LogPath(task),
		}
		finished := j.StartedAt.Add(time.Second)
		j.FinishedAt = &finished
		require.NoError(t, r.save(j))
	}

	jobs, err := r.List(FilterAll)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, "third", jobs[0].TaskName)
	assert.Equal(t, "first", jobs[2].TaskName)
}

func TestKillRunningJob(t *testing.T) {
	r, sup := newTestRegistry(t)

	job, err := r.Create(CreateRequest{
		TaskName:   "long-runner",
		Type:       TypeManual,
		WorkerArgs: []string{"digest"},
	})
	require.NoError(t, err)

	killed, err := r.Kill(job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, killed.Status)
	assert.Equal(t, "killed", killed.Error)
	assert.False(t, sup.IsAlive(job.PID))

	// A second kill reports the job as finished.
	_, err = r.Kill(job.ID)
	assert.Equal(t, errors.ErrCodeJobAlreadyFinished, errors.GetCode(err))
}

func TestKillUnknownJob(t *testing.T) {
	r, _ := newTestRegistry(t)

	_, err := r.Kill("20260825-120000-ghost-abc123")
	assert.Equal(t, errors.ErrCodeJobNotFound, errors.GetCode(err))
}

func TestCleanup(t *testing.T) {
	r, sup := newTestRegistry(t)

	oldStart := time.Now().AddDate(0, 0, -10)
	oldFinish := oldStart.Add(2 * time.Minute)
	oldDone := &Job{
		ID:         "20260815-090000-ancient-abcdef",
		TaskName:   "ancient",
		Type:       TypeSessionEnd,
		Status:     StatusCompleted,
		StartedAt:  oldStart,
		FinishedAt: &oldFinish,
		LogPath:    r.LogPath("20260815-090000-ancient-abcdef"),
	}
	require.NoError(t, r.save(oldDone))
	require.NoError(t, os.WriteFile(oldDone.LogPath, []byte("old output\n"), 0644))

	// An ancient but still-running job must never be removed.
	sup.mu.Lock()
	sup.alive[4242] = true
	sup.mu.Unlock()
	oldRunning := &Job{
		ID:        "20260815-100000-marathon-abcdef",
		TaskName:  "marathon",
		Type:      TypeManual,
		Status:    StatusRunning,
		PID:       4242,
		StartedAt: oldStart,
		LogPath:   r.LogPath("20260815-100000-marathon-abcdef"),
	}
	require.NoError(t, r.save(oldRunning))

	fresh, err := r.Create(CreateRequest{
		TaskName:   "fresh-task",
		Type:       TypeManual,
		WorkerArgs: []string{"summarize"},
	})
	require.NoError(t, err)
	require.NoError(t, r.Complete(fresh.ID))

	// Dry run reports candidates without touching disk.
	candidates, err := r.Cleanup(7, true)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, oldDone.ID, candidates[0].ID)
	_, err = os.Stat(r.jobPath(oldDone.ID))
	assert.NoError(t, err)

	removed, err := r.Cleanup(7, false)
	require.NoError(t, err)
	require.Len(t, removed, 1)

	_, err = r.Get(oldDone.ID)
	assert.Equal(t, errors.ErrCodeJobNotFound, errors.GetCode(err))
	_, err = os.Stat(oldDone.LogPath)
	assert.True(t, os.IsNotExist(err))

	// Running and recent jobs survive.
	_, err = r.Get(oldRunning.ID)
	assert.NoError(t, err)
	_, err = r.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestSaveIsAtomic(t *testing.T) {
	r, _ := newTestRegistry(t)

	job, err := r.Create(CreateRequest{
		TaskName:   "atomic-check",
		Type:       TypeManual,
		WorkerArgs: []string{"summarize"},
	})
	require.NoError(t, err)

	// No temp files linger after a successful save cycle.
	entries, err := os.ReadDir(filepath.Dir(r.jobPath(job.ID)))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover temp file %s", e.Name())
	}
}
