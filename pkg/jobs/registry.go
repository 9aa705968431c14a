package jobs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/daily/config"
	"github.com/grovetools/daily/errors"
	"github.com/grovetools/daily/logging"
	"github.com/grovetools/daily/pkg/process"
)

// Filter selects which jobs List returns.
type Filter int

const (
	// FilterRecent keeps running jobs plus anything finished in the last 24h.
	FilterRecent Filter = iota
	// FilterRunning keeps only running jobs.
	FilterRunning
	// FilterAll keeps everything on disk.
	FilterAll
)

// CreateRequest describes a worker to spawn and track.
type CreateRequest struct {
	TaskName       string
	Type           JobType
	TranscriptPath string

	// WorkerArgs is the daily subcommand invocation for the worker, without
	// the binary and without the trailing --job-id flag; the registry
	// appends the id it allocates.
	WorkerArgs []string

	// Dir is the working directory for the worker. Empty means inherit.
	Dir string
}

// Registry persists job records and owns worker spawning.
type Registry struct {
	dir string
	sup process.Supervisor
	log *logrus.Entry
}

// NewRegistry creates the registry rooted at the configured jobs directory.
func NewRegistry(cfg *config.Config) (*Registry, error) {
	return NewRegistryWithSupervisor(cfg, process.NewSupervisor())
}

// NewRegistryWithSupervisor creates a registry with a custom Supervisor.
// Tests inject fakes here so no real process is ever spawned.
func NewRegistryWithSupervisor(cfg *config.Config, sup process.Supervisor) (*Registry, error) {
	dir := cfg.JobsDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.StorageIO("create", dir, err)
	}

	return &Registry{
		dir: dir,
		sup: sup,
		log: logging.NewLogger("jobs"),
	}, nil
}

func (r *Registry) jobPath(id string) string {
	return filepath.Join(r.dir, id+".json")
}

// LogPath returns the log file for a job id.
func (r *Registry) LogPath(id string) string {
	return filepath.Join(r.dir, id+".log")
}

// Create allocates a job id, takes the dedup guard, persists the Running
// record, and spawns the worker. The guard being held by a live job is not
// an internal failure: the caller gets ErrCodeJobAlreadyRunning and nothing
// is spawned.
func (r *Registry) Create(req CreateRequest) (*Job, error) {
	if req.TaskName == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "task name is required")
	}
	if len(req.WorkerArgs) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "worker arguments are required")
	}

	id := GenerateJobID(req.TaskName)
	now := time.Now()
	date := now.Format("2006-01-02")

	acquired, err := r.acquireGuard(date, req.TaskName, id)
	if err != nil {
		return nil, errors.StorageIO("create", r.guardPath(date, req.TaskName), err)
	}
	if !acquired {
		r.log.WithFields(logrus.Fields{
			"task": req.TaskName,
			"date": date,
		}).Info("Duplicate job suppressed by guard")
		return nil, errors.JobAlreadyRunning(date, req.TaskName)
	}

	j := &Job{
		ID:             id,
		TaskName:       req.TaskName,
		Type:           req.Type,
		TranscriptPath: req.TranscriptPath,
		LogPath:        r.LogPath(id),
		StartedAt:      now,
		Status:         StatusRunning,
	}

	if err := r.save(j); err != nil {
		r.releaseGuard(j)
		return nil, err
	}

	exe, err := os.Executable()
	if err != nil {
		r.rollback(j)
		return nil, errors.SpawnFailed(req.TaskName, err)
	}

	args := append(append([]string{}, req.WorkerArgs...), "--job-id", id)
	pid, err := r.sup.Spawn(process.SpawnSpec{
		Name:    exe,
		Args:    args,
		Dir:     req.Dir,
		LogPath: j.LogPath,
	})
	if err != nil {
		r.rollback(j)
		return nil, errors.SpawnFailed(req.TaskName, err)
	}

	j.PID = pid
	if err := r.save(j); err != nil {
		// The worker is already detached and running; without its pid on the
		// record it can never be reconciled or killed through the registry.
		r.log.WithError(err).WithFields(logrus.Fields{
			"job":  id,
			"task": req.TaskName,
			"pid":  pid,
		}).Error("Spawned worker orphaned: could not record its pid")
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "worker spawned but its pid could not be recorded").
			WithDetail("job_id", id).
			WithDetail("pid", pid)
	}

	r.log.WithFields(logrus.Fields{
		"job":  id,
		"task": req.TaskName,
		"pid":  pid,
	}).Info("Spawned background job")

	return j, nil
}

// Track records a job for work the calling process performs itself, taking
// the same dedup guard as a spawned worker. Nothing is spawned and the log
// file stays empty; the caller owns the terminal transition through Complete
// or Fail before it exits.
func (r *Registry) Track(req CreateRequest) (*Job, error) {
	if req.TaskName == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "task name is required")
	}

	id := GenerateJobID(req.TaskName)
	now := time.Now()
	date := now.Format("2006-01-02")

	acquired, err := r.acquireGuard(date, req.TaskName, id)
	if err != nil {
		return nil, errors.StorageIO("create", r.guardPath(date, req.TaskName), err)
	}
	if !acquired {
		r.log.WithFields(logrus.Fields{
			"task": req.TaskName,
			"date": date,
		}).Info("Duplicate job suppressed by guard")
		return nil, errors.JobAlreadyRunning(date, req.TaskName)
	}

	j := &Job{
		ID:             id,
		PID:            os.Getpid(),
		TaskName:       req.TaskName,
		Type:           req.Type,
		TranscriptPath: req.TranscriptPath,
		LogPath:        r.LogPath(id),
		StartedAt:      now,
		Status:         StatusRunning,
	}

	if err := r.save(j); err != nil {
		r.releaseGuard(j)
		return nil, err
	}

	r.log.WithFields(logrus.Fields{
		"job":  id,
		"task": req.TaskName,
	}).Info("Tracking foreground job")

	return j, nil
}

// rollback removes a record that never got a worker.
func (r *Registry) rollback(j *Job) {
	os.Remove(r.jobPath(j.ID))
	r.releaseGuard(j)
}

// save writes the record through a temp file and rename, so readers never
// observe a half-written job.
func (r *Registry) save(j *Job) error {
	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to encode job record").
			WithDetail("job_id", j.ID)
	}

	tmp, err := os.CreateTemp(r.dir, j.ID+"-*.tmp")
	if err != nil {
		return errors.StorageIO("create", r.dir, err)
	}

	successful := false
	defer func() {
		if !successful {
			os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.StorageIO("write", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return errors.StorageIO("write", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), r.jobPath(j.ID)); err != nil {
		return errors.StorageIO("rename", r.jobPath(j.ID), err)
	}

	successful = true
	return nil
}

// Get loads one job record by id.
func (r *Registry) Get(id string) (*Job, error) {
	data, err := os.ReadFile(r.jobPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.JobNotFound(id)
		}
		return nil, errors.StorageIO("read", r.jobPath(id), err)
	}

	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to parse job record").
			WithDetail("job_id", id)
	}

	return &j, nil
}

// Complete marks a job successful. Terminal jobs are left untouched.
func (r *Registry) Complete(id string) error {
	return r.finish(id, StatusCompleted, "")
}

// Fail marks a job failed with a reason. Terminal jobs are left untouched.
func (r *Registry) Fail(id, reason string) error {
	return r.finish(id, StatusFailed, reason)
}

func (r *Registry) finish(id string, status JobStatus, reason string) error {
	j, err := r.Get(id)
	if err != nil {
		return err
	}

	if j.Status.IsTerminal() {
		r.log.WithFields(logrus.Fields{
			"job":    id,
			"status": string(j.Status),
		}).Warn("Job already finished, ignoring transition")
		return nil
	}

	now := time.Now()
	j.Status = status
	j.Error = reason
	j.FinishedAt = &now

	if err := r.save(j); err != nil {
		return err
	}

	r.releaseGuard(j)
	return nil
}

// List returns jobs matching the filter, newest first. Running records whose
// process is gone are reconciled to Failed on the way through.
func (r *Registry) List(filter Filter) ([]*Job, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, errors.StorageIO("read", r.dir, err)
	}

	cutoff := time.Now().Add(-24 * time.Hour)
	var out []*Job

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}

		j, err := r.Get(strings.TrimSuffix(name, ".json"))
		if err != nil {
			// Half-written or foreign file; skip rather than fail the listing.
			continue
		}

		r.reconcile(j)

		switch filter {
		case FilterRunning:
			if j.Status != StatusRunning {
				continue
			}
		case FilterRecent:
			if j.Status != StatusRunning && (j.FinishedAt == nil || j.FinishedAt.Before(cutoff)) {
				continue
			}
		}

		out = append(out, j)
	}

	sort.Slice(out, func(a, b int) bool {
		return out[a].StartedAt.After(out[b].StartedAt)
	})

	return out, nil
}

// reconcile flips a Running record whose process is gone to Failed.
func (r *Registry) reconcile(j *Job) {
	if j.Status != StatusRunning || r.sup.IsAlive(j.PID) {
		return
	}

	now := time.Now()
	j.Status = StatusFailed
	j.Error = "process vanished"
	j.FinishedAt = &now

	if err := r.save(j); err != nil {
		r.log.WithError(err).WithField("job", j.ID).Warn("Failed to reconcile vanished job")
		return
	}
	r.releaseGuard(j)
}

// Kill terminates a running job's process group and marks the record failed.
// Jobs that already finished are reported as such, not re-killed.
func (r *Registry) Kill(id string) (*Job, error) {
	j, err := r.Get(id)
	if err != nil {
		return nil, err
	}

	if j.Status != StatusRunning {
		return nil, errors.JobAlreadyFinished(id, j.Status.Display())
	}

	reason := "killed"
	if err := r.sup.Terminate(j.PID); err != nil {
		if r.sup.IsAlive(j.PID) {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to signal job").
				WithDetail("job_id", id).
				WithDetail("pid", j.PID)
		}
		reason = "process vanished"
	}

	if err := r.finish(id, StatusFailed, reason); err != nil {
		return nil, err
	}
	return r.Get(id)
}

// Cleanup removes terminal jobs older than the cutoff, never a running one.
// With dryRun the candidate set is returned without touching disk.
func (r *Registry) Cleanup(olderThanDays int, dryRun bool) ([]*Job, error) {
	all, err := r.List(FilterAll)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	var removed []*Job

	for _, j := range all {
		if j.Status == StatusRunning || !j.StartedAt.Before(cutoff) {
			continue
		}

		if !dryRun {
			if err := os.Remove(r.jobPath(j.ID)); err != nil && !os.IsNotExist(err) {
				return removed, errors.StorageIO("remove", r.jobPath(j.ID), err)
			}
			os.Remove(r.LogPath(j.ID))
			r.releaseGuard(j)
		}

		removed = append(removed, j)
	}

	return removed, nil
}
