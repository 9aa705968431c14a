package jobs

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/grovetools/daily/util/sanitize"
)

// guardPath returns the dedup guard file for a (date, task) pair. The guard
// holds the owning job id so stale guards can be traced back to their job.
func (r *Registry) guardPath(date, taskName string) string {
	name := date + "-" + sanitize.ForJobID(taskName) + ".guard"
	return filepath.Join(r.dir, name)
}

// acquireGuard takes the (date, task) guard for jobID. O_EXCL makes the
// create atomic: two concurrent hooks for the same task race on the same
// name and exactly one wins. A stale guard (owner record gone, terminal, or
// with a dead pid) is reaped once and the acquire retried.
func (r *Registry) acquireGuard(date, taskName, jobID string) (bool, error) {
	path := r.guardPath(date, taskName)

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			_, werr := f.WriteString(jobID + "\n")
			cerr := f.Close()
			if werr != nil || cerr != nil {
				os.Remove(path)
				if werr != nil {
					return false, werr
				}
				return false, cerr
			}
			return true, nil
		}

		if !os.IsExist(err) {
			return false, err
		}

		// Someone holds the guard. Only reap it when the owning job can no
		// longer be running.
		if attempt > 0 || !r.guardIsStale(path) {
			return false, nil
		}
		os.Remove(path)
	}

	return false, nil
}

// guardGrace is how long a guard whose owner cannot be resolved is presumed
// held. A concurrent Create sits in exactly that state between its O_EXCL
// open and the owner-id write, and again between that write and the job
// record landing, so reaping on sight would let both creators through; only
// a guard unresolved past the window is debris from a crashed creator.
const guardGrace = 10 * time.Second

// guardIsStale reports whether the guard's owning job is gone, terminal, or
// has a dead process.
func (r *Registry) guardIsStale(path string) bool {
	data, err := os.ReadFile(path)
	ownerID := ""
	if err == nil {
		ownerID = strings.TrimSpace(string(data))
	}

	if ownerID == "" {
		return r.guardOutlivedGrace(path)
	}

	owner, err := r.Get(ownerID)
	if err != nil {
		// The id is written before the job record; a record that never
		// shows up within the window means the creator died in between.
		return r.guardOutlivedGrace(path)
	}
	if owner.Status.IsTerminal() {
		return true
	}
	if owner.PID == 0 {
		// Record saved, worker not spawned yet. Same in-flight window.
		return r.guardOutlivedGrace(path)
	}
	return !r.sup.IsAlive(owner.PID)
}

// guardOutlivedGrace reports whether a guard whose owner cannot be resolved
// has existed longer than the in-flight creator window.
func (r *Registry) guardOutlivedGrace(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		// Guard vanished under us; the retry's O_EXCL settles it.
		return true
	}
	return time.Since(info.ModTime()) > guardGrace
}

// releaseGuard removes the guard for a job, if it is still the owner.
func (r *Registry) releaseGuard(j *Job) {
	path := r.guardPath(j.StartedDate(), j.TaskName)

	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	if strings.TrimSpace(string(data)) != j.ID {
		return
	}
	os.Remove(path)
}
