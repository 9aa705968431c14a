// Package trigger decides what background work a hook event should
// enqueue. The decision functions are pure over the clock, the archive
// directory, and config; every side effect goes through the job registry,
// whose per-task guard makes repeated checks safe.
package trigger

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/moby/patternmatcher"
	"github.com/sirupsen/logrus"

	"github.com/grovetools/daily/config"
	"github.com/grovetools/daily/errors"
	"github.com/grovetools/daily/logging"
	"github.com/grovetools/daily/pkg/archive"
	"github.com/grovetools/daily/pkg/jobs"
	"github.com/grovetools/daily/pkg/paths"
	"github.com/grovetools/daily/state"
)

// stateKeyAutoSummarize remembers when the catch-up scan last ran, so
// SessionStart fires it at most once per day.
const stateKeyAutoSummarize = "last_auto_summarize_check"

// JobCreator is the slice of the job registry the scheduler needs.
type JobCreator interface {
	Create(req jobs.CreateRequest) (*jobs.Job, error)
	List(filter jobs.Filter) ([]*jobs.Job, error)
}

// Scheduler evaluates the auto-digest and auto-summarize conditions.
type Scheduler struct {
	cfg   *config.Config
	store *archive.Store
	jobs  JobCreator
	state *state.File
	log   *logrus.Entry
	now   func() time.Time
}

// NewScheduler wires a scheduler over the store and job registry. Trigger
// bookkeeping lives in the same storage root as the archives and jobs.
func NewScheduler(cfg *config.Config, store *archive.Store, registry JobCreator) *Scheduler {
	return &Scheduler{
		cfg:   cfg,
		store: store,
		jobs:  registry,
		state: state.At(cfg.StoragePath()),
		log:   logging.NewLogger("trigger"),
		now:   time.Now,
	}
}

// CheckAutoDigest enqueues a digest worker for every prior date that
// still has session files, once the configured digest time has passed.
// Dates whose digest exists but whose sessions were never cleaned up are
// included; their worker resolves as a fast recovery.
func (s *Scheduler) CheckAutoDigest() ([]*jobs.Job, error) {
	if !boolVal(s.cfg.Summarization.AutoDigestEnabled, true) {
		return nil, nil
	}

	now := s.now()
	if now.Before(clockToday(now, s.cfg.Summarization.DigestTime, 6, 0)) {
		return nil, nil
	}

	dates, err := s.store.ListDates()
	if err != nil {
		return nil, err
	}

	today := now.Format("2006-01-02")
	var created []*jobs.Job
	for _, d := range dates {
		if d.Date >= today || d.SessionCount == 0 {
			continue
		}

		job, err := s.jobs.Create(jobs.CreateRequest{
			TaskName:   "digest-" + d.Date,
			Type:       jobs.TypeManual,
			WorkerArgs: []string{"digest", "--date", d.Date},
		})
		if err != nil {
			if errors.GetCode(err) == errors.ErrCodeJobAlreadyRunning {
				s.log.WithField("date", d.Date).Debug("Digest already underway")
				continue
			}
			s.log.WithError(err).WithField("date", d.Date).Warn("Could not enqueue auto-digest")
			continue
		}
		s.log.WithFields(logrus.Fields{
			"date": d.Date,
			"job":  job.ID,
		}).Info("Enqueued auto-digest")
		created = append(created, job)
	}
	return created, nil
}

// AutoSummarizeOnSessionStart runs the catch-up scan at most once per
// day, after the configured time. The last-run instant is persisted so
// later sessions the same day skip the scan.
func (s *Scheduler) AutoSummarizeOnSessionStart() ([]*jobs.Job, error) {
	if !boolVal(s.cfg.Summarization.AutoSummarizeEnabled, true) {
		return nil, nil
	}

	now := s.now()
	trigger := clockToday(now, s.cfg.Summarization.AutoSummarizeTime, 6, 0)
	if now.Before(trigger) {
		return nil, nil
	}

	last, err := s.state.GetTime(stateKeyAutoSummarize)
	if err != nil {
		s.log.WithError(err).Warn("Could not read trigger state, scanning anyway")
	} else if !last.Before(trigger) {
		return nil, nil
	}

	created, scanErr := s.scanForOrphans(now)

	if err := s.state.SetTime(stateKeyAutoSummarize, now); err != nil {
		s.log.WithError(err).Warn("Could not persist trigger state")
	}
	return created, scanErr
}

// AutoSummarizeOnShow runs the scan on viewer open when configured to.
func (s *Scheduler) AutoSummarizeOnShow() ([]*jobs.Job, error) {
	if !boolVal(s.cfg.Summarization.AutoSummarizeEnabled, true) ||
		!s.cfg.Summarization.AutoSummarizeOnShow {
		return nil, nil
	}

	now := s.now()
	created, scanErr := s.scanForOrphans(now)

	if err := s.state.SetTime(stateKeyAutoSummarize, now); err != nil {
		s.log.WithError(err).Warn("Could not persist trigger state")
	}
	return created, scanErr
}

// scanForOrphans walks the Claude projects directory for transcripts that
// went quiet without being archived, and spawns summarize workers for
// them, newest-eligible last, capped per scan.
func (s *Scheduler) scanForOrphans(now time.Time) ([]*jobs.Job, error) {
	matcher, err := patternmatcher.New(s.cfg.Summarization.ExcludeTranscripts)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid,
			"invalid exclude_transcripts patterns")
	}

	transcripts, err := filepath.Glob(filepath.Join(paths.ProjectsDir(), "*", "*.jsonl"))
	if err != nil {
		// Only malformed patterns error here, and ours is fixed.
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "transcript scan failed")
	}

	today := now.Format("2006-01-02")
	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")
	inactive := time.Duration(s.cfg.Summarization.AutoSummarizeInactiveMinutes) * time.Minute

	archived := s.archivedTranscripts(today, yesterday)
	owned := s.ownedTranscripts()

	type candidate struct {
		path  string
		mtime time.Time
	}
	var candidates []candidate

	for _, path := range transcripts {
		name := filepath.Base(path)
		if excluded, _ := matcher.MatchesOrParentMatches(name); excluded {
			continue
		}

		fi, err := os.Stat(path)
		if err != nil {
			continue
		}
		mtime := fi.ModTime()
		mdate := mtime.Format("2006-01-02")
		if mdate != today && mdate != yesterday {
			continue
		}
		if now.Sub(mtime) < inactive {
			continue
		}
		if archived[path] || owned[path] {
			continue
		}

		candidates = append(candidates, candidate{path: path, mtime: mtime})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].mtime.Before(candidates[j].mtime)
	})

	maxPerRun := s.cfg.Summarization.AutoSummarizeMaxPerRun
	var created []*jobs.Job
	for _, c := range candidates {
		if maxPerRun > 0 && len(created) >= maxPerRun {
			break
		}

		task := TaskNameFor(c.path)
		job, err := s.jobs.Create(jobs.CreateRequest{
			TaskName:       task,
			Type:           jobs.TypeAutoSummarize,
			TranscriptPath: c.path,
			WorkerArgs:     []string{"summarize", "--transcript", c.path, "--task-name", task},
		})
		if err != nil {
			if errors.GetCode(err) == errors.ErrCodeJobAlreadyRunning {
				s.log.WithField("task", task).Debug("Summarize already underway")
				continue
			}
			s.log.WithError(err).WithField("transcript", c.path).
				Warn("Could not enqueue auto-summarize")
			continue
		}
		s.log.WithFields(logrus.Fields{
			"task": task,
			"job":  job.ID,
		}).Info("Enqueued auto-summarize")
		created = append(created, job)
	}
	return created, nil
}

// archivedTranscripts collects the transcript paths recorded in recent
// session frontmatter. A transcript that already has an archive is done.
func (s *Scheduler) archivedTranscripts(dates ...string) map[string]bool {
	seen := make(map[string]bool)
	for _, date := range dates {
		sessions, err := s.store.ReadSessions(date)
		if err != nil {
			s.log.WithError(err).WithField("date", date).Warn("Could not read sessions for scan")
			continue
		}
		for _, sess := range sessions {
			if sess.Meta.TranscriptPath != "" {
				seen[sess.Meta.TranscriptPath] = true
			}
		}
	}
	return seen
}

// ownedTranscripts collects transcripts a running job is already
// working on.
func (s *Scheduler) ownedTranscripts() map[string]bool {
	seen := make(map[string]bool)
	running, err := s.jobs.List(jobs.FilterRunning)
	if err != nil {
		s.log.WithError(err).Warn("Could not list running jobs for scan")
		return seen
	}
	for _, j := range running {
		if j.TranscriptPath != "" {
			seen[j.TranscriptPath] = true
		}
	}
	return seen
}

// TaskNameFor derives a stable task name from a transcript path, so
// repeated scans dedupe on the job guard instead of re-spawning.
func TaskNameFor(path string) string {
	project := strings.Trim(filepath.Base(filepath.Dir(path)), "-")
	if idx := strings.LastIndex(project, "-"); idx >= 0 {
		project = project[idx+1:]
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if len(stem) > 8 {
		stem = stem[:8]
	}

	if project == "" {
		return "auto-" + stem
	}
	return project + "-" + stem
}

// clockToday anchors an HH:MM config value to now's date. Unparsable
// values fall back to the given default.
func clockToday(now time.Time, clock string, defHour, defMin int) time.Time {
	h, m := defHour, defMin
	if parts := strings.SplitN(clock, ":", 2); len(parts) == 2 {
		ph, errH := strconv.Atoi(parts[0])
		pm, errM := strconv.Atoi(parts[1])
		if errH == nil && errM == nil && ph >= 0 && ph < 24 && pm >= 0 && pm < 60 {
			h, m = ph, pm
		}
	}
	return time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location())
}

func boolVal(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
