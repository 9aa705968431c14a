package hooks

import (
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/daily/config"
	"github.com/grovetools/daily/errors"
	"github.com/grovetools/daily/logging"
	"github.com/grovetools/daily/pkg/jobs"
)

// TriggerRunner is the slice of the trigger scheduler SessionStart needs.
type TriggerRunner interface {
	CheckAutoDigest() ([]*jobs.Job, error)
	AutoSummarizeOnSessionStart() ([]*jobs.Job, error)
}

// JobCreator spawns background workers.
type JobCreator interface {
	Create(req jobs.CreateRequest) (*jobs.Job, error)
}

// Gateway handles decoded hook events. Every failure is logged and
// swallowed: the editor must never see an archive problem.
type Gateway struct {
	cfg      *config.Config
	triggers TriggerRunner
	jobs     JobCreator
	log      *logrus.Entry
	now      func() time.Time
}

// NewGateway wires a gateway over the trigger scheduler and job registry.
func NewGateway(cfg *config.Config, triggers TriggerRunner, registry JobCreator) *Gateway {
	return &Gateway{
		cfg:      cfg,
		triggers: triggers,
		jobs:     registry,
		log:      logging.NewLogger("hooks"),
		now:      time.Now,
	}
}

// HandleSessionStart runs the scheduled-work checks for a new session.
func (g *Gateway) HandleSessionStart(in *Input) {
	if !enabled(g.cfg.Hooks.EnableSessionStart) {
		return
	}
	g.log.WithField("session", in.SessionID).Debug("Session started")

	if _, err := g.triggers.CheckAutoDigest(); err != nil {
		g.log.WithError(err).Warn("Auto-digest check failed")
	}
	if _, err := g.triggers.AutoSummarizeOnSessionStart(); err != nil {
		g.log.WithError(err).Warn("Auto-summarize check failed")
	}
}

// HandleSessionEnd archives a deliberately ended session in the
// background. A nil return means nothing was spawned, which is not an
// error: most session ends are restarts or clears we ignore.
func (g *Gateway) HandleSessionEnd(in *Input) *jobs.Job {
	if !enabled(g.cfg.Hooks.EnableSessionEnd) {
		return nil
	}
	if in.Reason != ReasonUserExit {
		g.log.WithFields(logrus.Fields{
			"session": in.SessionID,
			"reason":  in.Reason,
		}).Debug("Ignoring session end")
		return nil
	}
	if in.TranscriptPath == "" {
		g.log.WithField("session", in.SessionID).Debug("Session end without a transcript")
		return nil
	}

	task := endTaskName(in.Cwd, g.now())
	job, err := g.jobs.Create(jobs.CreateRequest{
		TaskName:       task,
		Type:           jobs.TypeSessionEnd,
		TranscriptPath: in.TranscriptPath,
		WorkerArgs:     []string{"summarize", "--transcript", in.TranscriptPath, "--task-name", task},
	})
	if err != nil {
		if errors.GetCode(err) == errors.ErrCodeJobAlreadyRunning {
			g.log.WithField("task", task).Debug("Archive already underway")
		} else {
			g.log.WithError(err).WithField("task", task).Warn("Could not spawn session archive")
		}
		return nil
	}

	g.log.WithFields(logrus.Fields{
		"task": task,
		"job":  job.ID,
	}).Info("Archiving session")
	return job
}

// endTaskName derives the job task name from the session's working
// directory and end time, e.g. "my-project-153042".
func endTaskName(cwd string, now time.Time) string {
	base := filepath.Base(cwd)
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = "session"
	}
	return base + "-" + now.Format("150405")
}

func enabled(p *bool) bool {
	return p == nil || *p
}
