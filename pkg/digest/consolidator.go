package digest

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/daily/errors"
	"github.com/grovetools/daily/logging"
	"github.com/grovetools/daily/pkg/archive"
)

// Consolidator folds a date's session archives into its daily digest.
//
// The run is idempotent: session names already in the digest's provenance
// list are never re-summarized. Sessions are removed only after the digest
// has been renamed into place, so a crash between the two steps leaves a
// state the next run recognizes and finishes.
type Consolidator struct {
	store *archive.Store
	synth Synthesizer
	log   *logrus.Entry
	now   func() time.Time
}

// NewConsolidator wires a consolidator over a store and a synthesizer.
func NewConsolidator(store *archive.Store, synth Synthesizer) *Consolidator {
	return &Consolidator{
		store: store,
		synth: synth,
		log:   logging.NewLogger("digest"),
		now:   time.Now,
	}
}

// Run consolidates one date. With force set, the digest is re-synthesized
// even when provenance says nothing is new; force requires an existing
// digest or at least one session file.
func (c *Consolidator) Run(ctx context.Context, date string, force bool) (*Result, error) {
	if err := archive.ValidateDate(date); err != nil {
		return nil, err
	}

	sessions, err := c.store.ReadSessions(date)
	if err != nil {
		return nil, err
	}
	existing, err := c.store.ReadDigest(date)
	if err != nil {
		return nil, err
	}

	fresh := unconsumed(sessions, existing)

	switch {
	case len(sessions) == 0 && existing == nil:
		if force {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				fmt.Sprintf("nothing to regenerate for %s: no digest and no sessions", date))
		}
		return &Result{Outcome: OutcomeNothing, Date: date}, nil

	case len(sessions) == 0 && !force:
		return &Result{Outcome: OutcomeNothing, Date: date, Digest: existing}, nil

	case len(fresh) == 0 && len(sessions) > 0 && !force:
		// A previous run wrote the digest but died before the delete.
		names := sessionNames(sessions)
		if _, err := c.store.RemoveSessions(date, names); err != nil {
			return nil, err
		}
		c.log.WithFields(logrus.Fields{
			"date":     date,
			"sessions": len(names),
		}).Info("Recovered interrupted digest run")
		return &Result{Outcome: OutcomeRecovered, Date: date, Consumed: names, Digest: existing}, nil
	}

	// Forced runs feed every session still on disk back through the
	// synthesizer; normal runs only the unconsumed ones.
	input := fresh
	if force {
		input = sessions
	}

	now := c.now()
	req := Request{
		Date:       date,
		Period:     PeriodOf(now),
		Existing:   existing,
		Sessions:   input,
		Regenerate: force && len(input) == 0,
	}

	syn, err := c.synth.SynthesizeDaily(ctx, req)
	if err != nil {
		return nil, err
	}

	d := c.buildDigest(date, now, existing, sessions, fresh, req.Period, syn)
	if _, err := c.store.WriteDigest(date, d); err != nil {
		return nil, err
	}

	consumed := sessionNames(sessions)
	if len(consumed) > 0 {
		if _, err := c.store.RemoveSessions(date, consumed); err != nil {
			// The digest is durable; leftover files are reclaimed by the
			// recovery branch on the next run.
			c.log.WithError(err).WithField("date", date).
				Warn("Digest written but session cleanup failed")
		}
	}

	c.parkSuggestions(date, now, syn)

	c.log.WithFields(logrus.Fields{
		"date":     date,
		"sessions": len(input),
		"force":    force,
	}).Info("Consolidated daily digest")

	return &Result{Outcome: OutcomeDigested, Date: date, Consumed: consumed, Digest: d}, nil
}

// buildDigest merges the synthesis with the prior digest's provenance.
func (c *Consolidator) buildDigest(date string, now time.Time, existing *archive.Digest,
	sessions, fresh []*archive.SessionFile, period string, syn *Synthesis) *archive.Digest {

	d := archive.NewDigest(date)
	if existing != nil {
		d.Sessions = append(d.Sessions, existing.Sessions...)
		d.Periods = append(d.Periods, existing.Periods...)
		d.SessionDetails = existing.SessionDetails
	}
	d.DigestedAt = now

	for _, s := range fresh {
		d.SessionDetails = appendDetail(d.SessionDetails, s, period)
	}
	d.AddSessions(sessionNames(sessions))
	if len(sessions) > 0 {
		d.AddPeriod(period)
	}

	if overview := syn.Overview; overview != "" {
		d.Overview = overview
	}
	d.Insights = formatList(syn.Insights)
	d.TomorrowFocus = formatList(syn.TomorrowFocus)
	return d
}

// parkSuggestions writes skill and command candidates into the pending
// queue. Failures are logged and do not fail the digest: the digest file
// is already durable at this point.
func (c *Consolidator) parkSuggestions(date string, now time.Time, syn *Synthesis) {
	park := func(kind string, sug SkillSuggestion) {
		if sug.Name == "" || sug.Content == "" {
			return
		}
		p := &archive.PendingSkill{
			Name:        sug.Name,
			Kind:        kind,
			Description: sug.Description,
			ExtractedAt: now,
			Body:        sug.Content,
		}
		if _, err := c.store.WritePendingSkill(date, p); err != nil {
			c.log.WithError(err).WithField("name", sug.Name).
				Warn("Could not park suggestion for review")
		}
	}

	for _, s := range syn.Skills {
		park(archive.KindSkill, s)
	}
	for _, cmd := range syn.Commands {
		park(archive.KindCommand, cmd)
	}
}

func appendDetail(details string, s *archive.SessionFile, period string) string {
	line := fmt.Sprintf("- **%s** (%s)", s.Name, period)
	if summary := firstSummaryLine(s.Content); summary != "" {
		line += ": " + summary
	}
	if details == "" {
		return line
	}
	return details + "\n" + line
}

func sessionNames(sessions []*archive.SessionFile) []string {
	names := make([]string, 0, len(sessions))
	for _, s := range sessions {
		names = append(names, s.Name)
	}
	return names
}

func unconsumed(sessions []*archive.SessionFile, existing *archive.Digest) []*archive.SessionFile {
	if existing == nil {
		return sessions
	}
	var fresh []*archive.SessionFile
	for _, s := range sessions {
		if !existing.HasSession(s.Name) {
			fresh = append(fresh, s)
		}
	}
	return fresh
}
