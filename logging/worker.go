package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// WorkerLog narrates a detached worker's progress. Lines go to the
// worker's stdout, which the registry wires to the job's log file, so
// `jobs log --follow` and the watch view stream them as the worker runs.
// Every line is mirrored as a structured entry on the component logger.
//
// Markers are plain ASCII: job logs are files first and terminals second.
type WorkerLog struct {
	out        io.Writer
	structured *logrus.Entry
}

// NewWorkerLog creates a worker log for a component, writing to stdout.
func NewWorkerLog(component string) *WorkerLog {
	return &WorkerLog{
		out:        os.Stdout,
		structured: NewLogger(component),
	}
}

// WithOutput redirects narration, primarily for tests.
func (w *WorkerLog) WithOutput(out io.Writer) *WorkerLog {
	w.out = out
	return w
}

// Step reports the stage the worker just entered.
func (w *WorkerLog) Step(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(w.out, "-> %s\n", msg)
	w.structured.Info(msg)
}

// Detail reports a subordinate fact under the current step, indented so
// the log reads as an outline.
func (w *WorkerLog) Detail(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(w.out, "   %s\n", msg)
	w.structured.Debug(msg)
}

// Warn reports a recoverable problem the worker is continuing past.
func (w *WorkerLog) Warn(err error, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		fmt.Fprintf(w.out, "!! %s: %v\n", msg, err)
		w.structured.WithError(err).Warn(msg)
		return
	}
	fmt.Fprintf(w.out, "!! %s\n", msg)
	w.structured.Warn(msg)
}

// Done closes the narration with the worker's outcome.
func (w *WorkerLog) Done(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(w.out, "ok %s\n", msg)
	w.structured.WithField("status", "success").Info(msg)
}

// Fail closes the narration with the failure that ends the job. The
// same reason lands in the job record via Registry.Fail; the log line
// carries it for readers tailing the file.
func (w *WorkerLog) Fail(err error, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		fmt.Fprintf(w.out, "error %s: %v\n", msg, err)
		w.structured.WithError(err).Error(msg)
		return
	}
	fmt.Fprintf(w.out, "error %s\n", msg)
	w.structured.Error(msg)
}
