package logging

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newTestWorkerLog(out io.Writer) *WorkerLog {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &WorkerLog{
		out:        out,
		structured: logger.WithField("component", "test"),
	}
}

func TestWorkerLogNarration(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWorkerLog(&buf)

	w.Step("Summarizing '%s'", "fix-login")
	w.Detail("transcript: %s", "/tmp/x.jsonl")
	w.Done("archived 1 session")

	out := buf.String()
	assert.Contains(t, out, "-> Summarizing 'fix-login'\n")
	assert.Contains(t, out, "   transcript: /tmp/x.jsonl\n")
	assert.Contains(t, out, "ok archived 1 session\n")
}

func TestWorkerLogWarnWithAndWithoutError(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWorkerLog(&buf)

	w.Warn(errors.New("disk full"), "could not park skill")
	w.Warn(nil, "no branch recorded")

	out := buf.String()
	assert.Contains(t, out, "!! could not park skill: disk full\n")
	assert.Contains(t, out, "!! no branch recorded\n")
}

func TestWorkerLogFailCarriesReason(t *testing.T) {
	var buf bytes.Buffer
	w := newTestWorkerLog(&buf)

	w.Fail(errors.New("model exited 1"), "summarize failed")

	assert.Contains(t, buf.String(), "error summarize failed: model exited 1\n")
}
