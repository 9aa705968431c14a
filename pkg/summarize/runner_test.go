package summarize

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/daily/config"
	"github.com/grovetools/daily/errors"
)

// captureExecutor records the requested command and runs a substitute
// binary instead.
type captureExecutor struct {
	name string
	args []string

	bin     string
	binArgs []string
}

func (c *captureExecutor) Command(name string, args ...string) *exec.Cmd {
	c.name, c.args = name, args
	return exec.Command(c.bin, c.binArgs...)
}

func (c *captureExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	c.name, c.args = name, args
	return exec.CommandContext(ctx, c.bin, c.binArgs...)
}

func TestRunnerInvokesClaudeInPrintMode(t *testing.T) {
	cfg := &config.Config{}
	cfg.Summarization.Model = "sonnet"

	// cat echoes stdin back, proving the prompt rides stdin.
	executor := &captureExecutor{bin: "cat"}
	r, err := NewRunnerWithExecutor(cfg, executor)
	require.NoError(t, err)

	out, err := r.Run(context.Background(), "summarize this please")
	require.NoError(t, err)
	assert.Equal(t, "summarize this please", out)

	assert.Equal(t, "claude", executor.name)
	assert.Equal(t, []string{
		"--model", "sonnet",
		"--print",
		"--settings", `{"hooks":{}}`,
		"--no-session-persistence",
		"--strict-mcp-config",
	}, executor.args)
}

func TestRunnerFailureCarriesStderr(t *testing.T) {
	cfg := &config.Config{}
	cfg.Summarization.Model = "sonnet"

	executor := &captureExecutor{bin: "sh", binArgs: []string{"-c", "echo quota exceeded >&2; exit 3"}}
	r, err := NewRunnerWithExecutor(cfg, executor)
	require.NoError(t, err)

	_, err = r.Run(context.Background(), "prompt")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSummarizerFailed, errors.GetCode(err))
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestNewRunnerRejectsUnsafeModel(t *testing.T) {
	cfg := &config.Config{}
	cfg.Summarization.Model = "sonnet; rm -rf /"

	_, err := NewRunnerWithExecutor(cfg, &captureExecutor{bin: "cat"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigInvalid, errors.GetCode(err))
}
