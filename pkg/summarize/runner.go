package summarize

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/daily/command"
	"github.com/grovetools/daily/config"
	"github.com/grovetools/daily/errors"
	"github.com/grovetools/daily/logging"
	"github.com/grovetools/daily/pkg/profiling"
)

// PromptRunner sends one prompt to the summarizer and returns the raw
// response text.
type PromptRunner interface {
	Run(ctx context.Context, prompt string) (string, error)
}

// Runner invokes the claude CLI in non-interactive print mode. Hooks are
// disabled via --settings and MCP config is pinned empty so the
// summarizer cannot recursively trigger archival of its own run.
type Runner struct {
	model   string
	builder *command.SafeBuilder
	log     *logrus.Entry
}

// NewRunner builds a runner for the configured model.
func NewRunner(cfg *config.Config) (*Runner, error) {
	return NewRunnerWithExecutor(cfg, &command.RealExecutor{})
}

// NewRunnerWithExecutor injects the process executor, for tests.
func NewRunnerWithExecutor(cfg *config.Config, executor command.Executor) (*Runner, error) {
	builder := command.NewSafeBuilderWithExecutor(executor)
	model := cfg.Summarization.Model
	if err := builder.Validate("model", model); err != nil {
		return nil, errors.ConfigInvalid(fmt.Sprintf("summarization.model: %v", err))
	}
	return &Runner{
		model:   model,
		builder: builder,
		log:     logging.NewLogger("summarize"),
	}, nil
}

// Run feeds the prompt to claude on stdin and returns its stdout. No
// timeout is enforced; summarization runs in a background worker, off
// any critical path, and may legitimately take a long time.
func (r *Runner) Run(ctx context.Context, prompt string) (string, error) {
	defer profiling.Start("summarize.RunPrompt").Stop()

	cmd, err := r.builder.Build(ctx, "claude",
		"--model", r.model,
		"--print",
		"--settings", `{"hooks":{}}`,
		"--no-session-persistence",
		"--strict-mcp-config",
	)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to build summarizer command")
	}

	execCmd := cmd.WithoutTimeout().Exec()
	execCmd.Stdin = strings.NewReader(prompt)

	var stdout, stderr bytes.Buffer
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	r.log.WithFields(logrus.Fields{
		"model":        r.model,
		"prompt_chars": len(prompt),
	}).Debug("Invoking summarizer")

	start := time.Now()
	if err := execCmd.Run(); err != nil {
		if execErr, ok := err.(*exec.Error); ok && execErr.Err == exec.ErrNotFound {
			return "", errors.CommandNotFound("claude")
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return "", errors.Wrap(err, errors.ErrCodeSummarizerFailed,
			fmt.Sprintf("claude exited with an error: %s", truncateText(detail, 500)))
	}

	r.log.WithField("duration", time.Since(start).Round(time.Millisecond).String()).
		Debug("Summarizer responded")

	return stdout.String(), nil
}
