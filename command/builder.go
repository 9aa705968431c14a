package command

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

const (
	// DefaultTimeout is the default command execution timeout
	DefaultTimeout = 5 * time.Minute

	// MaxTimeout is the maximum allowed timeout
	MaxTimeout = 30 * time.Minute
)

// SafeBuilder provides secure command execution with validation
type SafeBuilder struct {
	defaultTimeout time.Duration
	validators     map[string]func(string) error
	executor       Executor
}

// NewSafeBuilder creates a new SafeBuilder instance with a RealExecutor
func NewSafeBuilder() *SafeBuilder {
	return NewSafeBuilderWithExecutor(&RealExecutor{})
}

// NewSafeBuilderWithExecutor creates a new SafeBuilder with a custom Executor
func NewSafeBuilderWithExecutor(exec Executor) *SafeBuilder {
	return &SafeBuilder{
		defaultTimeout: DefaultTimeout,
		validators:     makeDefaultValidators(),
		executor:       exec,
	}
}

// makeDefaultValidators returns the default set of validators
func makeDefaultValidators() map[string]func(string) error {
	return map[string]func(string) error{
		"taskName": validateTaskName,
		"fileName": validateFileName,
		"model":    validateModel,
		"date":     validateDate,
	}
}

// validateTaskName ensures task names are safe to pass on a command line
func validateTaskName(name string) error {
	if name == "" {
		return fmt.Errorf("task name cannot be empty")
	}

	// Task names: letters, digits, underscores, hyphens
	validName := regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)
	if !validName.MatchString(name) {
		return fmt.Errorf("invalid task name: %s (must contain only letters, digits, underscores, and hyphens)", name)
	}

	if len(name) > 64 {
		return fmt.Errorf("task name too long: %s (max 64 characters)", name)
	}

	return nil
}

// validateFileName ensures file paths are safe
func validateFileName(path string) error {
	if path == "" {
		return fmt.Errorf("file path cannot be empty")
	}

	// Prevent directory traversal
	if strings.Contains(path, "..") {
		return fmt.Errorf("file path cannot contain '..'")
	}

	// Prevent command injection via shell metacharacters
	if strings.ContainsAny(path, ";|&$`") {
		return fmt.Errorf("file path contains invalid characters")
	}

	return nil
}

// validateModel ensures model names are safe
func validateModel(model string) error {
	if model == "" {
		return fmt.Errorf("model name cannot be empty")
	}

	// Model slugs: alphanumeric, dots, underscores, hyphens
	validModel := regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)
	if !validModel.MatchString(model) {
		return fmt.Errorf("invalid model name: %s", model)
	}

	return nil
}

// validateDate ensures dates are in YYYY-MM-DD form
func validateDate(date string) error {
	if date == "" {
		return fmt.Errorf("date cannot be empty")
	}

	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid date: %s (expected YYYY-MM-DD)", date)
	}

	return nil
}

// Command represents a safe command configuration
type Command struct {
	ctx      context.Context
	name     string
	args     []string
	timeout  time.Duration // 0 means no deadline beyond the caller's context
	executor Executor
}

// Build creates a new command with validation. The deadline is applied
// when the command is materialized by Exec, so WithTimeout and
// WithoutTimeout can still change it.
func (sb *SafeBuilder) Build(ctx context.Context, name string, args ...string) (*Command, error) {
	// Validate command name
	if name == "" {
		return nil, fmt.Errorf("command name cannot be empty")
	}

	return &Command{
		ctx:      ctx,
		name:     name,
		args:     args,
		timeout:  sb.defaultTimeout,
		executor: sb.executor,
	}, nil
}

// WithTimeout sets a custom timeout for the command
func (c *Command) WithTimeout(timeout time.Duration) *Command {
	if timeout > MaxTimeout {
		timeout = MaxTimeout
	}

	c.timeout = timeout
	return c
}

// WithoutTimeout removes the execution deadline; the command is bounded
// only by the caller's context. The summarizer subprocess needs this,
// it may legitimately run longer than any sane cap.
func (c *Command) WithoutTimeout() *Command {
	c.timeout = 0
	return c
}

// Validate validates specific arguments
func (sb *SafeBuilder) Validate(argType string, value string) error {
	validator, exists := sb.validators[argType]
	if !exists {
		return fmt.Errorf("no validator for argument type: %s", argType)
	}

	return validator(value)
}

// Exec creates and returns an exec.Cmd
func (c *Command) Exec() *exec.Cmd {
	ctx := c.ctx
	if c.timeout > 0 {
		timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
		// The cancel is released when the deadline fires; the command
		// outlives this call, so it cannot be deferred here.
		_ = cancel
		ctx = timeoutCtx
	}
	return c.executor.CommandContext(ctx, c.name, c.args...) //nolint:gosec // SafeBuilder provides validation
}
