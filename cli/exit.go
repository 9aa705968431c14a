package cli

import (
	stderrors "errors"
	"strings"

	"github.com/spf13/cobra"
)

// UsageError marks a failure in how the command was invoked rather than in
// what it tried to do. main maps it to exit status 2.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

// WrapUsageErrors installs a flag error handler on root so flag parse
// failures anywhere in the tree surface as UsageError. Cobra resolves the
// handler through the parent chain, so one call on the root covers every
// subcommand.
func WrapUsageErrors(root *cobra.Command) {
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})
}

// IsUsageError reports whether err is an invocation mistake. Unknown
// subcommands and argument-count failures come out of cobra as plain
// errors, so those are matched by message shape.
func IsUsageError(err error) bool {
	if err == nil {
		return false
	}
	var ue *UsageError
	if stderrors.As(err, &ue) {
		return true
	}
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "accepts ") ||
		strings.HasPrefix(msg, "requires at least") ||
		strings.HasPrefix(msg, "invalid argument")
}

// ExitCode maps the error returned by Execute to a process exit status:
// 0 for success, 2 for usage errors, 1 for everything else.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case IsUsageError(err):
		return 2
	default:
		return 1
	}
}
