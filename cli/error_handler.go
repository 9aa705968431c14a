package cli

import (
	"fmt"
	"os"

	"github.com/grovetools/daily/errors"
	"github.com/grovetools/daily/tui/theme"
)

// ErrorHandler renders command failures with code-specific guidance.
type ErrorHandler struct {
	Verbose bool
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
	}
}

// Handle prints a user-facing message for err and returns it unchanged.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}

	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(os.Stderr, "%s No configuration found. Run 'daily init' to create one.\n", theme.IconError)

	case errors.ErrCodeConfigInvalid, errors.ErrCodeConfigValidation:
		fmt.Fprintf(os.Stderr, "%s %v\n", theme.IconError, err)
		fmt.Fprintf(os.Stderr, "Run 'daily config validate' to see every problem at once.\n")

	case errors.ErrCodeJobNotFound:
		fmt.Fprintf(os.Stderr, "%s %v\n", theme.IconError, err)
		fmt.Fprintf(os.Stderr, "Run 'daily jobs list --all' to see known jobs.\n")

	case errors.ErrCodeJobAlreadyRunning:
		// Duplicate work is a distinguished non-error for callers, but a
		// human asked for this one explicitly, so say why nothing happened.
		fmt.Fprintf(os.Stderr, "%s %v\n", theme.IconWarning, err)
		fmt.Fprintf(os.Stderr, "Watch it with 'daily jobs watch' or wait for it to finish.\n")

	case errors.ErrCodeJobAlreadyFinished:
		fmt.Fprintf(os.Stderr, "%s %v\n", theme.IconError, err)

	case errors.ErrCodeTranscriptNotFound:
		if ge, ok := err.(*errors.GroveError); ok {
			fmt.Fprintf(os.Stderr, "%s Transcript not found: %v\n", theme.IconError, ge.Details["path"])
		} else {
			fmt.Fprintf(os.Stderr, "%s %v\n", theme.IconError, err)
		}
		fmt.Fprintf(os.Stderr, "The session may have been cleaned up by the editor already.\n")

	case errors.ErrCodeSummarizerFailed, errors.ErrCodeSummarizerOutput:
		fmt.Fprintf(os.Stderr, "%s %v\n", theme.IconError, err)
		fmt.Fprintf(os.Stderr, "The worker log has the full output: 'daily jobs log <id>'.\n")

	case errors.ErrCodeDateInvalid:
		fmt.Fprintf(os.Stderr, "%s %v\n", theme.IconError, err)
		fmt.Fprintf(os.Stderr, "Dates are YYYY-MM-DD, or the shorthands 'today', 'yesterday', 'yest'.\n")

	case errors.ErrCodeSpawnFailed:
		fmt.Fprintf(os.Stderr, "%s %v\n", theme.IconError, err)
		fmt.Fprintf(os.Stderr, "No job record was created; fix the cause and retry.\n")

	default:
		fmt.Fprintf(os.Stderr, "%s %v\n", theme.IconError, err)

		if h.Verbose {
			if ge, ok := err.(*errors.GroveError); ok {
				fmt.Fprintf(os.Stderr, "\nError details:\n%s\n", ge.ToJSON())
			}
		}
	}

	return err
}
