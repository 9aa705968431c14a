// Package git answers the single question the archiver has about a
// workspace: which branch a session ran on.
package git

import (
	"context"
	"strings"

	"github.com/grovetools/daily/command"
)

// CurrentBranch returns the checked-out branch for a directory, or "" when
// the directory is not inside a git repository. Sessions outside a repo are
// normal, so absence is silence rather than an error.
func CurrentBranch(ctx context.Context, dir string) string {
	cmd, err := command.NewSafeBuilder().Build(ctx, "git", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return ""
	}

	execCmd := cmd.Exec()
	execCmd.Dir = dir

	output, err := execCmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}
