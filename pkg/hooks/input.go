// Package hooks receives Claude Code lifecycle events and turns them
// into background work. The editor blocks on the hook process exiting,
// so handlers do nothing but decode, decide, and spawn.
package hooks

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/grovetools/daily/errors"
)

// Hook event names as Claude Code sends them.
const (
	EventSessionStart = "SessionStart"
	EventSessionEnd   = "SessionEnd"
)

// ReasonUserExit marks a session the user ended deliberately. Other end
// reasons (clear, restart) do not archive.
const ReasonUserExit = "user_exit"

// Input is the JSON payload Claude Code writes to a hook's stdin.
type Input struct {
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
	Cwd            string `json:"cwd"`
	HookEventName  string `json:"hook_event_name"`
	Reason         string `json:"reason,omitempty"`
	PermissionMode string `json:"permission_mode,omitempty"`
}

// ReadInput decodes a hook payload from r.
func ReadInput(r io.Reader) (*Input, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.HookInput(err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New(errors.ErrCodeHookInput, "empty hook payload")
	}

	var in Input
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, errors.HookInput(err)
	}
	return &in, nil
}
