package hooks

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/daily/errors"
)

func TestReadInputDecodesPayload(t *testing.T) {
	payload := `{
		"session_id": "b2c4-ae01",
		"transcript_path": "/home/u/.claude/projects/-work-auth/b2c4.jsonl",
		"cwd": "/work/auth",
		"hook_event_name": "SessionEnd",
		"reason": "user_exit",
		"permission_mode": "default"
	}`

	in, err := ReadInput(strings.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, "b2c4-ae01", in.SessionID)
	assert.Equal(t, "/work/auth", in.Cwd)
	assert.Equal(t, EventSessionEnd, in.HookEventName)
	assert.Equal(t, ReasonUserExit, in.Reason)
}

func TestReadInputIgnoresUnknownFields(t *testing.T) {
	in, err := ReadInput(strings.NewReader(`{"hook_event_name":"SessionStart","source":"startup"}`))
	require.NoError(t, err)
	assert.Equal(t, EventSessionStart, in.HookEventName)
}

func TestReadInputEmptyPayload(t *testing.T) {
	for _, payload := range []string{"", "   \n\t"} {
		_, err := ReadInput(strings.NewReader(payload))
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeHookInput, errors.GetCode(err))
	}
}

func TestReadInputMalformedJSON(t *testing.T) {
	_, err := ReadInput(strings.NewReader(`{"session_id": `))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeHookInput, errors.GetCode(err))
}
