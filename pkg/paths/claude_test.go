package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaudeDirOverride(t *testing.T) {
	t.Setenv("CLAUDE_CONFIG_DIR", "/opt/claude")

	assert.Equal(t, "/opt/claude", ClaudeDir())
	assert.Equal(t, filepath.Join("/opt/claude", "projects"), ProjectsDir())
}

func TestClaudeDirDefault(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CLAUDE_CONFIG_DIR", "")
	t.Setenv("HOME", home)

	assert.Equal(t, filepath.Join(home, ".claude"), ClaudeDir())
}

func TestLocalClaudeDir(t *testing.T) {
	assert.Equal(t, "/work/project/.claude", LocalClaudeDir("/work/project"))
}

func TestFileHelpers(t *testing.T) {
	root := "/home/dev/.claude"

	assert.Equal(t, filepath.Join(root, "settings.json"), SettingsFile(root))
	assert.Equal(t, filepath.Join(root, "hooks"), HooksDir(root))
	assert.Equal(t, filepath.Join(root, "commands"), CommandsDir(root))
	assert.Equal(t, filepath.Join(root, "skills"), SkillsDir(root))
}

func TestEnsureDirs(t *testing.T) {
	root := filepath.Join(t.TempDir(), ".claude")

	require.NoError(t, EnsureDirs(root))

	for _, dir := range []string{HooksDir(root), CommandsDir(root)} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
