// Package paths resolves the Claude Code directories daily reads and writes.
//
// Resolution order for the Claude root:
// 1. CLAUDE_CONFIG_DIR (explicit override)
// 2. ~/.claude
package paths

import (
	"os"
	"path/filepath"
)

// ClaudeDir returns the Claude Code configuration root.
func ClaudeDir() string {
	if dir := os.Getenv("CLAUDE_CONFIG_DIR"); dir != "" {
		return dir
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".claude")
	}
	return ""
}

// ProjectsDir returns the directory holding per-project transcript folders.
// Each subdirectory corresponds to one working directory and contains the
// session transcripts (*.jsonl) recorded there.
func ProjectsDir() string {
	root := ClaudeDir()
	if root == "" {
		return ""
	}
	return filepath.Join(root, "projects")
}

// LocalClaudeDir returns the project-local Claude directory for cwd.
// Used when hooks are installed for a single project instead of globally.
func LocalClaudeDir(cwd string) string {
	return filepath.Join(cwd, ".claude")
}

// SettingsFile returns the settings.json path under a Claude root.
func SettingsFile(claudeDir string) string {
	return filepath.Join(claudeDir, "settings.json")
}

// HooksDir returns the hook-config directory under a Claude root.
func HooksDir(claudeDir string) string {
	return filepath.Join(claudeDir, "hooks")
}

// CommandsDir returns the slash-command directory under a Claude root.
func CommandsDir(claudeDir string) string {
	return filepath.Join(claudeDir, "commands")
}

// SkillsDir returns the skill library directory under a Claude root.
func SkillsDir(claudeDir string) string {
	return filepath.Join(claudeDir, "skills")
}

// EnsureDirs creates the hook and command directories under a Claude root.
func EnsureDirs(claudeDir string) error {
	dirs := []string{
		HooksDir(claudeDir),
		CommandsDir(claudeDir),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
