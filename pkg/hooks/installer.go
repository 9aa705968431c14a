package hooks

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/daily/config"
	"github.com/grovetools/daily/errors"
	"github.com/grovetools/daily/logging"
	"github.com/grovetools/daily/pkg/paths"
)

// hookCommands maps each handled event to the CLI invocation Claude Code
// should run for it. The binary is expected on PATH.
var hookCommands = map[string]string{
	EventSessionStart: "daily hook session-start",
	EventSessionEnd:   "daily hook session-end",
}

// defaultConfigYAML is written on first install so users have a
// commented starting point instead of an empty directory.
const defaultConfigYAML = `# daily configuration
# Remove the leading '#' from a line to override the default.

storage:
  # Where archives, jobs, and logs live.
  # path: ~/.claude/daily

summarization:
  # Model passed to the claude CLI.
  # model: sonnet

  # Consolidate the previous day once a session starts after this time.
  # digest_time: "06:00"

  # Scan for sessions that ended without a clean hook signal.
  # auto_summarize_enabled: true
  # auto_summarize_time: "06:00"
  # auto_summarize_inactive_minutes: 30
  # auto_summarize_max_per_run: 3
  # exclude_transcripts:
  #   - agent-*

  # Summary language: en or zh.
  # summary_language: en

hooks:
  # enable_session_start: true
  # enable_session_end: true
  # background_timeout: 300
`

// Installer sets up the storage skeleton, a starter config, and the
// hook registration in Claude Code's settings.
type Installer struct {
	cfg *config.Config
	log *logrus.Entry
}

// NewInstaller returns an installer for the given configuration.
func NewInstaller(cfg *config.Config) *Installer {
	return &Installer{cfg: cfg, log: logging.NewLogger("install")}
}

// Run performs the full installation against a Claude root. Running it
// again changes nothing.
func (i *Installer) Run(claudeDir string) error {
	if err := i.ensureStorage(); err != nil {
		return err
	}
	if err := i.ensureConfig(); err != nil {
		return err
	}
	if err := paths.EnsureDirs(claudeDir); err != nil {
		return errors.StorageIO("create", claudeDir, err)
	}
	return i.MergeSettings(paths.SettingsFile(claudeDir))
}

func (i *Installer) ensureStorage() error {
	dirs := []string{
		i.cfg.StoragePath(),
		i.cfg.JobsDir(),
		filepath.Join(i.cfg.StoragePath(), "logs"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.StorageIO("create", dir, err)
		}
	}
	return nil
}

// ensureConfig writes a commented default config unless one exists.
func (i *Installer) ensureConfig() error {
	path, found := config.FindConfigFile()
	if found {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.StorageIO("create", filepath.Dir(path), err)
	}
	if err := atomicWriteFile(path, []byte(defaultConfigYAML)); err != nil {
		return err
	}
	i.log.WithField("path", path).Info("Wrote starter config")
	return nil
}

// MergeSettings registers the hook commands in settings.json, keeping
// every unrelated key and every foreign hook entry intact.
func (i *Installer) MergeSettings(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return errors.StorageIO("read", path, err)
	}

	merged, changed, err := mergeHookSettings(raw, i.cfg.Hooks.BackgroundTimeout)
	if err != nil {
		return err
	}
	if !changed {
		i.log.Debug("Hooks already registered")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.StorageIO("create", filepath.Dir(path), err)
	}
	if err := atomicWriteFile(path, merged); err != nil {
		return err
	}
	i.log.WithField("path", path).Info("Registered Claude Code hooks")
	return nil
}

// Uninstall strips this tool's hook registrations from a Claude root's
// settings.json and returns how many entries went. Foreign hooks, the
// config file, and the archive itself are left alone. A missing
// settings file counts as nothing to remove.
func (i *Installer) Uninstall(claudeDir string) (int, error) {
	path := paths.SettingsFile(claudeDir)

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.StorageIO("read", path, err)
	}

	cleaned, removed, err := removeHookSettings(raw)
	if err != nil {
		return 0, err
	}
	if removed == 0 {
		i.log.Debug("No hooks registered, nothing to remove")
		return 0, nil
	}

	if err := atomicWriteFile(path, cleaned); err != nil {
		return 0, err
	}
	i.log.WithFields(logrus.Fields{
		"path":    path,
		"removed": removed,
	}).Info("Unregistered Claude Code hooks")
	return removed, nil
}

// removeHookSettings is mergeHookSettings in reverse: our command
// entries go, an event array that empties out goes with them, and so
// does the hooks object itself.
func removeHookSettings(raw []byte) ([]byte, int, error) {
	settings := make(map[string]any)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &settings); err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeConfigInvalid,
				"settings.json is not valid JSON")
		}
	}

	hooks, ok := settings["hooks"].(map[string]any)
	if !ok {
		return nil, 0, nil
	}

	removed := 0
	for event, cmd := range hookCommands {
		removed += removeHookEntries(hooks, event, cmd)
	}
	if removed == 0 {
		return nil, 0, nil
	}
	if len(hooks) == 0 {
		delete(settings, "hooks")
	}

	out, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeInternal,
			"could not encode settings")
	}
	return append(out, '\n'), removed, nil
}

// removeHookEntries drops our command entries under one event. A group
// the user folded other commands into keeps its survivors; a group that
// held only our entry goes entirely.
func removeHookEntries(hooks map[string]any, event, command string) int {
	groups, ok := hooks[event].([]any)
	if !ok {
		return 0
	}

	removed := 0
	var keptGroups []any
	for _, g := range groups {
		group, ok := g.(map[string]any)
		if !ok {
			keptGroups = append(keptGroups, g)
			continue
		}

		entries, _ := group["hooks"].([]any)
		var keptEntries []any
		dropped := 0
		for _, e := range entries {
			entry, ok := e.(map[string]any)
			if ok && entry["type"] == "command" && entry["command"] == command {
				dropped++
				continue
			}
			keptEntries = append(keptEntries, e)
		}

		if dropped == 0 {
			keptGroups = append(keptGroups, g)
			continue
		}
		removed += dropped
		if len(keptEntries) == 0 {
			continue
		}
		group["hooks"] = keptEntries
		keptGroups = append(keptGroups, group)
	}

	if removed > 0 {
		if len(keptGroups) == 0 {
			delete(hooks, event)
		} else {
			hooks[event] = keptGroups
		}
	}
	return removed
}

// mergeHookSettings returns the settings document with our command
// hooks present, and whether anything had to change.
func mergeHookSettings(raw []byte, timeout int) ([]byte, bool, error) {
	settings := make(map[string]any)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &settings); err != nil {
			return nil, false, errors.Wrap(err, errors.ErrCodeConfigInvalid,
				"settings.json is not valid JSON")
		}
	}

	hooks, ok := settings["hooks"].(map[string]any)
	if !ok {
		if _, present := settings["hooks"]; present {
			return nil, false, errors.New(errors.ErrCodeConfigInvalid,
				`settings.json: "hooks" is not an object`)
		}
		hooks = make(map[string]any)
		settings["hooks"] = hooks
	}

	changed := false
	for event, cmd := range hookCommands {
		added, err := ensureHookEntry(hooks, event, cmd, timeout)
		if err != nil {
			return nil, false, err
		}
		changed = changed || added
	}
	if !changed {
		return nil, false, nil
	}

	out, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return nil, false, errors.Wrap(err, errors.ErrCodeInternal,
			"could not encode settings")
	}
	return append(out, '\n'), true, nil
}

// ensureHookEntry appends a command hook group for event unless the
// command is already registered somewhere under it. An entry the user
// edited (different timeout, extra keys) counts as registered.
func ensureHookEntry(hooks map[string]any, event, command string, timeout int) (bool, error) {
	raw, present := hooks[event]
	groups, ok := raw.([]any)
	if present && !ok {
		return false, errors.New(errors.ErrCodeConfigInvalid,
			"settings.json: hooks."+event+" is not an array")
	}

	for _, g := range groups {
		group, ok := g.(map[string]any)
		if !ok {
			continue
		}
		entries, _ := group["hooks"].([]any)
		for _, e := range entries {
			entry, ok := e.(map[string]any)
			if !ok {
				continue
			}
			if entry["type"] == "command" && entry["command"] == command {
				return false, nil
			}
		}
	}

	entry := map[string]any{
		"type":    "command",
		"command": command,
	}
	if timeout > 0 {
		entry["timeout"] = timeout
	}
	hooks[event] = append(groups, map[string]any{
		"hooks": []any{entry},
	})
	return true, nil
}

// atomicWriteFile lands content at path via a temp file and a rename.
func atomicWriteFile(path string, content []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return errors.StorageIO("create", dir, err)
	}

	successful := false
	defer func() {
		if !successful {
			os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return errors.StorageIO("write", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return errors.StorageIO("write", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.StorageIO("rename", path, err)
	}

	successful = true
	return nil
}
