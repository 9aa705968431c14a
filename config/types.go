package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/mapstructure"
)

// StorageConfig defines where session archives are kept.
type StorageConfig struct {
	Path string `yaml:"path" toml:"path" jsonschema:"description=Root directory for date-partitioned archives (default: ~/.claude/daily)" jsonschema_extras:"x-priority=1,x-important=true"`
}

// ArchiveConfig controls the metadata written into archive frontmatter.
type ArchiveConfig struct {
	Author         string   `yaml:"author,omitempty" toml:"author,omitempty" jsonschema:"description=Author name recorded in archive frontmatter"`
	Tags           []string `yaml:"tags,omitempty" toml:"tags,omitempty" jsonschema:"description=Tags applied to every archived session"`
	IncludeCwd     *bool    `yaml:"include_cwd,omitempty" toml:"include_cwd,omitempty" jsonschema:"description=Record the working directory in archives (default: true)"`
	IncludeGitInfo *bool    `yaml:"include_git_info,omitempty" toml:"include_git_info,omitempty" jsonschema:"description=Record the git branch in archives (default: true)"`
}

// SummarizationConfig controls the summarizer model and the trigger scheduler.
type SummarizationConfig struct {
	Model                 string `yaml:"model,omitempty" toml:"model,omitempty" jsonschema:"description=Model passed to the claude CLI (default: sonnet)" jsonschema_extras:"x-priority=2,x-important=true"`
	MaxTokens             int    `yaml:"max_tokens,omitempty" toml:"max_tokens,omitempty" jsonschema:"description=Token budget for summary responses (default: 4096)"`
	EnableDailySummary    *bool  `yaml:"enable_daily_summary,omitempty" toml:"enable_daily_summary,omitempty" jsonschema:"description=Generate a consolidated digest per day (default: true)"`
	EnableExtractionHints *bool  `yaml:"enable_extraction_hints,omitempty" toml:"enable_extraction_hints,omitempty" jsonschema:"description=Ask the summarizer for reusable skill hints (default: true)"`

	// DigestTime is the local wall-clock time after which the previous
	// day's sessions become eligible for auto-digest.
	DigestTime        string `yaml:"digest_time,omitempty" toml:"digest_time,omitempty" jsonschema:"description=Earliest time of day (HH:MM) to auto-digest yesterday's sessions (default: 06:00)"`
	AutoDigestEnabled *bool  `yaml:"auto_digest_enabled,omitempty" toml:"auto_digest_enabled,omitempty" jsonschema:"description=Auto-digest the previous day on session start (default: true)"`

	SummaryLanguage string `yaml:"summary_language,omitempty" toml:"summary_language,omitempty" jsonschema:"description=Language for generated summaries: en or zh (default: en),enum=en,enum=zh"`

	AutoSummarizeEnabled         *bool  `yaml:"auto_summarize_enabled,omitempty" toml:"auto_summarize_enabled,omitempty" jsonschema:"description=Scan for unarchived transcripts and summarize them (default: true)"`
	AutoSummarizeTime            string `yaml:"auto_summarize_time,omitempty" toml:"auto_summarize_time,omitempty" jsonschema:"description=Earliest time of day (HH:MM) for the catch-up scan (default: 06:00)"`
	AutoSummarizeOnShow          bool   `yaml:"auto_summarize_on_show,omitempty" toml:"auto_summarize_on_show,omitempty" jsonschema:"description=Run the catch-up scan on every 'daily show' instead of once per day (default: false)"`
	AutoSummarizeInactiveMinutes int    `yaml:"auto_summarize_inactive_minutes,omitempty" toml:"auto_summarize_inactive_minutes,omitempty" jsonschema:"description=Minutes without transcript writes before a session counts as ended (default: 30)"`
	AutoSummarizeMaxPerRun       int    `yaml:"auto_summarize_max_per_run,omitempty" toml:"auto_summarize_max_per_run,omitempty" jsonschema:"description=Maximum summarize jobs spawned per catch-up scan (default: 3)"`

	// ExcludeTranscripts holds glob patterns for transcript filenames the
	// catch-up scan must skip, e.g. sub-agent transcripts.
	ExcludeTranscripts []string `yaml:"exclude_transcripts,omitempty" toml:"exclude_transcripts,omitempty" jsonschema:"description=Filename patterns excluded from the catch-up scan (default: agent-*)"`
}

// HooksConfig controls the Claude Code hook handlers.
type HooksConfig struct {
	EnableSessionStart *bool `yaml:"enable_session_start,omitempty" toml:"enable_session_start,omitempty" jsonschema:"description=Run trigger checks on SessionStart (default: true)"`
	EnableSessionEnd   *bool `yaml:"enable_session_end,omitempty" toml:"enable_session_end,omitempty" jsonschema:"description=Archive sessions on SessionEnd (default: true)"`
	BackgroundTimeout  int   `yaml:"background_timeout,omitempty" toml:"background_timeout,omitempty" jsonschema:"description=Seconds a background worker may run before the supervisor gives up on it (default: 300)"`
}

// OutputConfig controls terminal rendering.
type OutputConfig struct {
	TerminalFormat string `yaml:"terminal_format,omitempty" toml:"terminal_format,omitempty" jsonschema:"description=Terminal output style: colored or plain (default: colored),enum=colored,enum=plain"`
	DateFormat     string `yaml:"date_format,omitempty" toml:"date_format,omitempty" jsonschema:"description=Go time layout for dates (default: 2006-01-02)"`
	TimeFormat     string `yaml:"time_format,omitempty" toml:"time_format,omitempty" jsonschema:"description=Go time layout for times (default: 15:04:05)"`
	Theme          string `yaml:"theme,omitempty" toml:"theme,omitempty" jsonschema:"description=Color palette: kanagawa or gruvbox or terminal (default: kanagawa),enum=kanagawa,enum=gruvbox,enum=terminal"`
	Icons          string `yaml:"icons,omitempty" toml:"icons,omitempty" jsonschema:"description=Icon set: nerd or ascii (default: nerd),enum=nerd,enum=ascii"`
}

// PromptTemplatesConfig holds user overrides for the built-in prompts.
// Templates use {{variable}} placeholders.
type PromptTemplatesConfig struct {
	SessionSummary string `yaml:"session_summary,omitempty" toml:"session_summary,omitempty" jsonschema:"description=Override for the session summary prompt"`
	DailySummary   string `yaml:"daily_summary,omitempty" toml:"daily_summary,omitempty" jsonschema:"description=Override for the daily digest prompt"`
	SkillExtract   string `yaml:"skill_extract,omitempty" toml:"skill_extract,omitempty" jsonschema:"description=Override for the skill extraction prompt"`
	CommandExtract string `yaml:"command_extract,omitempty" toml:"command_extract,omitempty" jsonschema:"description=Override for the command extraction prompt"`
}

// Config represents the daily configuration file.
type Config struct {
	Storage         StorageConfig         `yaml:"storage,omitempty" toml:"storage,omitempty" jsonschema:"description=Archive storage settings"`
	Archive         ArchiveConfig         `yaml:"archive,omitempty" toml:"archive,omitempty" jsonschema:"description=Archive metadata settings"`
	Summarization   SummarizationConfig   `yaml:"summarization,omitempty" toml:"summarization,omitempty" jsonschema:"description=Summarizer and trigger scheduler settings"`
	Hooks           HooksConfig           `yaml:"hooks,omitempty" toml:"hooks,omitempty" jsonschema:"description=Claude Code hook settings"`
	Output          OutputConfig          `yaml:"output,omitempty" toml:"output,omitempty" jsonschema:"description=Terminal output settings"`
	PromptTemplates PromptTemplatesConfig `yaml:"prompt_templates,omitempty" toml:"prompt_templates,omitempty" jsonschema:"description=Custom prompt template overrides"`

	// Extensions captures all other top-level keys for extensibility.
	Extensions map[string]interface{} `yaml:",inline" toml:"-" jsonschema:"-"`
}

func boolPtr(v bool) *bool {
	return &v
}

// SetDefaults sets default values for configuration
func (c *Config) SetDefaults() {
	if c.Storage.Path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Storage.Path = filepath.Join(home, ".claude", "daily")
		} else {
			c.Storage.Path = filepath.Join(".", ".claude", "daily")
		}
	}

	if c.Archive.Tags == nil {
		c.Archive.Tags = []string{"claude-code", "daily-archive"}
	}
	if c.Archive.IncludeCwd == nil {
		c.Archive.IncludeCwd = boolPtr(true)
	}
	if c.Archive.IncludeGitInfo == nil {
		c.Archive.IncludeGitInfo = boolPtr(true)
	}

	if c.Summarization.Model == "" {
		c.Summarization.Model = "sonnet"
	}
	if c.Summarization.MaxTokens == 0 {
		c.Summarization.MaxTokens = 4096
	}
	if c.Summarization.EnableDailySummary == nil {
		c.Summarization.EnableDailySummary = boolPtr(true)
	}
	if c.Summarization.EnableExtractionHints == nil {
		c.Summarization.EnableExtractionHints = boolPtr(true)
	}
	if c.Summarization.DigestTime == "" {
		c.Summarization.DigestTime = "06:00"
	}
	if c.Summarization.AutoDigestEnabled == nil {
		c.Summarization.AutoDigestEnabled = boolPtr(true)
	}
	if c.Summarization.SummaryLanguage == "" {
		c.Summarization.SummaryLanguage = "en"
	}
	if c.Summarization.AutoSummarizeEnabled == nil {
		c.Summarization.AutoSummarizeEnabled = boolPtr(true)
	}
	if c.Summarization.AutoSummarizeTime == "" {
		c.Summarization.AutoSummarizeTime = "06:00"
	}
	if c.Summarization.AutoSummarizeInactiveMinutes == 0 {
		c.Summarization.AutoSummarizeInactiveMinutes = 30
	}
	if c.Summarization.AutoSummarizeMaxPerRun == 0 {
		c.Summarization.AutoSummarizeMaxPerRun = 3
	}
	if c.Summarization.ExcludeTranscripts == nil {
		c.Summarization.ExcludeTranscripts = []string{"agent-*"}
	}

	if c.Hooks.EnableSessionStart == nil {
		c.Hooks.EnableSessionStart = boolPtr(true)
	}
	if c.Hooks.EnableSessionEnd == nil {
		c.Hooks.EnableSessionEnd = boolPtr(true)
	}
	if c.Hooks.BackgroundTimeout == 0 {
		c.Hooks.BackgroundTimeout = 300
	}

	if c.Output.TerminalFormat == "" {
		c.Output.TerminalFormat = "colored"
	}
	if c.Output.DateFormat == "" {
		c.Output.DateFormat = "2006-01-02"
	}
	if c.Output.TimeFormat == "" {
		c.Output.TimeFormat = "15:04:05"
	}
	if c.Output.Theme == "" {
		c.Output.Theme = "kanagawa"
	}
	if c.Output.Icons == "" {
		c.Output.Icons = "nerd"
	}
}

// StoragePath returns the archive root with ~ expanded. DAILY_STORAGE_DIR
// overrides the configured path and relocates the whole tree, jobs and
// logs and pending skills included.
func (c *Config) StoragePath() string {
	path := c.Storage.Path
	if env := os.Getenv("DAILY_STORAGE_DIR"); env != "" {
		path = env
	}
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// DateDir returns the archive directory for a specific date (YYYY-MM-DD).
func (c *Config) DateDir(date string) string {
	return filepath.Join(c.StoragePath(), date)
}

// TodayDir returns the archive directory for the current local date.
func (c *Config) TodayDir() string {
	return c.DateDir(time.Now().Format("2006-01-02"))
}

// JobsDir returns the directory holding background job records and logs.
func (c *Config) JobsDir() string {
	return filepath.Join(c.StoragePath(), "jobs")
}

// PendingSkillsDir returns the directory holding extracted skills awaiting review.
func (c *Config) PendingSkillsDir() string {
	return filepath.Join(c.StoragePath(), "pending-skills")
}

// UnmarshalExtension decodes a specific extension's configuration from the
// loaded config file into the provided target struct. The target must be a
// pointer. This provides a type-safe way for extensions to access their
// custom configuration sections.
//
// Example:
//
//	var logCfg logging.Config
//	err := cfg.UnmarshalExtension("logging", &logCfg)
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// It's not an error if the key doesn't exist.
		// The target struct will simply remain zero-valued.
		return nil
	}

	// Use mapstructure to decode the generic map[string]interface{}
	// into the strongly-typed target struct. We configure it to use
	// `yaml` tags for consistency.
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target,
		TagName: "yaml",
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
