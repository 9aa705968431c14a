package config

import (
	"fmt"
	"regexp"

	"github.com/grovetools/daily/errors"
)

var clockRegex = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return errors.New(errors.ErrCodeConfigValidation, "storage.path cannot be empty")
	}

	if c.Summarization.Model == "" {
		return errors.New(errors.ErrCodeConfigValidation, "summarization.model cannot be empty")
	}

	if c.Summarization.MaxTokens < 1 {
		return errors.New(errors.ErrCodeConfigValidation,
			fmt.Sprintf("summarization.max_tokens must be positive, got %d", c.Summarization.MaxTokens)).
			WithDetail("maxTokens", c.Summarization.MaxTokens)
	}

	if err := validateClock("summarization.digest_time", c.Summarization.DigestTime); err != nil {
		return err
	}
	if err := validateClock("summarization.auto_summarize_time", c.Summarization.AutoSummarizeTime); err != nil {
		return err
	}

	switch c.Summarization.SummaryLanguage {
	case "en", "zh":
	default:
		return errors.New(errors.ErrCodeConfigValidation,
			fmt.Sprintf("summarization.summary_language must be 'en' or 'zh', got '%s'", c.Summarization.SummaryLanguage)).
			WithDetail("summaryLanguage", c.Summarization.SummaryLanguage)
	}

	if c.Summarization.AutoSummarizeInactiveMinutes < 1 {
		return errors.New(errors.ErrCodeConfigValidation,
			"summarization.auto_summarize_inactive_minutes must be at least 1")
	}

	if c.Hooks.BackgroundTimeout < 0 {
		return errors.New(errors.ErrCodeConfigValidation,
			fmt.Sprintf("hooks.background_timeout cannot be negative, got %d", c.Hooks.BackgroundTimeout)).
			WithDetail("backgroundTimeout", c.Hooks.BackgroundTimeout)
	}

	switch c.Output.TerminalFormat {
	case "colored", "plain":
	default:
		return errors.New(errors.ErrCodeConfigValidation,
			fmt.Sprintf("output.terminal_format must be 'colored' or 'plain', got '%s'", c.Output.TerminalFormat)).
			WithDetail("terminalFormat", c.Output.TerminalFormat)
	}

	return nil
}

// validateClock checks an HH:MM wall-clock string.
func validateClock(fieldName, value string) error {
	if !clockRegex.MatchString(value) {
		return errors.New(errors.ErrCodeConfigValidation,
			fmt.Sprintf("%s must be in HH:MM format, got '%s'", fieldName, value)).
			WithDetail("field", fieldName).
			WithDetail("value", value)
	}
	return nil
}
