package config

import (
	"testing"

	"github.com/grovetools/daily/errors"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

func TestValidateDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Default config should validate, got: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "empty storage path",
			mutate: func(c *Config) { c.Storage.Path = "" },
		},
		{
			name:   "empty model",
			mutate: func(c *Config) { c.Summarization.Model = "" },
		},
		{
			name:   "negative max tokens",
			mutate: func(c *Config) { c.Summarization.MaxTokens = -1 },
		},
		{
			name:   "malformed digest time",
			mutate: func(c *Config) { c.Summarization.DigestTime = "6am" },
		},
		{
			name:   "out of range digest time",
			mutate: func(c *Config) { c.Summarization.DigestTime = "25:00" },
		},
		{
			name:   "malformed auto summarize time",
			mutate: func(c *Config) { c.Summarization.AutoSummarizeTime = "06:60" },
		},
		{
			name:   "unknown language",
			mutate: func(c *Config) { c.Summarization.SummaryLanguage = "fr" },
		},
		{
			name:   "zero inactive minutes",
			mutate: func(c *Config) { c.Summarization.AutoSummarizeInactiveMinutes = 0 },
		},
		{
			name:   "negative background timeout",
			mutate: func(c *Config) { c.Hooks.BackgroundTimeout = -5 },
		},
		{
			name:   "unknown terminal format",
			mutate: func(c *Config) { c.Output.TerminalFormat = "fancy" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !errors.Is(err, errors.ErrCodeConfigValidation) {
				t.Errorf("Expected CONFIG_VALIDATION code, got %s", errors.GetCode(err))
			}
		})
	}
}

func TestValidateAcceptsClockEdges(t *testing.T) {
	for _, clock := range []string{"00:00", "23:59", "6:30", "09:05"} {
		cfg := validConfig()
		cfg.Summarization.DigestTime = clock
		if err := cfg.Validate(); err != nil {
			t.Errorf("Clock %q should be valid, got: %v", clock, err)
		}
	}
}
