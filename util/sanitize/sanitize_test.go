package sanitize

import "testing"

func TestForFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"simple string", "hello", "hello"},
		{"with spaces", "Deploy Staging", "deploy-staging"},
		{"markdown heading text", "Get Skill From Session", "get-skill-from-session"},
		{"special characters", "fix: login bug!", "fix-login-bug"},
		{"multiple separators", "a  --  b", "a-b"},
		{"leading/trailing junk", "--hello--", "hello"},
		{"unicode stripped", "café menu", "caf-menu"},
		{"long name truncated", "this-is-a-really-long-skill-name-that-keeps-going-and-going", "this-is-a-really-long-skill-name-that-keeps-going-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ForFilename(tt.input)
			if result != tt.expected {
				t.Errorf("ForFilename(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestForJobID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"already clean", "my-project", "my-project"},
		{"spaces and punctuation", "My Project!", "my-project-"},
		{"truncated to twenty", "very-long-project-name-that-exceeds-limit", "very-long-project-na"},
		{"underscores become hyphens", "fix_login_bug", "fix-login-bug"},
		{"empty string", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ForJobID(tt.input)
			if result != tt.expected {
				t.Errorf("ForJobID(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
