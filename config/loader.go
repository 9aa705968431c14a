package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/grovetools/daily/errors"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// configNames lists accepted config file names, in precedence order.
var configNames = []string{
	"config.yml",
	"config.yaml",
	"config.toml",
}

// ConfigDir returns the directory holding the daily configuration file.
func ConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "daily")
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config", "daily")
	}
	return filepath.Join(".", ".config", "daily")
}

// FindConfigFile returns the path of the configuration file, honoring the
// DAILY_CONFIG environment variable. When no file exists it returns the
// default location where one would be created, with found=false.
func FindConfigFile() (path string, found bool) {
	if override := os.Getenv("DAILY_CONFIG"); override != "" {
		_, err := os.Stat(override)
		return override, err == nil
	}

	dir := ConfigDir()
	for _, name := range configNames {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}

	return filepath.Join(dir, configNames[0]), false
}

// Load reads and parses a daily configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	return loadFromBytes(data, filepath.Ext(path))
}

// LoadDefault finds and loads the configuration. A missing config file is not
// an error: defaults are returned so the tool works before `daily init` runs.
func LoadDefault() (*Config, error) {
	path, found := FindConfigFile()
	if !found {
		cfg := &Config{}
		cfg.SetDefaults()
		return cfg, nil
	}
	return Load(path)
}

// LoadFromBytes parses YAML configuration from a byte array
func LoadFromBytes(data []byte) (*Config, error) {
	return loadFromBytes(data, ".yml")
}

func loadFromBytes(data []byte, ext string) (*Config, error) {
	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var config Config
	if ext == ".toml" {
		if err := toml.Unmarshal([]byte(expanded), &config); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration")
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration")
		}
	}

	// Set defaults
	config.SetDefaults()

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Save writes the configuration to the given path, creating parent
// directories as needed. The format follows the file extension.
func Save(cfg *Config, path string) error {
	var (
		data []byte
		err  error
	)
	if filepath.Ext(path) == ".toml" {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to serialize configuration")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.StorageIO("mkdir", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.StorageIO("write", path, err)
	}
	return nil
}

// expandEnvVars replaces ${VAR} with environment variable values
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		// Handle default values: ${VAR:-default}
		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}
