package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/grovetools/daily/cli"
	"github.com/grovetools/daily/config"
	"github.com/grovetools/daily/errors"
	"github.com/grovetools/daily/tui/theme"
)

// NewConfigCmd creates the `config` command.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate the daily configuration",
		Long: `Shows the effective configuration, prints its JSON Schema, and checks
the config file for mistakes.

Examples:
  # What the tool actually runs with
  daily config show

  # Check the file after editing it
  daily config validate
`,
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigSchemaCmd())
	cmd.AddCommand(newConfigValidateCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Prints the configuration as YAML after defaults are applied. A missing
config file is not an error: the built-in defaults are what every command
runs with until 'daily init' writes one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}

			if path := configSource(cmd); path != "" {
				fmt.Printf("# Source: %s\n", path)
			} else {
				fmt.Println("# Source: built-in defaults (no config file found)")
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeInternal, "failed to render configuration")
			}
			fmt.Print(string(data))
			return nil
		},
	}
}

func newConfigSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the configuration JSON Schema",
		Long: `Emits the JSON Schema the configuration is validated against. Point
your editor's YAML language server at it for completion and inline checks.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		Long: `Checks the configuration file against the JSON Schema, then loads it
the way every command does. Schema validation runs on the raw file, so
typos and unknown keys are caught before defaults paper over them.`,
		RunE: runConfigValidateE,
	}
}

func runConfigValidateE(cmd *cobra.Command, args []string) error {
	path := configSource(cmd)
	if path == "" {
		return errors.ConfigNotFound(config.ConfigDir())
	}

	raw, err := decodeRawConfig(path)
	if err != nil {
		return err
	}

	validator, err := config.NewSchemaValidator()
	if err != nil {
		return err
	}
	if err := validator.Validate(raw); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigValidation, "configuration does not match the schema").
			WithDetail("path", path)
	}

	// Load runs the semantic checks schema cannot express, clock fields
	// and the like.
	if _, err := config.Load(path); err != nil {
		return err
	}

	fmt.Printf("%s %s is valid\n", theme.IconSuccess, path)
	return nil
}

// configSource resolves which file the configuration comes from, honoring
// the --config override.
func configSource(cmd *cobra.Command) string {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path
	}
	if path, found := config.FindConfigFile(); found {
		return path
	}
	return ""
}

// decodeRawConfig decodes the file into a plain map for schema checking.
func decodeRawConfig(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}

	raw := map[string]interface{}{}
	if filepath.Ext(path) == ".toml" {
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration")
		}
		return raw, nil
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration")
	}
	return raw, nil
}
