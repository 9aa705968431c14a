package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// GenerateSchema generates the JSON Schema for the daily configuration.
// It reflects the Config struct from types.go but excludes the 'Extensions'
// field, which remains free-form.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		// Unknown keys inside known sections are rejected; top-level
		// extension keys are handled by the embedded schema instead.
		AllowAdditionalProperties: false,
		// Expand struct references instead of using $ref for cleaner base schema.
		ExpandedStruct: true,
		// Use YAML field names for property names
		FieldNameTag: "yaml",
	}

	// Create a temporary struct that omits the Extensions field
	// so it's not included in the schema.
	type BaseConfig struct {
		Storage         StorageConfig         `yaml:"storage,omitempty" jsonschema:"description=Archive storage settings"`
		Archive         ArchiveConfig         `yaml:"archive,omitempty" jsonschema:"description=Archive metadata settings"`
		Summarization   SummarizationConfig   `yaml:"summarization,omitempty" jsonschema:"description=Summarizer and trigger scheduler settings"`
		Hooks           HooksConfig           `yaml:"hooks,omitempty" jsonschema:"description=Claude Code hook settings"`
		Output          OutputConfig          `yaml:"output,omitempty" jsonschema:"description=Terminal output settings"`
		PromptTemplates PromptTemplatesConfig `yaml:"prompt_templates,omitempty" jsonschema:"description=Custom prompt template overrides"`
	}

	schema := r.Reflect(&BaseConfig{})
	schema.Title = "Daily Configuration"
	schema.Description = "Schema for the daily session archiver configuration file."
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return json.MarshalIndent(schema, "", "  ")
}
