package config

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/marmos91/cask/internal/bytesize"
	"github.com/marmos91/cask/pkg/config"
)

func newSchemaCmd() *cobra.Command {
	var schemaOutput string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Generate JSON schema for configuration",
		Long: `Generate a JSON schema for the cask configuration file.

The schema can be used for:
  - IDE autocompletion (VS Code, IntelliJ, etc.)
  - Configuration file validation

Examples:
  # Print schema to stdout
  cask config schema

  # Save schema to file
  cask config schema --output config.schema.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			schemaJSON, err := GenerateSchema()
			if err != nil {
				return err
			}

			if schemaOutput != "" {
				if err := os.WriteFile(schemaOutput, schemaJSON, 0644); err != nil {
					return fmt.Errorf("failed to write schema file: %w", err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "JSON schema written to %s\n", schemaOutput)
				return nil
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(schemaJSON))
			return nil
		},
	}

	cmd.Flags().StringVarP(&schemaOutput, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

// GenerateSchema renders the configuration file schema as indented JSON.
// Property names follow the YAML keys.
func GenerateSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		FieldNameTag:              "yaml",
		Mapper:                    mapTextTypes,
	}

	schema := reflector.Reflect(&config.Config{})
	schema.Version = "https://json-schema.org/draft/2020-12/schema"
	schema.Title = "cask Configuration"
	schema.Description = "Configuration schema for the cask artifact server"

	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema: %w", err)
	}
	return schemaJSON, nil
}

// mapTextTypes describes the types the config file accepts as strings:
// sizes ("100MiB" or bytes) and durations ("30s").
func mapTextTypes(t reflect.Type) *jsonschema.Schema {
	switch t {
	case reflect.TypeOf(bytesize.ByteSize(0)):
		return &jsonschema.Schema{
			Description: "Size in bytes or with a unit suffix, e.g. 100MiB",
			OneOf: []*jsonschema.Schema{
				{Type: "integer"},
				{Type: "string", Pattern: `^\s*\d+(\.\d+)?\s*[A-Za-z]*\s*$`},
			},
		}
	case reflect.TypeOf(time.Duration(0)):
		return &jsonschema.Schema{
			Type:        "string",
			Description: "Go duration, e.g. 30s or 2m",
		}
	}
	return nil
}
