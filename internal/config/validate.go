// CUE schema validation code
package config

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
)

//go:embed simulation.cue
var defaultSchema []byte

// DefaultSchema returns the embedded CUE schema.
func DefaultSchema() []byte { return defaultSchema }

// ValidateWithCue validates YAML config bytes against the #Simulation
// definition of a CUE schema.
func ValidateWithCue(name string, yamlBytes, schemaBytes []byte) error {
	ctx := cuecontext.New()

	schemaVal := ctx.CompileBytes(schemaBytes)
	if err := schemaVal.Err(); err != nil {
		return fmt.Errorf("compile CUE schema: %w", err)
	}
	def := schemaVal.LookupPath(cue.ParsePath("#Simulation"))
	if !def.Exists() {
		return fmt.Errorf("CUE schema has no #Simulation definition")
	}

	file, err := cueyaml.Extract(name, yamlBytes)
	if err != nil {
		return fmt.Errorf("cannot parse YAML config: %w", err)
	}
	configVal := ctx.BuildFile(file)
	if err := configVal.Err(); err != nil {
		return fmt.Errorf("cannot build YAML config: %w", err)
	}

	final := def.Unify(configVal)
	if err := final.Validate(); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
