package inference

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// Engine names accepted by NewBackend. MockBackend is built directly by
// tests and cannot be selected from configuration.
const (
	EngineDense = "dense"
	EngineNone  = "none"
)

// Config selects and configures the inference engine.
type Config struct {
	// Engine selects the backend implementation.
	// Values: "dense", "none"
	Engine string

	// ModelDir holds <model>_risk_model.json files for the dense engine.
	ModelDir string

	// SupportedSchema is the semver major accepted in model files. Default: "v1".
	SupportedSchema string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Engine:          EngineDense,
		ModelDir:        "models",
		SupportedSchema: "v1",
	}
}

// Validate checks that the selected engine has what it needs.
func (c Config) Validate() error {
	switch c.Engine {
	case EngineDense:
		if c.ModelDir == "" {
			return fmt.Errorf("a model directory is required for the dense engine")
		}
		if !semver.IsValid(c.SupportedSchema) || semver.Major(c.SupportedSchema) != c.SupportedSchema {
			return fmt.Errorf("supported schema must be a semver major like v1, got %q", c.SupportedSchema)
		}
	case EngineNone:
		// Nothing to load.
	default:
		return fmt.Errorf("unknown inference engine: %q", c.Engine)
	}
	return nil
}
