package inference

import "fmt"

// NewBackend creates an unloaded Backend from configuration. Every detector
// needs its own instance, so callers invoke this once per model.
func NewBackend(cfg Config) (Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Engine {
	case EngineDense:
		return NewDenseBackend(cfg.ModelDir, cfg.SupportedSchema), nil
	case EngineNone:
		return NewNeverReady(), nil
	}
	return nil, fmt.Errorf("unknown inference engine: %q", cfg.Engine)
}
