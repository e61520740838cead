package inference

import "fmt"

// ErrNotReady indicates Invoke was called on a backend that has no model loaded.
type ErrNotReady struct {
	Model Model
}

func (e *ErrNotReady) Error() string {
	return fmt.Sprintf("%s backend not ready", e.Model)
}

// ErrInvalidOutput indicates the model produced a vector that cannot be
// classified: wrong width or non-finite values.
type ErrInvalidOutput struct {
	Model  Model
	Output Output
	Err    error
}

func (e *ErrInvalidOutput) Error() string {
	return fmt.Sprintf("invalid %s output: %v", e.Model, e.Err)
}

func (e *ErrInvalidOutput) Unwrap() error { return e.Err }

// ErrModelLoad indicates a model file could not be read, parsed or accepted.
type ErrModelLoad struct {
	Model Model
	Path  string
	Err   error
}

func (e *ErrModelLoad) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load %s model: %v", e.Model, e.Err)
	}
	return fmt.Sprintf("load %s model from %s: %v", e.Model, e.Path, e.Err)
}

func (e *ErrModelLoad) Unwrap() error { return e.Err }
