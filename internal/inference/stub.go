package inference

import "context"

// NeverReady is a Backend that never loads a model. Detectors built on it
// always run their rule-based path.
type NeverReady struct {
	model Model
}

// NewNeverReady returns a backend that refuses every model.
func NewNeverReady() *NeverReady {
	return &NeverReady{}
}

// Init records the model for error reporting and always fails.
func (n *NeverReady) Init(model Model) bool {
	n.model = model
	return false
}

// Ready always returns false.
func (n *NeverReady) Ready() bool { return false }

// Invoke always returns *ErrNotReady.
func (n *NeverReady) Invoke(_ context.Context, _ Input) (Output, error) {
	return nil, &ErrNotReady{Model: n.model}
}
