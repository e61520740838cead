// Package inference defines the model-execution capability the detectors
// depend on, together with the engines that provide it.
package inference

import (
	"context"
	"fmt"
)

// Backend is the core abstraction for running a classification model.
// Each detector owns exactly one Backend instance.
type Backend interface {
	// Init loads the given model. It is called once per backend lifetime;
	// a false return is final and the backend stays unready.
	Init(model Model) bool

	// Ready reports whether Invoke may be attempted.
	Ready() bool

	// Invoke runs the model over one input vector and returns its class
	// probabilities. Any error means the output must not be used.
	Invoke(ctx context.Context, in Input) (Output, error)
}

// Input is one feature vector in model order.
type Input [5]float32

// Output is the probability vector produced by a model.
type Output []float32

// Model identifies one of the three risk models.
type Model int

const (
	ModelArrhythmia Model = iota
	ModelAnemia
	ModelPreeclampsia
)

// Models lists every model in initialization order.
var Models = []Model{ModelArrhythmia, ModelAnemia, ModelPreeclampsia}

func (m Model) String() string {
	switch m {
	case ModelArrhythmia:
		return "arrhythmia"
	case ModelAnemia:
		return "anemia"
	case ModelPreeclampsia:
		return "preeclampsia"
	}
	return fmt.Sprintf("model(%d)", int(m))
}

// Outputs returns the number of classes the model produces, or 0 for an
// unknown model.
func (m Model) Outputs() int {
	switch m {
	case ModelArrhythmia:
		return 5
	case ModelAnemia, ModelPreeclampsia:
		return 4
	}
	return 0
}

// Valid reports whether m names a known model.
func (m Model) Valid() bool {
	return m.Outputs() > 0
}

// ParseModel resolves a model by name.
func ParseModel(name string) (Model, error) {
	for _, m := range Models {
		if m.String() == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown model: %q", name)
}

// State is the lifecycle of a backend as seen by its owner.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}
