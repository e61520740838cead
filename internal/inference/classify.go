package inference

import (
	"errors"
	"fmt"
	"math"
)

// PredictedClass returns the index of the highest probability. Ties resolve
// to the lowest index. An empty vector yields -1.
func PredictedClass(out Output) int {
	if len(out) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(out); i++ {
		if out[i] > out[best] {
			best = i
		}
	}
	return best
}

// ConfidencePercent returns the winning probability scaled to a percentage.
// The product is taken in float32, the model's own precision, so an output of
// 0.8 reports exactly 80. The result is not clamped.
func ConfidencePercent(out Output) float64 {
	idx := PredictedClass(out)
	if idx < 0 {
		return 0
	}
	return float64(out[idx] * 100)
}

// ValidateOutput checks that out has the width the model declares and holds
// only finite values. Returns *ErrInvalidOutput on failure.
func ValidateOutput(model Model, out Output) error {
	if want := model.Outputs(); len(out) != want {
		return &ErrInvalidOutput{
			Model:  model,
			Output: out,
			Err:    fmt.Errorf("got %d values, want %d", len(out), want),
		}
	}
	for i, v := range out {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return &ErrInvalidOutput{
				Model:  model,
				Output: out,
				Err:    fmt.Errorf("value %d is not finite", i),
			}
		}
	}
	return nil
}

// IsInvalidOutput reports whether err stems from a malformed model output.
func IsInvalidOutput(err error) bool {
	var inv *ErrInvalidOutput
	return errors.As(err, &inv)
}
