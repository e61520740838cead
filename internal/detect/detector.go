package detect

import (
	"context"
	"fmt"

	"github.com/lifeband/edgeai/internal/inference"
	"github.com/lifeband/edgeai/internal/vitals"
)

// rhythmLabels maps arrhythmia model class indices to rhythm types.
var rhythmLabels = [...]vitals.RhythmType{
	vitals.RhythmNormal,
	vitals.RhythmAFib,
	vitals.RhythmPVC,
	vitals.RhythmBradycardia,
	vitals.RhythmTachycardia,
}

// riskLabels maps anemia and preeclampsia model class indices to tiers.
var riskLabels = [...]vitals.RiskLevel{
	vitals.RiskLow,
	vitals.RiskModerate,
	vitals.RiskHigh,
	vitals.RiskCritical,
}

const (
	// arrhythmiaFlagConfidence is the model confidence above which an
	// abnormal rhythm is flagged critical.
	arrhythmiaFlagConfidence = 80.0

	// riskFlagClass is the first class index (High) that raises an alert.
	riskFlagClass = 2
)

// detector owns one backend and the lifecycle state recorded for it.
// state is written only by init; afterwards it is read-only.
type detector struct {
	model   inference.Model
	backend inference.Backend
	state   inference.State
	loadErr error
}

func newDetector(model inference.Model, backend inference.Backend) *detector {
	if backend == nil {
		backend = inference.NewNeverReady()
	}
	return &detector{model: model, backend: backend}
}

// init performs the one-shot backend initialization. Later calls are no-ops.
func (d *detector) init() {
	if d.state != inference.StateUninitialized {
		return
	}
	d.state = inference.StateLoading
	if d.backend.Init(d.model) {
		d.state = inference.StateReady
		return
	}
	d.state = inference.StateFailed
	if le, ok := d.backend.(interface{ LoadErr() error }); ok {
		d.loadErr = le.LoadErr()
	}
}

func (d *detector) active() bool {
	return d.state == inference.StateReady && d.backend.Ready()
}

// infer runs the backend and classifies its output. Any returned error
// means the caller must use the rule path.
func (d *detector) infer(ctx context.Context, in inference.Input, classes int) (int, float64, error) {
	if !d.active() {
		return 0, 0, &inference.ErrNotReady{Model: d.model}
	}

	out, err := d.backend.Invoke(ctx, in)
	if err != nil {
		return 0, 0, fmt.Errorf("invoke %s: %w", d.model, err)
	}
	if err := inference.ValidateOutput(d.model, out); err != nil {
		return 0, 0, err
	}

	idx := inference.PredictedClass(out)
	if idx < 0 || idx >= classes {
		return 0, 0, &inference.ErrInvalidOutput{
			Model:  d.model,
			Output: out,
			Err:    fmt.Errorf("class %d has no label", idx),
		}
	}
	return idx, vitals.ClampConfidence(inference.ConfidencePercent(out)), nil
}

func (d *detector) status() DetectorStatus {
	s := DetectorStatus{
		Detector: d.model.String(),
		State:    d.state.String(),
		Active:   d.active(),
		Path:     PathRules,
	}
	if s.Active {
		s.Path = PathModel
	}
	if d.loadErr != nil {
		s.Error = d.loadErr.Error()
	}
	return s
}
