package inference

import (
	"context"
	"errors"
	"math"
	"sync"
)

// DenseBackend runs a small fully-connected network loaded from a JSON model
// file. Init is one-shot: once loading has succeeded or failed the outcome is
// final. After a successful load the network is read-only, so Invoke is safe
// for concurrent use.
type DenseBackend struct {
	dir   string
	major string

	mu      sync.Mutex
	state   State
	model   Model
	net     *ModelFile
	loadErr error
}

// NewDenseBackend returns a backend that reads model files from dir and
// accepts files whose schema_version major equals major (e.g. "v1").
func NewDenseBackend(dir, major string) *DenseBackend {
	return &DenseBackend{dir: dir, major: major}
}

// Init loads the file for model. Subsequent calls return the first outcome.
func (d *DenseBackend) Init(model Model) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateUninitialized {
		return d.state == StateReady
	}

	d.model = model
	d.state = StateLoading

	if !model.Valid() {
		d.loadErr = &ErrModelLoad{Model: model, Err: errors.New("unknown model")}
		d.state = StateFailed
		return false
	}

	net, err := ReadModelFile(d.dir, model, d.major)
	if err != nil {
		d.loadErr = err
		d.state = StateFailed
		return false
	}

	d.net = net
	d.state = StateReady
	return true
}

// Ready reports whether a model is loaded.
func (d *DenseBackend) Ready() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state == StateReady
}

// State returns the current lifecycle state.
func (d *DenseBackend) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// LoadErr returns the reason Init failed, or nil.
func (d *DenseBackend) LoadErr() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loadErr
}

// Invoke runs a forward pass over in.
func (d *DenseBackend) Invoke(ctx context.Context, in Input) (Output, error) {
	d.mu.Lock()
	net, model, ready := d.net, d.model, d.state == StateReady
	d.mu.Unlock()

	if !ready {
		return nil, &ErrNotReady{Model: model}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return net.forward(in), nil
}

func (mf *ModelFile) forward(in Input) Output {
	x := make([]float32, len(in))
	copy(x, in[:])

	if n := mf.Normalize; n != nil {
		for i := range x {
			x[i] = (x[i] - n.Mean[i]) / n.Scale[i]
		}
	}

	for _, l := range mf.Layers {
		y := make([]float32, len(l.Weights))
		for j, row := range l.Weights {
			sum := l.Bias[j]
			for k, w := range row {
				sum += w * x[k]
			}
			y[j] = sum
		}
		switch l.Activation {
		case ActivationReLU:
			for j := range y {
				if y[j] < 0 {
					y[j] = 0
				}
			}
		case ActivationSoftmax:
			softmax(y)
		}
		x = y
	}
	return Output(x)
}

// softmax normalizes v in place. The max is subtracted first to keep exp in range.
func softmax(v []float32) {
	if len(v) == 0 {
		return
	}
	peak := v[0]
	for _, f := range v[1:] {
		if f > peak {
			peak = f
		}
	}
	var sum float64
	for i, f := range v {
		e := math.Exp(float64(f - peak))
		v[i] = float32(e)
		sum += e
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / sum)
	}
}
