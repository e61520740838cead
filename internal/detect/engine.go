// Package detect runs the three risk detectors. Each detector tries its
// inference backend first and falls back to the rule engine whenever the
// backend is unavailable or misbehaves, so every call yields a result.
package detect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/lifeband/edgeai/internal/inference"
	"github.com/lifeband/edgeai/internal/rules"
	"github.com/lifeband/edgeai/internal/vitals"
)

// Mode strings returned by Engine.Mode.
const (
	ModeModel = "model inference"
	ModeRules = "rule-based"
	ModeMixed = "mixed"
)

// Backends holds one backend per detector. A nil entry is replaced by a
// backend that never becomes ready.
type Backends struct {
	Arrhythmia   inference.Backend
	Anemia       inference.Backend
	Preeclampsia inference.Backend
}

// NewBackends builds an unloaded backend for every detector from cfg.
func NewBackends(cfg inference.Config) (Backends, error) {
	var b Backends
	slots := []*inference.Backend{&b.Arrhythmia, &b.Anemia, &b.Preeclampsia}
	for i, m := range inference.Models {
		be, err := inference.NewBackend(cfg)
		if err != nil {
			return Backends{}, fmt.Errorf("%s backend: %w", m, err)
		}
		*slots[i] = be
	}
	return b, nil
}

// Engine is the detection facade. Initialize must complete before Detect
// calls are issued from multiple goroutines.
type Engine struct {
	runID     string
	log       zerolog.Logger
	tracer    trace.Tracer
	observers []Observer

	arrhythmia   *detector
	anemia       *detector
	preeclampsia *detector
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithObserver adds an observer notified of every detection.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, o) }
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(e *Engine) { e.runID = id }
}

// New creates an Engine over the given backends. No backend is loaded until
// Initialize is called; until then every detection uses the rules.
func New(b Backends, opts ...Option) *Engine {
	e := &Engine{
		runID:        uuid.NewString(),
		log:          zerolog.Nop(),
		tracer:       otel.Tracer("github.com/lifeband/edgeai/internal/detect"),
		arrhythmia:   newDetector(inference.ModelArrhythmia, b.Arrhythmia),
		anemia:       newDetector(inference.ModelAnemia, b.Anemia),
		preeclampsia: newDetector(inference.ModelPreeclampsia, b.Preeclampsia),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With().Str("run_id", e.runID).Logger()
	return e
}

// RunID identifies this engine instance in logs and the journal.
func (e *Engine) RunID() string { return e.runID }

func (e *Engine) detectors() []*detector {
	return []*detector{e.arrhythmia, e.anemia, e.preeclampsia}
}

// Initialize brings up all three backends once. It always returns true:
// a detector whose backend fails still works on rules.
func (e *Engine) Initialize(ctx context.Context) bool {
	ctx, span := e.tracer.Start(ctx, "detect.Initialize")
	defer span.End()

	for _, d := range e.detectors() {
		d.init()
		st := d.status()
		ev := e.log.Info()
		if !st.Active {
			ev = e.log.Warn()
			if st.Error != "" {
				ev = ev.Str("error", st.Error)
			}
		}
		ev.Str("detector", st.Detector).
			Str("state", st.State).
			Str("path", st.Path).
			Msg("detector initialized")
		for _, o := range e.observers {
			o.ObserveInit(ctx, e.runID, st)
		}
	}

	span.SetAttributes(attribute.String("mode", e.Mode()))
	e.log.Info().Str("mode", e.Mode()).Msg("engine ready")
	return true
}

// Begin is an alias for Initialize.
func (e *Engine) Begin(ctx context.Context) bool {
	return e.Initialize(ctx)
}

// IsBackendActive reports whether any backend initialized successfully.
func (e *Engine) IsBackendActive() bool {
	for _, d := range e.detectors() {
		if d.state == inference.StateReady {
			return true
		}
	}
	return false
}

// Mode summarizes which paths are active across detectors.
func (e *Engine) Mode() string {
	ready := 0
	for _, d := range e.detectors() {
		if d.state == inference.StateReady {
			ready++
		}
	}
	switch ready {
	case 0:
		return ModeRules
	case len(e.detectors()):
		return ModeModel
	}
	return ModeMixed
}

// Status reports each detector's backend state in model order.
func (e *Engine) Status() []DetectorStatus {
	ds := e.detectors()
	out := make([]DetectorStatus, len(ds))
	for i, d := range ds {
		out[i] = d.status()
	}
	return out
}

// DetectArrhythmia classifies one window of ECG features.
func (e *Engine) DetectArrhythmia(ctx context.Context, heartRate, hrvSDNN, rrVariance, qrsWidth, rAmplitude int) vitals.ArrhythmiaResult {
	return e.Arrhythmia(ctx, vitals.ArrhythmiaFeatures{
		HeartRate:  heartRate,
		HRVSDNN:    hrvSDNN,
		RRVariance: rrVariance,
		QRSWidth:   qrsWidth,
		RAmplitude: rAmplitude,
	})
}

// DetectAnemia scores anemia risk.
func (e *Engine) DetectAnemia(ctx context.Context, spo2, heartRate, hrvSDNN, systolic, diastolic int) vitals.RiskResult {
	return e.Anemia(ctx, vitals.AnemiaFeatures{
		SpO2:      spo2,
		HeartRate: heartRate,
		HRVSDNN:   hrvSDNN,
		Systolic:  systolic,
		Diastolic: diastolic,
	})
}

// DetectPreeclampsia scores preeclampsia risk.
func (e *Engine) DetectPreeclampsia(ctx context.Context, systolic, diastolic, heartRate, hrvSDNN, spo2 int) vitals.RiskResult {
	return e.Preeclampsia(ctx, vitals.PreeclampsiaFeatures{
		Systolic:  systolic,
		Diastolic: diastolic,
		HeartRate: heartRate,
		HRVSDNN:   hrvSDNN,
		SpO2:      spo2,
	})
}

// Arrhythmia is DetectArrhythmia over a feature struct.
func (e *Engine) Arrhythmia(ctx context.Context, f vitals.ArrhythmiaFeatures) vitals.ArrhythmiaResult {
	ctx, span := e.tracer.Start(ctx, "detect.Arrhythmia")
	defer span.End()
	start := time.Now()

	if f.HeartRate == 0 {
		r := vitals.NoSignal()
		e.emit(ctx, span, e.arrhythmia, PathGuard, string(r.RhythmType), r.Confidence, r.IsCritical, start, nil)
		return r
	}

	idx, conf, err := e.arrhythmia.infer(ctx, f.Vector(), len(rhythmLabels))
	if err == nil {
		label := rhythmLabels[idx]
		r := vitals.ArrhythmiaResult{
			RhythmType: label,
			Confidence: conf,
			IsCritical: label != vitals.RhythmNormal && conf > arrhythmiaFlagConfidence,
		}
		e.emit(ctx, span, e.arrhythmia, PathModel, string(r.RhythmType), r.Confidence, r.IsCritical, start, nil)
		return r
	}

	r := rules.Arrhythmia(f)
	e.emit(ctx, span, e.arrhythmia, PathRules, string(r.RhythmType), r.Confidence, r.IsCritical, start, err)
	return r
}

// Anemia is DetectAnemia over a feature struct.
func (e *Engine) Anemia(ctx context.Context, f vitals.AnemiaFeatures) vitals.RiskResult {
	ctx, span := e.tracer.Start(ctx, "detect.Anemia")
	defer span.End()
	start := time.Now()

	if f.SpO2 == 0 && f.HeartRate == 0 {
		r := vitals.Unknown()
		e.emit(ctx, span, e.anemia, PathGuard, string(r.RiskLevel), r.Confidence, r.Alert, start, nil)
		return r
	}

	r, err := e.riskFromModel(ctx, e.anemia, f.Vector())
	if err == nil {
		e.emit(ctx, span, e.anemia, PathModel, string(r.RiskLevel), r.Confidence, r.Alert, start, nil)
		return r
	}

	r = rules.Anemia(f)
	e.emit(ctx, span, e.anemia, PathRules, string(r.RiskLevel), r.Confidence, r.Alert, start, err)
	return r
}

// Preeclampsia is DetectPreeclampsia over a feature struct.
func (e *Engine) Preeclampsia(ctx context.Context, f vitals.PreeclampsiaFeatures) vitals.RiskResult {
	ctx, span := e.tracer.Start(ctx, "detect.Preeclampsia")
	defer span.End()
	start := time.Now()

	if f.Systolic == 0 || f.HeartRate == 0 {
		r := vitals.Unknown()
		e.emit(ctx, span, e.preeclampsia, PathGuard, string(r.RiskLevel), r.Confidence, r.Alert, start, nil)
		return r
	}

	r, err := e.riskFromModel(ctx, e.preeclampsia, f.Vector())
	if err == nil {
		e.emit(ctx, span, e.preeclampsia, PathModel, string(r.RiskLevel), r.Confidence, r.Alert, start, nil)
		return r
	}

	r = rules.Preeclampsia(f)
	e.emit(ctx, span, e.preeclampsia, PathRules, string(r.RiskLevel), r.Confidence, r.Alert, start, err)
	return r
}

// Assess runs all three detectors over one sample.
func (e *Engine) Assess(ctx context.Context, s vitals.Sample) vitals.Assessment {
	return vitals.Assessment{
		DeviceID:     s.DeviceID,
		Arrhythmia:   e.Arrhythmia(ctx, s.Arrhythmia()),
		Anemia:       e.Anemia(ctx, s.Anemia()),
		Preeclampsia: e.Preeclampsia(ctx, s.Preeclampsia()),
	}
}

func (e *Engine) riskFromModel(ctx context.Context, d *detector, in inference.Input) (vitals.RiskResult, error) {
	idx, conf, err := d.infer(ctx, in, len(riskLabels))
	if err != nil {
		return vitals.RiskResult{}, err
	}
	return vitals.RiskResult{
		RiskLevel:  riskLabels[idx],
		Confidence: conf,
		Alert:      idx >= riskFlagClass,
	}, nil
}

func (e *Engine) emit(ctx context.Context, span trace.Span, d *detector, path, label string, conf float64, flag bool, start time.Time, reason error) {
	ev := Event{
		RunID:      e.runID,
		Detector:   d.model.String(),
		Path:       path,
		Label:      label,
		Confidence: conf,
		Flag:       flag,
		Latency:    time.Since(start),
		Reason:     reason,
	}

	span.SetAttributes(
		attribute.String("detector", ev.Detector),
		attribute.String("path", ev.Path),
		attribute.String("label", ev.Label),
		attribute.Bool("flag", ev.Flag),
	)

	log := e.log.Debug()
	var notReady *inference.ErrNotReady
	if reason != nil && !errors.As(reason, &notReady) {
		// The backend was ready but misbehaved.
		log = e.log.Warn().Err(reason)
		span.RecordError(reason)
	}
	log.Str("detector", ev.Detector).
		Str("path", ev.Path).
		Str("label", ev.Label).
		Float64("confidence", ev.Confidence).
		Bool("flag", ev.Flag).
		Msg("detection")

	for _, o := range e.observers {
		o.ObserveDetection(ctx, ev)
	}
}
