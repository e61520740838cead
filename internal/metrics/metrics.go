// Package metrics exports detection counters in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lifeband/edgeai/internal/detect"
	"github.com/lifeband/edgeai/internal/inference"
)

// Recorder implements detect.Observer on its own registry.
type Recorder struct {
	reg *prometheus.Registry

	Detections      *prometheus.CounterVec
	Alerts          *prometheus.CounterVec
	Fallbacks       *prometheus.CounterVec
	BackendReady    *prometheus.GaugeVec
	DetectionTiming *prometheus.HistogramVec
}

// New creates a Recorder and registers its collectors together with the Go
// runtime and process collectors.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		Detections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lifeband_detections_total",
				Help: "Detections per detector, decision path and label",
			},
			[]string{"detector", "path", "label"},
		),
		Alerts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lifeband_alerts_total",
				Help: "Detections that raised the critical or alert flag",
			},
			[]string{"detector"},
		),
		Fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lifeband_fallbacks_total",
				Help: "Detections served by rules instead of the model",
			},
			[]string{"detector", "reason"},
		),
		BackendReady: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "lifeband_backend_ready",
				Help: "Inference backend ready (1) or on rules (0)",
			},
			[]string{"detector"},
		),
		DetectionTiming: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lifeband_detection_duration_seconds",
				Help:    "Time spent in one detection",
				Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
			},
			[]string{"detector", "path"},
		),
	}
	r.reg.MustRegister(
		r.Detections, r.Alerts, r.Fallbacks, r.BackendReady, r.DetectionTiming,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Handler serves the registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

func (r *Recorder) ObserveInit(_ context.Context, _ string, s detect.DetectorStatus) {
	v := 0.0
	if s.Active {
		v = 1
	}
	r.BackendReady.WithLabelValues(s.Detector).Set(v)
}

func (r *Recorder) ObserveDetection(_ context.Context, ev detect.Event) {
	r.Detections.WithLabelValues(ev.Detector, ev.Path, ev.Label).Inc()
	r.DetectionTiming.WithLabelValues(ev.Detector, ev.Path).Observe(ev.Latency.Seconds())
	if ev.Flag {
		r.Alerts.WithLabelValues(ev.Detector).Inc()
	}
	if ev.Path == detect.PathRules {
		r.Fallbacks.WithLabelValues(ev.Detector, fallbackReason(ev.Reason)).Inc()
	}
}

// fallbackReason buckets the error into a low-cardinality label.
func fallbackReason(err error) string {
	var notReady *inference.ErrNotReady
	var invalid *inference.ErrInvalidOutput
	switch {
	case err == nil:
		return "none"
	case errors.As(err, &notReady):
		return "not_ready"
	case errors.As(err, &invalid):
		return "invalid_output"
	}
	return "invoke_error"
}
