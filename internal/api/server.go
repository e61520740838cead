// Package api exposes the detectors over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/lifeband/edgeai/internal/detect"
	"github.com/lifeband/edgeai/internal/vitals"
)

var tracer = otel.Tracer("github.com/lifeband/edgeai/internal/api")

// Detector is the subset of *detect.Engine the API needs.
type Detector interface {
	Arrhythmia(ctx context.Context, f vitals.ArrhythmiaFeatures) vitals.ArrhythmiaResult
	Anemia(ctx context.Context, f vitals.AnemiaFeatures) vitals.RiskResult
	Preeclampsia(ctx context.Context, f vitals.PreeclampsiaFeatures) vitals.RiskResult
	Assess(ctx context.Context, s vitals.Sample) vitals.Assessment
	Mode() string
	Status() []detect.DetectorStatus
	RunID() string
}

// Deps are the collaborators a Server needs. Metrics is mounted at /metrics
// when set.
type Deps struct {
	Log      zerolog.Logger
	Detector Detector
	Metrics  http.Handler // optional
}

// Config holds the listener settings.
type Config struct{ Addr string }

// Server is the HTTP front end of the detectors.
type Server struct {
	d   Deps
	c   Config
	srv *http.Server
}

// NewServer wires routes onto an http.Server. Nothing listens until Run.
func NewServer(d Deps, c Config) *Server {
	s := &Server{d: d, c: c}
	s.srv = &http.Server{
		Addr:              c.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Routes builds the router. Exposed for tests.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	if s.d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.d.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/detect/arrhythmia", s.handleArrhythmia)
		r.Post("/detect/anemia", s.handleAnemia)
		r.Post("/detect/preeclampsia", s.handlePreeclampsia)
		r.Post("/assess", s.handleAssess)
	})
	return r
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.d.Log.Info().Str("addr", s.c.Addr).Msg("http server listening")
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.d.Log.Info().Msg("stopping http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}

type arrhythmiaPayload struct {
	HeartRate  int `json:"heart_rate"`
	HRVSDNN    int `json:"hrv_sdnn"`
	RRVariance int `json:"rr_variance"`
	QRSWidth   int `json:"qrs_width"`
	RAmplitude int `json:"r_amplitude"`
}

type anemiaPayload struct {
	SpO2      int `json:"spo2"`
	HeartRate int `json:"heart_rate"`
	HRVSDNN   int `json:"hrv_sdnn"`
	Systolic  int `json:"bp_systolic"`
	Diastolic int `json:"bp_diastolic"`
}

// preeclampsiaPayload shares the anemia field names.
type preeclampsiaPayload = anemiaPayload

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return false
	}
	return true
}

// validate answers 400 with the offending field when v carries a negative
// reading.
func validate(w http.ResponseWriter, v interface{ Validate() error }) bool {
	if err := v.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleArrhythmia(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "POST /v1/detect/arrhythmia")
	defer span.End()

	var p arrhythmiaPayload
	if !decode(w, r, &p) {
		return
	}
	f := vitals.ArrhythmiaFeatures{
		HeartRate:  p.HeartRate,
		HRVSDNN:    p.HRVSDNN,
		RRVariance: p.RRVariance,
		QRSWidth:   p.QRSWidth,
		RAmplitude: p.RAmplitude,
	}
	if !validate(w, f) {
		return
	}
	res := s.d.Detector.Arrhythmia(ctx, f)
	span.SetAttributes(attribute.String("rhythm", string(res.RhythmType)))
	writeJSON(w, res)
}

func (s *Server) handleAnemia(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "POST /v1/detect/anemia")
	defer span.End()

	var p anemiaPayload
	if !decode(w, r, &p) {
		return
	}
	f := vitals.AnemiaFeatures{
		SpO2:      p.SpO2,
		HeartRate: p.HeartRate,
		HRVSDNN:   p.HRVSDNN,
		Systolic:  p.Systolic,
		Diastolic: p.Diastolic,
	}
	if !validate(w, f) {
		return
	}
	res := s.d.Detector.Anemia(ctx, f)
	span.SetAttributes(attribute.String("risk", string(res.RiskLevel)))
	writeJSON(w, res)
}

func (s *Server) handlePreeclampsia(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "POST /v1/detect/preeclampsia")
	defer span.End()

	var p preeclampsiaPayload
	if !decode(w, r, &p) {
		return
	}
	f := vitals.PreeclampsiaFeatures{
		Systolic:  p.Systolic,
		Diastolic: p.Diastolic,
		HeartRate: p.HeartRate,
		HRVSDNN:   p.HRVSDNN,
		SpO2:      p.SpO2,
	}
	if !validate(w, f) {
		return
	}
	res := s.d.Detector.Preeclampsia(ctx, f)
	span.SetAttributes(attribute.String("risk", string(res.RiskLevel)))
	writeJSON(w, res)
}

func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "POST /v1/assess")
	defer span.End()

	var smp vitals.Sample
	if !decode(w, r, &smp) {
		return
	}
	if !validate(w, smp) {
		return
	}
	span.SetAttributes(attribute.String("device", smp.DeviceID))
	writeJSON(w, s.d.Detector.Assess(ctx, smp))
}

type statusResponse struct {
	RunID     string                  `json:"run_id"`
	Mode      string                  `json:"mode"`
	Detectors []detect.DetectorStatus `json:"detectors"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	_, span := tracer.Start(r.Context(), "GET /v1/status")
	defer span.End()

	writeJSON(w, statusResponse{
		RunID:     s.d.Detector.RunID(),
		Mode:      s.d.Detector.Mode(),
		Detectors: s.d.Detector.Status(),
	})
}
