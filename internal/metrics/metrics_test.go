package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/lifeband/edgeai/internal/detect"
	"github.com/lifeband/edgeai/internal/inference"
)

func TestObserveDetection(t *testing.T) {
	r := New()
	ctx := context.Background()

	r.ObserveDetection(ctx, detect.Event{Detector: "anemia", Path: detect.PathModel, Label: "High", Flag: true, Latency: time.Millisecond})
	r.ObserveDetection(ctx, detect.Event{Detector: "anemia", Path: detect.PathRules, Label: "Low", Reason: &inference.ErrNotReady{Model: inference.ModelAnemia}})
	r.ObserveDetection(ctx, detect.Event{Detector: "anemia", Path: detect.PathRules, Label: "Low", Reason: fmt.Errorf("wrap: %w", &inference.ErrInvalidOutput{Model: inference.ModelAnemia, Err: errors.New("nan")})})

	if got := testutil.ToFloat64(r.Detections.WithLabelValues("anemia", "rules", "Low")); got != 2 {
		t.Errorf("rules/Low detections = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.Alerts.WithLabelValues("anemia")); got != 1 {
		t.Errorf("alerts = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.Fallbacks.WithLabelValues("anemia", "not_ready")); got != 1 {
		t.Errorf("not_ready fallbacks = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.Fallbacks.WithLabelValues("anemia", "invalid_output")); got != 1 {
		t.Errorf("invalid_output fallbacks = %v, want 1", got)
	}
}

func TestObserveInit(t *testing.T) {
	r := New()
	r.ObserveInit(context.Background(), "run", detect.DetectorStatus{Detector: "arrhythmia", Active: true})
	r.ObserveInit(context.Background(), "run", detect.DetectorStatus{Detector: "anemia", Active: false})

	if got := testutil.ToFloat64(r.BackendReady.WithLabelValues("arrhythmia")); got != 1 {
		t.Errorf("arrhythmia ready = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.BackendReady.WithLabelValues("anemia")); got != 0 {
		t.Errorf("anemia ready = %v, want 0", got)
	}
}

func TestHandler(t *testing.T) {
	r := New()
	r.ObserveDetection(context.Background(), detect.Event{Detector: "preeclampsia", Path: detect.PathGuard, Label: "Unknown"})

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	want := `lifeband_detections_total{detector="preeclampsia",label="Unknown",path="guard"} 1`
	if !strings.Contains(string(body), want) {
		t.Errorf("metrics output missing %q", want)
	}
}

func TestFallbackReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "none"},
		{&inference.ErrNotReady{}, "not_ready"},
		{&inference.ErrInvalidOutput{Err: errors.New("x")}, "invalid_output"},
		{errors.New("boom"), "invoke_error"},
	}
	for _, tt := range tests {
		if got := fallbackReason(tt.err); got != tt.want {
			t.Errorf("fallbackReason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
