package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lifeband/edgeai/internal/detect"
	"github.com/lifeband/edgeai/internal/vitals"
)

func TestWriteAssessment(t *testing.T) {
	var buf bytes.Buffer
	err := WriteAssessment(&buf, vitals.Assessment{
		DeviceID:     "band-01",
		Arrhythmia:   vitals.ArrhythmiaResult{RhythmType: vitals.RhythmBradycardia, Confidence: 95, IsCritical: true},
		Anemia:       vitals.RiskResult{RiskLevel: vitals.RiskLow, Confidence: 0},
		Preeclampsia: vitals.RiskResult{RiskLevel: vitals.RiskModerate, Confidence: 50, Alert: true},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), out)
	}
	checks := []struct {
		line int
		want []string
	}{
		{0, []string{"band-01"}},
		{1, []string{"arrhythmia", "Bradycardia", "95.0%", "CRITICAL"}},
		{2, []string{"anemia", "Low", "0.0%"}},
		{3, []string{"preeclampsia", "Moderate", "50.0%", "ALERT"}},
	}
	for _, c := range checks {
		for _, w := range c.want {
			if !strings.Contains(lines[c.line], w) {
				t.Errorf("line %d = %q, missing %q", c.line, lines[c.line], w)
			}
		}
	}
	if strings.Contains(lines[2], "ALERT") {
		t.Errorf("anemia line should not alert: %q", lines[2])
	}
}

func TestWriteStatus(t *testing.T) {
	var buf bytes.Buffer
	err := WriteStatus(&buf, detect.ModeMixed, []detect.DetectorStatus{
		{Detector: "arrhythmia", State: "ready", Active: true, Path: detect.PathModel},
		{Detector: "anemia", State: "failed", Path: detect.PathRules, Error: "model file not found"},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"mixed", "arrhythmia", "ready", "anemia", "failed", "model file not found"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
