package vitals

import (
	"errors"
	"testing"
)

func TestSampleValidate(t *testing.T) {
	if err := (Sample{}).Validate(); err != nil {
		t.Errorf("zero sample: got %v, want nil", err)
	}
	if err := (Sample{HeartRate: 72, SpO2: 98, Systolic: 120, Diastolic: 80}).Validate(); err != nil {
		t.Errorf("normal sample: got %v, want nil", err)
	}

	err := Sample{HeartRate: 72, QRSWidth: -1}.Validate()
	var neg *NegativeReadingError
	if !errors.As(err, &neg) {
		t.Fatalf("got %v, want *NegativeReadingError", err)
	}
	if neg.Field != "qrs_width" || neg.Value != -1 {
		t.Errorf("got %s=%d, want qrs_width=-1", neg.Field, neg.Value)
	}
	if got, want := err.Error(), "qrs_width must not be negative, got -1"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFeatureValidate(t *testing.T) {
	tests := []struct {
		name  string
		v     interface{ Validate() error }
		field string
	}{
		{"arrhythmia ok", ArrhythmiaFeatures{HeartRate: 72, HRVSDNN: 45}, ""},
		{"arrhythmia heart rate", ArrhythmiaFeatures{HeartRate: -5}, "heart_rate"},
		{"arrhythmia amplitude", ArrhythmiaFeatures{HeartRate: 72, RAmplitude: -1}, "r_amplitude"},
		{"anemia ok", AnemiaFeatures{SpO2: 97}, ""},
		{"anemia spo2", AnemiaFeatures{SpO2: -97}, "spo2"},
		{"preeclampsia ok", PreeclampsiaFeatures{Systolic: 120, Diastolic: 80}, ""},
		{"preeclampsia systolic", PreeclampsiaFeatures{Systolic: -120}, "bp_systolic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.v.Validate()
			if tt.field == "" {
				if err != nil {
					t.Errorf("got %v, want nil", err)
				}
				return
			}
			var neg *NegativeReadingError
			if !errors.As(err, &neg) {
				t.Fatalf("got %v, want *NegativeReadingError", err)
			}
			if neg.Field != tt.field {
				t.Errorf("field = %q, want %q", neg.Field, tt.field)
			}
		})
	}
}
