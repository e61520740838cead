package vitals

import "fmt"

// NegativeReadingError reports a reading below zero. Field uses the JSON
// name so callers can echo it back to the sender.
type NegativeReadingError struct {
	Field string
	Value int
}

func (e *NegativeReadingError) Error() string {
	return fmt.Sprintf("%s must not be negative, got %d", e.Field, e.Value)
}

type reading struct {
	field string
	v     int
}

// Zero is a valid "no reading" value handled by the detectors' guards, so
// only negatives are rejected.
func nonNegative(rs ...reading) error {
	for _, r := range rs {
		if r.v < 0 {
			return &NegativeReadingError{Field: r.field, Value: r.v}
		}
	}
	return nil
}

// Validate rejects a sample carrying any negative reading.
func (s Sample) Validate() error {
	return nonNegative(
		reading{"heart_rate", s.HeartRate},
		reading{"hrv_sdnn", s.HRVSDNN},
		reading{"rr_variance", s.RRVariance},
		reading{"qrs_width", s.QRSWidth},
		reading{"r_amplitude", s.RAmplitude},
		reading{"spo2", s.SpO2},
		reading{"bp_systolic", s.Systolic},
		reading{"bp_diastolic", s.Diastolic},
	)
}

func (f ArrhythmiaFeatures) Validate() error {
	return nonNegative(
		reading{"heart_rate", f.HeartRate},
		reading{"hrv_sdnn", f.HRVSDNN},
		reading{"rr_variance", f.RRVariance},
		reading{"qrs_width", f.QRSWidth},
		reading{"r_amplitude", f.RAmplitude},
	)
}

func (f AnemiaFeatures) Validate() error {
	return nonNegative(
		reading{"spo2", f.SpO2},
		reading{"heart_rate", f.HeartRate},
		reading{"hrv_sdnn", f.HRVSDNN},
		reading{"bp_systolic", f.Systolic},
		reading{"bp_diastolic", f.Diastolic},
	)
}

func (f PreeclampsiaFeatures) Validate() error {
	return nonNegative(
		reading{"bp_systolic", f.Systolic},
		reading{"bp_diastolic", f.Diastolic},
		reading{"heart_rate", f.HeartRate},
		reading{"hrv_sdnn", f.HRVSDNN},
		reading{"spo2", f.SpO2},
	)
}
