// Package vitals defines the feature tuples read from the band and the
// result values returned by the three risk detectors.
package vitals

// RhythmType classifies a heart rhythm.
type RhythmType string

const (
	RhythmNoSignal    RhythmType = "NoSignal"
	RhythmNormal      RhythmType = "Normal"
	RhythmAFib        RhythmType = "AFib"
	RhythmPVC         RhythmType = "PVC"
	RhythmBradycardia RhythmType = "Bradycardia"
	RhythmTachycardia RhythmType = "Tachycardia"
)

// RiskLevel is the tier of an anemia or preeclampsia assessment.
type RiskLevel string

const (
	RiskUnknown  RiskLevel = "Unknown"
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

// ArrhythmiaFeatures is one window of ECG-derived features.
type ArrhythmiaFeatures struct {
	HeartRate  int // bpm
	HRVSDNN    int // ms
	RRVariance int // ms²
	QRSWidth   int // ms
	RAmplitude int // R-peak amplitude, ADC units
}

// AnemiaFeatures is one window of oximetry and pressure features.
type AnemiaFeatures struct {
	SpO2      int // %
	HeartRate int
	HRVSDNN   int
	Systolic  int // mmHg
	Diastolic int // mmHg
}

// PreeclampsiaFeatures is one window of pressure-led features.
type PreeclampsiaFeatures struct {
	Systolic  int
	Diastolic int
	HeartRate int
	HRVSDNN   int
	SpO2      int
}

// ArrhythmiaResult is the outcome of a rhythm classification.
type ArrhythmiaResult struct {
	RhythmType RhythmType `json:"rhythm_type"`
	Confidence float64    `json:"confidence"` // 0–100
	IsCritical bool       `json:"is_critical"`
}

// RiskResult is the outcome of an anemia or preeclampsia assessment.
type RiskResult struct {
	RiskLevel  RiskLevel `json:"risk_level"`
	Confidence float64   `json:"confidence"` // 0–100
	Alert      bool      `json:"alert"`
}

// NoSignal is the sentinel returned when the heart rate is missing.
func NoSignal() ArrhythmiaResult {
	return ArrhythmiaResult{RhythmType: RhythmNoSignal}
}

// Unknown is the sentinel returned when a risk assessment lacks its primary signal.
func Unknown() RiskResult {
	return RiskResult{RiskLevel: RiskUnknown}
}

// ClampConfidence bounds a confidence value to [0, 100].
// NaN maps to 0.
func ClampConfidence(c float64) float64 {
	switch {
	case c != c:
		return 0
	case c < 0:
		return 0
	case c > 100:
		return 100
	}
	return c
}

// Vector returns the features in model input order.
func (f ArrhythmiaFeatures) Vector() [5]float32 {
	return [5]float32{
		float32(f.HeartRate),
		float32(f.HRVSDNN),
		float32(f.RRVariance),
		float32(f.QRSWidth),
		float32(f.RAmplitude),
	}
}

// Vector returns the features in model input order.
func (f AnemiaFeatures) Vector() [5]float32 {
	return [5]float32{
		float32(f.SpO2),
		float32(f.HeartRate),
		float32(f.HRVSDNN),
		float32(f.Systolic),
		float32(f.Diastolic),
	}
}

// Vector returns the features in model input order.
func (f PreeclampsiaFeatures) Vector() [5]float32 {
	return [5]float32{
		float32(f.Systolic),
		float32(f.Diastolic),
		float32(f.HeartRate),
		float32(f.HRVSDNN),
		float32(f.SpO2),
	}
}
