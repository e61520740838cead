package vitals

import "time"

// Sample is a full set of readings from one device at one instant. The
// detectors each take the subset they need.
type Sample struct {
	DeviceID    string    `json:"device_id"`
	HeartRate   int       `json:"heart_rate"`
	HRVSDNN     int       `json:"hrv_sdnn"`
	RRVariance  int       `json:"rr_variance"`
	QRSWidth    int       `json:"qrs_width"`
	RAmplitude  int       `json:"r_amplitude"`
	SpO2        int       `json:"spo2"`
	Systolic    int       `json:"bp_systolic"`
	Diastolic   int       `json:"bp_diastolic"`
	CollectedAt time.Time `json:"collected_at,omitempty"`
}

// Arrhythmia projects the sample onto the arrhythmia feature tuple.
func (s Sample) Arrhythmia() ArrhythmiaFeatures {
	return ArrhythmiaFeatures{
		HeartRate:  s.HeartRate,
		HRVSDNN:    s.HRVSDNN,
		RRVariance: s.RRVariance,
		QRSWidth:   s.QRSWidth,
		RAmplitude: s.RAmplitude,
	}
}

// Anemia projects the sample onto the anemia feature tuple.
func (s Sample) Anemia() AnemiaFeatures {
	return AnemiaFeatures{
		SpO2:      s.SpO2,
		HeartRate: s.HeartRate,
		HRVSDNN:   s.HRVSDNN,
		Systolic:  s.Systolic,
		Diastolic: s.Diastolic,
	}
}

// Preeclampsia projects the sample onto the preeclampsia feature tuple.
func (s Sample) Preeclampsia() PreeclampsiaFeatures {
	return PreeclampsiaFeatures{
		Systolic:  s.Systolic,
		Diastolic: s.Diastolic,
		HeartRate: s.HeartRate,
		HRVSDNN:   s.HRVSDNN,
		SpO2:      s.SpO2,
	}
}

// Assessment bundles the three detector outcomes for one sample.
type Assessment struct {
	DeviceID     string           `json:"device_id,omitempty"`
	Arrhythmia   ArrhythmiaResult `json:"arrhythmia"`
	Anemia       RiskResult       `json:"anemia"`
	Preeclampsia RiskResult       `json:"preeclampsia"`
}
