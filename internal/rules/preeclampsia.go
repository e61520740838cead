package rules

import "github.com/lifeband/edgeai/internal/vitals"

// Blood pressure bands, mmHg.
const (
	SevereSystolic    = 160
	SevereDiastolic   = 110
	HypertensiveSys   = 140
	HypertensiveDia   = 90
	ElevatedSystolic  = 130
	ElevatedDiastolic = 85
)

var preeclampsiaTiers = tiers{critical: 80, high: 60, moderate: 40}

// Preeclampsia sums every applicable risk clause and maps the total to a tier.
func Preeclampsia(f vitals.PreeclampsiaFeatures) vitals.RiskResult {
	var score float64
	var alert bool

	switch {
	case f.Systolic >= SevereSystolic || f.Diastolic >= SevereDiastolic:
		score += 50
		alert = true
	case f.Systolic >= HypertensiveSys || f.Diastolic >= HypertensiveDia:
		score += 35
		alert = true
	case f.Systolic >= ElevatedSystolic || f.Diastolic >= ElevatedDiastolic:
		score += 20
	}

	switch {
	case f.HeartRate > 100:
		score += 15
	case f.HeartRate >= 90:
		score += 8
	}

	switch {
	case f.HRVSDNN < 30:
		score += 20
	case f.HRVSDNN < 50:
		score += 12
	}

	if f.SpO2 < 94 && f.Systolic >= HypertensiveSys {
		score += 15
		alert = true
	}

	if f.Systolic >= HypertensiveSys && f.HeartRate > 95 && f.HRVSDNN < 40 {
		score += 25
		alert = true
	}

	return riskResult(score, alert, preeclampsiaTiers)
}
