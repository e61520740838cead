package rules

import "github.com/lifeband/edgeai/internal/vitals"

var anemiaTiers = tiers{critical: 70, high: 50, moderate: 30}

// Anemia sums every applicable risk clause and maps the total to a tier.
// Diastolic pressure is accepted but unused.
func Anemia(f vitals.AnemiaFeatures) vitals.RiskResult {
	var score float64
	var alert bool

	switch {
	case f.SpO2 < 88:
		score += 40
		alert = true
	case f.SpO2 <= 91:
		score += 30
	case f.SpO2 <= 94:
		score += 15
	}

	switch {
	case f.HeartRate > 110:
		score += 25
	case f.HeartRate >= 95:
		score += 15
	}

	switch {
	case f.HRVSDNN < 30:
		score += 15
	case f.HRVSDNN < 50:
		score += 8
	}

	// Compensation patterns: low pressure or a raised rate alongside desaturation.
	if f.Systolic < 100 && f.SpO2 < 94 {
		score += 10
	}
	if f.HeartRate > 95 && f.SpO2 < 94 {
		score += 20
	}

	return riskResult(score, alert, anemiaTiers)
}
