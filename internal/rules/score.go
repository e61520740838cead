package rules

import "github.com/lifeband/edgeai/internal/vitals"

// MaxScoreConfidence caps the confidence derived from an additive risk score.
const MaxScoreConfidence = 95.0

// tiers maps a score onto a risk level. Thresholds are inclusive lower
// bounds, checked from the most severe down.
type tiers struct {
	critical float64
	high     float64
	moderate float64
}

func (t tiers) level(score float64) vitals.RiskLevel {
	switch {
	case score >= t.critical:
		return vitals.RiskCritical
	case score >= t.high:
		return vitals.RiskHigh
	case score >= t.moderate:
		return vitals.RiskModerate
	}
	return vitals.RiskLow
}

// riskResult converts an accumulated score into a result. High and Critical
// tiers always alert; lower tiers keep an alert raised by an individual
// clause, so the tier and the flag may disagree.
func riskResult(score float64, alert bool, t tiers) vitals.RiskResult {
	level := t.level(score)
	if level == vitals.RiskHigh || level == vitals.RiskCritical {
		alert = true
	}
	return vitals.RiskResult{
		RiskLevel:  level,
		Confidence: vitals.ClampConfidence(min(score, MaxScoreConfidence)),
		Alert:      alert,
	}
}
