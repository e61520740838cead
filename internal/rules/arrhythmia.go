// Package rules holds the deterministic scoring used whenever a learned
// model is unavailable. Every function is pure: the same features always
// produce the same result.
package rules

import "github.com/lifeband/edgeai/internal/vitals"

// Rhythm thresholds. Heart rate in bpm, widths in ms, variance in ms².
const (
	BradycardiaHR       = 50
	SevereBradycardiaHR = 40
	TachycardiaHR       = 100
	SevereTachycardiaHR = 150
	AFibRRVariance      = 2000
	AFibMinSDNN         = 80
	PVCQRSWidth         = 120
	CriticalPVCQRSWidth = 140
	PVCMaxSDNN          = 600
)

const criticalRhythmConfidence = 95.0

// Arrhythmia classifies a rhythm by walking an ordered ladder. The first
// matching rung wins and later rungs are never evaluated. R-amplitude is
// accepted but does not influence the outcome.
func Arrhythmia(f vitals.ArrhythmiaFeatures) vitals.ArrhythmiaResult {
	var r vitals.ArrhythmiaResult

	switch {
	case f.HeartRate > 0 && f.HeartRate < BradycardiaHR:
		r.RhythmType = vitals.RhythmBradycardia
		r.Confidence = 85.0 + float64(BradycardiaHR-f.HeartRate)*0.5
		if f.HeartRate < SevereBradycardiaHR {
			r.IsCritical = true
			r.Confidence = criticalRhythmConfidence
		}

	case f.HeartRate > TachycardiaHR:
		r.RhythmType = vitals.RhythmTachycardia
		r.Confidence = 80.0 + float64(f.HeartRate-TachycardiaHR)*0.3
		if f.HeartRate > SevereTachycardiaHR {
			r.IsCritical = true
			r.Confidence = criticalRhythmConfidence
		}

	case f.RRVariance > AFibRRVariance && f.HRVSDNN > AFibMinSDNN:
		r.RhythmType = vitals.RhythmAFib
		r.Confidence = 75.0
		r.IsCritical = true

	case f.QRSWidth > PVCQRSWidth && f.HRVSDNN < PVCMaxSDNN:
		r.RhythmType = vitals.RhythmPVC
		r.Confidence = 70.0 + float64(f.QRSWidth-PVCQRSWidth)*0.2
		r.IsCritical = f.QRSWidth > CriticalPVCQRSWidth

	default:
		r.RhythmType = vitals.RhythmNormal
		r.Confidence = 90.0
	}

	r.Confidence = vitals.ClampConfidence(r.Confidence)
	return r
}
