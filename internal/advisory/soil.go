// Package advisory holds the offline agronomy rules: a soil fertility
// classifier and an irrigation volume estimator. Both are pure functions of
// their inputs and safe for concurrent use.
package advisory

import "fmt"

// FertilityLabel is the three-level soil fertility classification.
type FertilityLabel string

const (
	LowFertility      FertilityLabel = "Low Fertility"
	ModerateFertility FertilityLabel = "Moderate Fertility"
	HighFertility     FertilityLabel = "High Fertility"
)

const (
	phMin = 5.5
	phMax = 8.2

	phPenalty      = 40
	drynessPenalty = 25
	dryMoisture    = 25

	moderateScore = 120
	highScore     = 260
)

// SoilSample is one soil test reading. Nutrients are in the units the
// farmer's test kit reports (kg/ha on most kits).
type SoilSample struct {
	Nitrogen        float64 `json:"nitrogen"`
	Phosphorus      float64 `json:"phosphorus"`
	Potassium       float64 `json:"potassium"`
	PH              float64 `json:"ph"`
	MoisturePercent float64 `json:"moisture"`
}

// SoilScore returns N+P+K after the pH and dryness penalties.
// Acidic or alkaline soil costs 40 points, moisture under 25% costs 25.
func SoilScore(s SoilSample) float64 {
	score := s.Nitrogen + s.Phosphorus + s.Potassium
	if s.PH < phMin || s.PH > phMax {
		score -= phPenalty
	}
	if s.MoisturePercent < dryMoisture {
		score -= drynessPenalty
	}
	return score
}

// ClassifySoil maps a sample onto a fertility label. It does not validate
// ranges; out-of-domain values just move the score.
func ClassifySoil(s SoilSample) FertilityLabel {
	score := SoilScore(s)
	switch {
	case score < moderateScore:
		return LowFertility
	case score < highScore:
		return ModerateFertility
	default:
		return HighFertility
	}
}

// Classify is ClassifySoil with positional arguments.
func Classify(nitrogen, phosphorus, potassium, pH, moisturePercent float64) FertilityLabel {
	return ClassifySoil(SoilSample{
		Nitrogen:        nitrogen,
		Phosphorus:      phosphorus,
		Potassium:       potassium,
		PH:              pH,
		MoisturePercent: moisturePercent,
	})
}

// SoilAdvice renders the label the way it is shown to the farmer.
func SoilAdvice(label FertilityLabel) string {
	return fmt.Sprintf("Soil status: %s", label)
}
