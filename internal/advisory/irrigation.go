package advisory

import (
	"fmt"
	"math"
	"strconv"
)

// Bounds of a recommendation, liters per acre.
const (
	MinIrrigationLiters = 5.0
	MaxIrrigationLiters = 120.0
)

const (
	baseNeedLiters = 40.0
	referenceTempC = 20.0
	perDegree      = 2.0
	perRainMm      = 0.7
	perMoisturePct = 0.5
	perHumidityPct = 0.12
)

// ClimateSample is the field conditions an irrigation estimate is based on.
type ClimateSample struct {
	TemperatureC        float64 `json:"temperature"`
	HumidityPercent     float64 `json:"humidity"`
	RainfallMm          float64 `json:"rainfall"`
	SoilMoisturePercent float64 `json:"soil_moisture"`
}

// EstimateIrrigation returns the recommended water volume in liters per acre,
// clamped to [MinIrrigationLiters, MaxIrrigationLiters] and rounded to one
// decimal place.
func EstimateIrrigation(c ClimateSample) float64 {
	need := baseNeedLiters + (c.TemperatureC-referenceTempC)*perDegree
	need -= c.RainfallMm * perRainMm
	need -= c.SoilMoisturePercent * perMoisturePct
	need -= c.HumidityPercent * perHumidityPct

	need = math.Max(MinIrrigationLiters, math.Min(MaxIrrigationLiters, need))
	return roundTenth(need)
}

// Estimate is EstimateIrrigation with positional arguments.
func Estimate(temperatureC, humidityPercent, rainfallMm, soilMoisturePercent float64) float64 {
	return EstimateIrrigation(ClimateSample{
		TemperatureC:        temperatureC,
		HumidityPercent:     humidityPercent,
		RainfallMm:          rainfallMm,
		SoilMoisturePercent: soilMoisturePercent,
	})
}

// IrrigationAdvice renders a volume the way it is shown to the farmer.
func IrrigationAdvice(liters float64) string {
	return fmt.Sprintf("Recommended irrigation: ~%s L/acre", strconv.FormatFloat(liters, 'f', 1, 64))
}

// roundTenth returns the tenth nearest to v itself. Scaling by ten first
// would round the product, which can invent or hide a tie; formatting rounds
// the exact binary value, and exact ties go to the even tenth (43.25 -> 43.2).
func roundTenth(v float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	return r
}
