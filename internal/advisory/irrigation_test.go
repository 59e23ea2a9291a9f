package advisory

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateIrrigation(t *testing.T) {
	tests := []struct {
		name    string
		climate ClimateSample
		want    float64
	}{
		{"hot and dry within range", ClimateSample{50, 0, 0, 0}, 100.0},
		{"cold and flooded clamps low", ClimateSample{0, 0, 300, 0}, 5.0},
		{"out of domain heat clamps high", ClimateSample{100, 0, 0, 0}, 120.0},
		{"form defaults", ClimateSample{28, 55, 0, 25}, 36.9},
		{"reference temperature only", ClimateSample{20, 0, 0, 0}, 40.0},
		{"rounds down to one decimal", ClimateSample{25, 22.25, 0, 0}, 47.3},
		{"exact tie goes to even", ClimateSample{28, 0, 0, 25.5}, 43.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateIrrigation(tt.climate))
		})
	}
}

// Near-ties where need*10 rounds differently from need itself.
func TestEstimateRoundsComputedNeed(t *testing.T) {
	tests := []struct {
		soilMoisture float64
		want         float64
	}{
		{5.1, 47.5},
		{0.3, 49.9},
		{0.9, 49.5},
		{5.3, 47.4},
	}
	for _, tt := range tests {
		t.Run(strconv.FormatFloat(tt.soilMoisture, 'f', -1, 64), func(t *testing.T) {
			assert.Equal(t, tt.want, Estimate(25, 0, 0, tt.soilMoisture))
		})
	}
}

func TestEstimateAlwaysWithinBounds(t *testing.T) {
	temps := []float64{-40, 0, 20, 35, 50, 90}
	others := []float64{0, 10, 50, 100, 300, 1000}
	for _, temp := range temps {
		for _, v := range others {
			got := Estimate(temp, v, v, v)
			require.GreaterOrEqual(t, got, MinIrrigationLiters)
			require.LessOrEqual(t, got, MaxIrrigationLiters)
		}
	}
}

func TestEstimateMonotonic(t *testing.T) {
	base := ClimateSample{TemperatureC: 30, HumidityPercent: 40, RainfallMm: 5, SoilMoisturePercent: 20}

	prev := math.Inf(1)
	for rain := 0.0; rain <= 300; rain += 7.5 {
		c := base
		c.RainfallMm = rain
		got := EstimateIrrigation(c)
		assert.LessOrEqual(t, got, prev, "rain=%v", rain)
		prev = got
	}

	prev = math.Inf(1)
	for h := 0.0; h <= 100; h += 5 {
		c := base
		c.HumidityPercent = h
		got := EstimateIrrigation(c)
		assert.LessOrEqual(t, got, prev, "humidity=%v", h)
		prev = got
	}

	prev = math.Inf(1)
	for m := 0.0; m <= 100; m += 5 {
		c := base
		c.SoilMoisturePercent = m
		got := EstimateIrrigation(c)
		assert.LessOrEqual(t, got, prev, "soil moisture=%v", m)
		prev = got
	}

	prev = math.Inf(-1)
	for temp := -10.0; temp <= 80; temp += 2.5 {
		c := base
		c.TemperatureC = temp
		got := EstimateIrrigation(c)
		assert.GreaterOrEqual(t, got, prev, "temperature=%v", temp)
		prev = got
	}
}

func TestEstimateIsDeterministic(t *testing.T) {
	first := Estimate(31.7, 63, 4.2, 18.9)
	for i := 0; i < 100; i++ {
		require.Equal(t, math.Float64bits(first), math.Float64bits(Estimate(31.7, 63, 4.2, 18.9)))
	}
}

func TestEstimateHasOneDecimal(t *testing.T) {
	for temp := 0.0; temp <= 50; temp += 1.3 {
		got := Estimate(temp, 47, 1.1, 13.7)
		s := strconv.FormatFloat(got, 'f', -1, 64)
		reparsed, err := strconv.ParseFloat(strconv.FormatFloat(got, 'f', 1, 64), 64)
		require.NoError(t, err)
		assert.Equal(t, reparsed, got, "value %s has more than one decimal", s)
	}
}

func TestIrrigationAdvice(t *testing.T) {
	assert.Equal(t, "Recommended irrigation: ~47.3 L/acre", IrrigationAdvice(47.3))
	assert.Equal(t, "Recommended irrigation: ~100.0 L/acre", IrrigationAdvice(100))
}
