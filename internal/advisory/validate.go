package advisory

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidSample is wrapped by every *ValidationError.
var ErrInvalidSample = errors.New("invalid sample")

// FieldError describes one field outside its accepted domain.
type FieldError struct {
	Field string  `json:"field"`
	Value float64 `json:"value"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

func (e FieldError) String() string {
	if math.IsNaN(e.Value) || math.IsInf(e.Value, 0) {
		return fmt.Sprintf("%s must be a finite number", e.Field)
	}
	return fmt.Sprintf("%s must be between %g and %g, got %g", e.Field, e.Min, e.Max, e.Value)
}

// ValidationError lists every offending field of a sample.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.String()
	}
	return fmt.Sprintf("%s: %s", ErrInvalidSample, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidSample }

type bound struct {
	field    string
	value    float64
	min, max float64
}

func check(bounds ...bound) error {
	var fields []FieldError
	for _, b := range bounds {
		if math.IsNaN(b.value) || math.IsInf(b.value, 0) || b.value < b.min || b.value > b.max {
			fields = append(fields, FieldError{Field: b.field, Value: b.value, Min: b.min, Max: b.max})
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// Validate checks the sample against the ranges a soil test kit can report.
// ClassifySoil itself never validates; callers that accept user input do.
func (s SoilSample) Validate() error {
	return check(
		bound{"nitrogen", s.Nitrogen, 0, 200},
		bound{"phosphorus", s.Phosphorus, 0, 200},
		bound{"potassium", s.Potassium, 0, 200},
		bound{"ph", s.PH, 0, 14},
		bound{"moisture", s.MoisturePercent, 0, 100},
	)
}

// Validate checks the sample against plausible field conditions.
func (c ClimateSample) Validate() error {
	return check(
		bound{"temperature", c.TemperatureC, 0, 50},
		bound{"humidity", c.HumidityPercent, 0, 100},
		bound{"rainfall", c.RainfallMm, 0, 300},
		bound{"soil_moisture", c.SoilMoisturePercent, 0, 100},
	)
}
