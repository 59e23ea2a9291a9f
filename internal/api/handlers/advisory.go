package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"

	"github.com/jaspreetkaur1509/Agri-bot/internal/advisory"
	"github.com/jaspreetkaur1509/Agri-bot/internal/audit"
	"github.com/jaspreetkaur1509/Agri-bot/internal/weather"
)

// WeatherSource supplies current conditions for lat/lon irrigation requests.
type WeatherSource interface {
	Current(ctx context.Context, lat, lon float64) (*weather.Conditions, error)
}

// AdvisoryLogger persists advisory results; *audit.Service satisfies it.
type AdvisoryLogger interface {
	LogAdvisory(ctx context.Context, entry audit.AdvisoryEntry) error
}

// AdvisoryObserver records advisory outcomes; *metrics.Metrics satisfies it.
type AdvisoryObserver interface {
	ObserveSoil(label advisory.FertilityLabel)
	ObserveIrrigation(liters float64)
}

type AdvisoryHandler struct {
	weather  WeatherSource
	audit    AdvisoryLogger
	observer AdvisoryObserver
}

// NewAdvisoryHandler accepts nil for any dependency.
func NewAdvisoryHandler(ws WeatherSource, al AdvisoryLogger, obs AdvisoryObserver) *AdvisoryHandler {
	return &AdvisoryHandler{weather: ws, audit: al, observer: obs}
}

type soilRequest struct {
	Nitrogen   *float64 `json:"nitrogen"`
	Phosphorus *float64 `json:"phosphorus"`
	Potassium  *float64 `json:"potassium"`
	PH         *float64 `json:"ph"`
	Moisture   *float64 `json:"moisture"`
}

type soilResponse struct {
	Label   advisory.FertilityLabel `json:"label"`
	Score   float64                 `json:"score"`
	Message string                  `json:"message"`
}

func (h *AdvisoryHandler) Soil(w http.ResponseWriter, r *http.Request) {
	var req soilRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if missing := missingFields(map[string]*float64{
		"nitrogen": req.Nitrogen, "phosphorus": req.Phosphorus, "potassium": req.Potassium,
		"ph": req.PH, "moisture": req.Moisture,
	}); len(missing) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "missing fields", "missing": missing})
		return
	}

	sample := advisory.SoilSample{
		Nitrogen:        *req.Nitrogen,
		Phosphorus:      *req.Phosphorus,
		Potassium:       *req.Potassium,
		PH:              *req.PH,
		MoisturePercent: *req.Moisture,
	}
	if err := sample.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	label := advisory.ClassifySoil(sample)
	if h.observer != nil {
		h.observer.ObserveSoil(label)
	}
	h.log(r.Context(), audit.KindSoil, sample, string(label))

	writeJSON(w, http.StatusOK, soilResponse{
		Label:   label,
		Score:   advisory.SoilScore(sample),
		Message: advisory.SoilAdvice(label),
	})
}

type irrigationRequest struct {
	Temperature  *float64 `json:"temperature"`
	Humidity     *float64 `json:"humidity"`
	Rainfall     *float64 `json:"rainfall"`
	SoilMoisture *float64 `json:"soil_moisture"`
	Lat          *float64 `json:"lat"`
	Lon          *float64 `json:"lon"`
}

type irrigationResponse struct {
	Liters  float64                `json:"liters"`
	Message string                 `json:"message"`
	Inputs  advisory.ClimateSample `json:"inputs"`
	Weather *weather.Conditions    `json:"weather,omitempty"`
}

// Irrigation estimates water need from explicit climate values, or from the
// current weather at lat/lon when both are given. Soil moisture always comes
// from the caller.
func (h *AdvisoryHandler) Irrigation(w http.ResponseWriter, r *http.Request) {
	var req irrigationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	useWeather := req.Lat != nil || req.Lon != nil
	required := map[string]*float64{"soil_moisture": req.SoilMoisture}
	if useWeather {
		required["lat"], required["lon"] = req.Lat, req.Lon
	} else {
		required["temperature"], required["humidity"], required["rainfall"] = req.Temperature, req.Humidity, req.Rainfall
	}
	if missing := missingFields(required); len(missing) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "missing fields", "missing": missing})
		return
	}

	sample := advisory.ClimateSample{SoilMoisturePercent: *req.SoilMoisture}
	var cond *weather.Conditions
	if useWeather {
		if h.weather == nil {
			writeError(w, r, weather.ErrNotConfigured)
			return
		}
		var err error
		cond, err = h.weather.Current(r.Context(), *req.Lat, *req.Lon)
		if err != nil {
			writeError(w, r, err)
			return
		}
		sample.TemperatureC = cond.TemperatureC
		sample.HumidityPercent = cond.HumidityPercent
		sample.RainfallMm = cond.RainfallMm
	} else {
		sample.TemperatureC = *req.Temperature
		sample.HumidityPercent = *req.Humidity
		sample.RainfallMm = *req.Rainfall
	}

	if err := sample.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	liters := advisory.EstimateIrrigation(sample)
	if h.observer != nil {
		h.observer.ObserveIrrigation(liters)
	}
	message := advisory.IrrigationAdvice(liters)
	h.log(r.Context(), audit.KindIrrigation, sample, message)

	writeJSON(w, http.StatusOK, irrigationResponse{
		Liters:  liters,
		Message: message,
		Inputs:  sample,
		Weather: cond,
	})
}

func (h *AdvisoryHandler) log(ctx context.Context, kind string, input any, result string) {
	if h.audit == nil {
		return
	}
	if err := h.audit.LogAdvisory(ctx, audit.AdvisoryEntry{Kind: kind, Input: input, Result: result}); err != nil {
		slog.Warn("advisory audit failed", "kind", kind, "error", err)
	}
}

func missingFields(fields map[string]*float64) []string {
	var missing []string
	for name, v := range fields {
		if v == nil {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}
