// Package weather fetches current conditions from OpenWeather so irrigation
// estimates can be made from a field's coordinates.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/jaspreetkaur1509/Agri-bot/internal/config"
)

var (
	ErrNotConfigured      = errors.New("weather lookup not configured")
	ErrInvalidCoordinates = errors.New("coordinates out of range")
)

// Conditions is the subset of current weather the irrigation estimate needs.
type Conditions struct {
	TemperatureC    float64   `json:"temperature"`
	HumidityPercent float64   `json:"humidity"`
	RainfallMm      float64   `json:"rainfall"` // last hour
	Summary         string    `json:"summary,omitempty"`
	ObservedAt      time.Time `json:"observed_at"`
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

func NewClient(cfg config.WeatherConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		apiKey:     cfg.OpenWeatherKey,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:     "openweather",
			Interval: time.Minute,
			Timeout:  30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 3
			},
		}),
	}
}

type owmResponse struct {
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Rain struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
	Dt int64 `json:"dt"`
}

// Current returns conditions at the given coordinates in metric units.
func (c *Client) Current(ctx context.Context, lat, lon float64) (*Conditions, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("%w: %v,%v", ErrInvalidCoordinates, lat, lon)
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, lat, lon)
	})
	if err != nil {
		return nil, fmt.Errorf("openweather: %w", err)
	}
	return out.(*Conditions), nil
}

func (c *Client) fetch(ctx context.Context, lat, lon float64) (*Conditions, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', 4, 64))
	q.Set("units", "metric")
	q.Set("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/weather?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	var owm owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&owm); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	cond := &Conditions{
		TemperatureC:    owm.Main.Temp,
		HumidityPercent: owm.Main.Humidity,
		RainfallMm:      owm.Rain.OneHour,
		ObservedAt:      time.Unix(owm.Dt, 0).UTC(),
	}
	if len(owm.Weather) > 0 {
		cond.Summary = owm.Weather[0].Description
	}
	return cond, nil
}
