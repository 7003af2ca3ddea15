// Package weather provides weather forecast adapters.
// Clean Architecture: Adapter implementing ports.WeatherService.
// A failed provider call degrades to the synthetic fallback forecast,
// never an error to the caller.
package weather

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/agrisense/irrigo/internal/domain/entities"
)

// Provider identifiers.
const (
	ProviderOpenWeatherMap = "openweathermap"
	ProviderWeatherAPI     = "weatherapi"
)

// Client fetches forecasts from a real weather API, falling back to
// synthetic data when no key is configured or the provider fails.
type Client struct {
	provider string
	apiKey   string
	http     *http.Client
	logger   *zap.Logger
	fallback *FallbackGenerator

	// Overridable for tests.
	openWeatherURL string
	weatherAPIURL  string
}

// NewClient creates a weather client. An empty apiKey is allowed; all
// forecasts then come from the fallback generator.
func NewClient(provider, apiKey string, logger *zap.Logger) *Client {
	if provider == "" {
		provider = ProviderOpenWeatherMap
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if apiKey == "" {
		logger.Warn("weather API key not configured, forecasts will use synthetic fallback data")
	}
	return &Client{
		provider:       provider,
		apiKey:         apiKey,
		http:           &http.Client{Timeout: 10 * time.Second},
		logger:         logger,
		fallback:       NewFallbackGenerator(),
		openWeatherURL: "https://api.openweathermap.org/data/2.5/forecast",
		weatherAPIURL:  "https://api.weatherapi.com/v1/forecast.json",
	}
}

// Forecast returns up to days daily records for the location.
func (c *Client) Forecast(ctx context.Context, location string, days int) (*entities.Forecast, error) {
	if days <= 0 {
		days = 1
	}
	if c.apiKey == "" {
		return c.fallback.Forecast(location, days), nil
	}

	var forecast *entities.Forecast
	var err error
	switch c.provider {
	case ProviderWeatherAPI:
		forecast, err = c.weatherAPIForecast(ctx, location, days)
	default:
		forecast, err = c.openWeatherForecast(ctx, location, days)
	}
	if err != nil {
		c.logger.Error("weather API request failed, using fallback data",
			zap.String("provider", c.provider), zap.Error(err))
		return c.fallback.Forecast(location, days), nil
	}
	return forecast, nil
}

// RainfallPrediction returns the expected rainfall (mm) for the next
// 24 hours.
func (c *Client) RainfallPrediction(ctx context.Context, location string) float64 {
	forecast, err := c.Forecast(ctx, location, 1)
	if err != nil || forecast == nil || len(forecast.Days) == 0 {
		return 0
	}
	return forecast.Days[0].RainfallMM
}

// conditionsFor maps a rainfall amount to a human-readable label.
func conditionsFor(rainfallMM float64) string {
	switch {
	case rainfallMM == 0:
		return "Clear"
	case rainfallMM < 2:
		return "Light Rain"
	case rainfallMM < 10:
		return "Moderate Rain"
	case rainfallMM < 20:
		return "Heavy Rain"
	default:
		return "Very Heavy Rain"
	}
}
