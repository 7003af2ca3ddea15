// WeatherAPI.com forecast client.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/agrisense/irrigo/internal/domain/entities"
)

// weatherAPIResponse is the subset of the forecast.json payload this
// adapter consumes.
type weatherAPIResponse struct {
	Location struct {
		Name string `json:"name"`
	} `json:"location"`
	Forecast struct {
		ForecastDay []struct {
			Date string `json:"date"`
			Day  struct {
				AvgTempC      float64 `json:"avgtemp_c"`
				TotalPrecipMM float64 `json:"totalprecip_mm"`
				AvgHumidity   float64 `json:"avghumidity"`
				Condition     struct {
					Text string `json:"text"`
				} `json:"condition"`
			} `json:"day"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

func (c *Client) weatherAPIForecast(ctx context.Context, location string, days int) (*entities.Forecast, error) {
	// Free tier caps out at 3 days.
	if days > 3 {
		days = 3
	}
	if location == "" {
		location = "London"
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("q", location)
	params.Set("days", strconv.Itoa(days))
	params.Set("aqi", "no")
	params.Set("alerts", "no")

	req, err := http.NewRequestWithContext(ctx, "GET", c.weatherAPIURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling WeatherAPI: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("WeatherAPI returned status %d", resp.StatusCode)
	}

	var payload weatherAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	name := payload.Location.Name
	if name == "" {
		name = location
	}
	forecast := &entities.Forecast{
		Source:   ProviderWeatherAPI,
		Location: name,
	}
	for _, fd := range payload.Forecast.ForecastDay {
		condition := fd.Day.Condition.Text
		if condition == "" {
			condition = "Clear"
		}
		forecast.Days = append(forecast.Days, entities.DailyForecast{
			Date:         fd.Date,
			RainfallMM:   fd.Day.TotalPrecipMM,
			TemperatureC: fd.Day.AvgTempC,
			HumidityPct:  fd.Day.AvgHumidity,
			Conditions:   condition,
		})
	}
	return forecast, nil
}
