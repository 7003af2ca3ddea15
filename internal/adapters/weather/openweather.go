// OpenWeatherMap forecast client. The free endpoint returns 3-hour
// intervals; these are aggregated into daily records.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/agrisense/irrigo/internal/domain/entities"
)

// openWeatherResponse is the subset of the 5-day/3-hour forecast
// payload this adapter consumes.
type openWeatherResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity float64 `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Main string `json:"main"`
		} `json:"weather"`
		Rain struct {
			ThreeHour float64 `json:"3h"`
		} `json:"rain"`
	} `json:"list"`
}

func (c *Client) openWeatherForecast(ctx context.Context, location string, days int) (*entities.Forecast, error) {
	// Free tier caps out at 5 days of 3-hour intervals.
	if days > 5 {
		days = 5
	}
	if location == "" {
		location = "London,uk"
	}

	params := url.Values{}
	params.Set("q", location)
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, "GET", c.openWeatherURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling OpenWeatherMap: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenWeatherMap returned status %d", resp.StatusCode)
	}

	var payload openWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	type dayAccum struct {
		tempSum, humiditySum, rain float64
		count                      int
		conditions                 string
	}

	var order []string
	accum := make(map[string]*dayAccum)

	// 8 intervals per day.
	limit := days * 8
	if limit > len(payload.List) {
		limit = len(payload.List)
	}
	for _, item := range payload.List[:limit] {
		date := time.Unix(item.Dt, 0).UTC().Format("2006-01-02")
		day, ok := accum[date]
		if !ok {
			day = &dayAccum{conditions: "Clear"}
			if len(item.Weather) > 0 {
				day.conditions = item.Weather[0].Main
			}
			accum[date] = day
			order = append(order, date)
		}
		day.tempSum += item.Main.Temp
		day.humiditySum += item.Main.Humidity
		day.rain += item.Rain.ThreeHour
		day.count++
	}

	forecast := &entities.Forecast{
		Source:   ProviderOpenWeatherMap,
		Location: location,
	}
	for _, date := range order {
		if len(forecast.Days) >= days {
			break
		}
		day := accum[date]
		forecast.Days = append(forecast.Days, entities.DailyForecast{
			Date:         date,
			RainfallMM:   day.rain,
			TemperatureC: day.tempSum / float64(day.count),
			HumidityPct:  day.humiditySum / float64(day.count),
			Conditions:   day.conditions,
		})
	}
	return forecast, nil
}
