// Synthetic forecast generator, used when no API key is configured or
// the provider is unreachable.
package weather

import (
	"math/rand"
	"sync"
	"time"

	"github.com/agrisense/irrigo/internal/domain/entities"
)

// FallbackGenerator produces bounded-random forecasts with a realistic
// rainfall distribution: 70% dry days, and rainy days split
// 60/30/10 between light (0.1-5mm), moderate (5-15mm) and heavy
// (15-50mm) rain.
type FallbackGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewFallbackGenerator creates a generator seeded from the clock.
func NewFallbackGenerator() *FallbackGenerator {
	return &FallbackGenerator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

// Forecast generates days of synthetic daily records starting today.
func (g *FallbackGenerator) Forecast(location string, days int) *entities.Forecast {
	g.mu.Lock()
	defer g.mu.Unlock()

	if location == "" {
		location = "Demo Location"
	}

	forecast := &entities.Forecast{
		Source:   "fallback_weather_service",
		Location: location,
		Note:     "Using fallback data. Configure weather API key for real forecasts.",
	}
	for i := 0; i < days; i++ {
		rainfall := g.rainfall()
		forecast.Days = append(forecast.Days, entities.DailyForecast{
			Date:         g.now().AddDate(0, 0, i).Format("2006-01-02"),
			RainfallMM:   rainfall,
			TemperatureC: 20 + g.rng.Float64()*15,
			HumidityPct:  40 + g.rng.Float64()*50,
			Conditions:   conditionsFor(rainfall),
		})
	}
	return forecast
}

// rainfall draws from the tiered distribution. Caller holds the lock.
func (g *FallbackGenerator) rainfall() float64 {
	if g.rng.Float64() > 0.3 {
		return 0
	}
	switch r := g.rng.Float64(); {
	case r < 0.6:
		return 0.1 + g.rng.Float64()*4.9
	case r < 0.9:
		return 5 + g.rng.Float64()*10
	default:
		return 15 + g.rng.Float64()*35
	}
}
