// Package ports defines interfaces for external dependencies.
// Clean Architecture: These are the boundaries - usecases depend on these abstractions,
// not concrete implementations. Adapters implement these interfaces.
package ports

import (
	"context"

	"github.com/agrisense/irrigo/internal/domain/entities"
)

// LLMService generates text responses from a language model.
// Failures are reported inside LLMResult; the error return is reserved
// for request construction problems.
type LLMService interface {
	// Generate produces a response for the prompt. A failed upstream
	// call yields LLMResult{Success: false, Error: ...}, not an error.
	Generate(ctx context.Context, prompt string, temperature float32, maxTokens int) (*entities.LLMResult, error)

	// GenerateWithFallback returns the generated text, or fallback when
	// generation fails for any reason.
	GenerateWithFallback(ctx context.Context, prompt, fallback string, temperature float32, maxTokens int) string
}

// WeatherService provides daily forecasts for irrigation decisions.
// Implementations degrade to synthetic data rather than failing.
type WeatherService interface {
	// Forecast returns up to days daily records for the location.
	Forecast(ctx context.Context, location string, days int) (*entities.Forecast, error)

	// RainfallPrediction returns the expected rainfall (mm) for the
	// next 24 hours.
	RainfallPrediction(ctx context.Context, location string) float64
}

// GuidelineSource loads the static agronomic reference documents.
type GuidelineSource interface {
	// LoadGuidelines reads all guideline documents. A missing source
	// yields an empty slice, not an error.
	LoadGuidelines(ctx context.Context) ([]entities.GuidelineDocument, error)
}

// HistoryStore is the rolling log of past irrigation decisions.
// The store is the sole owner of its entries; Append calls on the same
// underlying log are serialized by the implementation.
type HistoryStore interface {
	// Append stamps the entry with the current time and persists it.
	// The log is truncated to the most recent 30 entries before the
	// write; older entries are unrecoverable afterwards.
	Append(entry entities.HistoryEntry) error

	// Recent returns entries from the last N days, oldest first.
	// Entries with unparsable timestamps are skipped.
	Recent(days int) []entities.HistoryEntry

	// WeeklySummary aggregates the last 7 days. Empty history yields a
	// zero-valued summary, never a division by zero.
	WeeklySummary() entities.WeeklySummary

	// WaterSavings compares the last week against a fixed schedule of
	// baselineDailyL liters per day.
	WaterSavings(baselineDailyL float64) entities.WaterSavings

	// LLMContext renders the recent history as prompt context text.
	LLMContext() string

	// Len reports the number of stored entries.
	Len() int
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)
