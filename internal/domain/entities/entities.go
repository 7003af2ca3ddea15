// Package entities contains core business entities.
// These are the enterprise business rules - pure domain objects with no external dependencies.
package entities

import "time"

// CropType identifies a supported crop.
type CropType string

// CropStage is the coarse growth phase used to select water-need and
// moisture-threshold constants.
type CropStage string

const (
	CropRice  CropType = "rice"
	CropWheat CropType = "wheat"
	CropMaize CropType = "maize"

	StageEarly      CropStage = "early"
	StageVegetative CropStage = "vegetative"
	StageFlowering  CropStage = "flowering"
)

// Decision is the irrigation action recommended for a day.
type Decision string

const (
	DecisionIrrigate Decision = "irrigate"
	DecisionSkip     Decision = "skip"
	DecisionReduce   Decision = "reduce"
	DecisionUnknown  Decision = "unknown"
)

// FieldObservation is the per-request snapshot of a field.
// Transient - constructed per request, never persisted directly.
type FieldObservation struct {
	CropType        CropType  `json:"crop_type"`
	CropStage       CropStage `json:"crop_stage"`
	FieldSizeHa     float64   `json:"field_size_ha"`
	SoilMoisturePct float64   `json:"soil_moisture_pct"`
	RainfallMM      float64   `json:"rainfall_mm"`
}

// IrrigationDecision is the rule engine's output.
// Immutable once returned - produced exclusively by the engine.
type IrrigationDecision struct {
	Decision             Decision `json:"decision"`
	NeedsIrrigation      bool     `json:"needs_irrigation"`
	WaterPerHectareL     float64  `json:"water_per_hectare_l"`
	TotalWaterL          float64  `json:"total_water_l"`
	MoistureThresholdPct float64  `json:"moisture_threshold_pct"`
	SafetyApplied        bool     `json:"safety_applied"`
	Reasoning            []string `json:"reasoning"`
}

// GuidelineDocument is a static agronomic reference text (FAO, ICAR,
// CIMMYT sourced). Loaded once at startup, read-only for the process
// lifetime.
type GuidelineDocument struct {
	SourceID string `json:"source_id"`
	Content  string `json:"content"`
	Path     string `json:"path,omitempty"`
	Kind     string `json:"kind"`
}

// RetrievalResult is a scored guideline match, built per query.
type RetrievalResult struct {
	SourceID        string   `json:"source_id"`
	RelevanceScore  int      `json:"relevance_score"`
	MatchedTerms    []string `json:"matched_terms"`
	ExcerptSections []string `json:"excerpt_sections"`
	FullContent     string   `json:"-"`
}

// WaterRequirement is a "N unit/period" figure extracted from a
// guideline document.
type WaterRequirement struct {
	Value  float64 `json:"value"`
	Unit   string  `json:"unit"`
	Source string  `json:"source"`
}

// MoistureThreshold is a "N% moisture" figure extracted from a
// guideline document.
type MoistureThreshold struct {
	Value  float64 `json:"value"`
	Kind   string  `json:"type"`
	Source string  `json:"source"`
}

// SourceSections pairs a document with its extracted excerpt sections.
type SourceSections struct {
	Source   string   `json:"source"`
	Sections []string `json:"sections"`
}

// HistoryEntry is one appended irrigation decision. Entries are never
// mutated after append, only pruned oldest-first and read.
type HistoryEntry struct {
	Timestamp        string    `json:"timestamp"`
	CropType         CropType  `json:"crop_type"`
	CropStage        CropStage `json:"crop_stage"`
	FieldSizeHa      float64   `json:"field_size_ha"`
	SoilMoisturePct  float64   `json:"soil_moisture_pct"`
	RainfallMM       float64   `json:"rainfall_mm"`
	WaterAppliedL    float64   `json:"water_applied_l"`
	Decision         Decision  `json:"decision"`
	ReasoningExcerpt string    `json:"reasoning_excerpt"`
}

// DailyDecision is one line of a weekly summary.
type DailyDecision struct {
	Date     string   `json:"date"`
	Decision Decision `json:"decision"`
	WaterL   float64  `json:"water_l"`
}

// WeeklySummary is derived from the last 7 days of history, recomputed
// on demand and never persisted.
type WeeklySummary struct {
	Period                 string          `json:"period"`
	TotalIrrigations       int             `json:"total_irrigations"`
	TotalWaterUsedL        float64         `json:"total_water_used_l"`
	SkippedCount           int             `json:"skipped_count"`
	AverageSoilMoisturePct float64         `json:"average_soil_moisture_pct"`
	PerDay                 []DailyDecision `json:"per_day"`
}

// WaterSavings compares the smart schedule against a fixed daily
// baseline over the last week.
type WaterSavings struct {
	SmartUsageL       float64 `json:"smart_usage_l"`
	TraditionalUsageL float64 `json:"traditional_usage_l"`
	SavedL            float64 `json:"saved_l"`
	SavedPct          float64 `json:"saved_pct"`
}

// DailyForecast is one day of weather forecast.
type DailyForecast struct {
	Date         string  `json:"date"`
	RainfallMM   float64 `json:"rainfall_mm"`
	TemperatureC float64 `json:"temperature_c"`
	HumidityPct  float64 `json:"humidity_percent"`
	Conditions   string  `json:"conditions"`
}

// Forecast is an ordered sequence of daily records from a weather
// provider (or the synthetic fallback).
type Forecast struct {
	Source   string          `json:"source"`
	Location string          `json:"location"`
	Days     []DailyForecast `json:"forecasts"`
	Note     string          `json:"note,omitempty"`
}

// LLMResult is the outcome of one LLM generation call.
type LLMResult struct {
	Success bool   `json:"success"`
	Text    string `json:"text"`
	Model   string `json:"model,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RainAlert flags significant predicted rainfall that should change an
// irrigation plan.
type RainAlert struct {
	Date           string   `json:"date"`
	RainfallMM     float64  `json:"rainfall_mm"`
	AlertLevel     string   `json:"alert_level"`
	Message        string   `json:"message"`
	Recommendation Decision `json:"recommendation"`
}

// CropInfo describes the fixed agronomic constants for one crop.
type CropInfo struct {
	CropType           CropType              `json:"crop_type"`
	WaterRequirements  map[CropStage]float64 `json:"water_requirements"`
	MoistureThresholds map[CropStage]float64 `json:"moisture_thresholds"`
	Stages             []CropStage           `json:"stages"`
}

// DailyPlan is one day of a generated weekly irrigation schedule.
type DailyPlan struct {
	Date             string   `json:"date"`
	Day              int      `json:"day"`
	Decision         Decision `json:"decision"`
	WaterAmountL     float64  `json:"water_amount_l"`
	WaterPerHectareL float64  `json:"water_per_hectare_l"`
	SoilMoisturePct  float64  `json:"soil_moisture_pct"`
	RainfallMM       float64  `json:"rainfall_mm"`
	TemperatureC     float64  `json:"temperature_c"`
	Conditions       string   `json:"conditions"`
	Reasoning        []string `json:"reasoning"`
}

// PlanResponse is the full answer for one irrigation planning request.
type PlanResponse struct {
	Decision         Decision   `json:"decision"`
	WaterAmountL     float64    `json:"water_amount_l"`
	WaterPerHectareL float64    `json:"water_per_hectare_l"`
	SoilMoisturePct  float64    `json:"soil_moisture_pct"`
	RainfallMM       float64    `json:"rainfall_mm"`
	Reasoning        []string   `json:"reasoning"`
	LLMExplanation   string     `json:"llm_explanation"`
	SourcesCited     []string   `json:"sources_cited"`
	Timestamp        time.Time  `json:"timestamp"`
	RAGContextUsed   bool       `json:"rag_context_used"`
	RainAlert        *RainAlert `json:"rain_alert,omitempty"`
}

// ValidCrop reports whether c is one of the supported crops.
func ValidCrop(c CropType) bool {
	switch c {
	case CropRice, CropWheat, CropMaize:
		return true
	}
	return false
}

// ValidStage reports whether s is one of the supported growth stages.
func ValidStage(s CropStage) bool {
	switch s {
	case StageEarly, StageVegetative, StageFlowering:
		return true
	}
	return false
}
