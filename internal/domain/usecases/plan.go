// Package usecases - plan.go orchestrates the full decision pipeline:
// rule engine, retrieval, history, prompt assembly, LLM and weather.
package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agrisense/irrigo/internal/domain/entities"
	"github.com/agrisense/irrigo/internal/domain/ports"
)

const (
	// DefaultSoilMoisturePct is used when a request carries no reading.
	DefaultSoilMoisturePct = 60.0

	// BaselineDailyWaterL is the fixed-schedule comparison baseline.
	BaselineDailyWaterL = 100.0

	decisionTemperature = 0.7
	decisionMaxTokens   = 1500
	reportTemperature   = 0.8
	reportMaxTokens     = 800
)

// PlanRequest is one irrigation planning request. Nil RainfallMM or
// SoilMoisturePct mean "not measured" - the weather service and the
// default reading fill them in.
type PlanRequest struct {
	CropType        entities.CropType
	CropStage       entities.CropStage
	FieldSizeHa     float64
	RainfallMM      *float64
	SoilMoisturePct *float64
	Location        string
}

// WeeklySchedule is a generated 7-day irrigation plan.
type WeeklySchedule struct {
	CropType        entities.CropType    `json:"crop_type"`
	CropStage       entities.CropStage   `json:"crop_stage"`
	FieldSizeHa     float64              `json:"field_size_ha"`
	Schedule        []entities.DailyPlan `json:"schedule"`
	TotalWaterWeekL float64              `json:"total_water_week_l"`
	IrrigationDays  int                  `json:"irrigation_days"`
	SkipDays        int                  `json:"skip_days"`
	ReduceDays      int                  `json:"reduce_days"`
	GeneratedAt     time.Time            `json:"generated_at"`
}

// WeeklyReport bundles the history summary, savings and the optional
// AI narrative.
type WeeklyReport struct {
	Summary     entities.WeeklySummary `json:"summary"`
	Savings     entities.WaterSavings  `json:"savings"`
	AIReport    string                 `json:"ai_report"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// RainAlertReport lists upcoming significant rainfall.
type RainAlertReport struct {
	HasAlerts   bool                 `json:"has_alerts"`
	Alerts      []entities.RainAlert `json:"alerts"`
	CheckedDays int                  `json:"checked_days"`
	Location    string               `json:"location"`
	CheckedAt   time.Time            `json:"checked_at"`
}

// Planner sequences the core components for each request. The LLM is
// optional: when absent (or failing), the rule-engine decision and its
// reasoning trace are the fallback of last resort and still serve a
// complete response.
type Planner struct {
	engine    *Engine
	retriever *Retriever
	prompts   *PromptBuilder
	history   ports.HistoryStore
	weather   ports.WeatherService
	llm       ports.LLMService
	logger    *zap.Logger
	now       func() time.Time
}

// NewPlanner creates the planner with injected dependencies. llm may
// be nil for rule-engine-only operation.
func NewPlanner(
	engine *Engine,
	retriever *Retriever,
	prompts *PromptBuilder,
	history ports.HistoryStore,
	weather ports.WeatherService,
	llm ports.LLMService,
	logger *zap.Logger,
) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{
		engine:    engine,
		retriever: retriever,
		prompts:   prompts,
		history:   history,
		weather:   weather,
		llm:       llm,
		logger:    logger,
		now:       time.Now,
	}
}

// Plan runs the full pipeline: observation completion, rule engine,
// guideline and history retrieval, prompt assembly, LLM explanation
// with rule-based fallback, history append, and a proactive rain
// alert scan.
func (p *Planner) Plan(ctx context.Context, req PlanRequest) (*entities.PlanResponse, error) {
	soilMoisture := DefaultSoilMoisturePct
	if req.SoilMoisturePct != nil {
		soilMoisture = *req.SoilMoisturePct
	}

	rainfall := 0.0
	if req.RainfallMM != nil {
		rainfall = *req.RainfallMM
	} else {
		rainfall = p.weather.RainfallPrediction(ctx, req.Location)
	}

	calc, err := p.engine.Calculate(req.CropType, req.CropStage, req.FieldSizeHa, soilMoisture, rainfall)
	if err != nil {
		return nil, err
	}

	guidelineCtx := p.retriever.LLMContext(req.CropType, req.CropStage, soilMoisture, rainfall)
	memoryCtx := p.history.LLMContext()

	obs := entities.FieldObservation{
		CropType:        req.CropType,
		CropStage:       req.CropStage,
		FieldSizeHa:     req.FieldSizeHa,
		SoilMoisturePct: soilMoisture,
		RainfallMM:      rainfall,
	}
	prompt := p.prompts.BuildDecisionPrompt(obs, guidelineCtx, memoryCtx, calc)

	explanation := "Rule-based recommendation (AI offline)"
	var sources []string
	if p.llm != nil {
		result, genErr := p.llm.Generate(ctx, prompt, decisionTemperature, decisionMaxTokens)
		if genErr == nil && result.Success {
			explanation = result.Text
			sources = p.prompts.ExtractSources(result.Text)
		} else {
			p.logger.Warn("LLM generation failed, serving rule-based reasoning",
				zap.String("reason", resultReason(result, genErr)))
			explanation = "Rule-based recommendation: " + strings.Join(calc.Reasoning, " | ")
		}
	}

	if err := p.history.Append(entities.HistoryEntry{
		CropType:         req.CropType,
		CropStage:        req.CropStage,
		FieldSizeHa:      req.FieldSizeHa,
		SoilMoisturePct:  soilMoisture,
		RainfallMM:       rainfall,
		WaterAppliedL:    calc.TotalWaterL,
		Decision:         calc.Decision,
		ReasoningExcerpt: explanation,
	}); err != nil {
		p.logger.Error("appending history entry", zap.Error(err))
	}

	return &entities.PlanResponse{
		Decision:         calc.Decision,
		WaterAmountL:     calc.TotalWaterL,
		WaterPerHectareL: calc.WaterPerHectareL,
		SoilMoisturePct:  soilMoisture,
		RainfallMM:       rainfall,
		Reasoning:        calc.Reasoning,
		LLMExplanation:   explanation,
		SourcesCited:     sources,
		Timestamp:        p.now(),
		RAGContextUsed:   true,
		RainAlert:        p.upcomingRainAlert(ctx, req.Location),
	}, nil
}

// upcomingRainAlert scans the next two days of forecast for rain above
// 5mm. Forecast failure means no alert, not an error.
func (p *Planner) upcomingRainAlert(ctx context.Context, location string) *entities.RainAlert {
	forecast, err := p.weather.Forecast(ctx, location, 3)
	if err != nil || forecast == nil {
		return nil
	}

	days := forecast.Days
	if len(days) > 1 {
		days = days[1:] // skip today
	} else {
		return nil
	}

	for _, day := range days {
		if day.RainfallMM > 5 {
			alert := buildRainAlert(day)
			return &alert
		}
	}
	return nil
}

// buildRainAlert classifies a rainy day into an alert record.
func buildRainAlert(day entities.DailyForecast) entities.RainAlert {
	level := "medium"
	recommendation := entities.DecisionReduce
	message := fmt.Sprintf("Moderate rain (%.1fmm) predicted for %s. Consider reducing irrigation by 50%%.", day.RainfallMM, day.Date)
	if day.RainfallMM > 10 {
		level = "high"
		recommendation = entities.DecisionSkip
		message = fmt.Sprintf("Heavy rain (%.1fmm) predicted for %s. Skip scheduled irrigation.", day.RainfallMM, day.Date)
	}
	return entities.RainAlert{
		Date:           day.Date,
		RainfallMM:     day.RainfallMM,
		AlertLevel:     level,
		Message:        message,
		Recommendation: recommendation,
	}
}

// WeeklySchedule generates a 7-day plan, simulating soil moisture
// drift between days: -2%/day baseline, +3% per mm of rain, clamped
// to [30,100].
func (p *Planner) WeeklySchedule(ctx context.Context, req PlanRequest) (*WeeklySchedule, error) {
	baseMoisture := DefaultSoilMoisturePct
	if req.SoilMoisturePct != nil {
		baseMoisture = *req.SoilMoisturePct
	}

	forecast, err := p.weather.Forecast(ctx, req.Location, 7)
	if err != nil || forecast == nil {
		return nil, fmt.Errorf("weather forecast unavailable")
	}

	schedule := &WeeklySchedule{
		CropType:    req.CropType,
		CropStage:   req.CropStage,
		FieldSizeHa: req.FieldSizeHa,
		GeneratedAt: p.now(),
	}

	for i, day := range forecast.Days {
		moisture := baseMoisture - float64(i)*2 + day.RainfallMM*3
		if moisture < 30 {
			moisture = 30
		}
		if moisture > 100 {
			moisture = 100
		}

		calc, err := p.engine.Calculate(req.CropType, req.CropStage, req.FieldSizeHa, moisture, day.RainfallMM)
		if err != nil {
			return nil, err
		}

		schedule.Schedule = append(schedule.Schedule, entities.DailyPlan{
			Date:             day.Date,
			Day:              i + 1,
			Decision:         calc.Decision,
			WaterAmountL:     calc.TotalWaterL,
			WaterPerHectareL: calc.WaterPerHectareL,
			SoilMoisturePct:  moisture,
			RainfallMM:       day.RainfallMM,
			TemperatureC:     day.TemperatureC,
			Conditions:       day.Conditions,
			Reasoning:        calc.Reasoning,
		})

		schedule.TotalWaterWeekL += calc.TotalWaterL
		switch calc.Decision {
		case entities.DecisionIrrigate:
			schedule.IrrigationDays++
		case entities.DecisionSkip:
			schedule.SkipDays++
		case entities.DecisionReduce:
			schedule.ReduceDays++
		}
	}

	return schedule, nil
}

// WeeklyReport assembles the history summary and savings, with an
// optional AI narrative when an LLM is configured and there is
// activity to report on.
func (p *Planner) WeeklyReport(ctx context.Context) *WeeklyReport {
	summary := p.history.WeeklySummary()
	waterSavings := p.history.WaterSavings(BaselineDailyWaterL)

	report := &WeeklyReport{
		Summary:     summary,
		Savings:     waterSavings,
		GeneratedAt: p.now(),
	}

	if p.llm != nil && summary.TotalIrrigations > 0 {
		prompt := p.prompts.BuildWeeklyReportPrompt(summary, waterSavings, "mixed")
		report.AIReport = p.llm.GenerateWithFallback(ctx, prompt,
			"Weekly report: Check statistics below", reportTemperature, reportMaxTokens)
	}

	return report
}

// RainAlerts checks the next daysAhead days for rainfall above 5mm.
func (p *Planner) RainAlerts(ctx context.Context, location string, daysAhead int) *RainAlertReport {
	if daysAhead <= 0 {
		daysAhead = 3
	}

	report := &RainAlertReport{
		Alerts:      []entities.RainAlert{},
		CheckedDays: daysAhead,
		Location:    location,
		CheckedAt:   p.now(),
	}
	if report.Location == "" {
		report.Location = "Default"
	}

	forecast, err := p.weather.Forecast(ctx, location, daysAhead)
	if err != nil || forecast == nil {
		return report
	}

	for _, day := range forecast.Days {
		if day.RainfallMM > 5 {
			report.Alerts = append(report.Alerts, buildRainAlert(day))
		}
	}
	report.HasAlerts = len(report.Alerts) > 0
	return report
}

func resultReason(result *entities.LLMResult, err error) string {
	if err != nil {
		return err.Error()
	}
	if result != nil {
		return result.Error
	}
	return "unknown"
}
