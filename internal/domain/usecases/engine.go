// Package usecases contains application business rules.
// Clean Architecture: Usecases orchestrate entities and depend on port interfaces.
// They contain NO framework code - just pure business logic.
package usecases

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agrisense/irrigo/internal/domain/entities"
)

// Caller input errors. Never retried - surfaced to the orchestrator as
// 4xx-equivalent failures.
var (
	ErrUnknownCrop  = errors.New("unknown crop type")
	ErrUnknownStage = errors.New("unknown crop stage")
)

// MaxWaterPerHectare is the safety clamp on per-hectare water,
// in liters per hectare per day, regardless of calculated need.
const MaxWaterPerHectare = 150.0

// waterRequirements is the base daily water need in L/ha, keyed by
// crop and stage. Fixed business constants with no stated derivation.
var waterRequirements = map[entities.CropType]map[entities.CropStage]float64{
	entities.CropRice:  {entities.StageEarly: 80, entities.StageVegetative: 100, entities.StageFlowering: 120},
	entities.CropWheat: {entities.StageEarly: 40, entities.StageVegetative: 60, entities.StageFlowering: 80},
	entities.CropMaize: {entities.StageEarly: 50, entities.StageVegetative: 70, entities.StageFlowering: 90},
}

// moistureThresholds is the soil moisture percentage below which
// irrigation is needed, keyed by crop and stage.
var moistureThresholds = map[entities.CropType]map[entities.CropStage]float64{
	entities.CropRice:  {entities.StageEarly: 70, entities.StageVegetative: 75, entities.StageFlowering: 80},
	entities.CropWheat: {entities.StageEarly: 50, entities.StageVegetative: 55, entities.StageFlowering: 60},
	entities.CropMaize: {entities.StageEarly: 55, entities.StageVegetative: 60, entities.StageFlowering: 65},
}

// stageOrder keeps CropInfo output deterministic.
var stageOrder = []entities.CropStage{entities.StageEarly, entities.StageVegetative, entities.StageFlowering}

// Engine is the deterministic rule-based irrigation calculator.
// Stateless over constant tables - safe for concurrent use.
type Engine struct{}

// NewEngine creates the rule engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Calculate produces an irrigation decision for one field-day.
// Steps are ordered and each may override the prior:
// moisture check, rainfall override, safety clamp, field total.
func (e *Engine) Calculate(crop entities.CropType, stage entities.CropStage, fieldSizeHa, soilMoisturePct, rainfallMM float64) (*entities.IrrigationDecision, error) {
	crop = entities.CropType(strings.ToLower(string(crop)))
	stage = entities.CropStage(strings.ToLower(string(stage)))

	needs, ok := waterRequirements[crop]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCrop, crop)
	}
	baseNeed, ok := needs[stage]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStage, stage)
	}
	threshold := moistureThresholds[crop][stage]

	// Step 1: soil moisture vs threshold.
	needsIrrigation := soilMoisturePct < threshold

	// Step 2: base water requirement.
	waterPerHectare := 0.0
	if needsIrrigation {
		waterPerHectare = baseNeed
	}

	// Step 3: rainfall override.
	decision := entities.DecisionIrrigate
	var rainAdjustment string
	switch {
	case rainfallMM > 10:
		waterPerHectare = 0
		decision = entities.DecisionSkip
		rainAdjustment = fmt.Sprintf("Heavy rain (%gmm) predicted - irrigation skipped", rainfallMM)
	case rainfallMM > 5:
		waterPerHectare *= 0.5
		decision = entities.DecisionReduce
		rainAdjustment = fmt.Sprintf("Moderate rain (%gmm) - irrigation reduced by 50%%", rainfallMM)
	default:
		if needsIrrigation {
			decision = entities.DecisionIrrigate
			rainAdjustment = "Normal irrigation recommended"
		} else {
			decision = entities.DecisionSkip
			rainAdjustment = "Soil moisture adequate - irrigation not needed"
		}
	}

	// Step 4: safety clamp.
	safetyApplied := false
	if waterPerHectare > MaxWaterPerHectare {
		waterPerHectare = MaxWaterPerHectare
		safetyApplied = true
	}

	// Step 5: field total.
	totalWater := waterPerHectare * fieldSizeHa

	reasoning := []string{
		fmt.Sprintf("Soil moisture %g%% vs threshold %g%%", soilMoisturePct, threshold),
		fmt.Sprintf("Base water need: %g L/ha for %s (%s)", baseNeed, crop, stage),
		rainAdjustment,
		fmt.Sprintf("Water per hectare: %g L/ha", waterPerHectare),
		fmt.Sprintf("Total for %g ha: %g L", fieldSizeHa, totalWater),
	}
	if safetyApplied {
		reasoning = append(reasoning, fmt.Sprintf("Safety limit applied (max %g L/ha)", MaxWaterPerHectare))
	}

	return &entities.IrrigationDecision{
		Decision:             decision,
		NeedsIrrigation:      needsIrrigation,
		WaterPerHectareL:     waterPerHectare,
		TotalWaterL:          totalWater,
		MoistureThresholdPct: threshold,
		SafetyApplied:        safetyApplied,
		Reasoning:            reasoning,
	}, nil
}

// CropInfo returns the fixed agronomic constants for one crop.
func (e *Engine) CropInfo(crop entities.CropType) (*entities.CropInfo, error) {
	crop = entities.CropType(strings.ToLower(string(crop)))

	needs, ok := waterRequirements[crop]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCrop, crop)
	}

	info := &entities.CropInfo{
		CropType:           crop,
		WaterRequirements:  make(map[entities.CropStage]float64, len(needs)),
		MoistureThresholds: make(map[entities.CropStage]float64, len(needs)),
		Stages:             append([]entities.CropStage(nil), stageOrder...),
	}
	for _, stage := range stageOrder {
		info.WaterRequirements[stage] = needs[stage]
		info.MoistureThresholds[stage] = moistureThresholds[crop][stage]
	}
	return info, nil
}

// BaselineWeeklyUsage is the water a traditional fixed schedule would
// consume over the given number of days. Unknown crop or stage yields 0
// rather than an error - this feeds comparison reporting, not decisions.
func (e *Engine) BaselineWeeklyUsage(crop entities.CropType, stage entities.CropStage, fieldSizeHa float64, days int) float64 {
	crop = entities.CropType(strings.ToLower(string(crop)))
	stage = entities.CropStage(strings.ToLower(string(stage)))

	needs, ok := waterRequirements[crop]
	if !ok {
		return 0
	}
	daily, ok := needs[stage]
	if !ok {
		return 0
	}
	return daily * fieldSizeHa * float64(days)
}
