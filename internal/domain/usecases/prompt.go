// Package usecases - prompt.go composes LLM prompts and parses the
// structured replies back out.
package usecases

import (
	"fmt"
	"strings"

	"github.com/agrisense/irrigo/internal/domain/entities"
)

const systemRole = `You are an expert agricultural AI assistant specializing in irrigation management and water conservation. Your role is to:

1. Analyze soil moisture, weather data, and crop requirements
2. Provide evidence-based irrigation recommendations
3. Cite specific agricultural guidelines (FAO, ICAR, CIMMYT) when making decisions
4. Explain your reasoning clearly for farmers
5. Prioritize water conservation while protecting crop health

IMPORTANT GUIDELINES:
- Base all decisions on retrieved agricultural guidelines and data
- Do NOT make medical or chemical prescriptions
- Include disclaimers for extreme conditions
- Cite specific sources when referencing guidelines
- Explain technical terms in farmer-friendly language`

const sectionRule = "================================================================================"

// PromptBuilder assembles RAG-enhanced prompts. Pure string template
// composition - no conditionals on content, all sections always
// present with "N/A" defaults for empty inputs.
type PromptBuilder struct{}

// NewPromptBuilder creates a prompt builder.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// BuildDecisionPrompt composes the full irrigation decision prompt:
// role preamble, retrieved guidelines, history, current request, and
// the instruction block demanding a labeled structured reply.
func (b *PromptBuilder) BuildDecisionPrompt(obs entities.FieldObservation, guidelineContext, memoryContext string, decision *entities.IrrigationDecision) string {
	reasoning := "N/A"
	recommended := string(entities.DecisionUnknown)
	waterAmount := 0.0
	waterPerHa := 0.0
	if decision != nil {
		reasoning = orNA(strings.Join(decision.Reasoning, " | "))
		recommended = string(decision.Decision)
		waterAmount = decision.TotalWaterL
		waterPerHa = decision.WaterPerHectareL
	}

	var sb strings.Builder
	sb.WriteString(systemRole)
	sb.WriteString("\n\n")
	sb.WriteString(sectionRule + "\nRETRIEVED AGRICULTURAL GUIDELINES\n" + sectionRule + "\n\n")
	sb.WriteString(orNA(guidelineContext))
	sb.WriteString("\n\n")
	sb.WriteString(sectionRule + "\nHISTORICAL IRRIGATION CONTEXT\n" + sectionRule + "\n\n")
	sb.WriteString(orNA(memoryContext))
	sb.WriteString("\n\n")
	sb.WriteString(sectionRule + "\nCURRENT REQUEST\n" + sectionRule + "\n\n")
	fmt.Fprintf(&sb, "Farmer Input:\n")
	fmt.Fprintf(&sb, "- Crop: %s\n", titleCase(string(obs.CropType)))
	fmt.Fprintf(&sb, "- Growth Stage: %s\n", titleCase(string(obs.CropStage)))
	fmt.Fprintf(&sb, "- Field Size: %g hectares\n", obs.FieldSizeHa)
	fmt.Fprintf(&sb, "- Current Soil Moisture: %g%%\n", obs.SoilMoisturePct)
	fmt.Fprintf(&sb, "- Predicted Rainfall (next 24h): %g mm\n\n", obs.RainfallMM)
	fmt.Fprintf(&sb, "Rule-Based System Calculation:\n")
	fmt.Fprintf(&sb, "- Recommendation: %s\n", recommended)
	fmt.Fprintf(&sb, "- Suggested Water Amount: %g liters\n", waterAmount)
	fmt.Fprintf(&sb, "- Water per Hectare: %g L/ha\n", waterPerHa)
	fmt.Fprintf(&sb, "- Reasoning: %s\n\n", reasoning)
	sb.WriteString(sectionRule + "\nYOUR TASK\n" + sectionRule + "\n\n")
	sb.WriteString(`Based on the retrieved agricultural guidelines, historical data, and current conditions:

1. VALIDATE the rule-based calculation against agricultural guidelines
2. EXPLAIN the irrigation decision in clear, farmer-friendly language
3. CITE specific guideline sources (FAO, ICAR, CIMMYT) that support your recommendation
4. PROVIDE a detailed recommendation with:
   - Whether to irrigate, skip, or reduce irrigation
   - Exact water amount if irrigating
   - Timing considerations
   - Precautions or warnings if needed

5. FORMAT your response as follows:

DECISION: [irrigate / skip / reduce]

REASONING:
[2-3 sentences explaining why, citing retrieved guidelines]

RECOMMENDATION:
[Specific actionable advice for the farmer]

SOURCES CONSULTED:
[List the guideline sources you referenced]

DISCLAIMER:
[Any important warnings or limitations]

Remember: Your response will help the farmer make a critical decision. Be clear, evidence-based, and actionable.`)

	return sb.String()
}

// BuildWeeklyReportPrompt composes the prompt for a farmer-friendly
// weekly irrigation report.
func (b *PromptBuilder) BuildWeeklyReportPrompt(summary entities.WeeklySummary, savings entities.WaterSavings, crop entities.CropType) string {
	var sb strings.Builder
	sb.WriteString(systemRole)
	sb.WriteString("\n\n")
	sb.WriteString(sectionRule + "\nWEEKLY IRRIGATION SUMMARY\n" + sectionRule + "\n\n")
	fmt.Fprintf(&sb, "Period: %s\n", orNA(summary.Period))
	fmt.Fprintf(&sb, "Crop Type: %s\n\n", titleCase(string(crop)))
	sb.WriteString("Statistics:\n")
	fmt.Fprintf(&sb, "- Total Irrigations: %d\n", summary.TotalIrrigations)
	fmt.Fprintf(&sb, "- Total Water Used: %g liters\n", summary.TotalWaterUsedL)
	fmt.Fprintf(&sb, "- Irrigations Skipped (Rain): %d\n", summary.SkippedCount)
	fmt.Fprintf(&sb, "- Average Soil Moisture: %g%%\n\n", summary.AverageSoilMoisturePct)
	sb.WriteString("Water Conservation:\n")
	fmt.Fprintf(&sb, "- Smart System Usage: %g liters\n", savings.SmartUsageL)
	fmt.Fprintf(&sb, "- Traditional Schedule Would Use: %g liters\n", savings.TraditionalUsageL)
	fmt.Fprintf(&sb, "- Water Saved: %g liters\n", savings.SavedL)
	fmt.Fprintf(&sb, "- Savings Percentage: %g%%\n\n", savings.SavedPct)
	sb.WriteString("Daily Decisions:\n")
	for _, d := range summary.PerDay {
		fmt.Fprintf(&sb, "\n  - %s: %s (%gL)", d.Date, d.Decision, d.WaterL)
	}
	sb.WriteString("\n\n" + sectionRule + "\nYOUR TASK\n" + sectionRule + "\n\n")
	sb.WriteString(`Generate a farmer-friendly weekly report that:

1. SUMMARIZES the week's irrigation activity
2. HIGHLIGHTS water conservation achievements
3. PROVIDES insights and recommendations for next week
4. CONGRATULATES the farmer on good water management
5. SUGGESTS any improvements or adjustments

Keep the tone positive, informative, and motivating.`)

	return sb.String()
}

// BuildRainAlertPrompt composes the prompt for a short rain alert
// message.
func (b *PromptBuilder) BuildRainAlertPrompt(rainfallMM float64, crop entities.CropType, scheduledWaterL float64) string {
	var sb strings.Builder
	sb.WriteString(systemRole)
	sb.WriteString("\n\n")
	sb.WriteString(sectionRule + "\nRAIN ALERT SITUATION\n" + sectionRule + "\n\n")
	fmt.Fprintf(&sb, "Expected Rainfall: %g mm\n", rainfallMM)
	fmt.Fprintf(&sb, "Crop: %s\n", titleCase(string(crop)))
	fmt.Fprintf(&sb, "Originally Scheduled Water: %g liters\n\n", scheduledWaterL)
	sb.WriteString(sectionRule + "\nYOUR TASK\n" + sectionRule + "\n\n")
	sb.WriteString(`Generate a brief rain alert message for the farmer that:

1. States the predicted rainfall amount
2. Recommends whether to skip or reduce irrigation
3. Explains how the rain will benefit the crop
4. Suggests when to resume normal irrigation

Keep it very concise - 2-3 sentences maximum.`)

	return sb.String()
}

// ExtractDecision parses the irrigation decision out of an LLM reply.
// Best-effort: phrase scan in priority order skip > reduce > irrigate,
// then the content of a DECISION: label line, then unknown. Never
// fails on unparsable text.
func (b *PromptBuilder) ExtractDecision(llmText string) entities.Decision {
	lower := strings.ToLower(llmText)

	switch {
	case containsAny(lower, "decision: skip", "skip irrigation", "do not irrigate"):
		return entities.DecisionSkip
	case containsAny(lower, "decision: reduce", "reduce irrigation"):
		return entities.DecisionReduce
	case containsAny(lower, "decision: irrigate", "irrigate", "proceed"):
		return entities.DecisionIrrigate
	}

	if idx := strings.Index(llmText, "DECISION:"); idx >= 0 {
		line := llmText[idx+len("DECISION:"):]
		if nl := strings.Index(line, "\n"); nl >= 0 {
			line = line[:nl]
		}
		line = strings.ToLower(strings.TrimSpace(line))
		switch {
		case strings.Contains(line, "skip"):
			return entities.DecisionSkip
		case strings.Contains(line, "reduce"):
			return entities.DecisionReduce
		default:
			return entities.DecisionIrrigate
		}
	}

	return entities.DecisionUnknown
}

// ExtractSources returns the trimmed, non-empty lines between the
// SOURCES CONSULTED: marker and the next DISCLAIMER: marker (or end of
// text). Absent marker yields an empty slice.
func (b *PromptBuilder) ExtractSources(llmText string) []string {
	const marker = "SOURCES CONSULTED:"
	idx := strings.Index(llmText, marker)
	if idx < 0 {
		return nil
	}

	section := llmText[idx+len(marker):]
	if end := strings.Index(section, "DISCLAIMER:"); end >= 0 {
		section = section[:end]
	}

	var sources []string
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			sources = append(sources, line)
		}
	}
	return sources
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
