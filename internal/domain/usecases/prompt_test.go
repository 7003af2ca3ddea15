package usecases

import (
	"strings"
	"testing"

	"github.com/agrisense/irrigo/internal/domain/entities"
)

func TestPromptBuilder_DecisionPromptSections(t *testing.T) {
	b := NewPromptBuilder()
	obs := entities.FieldObservation{
		CropType:        entities.CropRice,
		CropStage:       entities.StageFlowering,
		FieldSizeHa:     2.0,
		SoilMoisturePct: 60,
		RainfallMM:      0,
	}
	decision := &entities.IrrigationDecision{
		Decision:         entities.DecisionIrrigate,
		TotalWaterL:      240,
		WaterPerHectareL: 120,
		Reasoning:        []string{"step one", "step two"},
	}

	prompt := b.BuildDecisionPrompt(obs, "guideline text", "memory text", decision)

	for _, section := range []string{
		"RETRIEVED AGRICULTURAL GUIDELINES",
		"HISTORICAL IRRIGATION CONTEXT",
		"CURRENT REQUEST",
		"YOUR TASK",
	} {
		if !strings.Contains(prompt, section) {
			t.Errorf("prompt missing section %q", section)
		}
	}

	if !strings.Contains(prompt, "guideline text") {
		t.Error("guideline context not included")
	}
	if !strings.Contains(prompt, "memory text") {
		t.Error("memory context not included")
	}
	if !strings.Contains(prompt, "- Crop: Rice") {
		t.Error("crop line missing or not title-cased")
	}
	if !strings.Contains(prompt, "- Suggested Water Amount: 240 liters") {
		t.Error("water amount missing")
	}
	if !strings.Contains(prompt, "step one | step two") {
		t.Error("reasoning not joined with pipe separator")
	}
	if !strings.Contains(prompt, "DECISION: [irrigate / skip / reduce]") {
		t.Error("response format instruction missing")
	}
}

func TestPromptBuilder_EmptyContextsBecomeNA(t *testing.T) {
	b := NewPromptBuilder()
	obs := entities.FieldObservation{CropType: entities.CropWheat, CropStage: entities.StageEarly, FieldSizeHa: 1}

	prompt := b.BuildDecisionPrompt(obs, "", "  ", nil)

	if !strings.Contains(prompt, "N/A") {
		t.Error("empty contexts should render as N/A")
	}
	if !strings.Contains(prompt, "- Recommendation: unknown") {
		t.Error("nil decision should render as unknown")
	}
}

func TestPromptBuilder_WeeklyReportPrompt(t *testing.T) {
	b := NewPromptBuilder()
	summary := entities.WeeklySummary{
		Period:           "Last 7 days",
		TotalIrrigations: 4,
		TotalWaterUsedL:  520,
		SkippedCount:     1,
		PerDay: []entities.DailyDecision{
			{Date: "2026-08-24", Decision: entities.DecisionIrrigate, WaterL: 240},
		},
	}
	savings := entities.WaterSavings{SmartUsageL: 520, TraditionalUsageL: 700, SavedL: 180, SavedPct: 25.7}

	prompt := b.BuildWeeklyReportPrompt(summary, savings, entities.CropRice)

	for _, want := range []string{
		"WEEKLY IRRIGATION SUMMARY",
		"Total Irrigations: 4",
		"Water Saved: 180 liters",
		"2026-08-24: irrigate (240L)",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("weekly report prompt missing %q", want)
		}
	}
}

func TestPromptBuilder_RainAlertPrompt(t *testing.T) {
	b := NewPromptBuilder()

	prompt := b.BuildRainAlertPrompt(12.5, entities.CropMaize, 210)

	if !strings.Contains(prompt, "Expected Rainfall: 12.5 mm") {
		t.Error("rainfall amount missing")
	}
	if !strings.Contains(prompt, "Crop: Maize") {
		t.Error("crop missing")
	}
	if !strings.Contains(prompt, "Originally Scheduled Water: 210 liters") {
		t.Error("scheduled water missing")
	}
}

func TestPromptBuilder_ExtractDecision(t *testing.T) {
	b := NewPromptBuilder()

	cases := []struct {
		name string
		text string
		want entities.Decision
	}{
		{"labeled skip", "DECISION: Skip irrigation today", entities.DecisionSkip},
		{"skip phrase wins over irrigate", "You should skip irrigation even though you could irrigate.", entities.DecisionSkip},
		{"reduce phrase", "I recommend you reduce irrigation by half.", entities.DecisionReduce},
		{"labeled reduce", "DECISION: reduce\n\nREASONING: rain ahead", entities.DecisionReduce},
		{"irrigate phrase", "Go ahead and irrigate as planned.", entities.DecisionIrrigate},
		{"do not irrigate", "Do not irrigate until the soil dries.", entities.DecisionSkip},
		{"label fallback", "DECISION: hold off\n", entities.DecisionIrrigate},
		{"no signal", "The weather is lovely.", entities.DecisionUnknown},
		{"empty", "", entities.DecisionUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := b.ExtractDecision(tc.text); got != tc.want {
				t.Errorf("ExtractDecision(%q) = %s, want %s", tc.text, got, tc.want)
			}
		})
	}
}

func TestPromptBuilder_ExtractSources(t *testing.T) {
	b := NewPromptBuilder()

	text := `DECISION: irrigate

REASONING:
Guidelines support irrigation.

SOURCES CONSULTED:
- FAO_RICE
- ICAR_WHEAT

DISCLAIMER:
Consult a local agronomist.`

	sources := b.ExtractSources(text)
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d: %v", len(sources), sources)
	}
	if sources[0] != "- FAO_RICE" || sources[1] != "- ICAR_WHEAT" {
		t.Errorf("unexpected sources: %v", sources)
	}
}

func TestPromptBuilder_ExtractSourcesAbsentMarker(t *testing.T) {
	b := NewPromptBuilder()

	if sources := b.ExtractSources("no structured reply at all"); len(sources) != 0 {
		t.Errorf("expected no sources, got %v", sources)
	}
}
