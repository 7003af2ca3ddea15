// Package usecases - retriever.go handles keyword-scored guideline lookup.
package usecases

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/agrisense/irrigo/internal/domain/entities"
)

// Fixed synonym tables. The scoring semantics (raw substring counts,
// stable sort, these exact keyword sets) are part of the observable
// contract.
var cropKeywords = map[entities.CropType][]string{
	entities.CropRice:  {"rice", "paddy", "oryza", "flooded"},
	entities.CropWheat: {"wheat", "triticum", "cereal", "grain"},
	entities.CropMaize: {"maize", "corn", "zea mays"},
}

var stageKeywords = map[entities.CropStage][]string{
	entities.StageEarly:      {"establishment", "initial", "germination", "seedling", "early"},
	entities.StageVegetative: {"vegetative", "tillering", "growth", "development"},
	entities.StageFlowering:  {"flowering", "reproductive", "heading", "anthesis"},
}

var rainKeywords = []string{"rain", "rainfall", "precipitation", "skip irrigation", "reduce water"}

var (
	waterPattern    = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(mm|l|liters?|m3)(?:/|\s*per\s*)(day|hectare|ha)`)
	moisturePattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%?\s*(moisture|water\s*content)`)
)

const (
	contextLines = 3
	maxSections  = 5
)

// Retriever performs keyword-scored lookup over the in-memory
// guideline set. It references the documents, it does not copy them.
// The document slice is swapped wholesale on hot reload, so queries
// take a snapshot of the slice header under the lock and never hold it
// while scanning.
type Retriever struct {
	mu        sync.RWMutex
	documents []entities.GuidelineDocument
}

// NewRetriever creates a retriever over the loaded guideline documents.
func NewRetriever(documents []entities.GuidelineDocument) *Retriever {
	return &Retriever{documents: documents}
}

// SetDocuments swaps the document set, for hot reload after a guideline
// file changes. The caller must not mutate docs afterwards.
func (r *Retriever) SetDocuments(docs []entities.GuidelineDocument) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents = docs
}

// docs snapshots the current document set. Queries in flight keep the
// set they started with across a concurrent reload.
func (r *Retriever) docs() []entities.GuidelineDocument {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.documents
}

// DocumentCount reports the number of loaded guideline documents.
func (r *Retriever) DocumentCount() int {
	return len(r.docs())
}

// Sources lists the loaded document source IDs in load order.
func (r *Retriever) Sources() []string {
	documents := r.docs()
	sources := make([]string, len(documents))
	for i, doc := range documents {
		sources[i] = doc.SourceID
	}
	return sources
}

// keywordsFor expands crop and stage into their synonym sets. Unknown
// values fall back to the literal lowercase string - this is retrieval,
// not validation.
func keywordsFor(crop entities.CropType, stage entities.CropStage) []string {
	cropKeys, ok := cropKeywords[entities.CropType(strings.ToLower(string(crop)))]
	if !ok {
		cropKeys = []string{strings.ToLower(string(crop))}
	}
	stageKeys, ok := stageKeywords[entities.CropStage(strings.ToLower(string(stage)))]
	if !ok {
		stageKeys = []string{strings.ToLower(string(stage))}
	}

	all := make([]string, 0, len(cropKeys)+len(stageKeys))
	all = append(all, cropKeys...)
	all = append(all, stageKeys...)
	return all
}

// Retrieve returns up to topK guideline matches for a crop and stage,
// sorted by descending relevance score. Score is the sum of raw
// case-insensitive substring occurrence counts over the expanded
// keyword set; ties keep original document order.
func (r *Retriever) Retrieve(crop entities.CropType, stage entities.CropStage, topK int) []entities.RetrievalResult {
	if topK <= 0 {
		topK = 3
	}
	keywords := keywordsFor(crop, stage)

	var results []entities.RetrievalResult
	for _, doc := range r.docs() {
		contentLower := strings.ToLower(doc.Content)

		score := 0
		var matches []string
		for _, kw := range keywords {
			count := strings.Count(contentLower, kw)
			score += count
			if count > 0 {
				matches = append(matches, kw)
			}
		}

		if score == 0 {
			continue
		}

		results = append(results, entities.RetrievalResult{
			SourceID:        doc.SourceID,
			RelevanceScore:  score,
			MatchedTerms:    matches,
			ExcerptSections: extractSections(doc.Content, keywords),
			FullContent:     doc.Content,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

// extractSections pulls a ±contextLines window around each matched
// line, merging overlaps via a visited index set, capped at maxSections.
func extractSections(content string, keywords []string) []string {
	lines := strings.Split(content, "\n")
	var sections []string
	seen := make(map[int]bool)

	for i, line := range lines {
		lineLower := strings.ToLower(line)

		matched := false
		for _, kw := range keywords {
			if strings.Contains(lineLower, kw) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}

		start := i - contextLines
		if start < 0 {
			start = 0
		}
		end := i + contextLines + 1
		if end > len(lines) {
			end = len(lines)
		}

		if seen[i] {
			continue
		}
		sections = append(sections, strings.Join(lines[start:end], "\n"))
		for j := start; j < end; j++ {
			seen[j] = true
		}
	}

	if len(sections) > maxSections {
		sections = sections[:maxSections]
	}
	return sections
}

// WaterRequirements extracts "N unit per period" figures from the top
// retrieved documents for a crop and stage, plus the top-2 sections of
// each consulted source.
func (r *Retriever) WaterRequirements(crop entities.CropType, stage entities.CropStage) ([]entities.WaterRequirement, []entities.SourceSections) {
	results := r.Retrieve(crop, stage, 3)

	var reqs []entities.WaterRequirement
	var sources []entities.SourceSections

	for _, result := range results {
		for _, m := range waterPattern.FindAllStringSubmatch(result.FullContent, -1) {
			value, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			reqs = append(reqs, entities.WaterRequirement{
				Value:  value,
				Unit:   m[2] + "/" + m[3],
				Source: result.SourceID,
			})
		}

		sections := result.ExcerptSections
		if len(sections) > 2 {
			sections = sections[:2]
		}
		sources = append(sources, entities.SourceSections{
			Source:   result.SourceID,
			Sections: sections,
		})
	}

	return reqs, sources
}

// MoistureThresholds extracts "N% moisture" figures from every
// document whose text mentions any synonym of the crop. Not limited to
// the top-k - threshold figures are sparse enough to scan everything.
func (r *Retriever) MoistureThresholds(crop entities.CropType) []entities.MoistureThreshold {
	cropKeys, ok := cropKeywords[entities.CropType(strings.ToLower(string(crop)))]
	if !ok {
		cropKeys = []string{strings.ToLower(string(crop))}
	}

	var thresholds []entities.MoistureThreshold
	for _, doc := range r.docs() {
		contentLower := strings.ToLower(doc.Content)

		mentions := false
		for _, kw := range cropKeys {
			if strings.Contains(contentLower, kw) {
				mentions = true
				break
			}
		}
		if !mentions {
			continue
		}

		for _, m := range moisturePattern.FindAllStringSubmatch(doc.Content, -1) {
			value, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			thresholds = append(thresholds, entities.MoistureThreshold{
				Value:  value,
				Kind:   m[2],
				Source: doc.SourceID,
			})
		}
	}
	return thresholds
}

// RainGuidelines returns sections about rainfall and irrigation from
// every document scoring above zero on the fixed rain keyword set.
func (r *Retriever) RainGuidelines() []entities.SourceSections {
	var results []entities.SourceSections
	for _, doc := range r.docs() {
		contentLower := strings.ToLower(doc.Content)

		score := 0
		for _, kw := range rainKeywords {
			score += strings.Count(contentLower, kw)
		}
		if score == 0 {
			continue
		}

		results = append(results, entities.SourceSections{
			Source:   doc.SourceID,
			Sections: extractSections(doc.Content, rainKeywords),
		})
	}
	return results
}

// LLMContext assembles the retrieval side of the prompt: top-2 matches
// with their keywords and sections, up to 3 extracted water
// requirement figures, and the current field conditions. Output
// ordering is stable for given inputs - required for testability and
// prompt caching.
func (r *Retriever) LLMContext(crop entities.CropType, stage entities.CropStage, soilMoisture, rainfall float64) string {
	guides := r.Retrieve(crop, stage, 2)
	reqs, _ := r.WaterRequirements(crop, stage)

	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Agricultural Guidelines for %s (%s stage) ===\n", titleCase(string(crop)), stage)

	for _, guide := range guides {
		fmt.Fprintf(&sb, "\nSource: %s\n", guide.SourceID)
		fmt.Fprintf(&sb, "Matched keywords: %s\n", strings.Join(guide.MatchedTerms, ", "))
		sb.WriteString("Relevant sections:\n")
		sections := guide.ExcerptSections
		if len(sections) > 2 {
			sections = sections[:2]
		}
		for _, section := range sections {
			fmt.Fprintf(&sb, "  %s\n", section)
		}
	}

	if len(reqs) > 0 {
		sb.WriteString("\n=== Water Requirements Found ===\n")
		if len(reqs) > 3 {
			reqs = reqs[:3]
		}
		for _, req := range reqs {
			fmt.Fprintf(&sb, "  - %g %s (Source: %s)\n", req.Value, req.Unit, req.Source)
		}
	}

	sb.WriteString("\n=== Current Field Conditions ===\n")
	fmt.Fprintf(&sb, "  - Soil Moisture: %g%%\n", soilMoisture)
	fmt.Fprintf(&sb, "  - Predicted Rainfall: %g mm", rainfall)

	return sb.String()
}

// titleCase uppercases the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
