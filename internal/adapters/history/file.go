// Package history provides irrigation history store adapters.
// Clean Architecture: Adapters implementing ports.HistoryStore.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/agrisense/irrigo/internal/domain/entities"
)

const (
	// MaxEntries caps the rolling log. Bounded footprint over full
	// audit trail - entries beyond it are unrecoverable.
	MaxEntries = 30

	// maxExcerptLen caps the stored reasoning excerpt.
	maxExcerptLen = 200

	recentWindowDays = 7
	contextTail      = 5
)

// FileStore implements ports.HistoryStore backed by a JSON array file.
// The full log is loaded into memory at construction; a missing or
// unparsable file means "no history yet", never an error. Appends are
// serialized - read-truncate-write is not safe under concurrent
// writers without the lock.
type FileStore struct {
	mu      sync.Mutex
	path    string
	entries []entities.HistoryEntry
	logger  *zap.Logger
	now     func() time.Time
}

// NewFileStore creates a file-backed history store.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &FileStore{
		path:   path,
		logger: logger,
		now:    time.Now,
	}
	s.entries = s.load()
	return s
}

// load reads the backing file, degrading to empty history on any
// problem.
func (s *FileStore) load() []entities.HistoryEntry {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("reading history file, starting empty", zap.String("path", s.path), zap.Error(err))
		}
		return nil
	}

	var entries []entities.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn("parsing history file, starting empty", zap.String("path", s.path), zap.Error(err))
		return nil
	}
	return entries
}

// persist truncates to the most recent MaxEntries and writes the file.
// Caller must hold the lock.
func (s *FileStore) persist() error {
	if len(s.entries) > MaxEntries {
		s.entries = s.entries[len(s.entries)-MaxEntries:]
	}

	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling history: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("writing history file: %w", err)
	}
	return nil
}

// Append stamps the entry with the current time and persists the log.
func (s *FileStore) Append(entry entities.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.Timestamp = s.now().Format(time.RFC3339)
	entry.ReasoningExcerpt = truncate(entry.ReasoningExcerpt, maxExcerptLen)

	s.entries = append(s.entries, entry)
	if err := s.persist(); err != nil {
		s.logger.Error("persisting history", zap.Error(err))
		return err
	}

	s.logger.Info("stored irrigation decision",
		zap.String("decision", string(entry.Decision)),
		zap.Float64("water_applied_l", entry.WaterAppliedL))
	return nil
}

// Recent returns entries from the last N days, oldest first.
func (s *FileStore) Recent(days int) []entities.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return recentEntries(s.entries, days, s.now())
}

// WeeklySummary aggregates the last 7 days of history.
func (s *FileStore) WeeklySummary() entities.WeeklySummary {
	return summarize(s.Recent(recentWindowDays))
}

// WaterSavings compares smart usage over the last week against a fixed
// daily baseline.
func (s *FileStore) WaterSavings(baselineDailyL float64) entities.WaterSavings {
	return savings(s.Recent(recentWindowDays), baselineDailyL)
}

// LLMContext renders the recent history as prompt context.
func (s *FileStore) LLMContext() string {
	recent := s.Recent(recentWindowDays)
	return renderContext(recent, summarize(recent))
}

// Len reports the number of stored entries.
func (s *FileStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// --- shared aggregation over history entries ---

// recentEntries filters by timestamp >= now - days, preserving order.
// Unparsable timestamps are silently skipped.
func recentEntries(entries []entities.HistoryEntry, days int, now time.Time) []entities.HistoryEntry {
	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)

	var recent []entities.HistoryEntry
	for _, entry := range entries {
		ts, err := time.Parse(time.RFC3339, entry.Timestamp)
		if err != nil {
			continue
		}
		if !ts.Before(cutoff) {
			recent = append(recent, entry)
		}
	}
	return recent
}

// summarize aggregates a week of entries. Empty input yields the
// zero-valued summary.
func summarize(week []entities.HistoryEntry) entities.WeeklySummary {
	summary := entities.WeeklySummary{
		Period: "Last 7 days",
		PerDay: []entities.DailyDecision{},
	}
	if len(week) == 0 {
		return summary
	}

	var totalWater, totalMoisture float64
	for _, entry := range week {
		totalWater += entry.WaterAppliedL
		totalMoisture += entry.SoilMoisturePct
		if entry.Decision == entities.DecisionSkip {
			summary.SkippedCount++
		}
		summary.PerDay = append(summary.PerDay, entities.DailyDecision{
			Date:     entryDate(entry),
			Decision: entry.Decision,
			WaterL:   entry.WaterAppliedL,
		})
	}

	summary.TotalIrrigations = len(week)
	summary.TotalWaterUsedL = totalWater
	summary.AverageSoilMoisturePct = totalMoisture / float64(len(week))
	return summary
}

// savings compares smart usage against count*baseline. Guards the
// division when the week is empty.
func savings(week []entities.HistoryEntry, baselineDailyL float64) entities.WaterSavings {
	if len(week) == 0 {
		return entities.WaterSavings{}
	}

	var smart float64
	for _, entry := range week {
		smart += entry.WaterAppliedL
	}
	traditional := float64(len(week)) * baselineDailyL

	saved := traditional - smart
	pct := 0.0
	if traditional > 0 {
		pct = saved / traditional * 100
	}

	return entities.WaterSavings{
		SmartUsageL:       smart,
		TraditionalUsageL: traditional,
		SavedL:            saved,
		SavedPct:          pct,
	}
}

// renderContext renders the last entries plus weekly totals as one
// deterministic text block.
func renderContext(recent []entities.HistoryEntry, summary entities.WeeklySummary) string {
	if len(recent) == 0 {
		return "No recent irrigation history available."
	}

	var sb strings.Builder
	sb.WriteString("=== Recent Irrigation History (Last 7 Days) ===\n")

	tail := recent
	if len(tail) > contextTail {
		tail = tail[len(tail)-contextTail:]
	}
	for _, entry := range tail {
		fmt.Fprintf(&sb, "\n  [%s] Decision: %s, Water: %gL, Soil Moisture: %g%%",
			entryDate(entry), entry.Decision, entry.WaterAppliedL, entry.SoilMoisturePct)
	}

	fmt.Fprintf(&sb, "\n\n  Total water used this week: %gL", summary.TotalWaterUsedL)
	fmt.Fprintf(&sb, "\n  Irrigations skipped (rain): %d", summary.SkippedCount)
	return sb.String()
}

// entryDate is the date part of the ISO-8601 timestamp.
func entryDate(entry entities.HistoryEntry) string {
	if len(entry.Timestamp) >= 10 {
		return entry.Timestamp[:10]
	}
	return entry.Timestamp
}

// truncate caps s at n bytes without splitting a multibyte rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
