// SQLite-backed history store. Same contract as FileStore, for
// deployments that prefer a queryable log over a flat JSON file.
package history

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"go.uber.org/zap"

	"github.com/agrisense/irrigo/internal/domain/entities"
)

// SQLiteStore implements ports.HistoryStore on a SQLite database.
// The log is mirrored in memory so reads never touch the database;
// Append inserts, prunes beyond MaxEntries, and refreshes the mirror
// under the same lock.
type SQLiteStore struct {
	mu      sync.Mutex
	db      *sql.DB
	entries []entities.HistoryEntry
	logger  *zap.Logger
	now     func() time.Time
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	// A broken table read is "no history yet", like a corrupt JSON file.
	entries, err := s.loadAll()
	if err != nil {
		logger.Warn("loading history rows, starting empty", zap.Error(err))
		entries = nil
	}
	s.entries = entries
	return s, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			crop_type TEXT NOT NULL,
			crop_stage TEXT NOT NULL,
			field_size_ha REAL NOT NULL,
			soil_moisture_pct REAL NOT NULL,
			rainfall_mm REAL NOT NULL,
			water_applied_l REAL NOT NULL,
			decision TEXT NOT NULL,
			reasoning_excerpt TEXT NOT NULL DEFAULT ''
		)`)
	if err != nil {
		return fmt.Errorf("creating history table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) loadAll() ([]entities.HistoryEntry, error) {
	rows, err := s.db.Query(`
		SELECT timestamp, crop_type, crop_stage, field_size_ha,
		       soil_moisture_pct, rainfall_mm, water_applied_l,
		       decision, reasoning_excerpt
		FROM history ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []entities.HistoryEntry
	for rows.Next() {
		var e entities.HistoryEntry
		if err := rows.Scan(&e.Timestamp, &e.CropType, &e.CropStage, &e.FieldSizeHa,
			&e.SoilMoisturePct, &e.RainfallMM, &e.WaterAppliedL, &e.Decision, &e.ReasoningExcerpt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Append stamps the entry, inserts it, prunes the oldest rows beyond
// MaxEntries, and refreshes the in-memory mirror.
func (s *SQLiteStore) Append(entry entities.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.Timestamp = s.now().Format(time.RFC3339)
	entry.ReasoningExcerpt = truncate(entry.ReasoningExcerpt, maxExcerptLen)

	_, err := s.db.Exec(`
		INSERT INTO history (timestamp, crop_type, crop_stage, field_size_ha,
		                     soil_moisture_pct, rainfall_mm, water_applied_l,
		                     decision, reasoning_excerpt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Timestamp, entry.CropType, entry.CropStage, entry.FieldSizeHa,
		entry.SoilMoisturePct, entry.RainfallMM, entry.WaterAppliedL,
		entry.Decision, entry.ReasoningExcerpt)
	if err != nil {
		return fmt.Errorf("inserting history entry: %w", err)
	}

	_, err = s.db.Exec(`
		DELETE FROM history WHERE id NOT IN (
			SELECT id FROM history ORDER BY id DESC LIMIT ?
		)`, MaxEntries)
	if err != nil {
		return fmt.Errorf("pruning history: %w", err)
	}

	s.entries = append(s.entries, entry)
	if len(s.entries) > MaxEntries {
		s.entries = s.entries[len(s.entries)-MaxEntries:]
	}

	s.logger.Info("stored irrigation decision",
		zap.String("decision", string(entry.Decision)),
		zap.Float64("water_applied_l", entry.WaterAppliedL))
	return nil
}

// Recent returns entries from the last N days, oldest first.
func (s *SQLiteStore) Recent(days int) []entities.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return recentEntries(s.entries, days, s.now())
}

// WeeklySummary aggregates the last 7 days of history.
func (s *SQLiteStore) WeeklySummary() entities.WeeklySummary {
	return summarize(s.Recent(recentWindowDays))
}

// WaterSavings compares the last week against a fixed daily baseline.
func (s *SQLiteStore) WaterSavings(baselineDailyL float64) entities.WaterSavings {
	return savings(s.Recent(recentWindowDays), baselineDailyL)
}

// LLMContext renders the recent history as prompt context.
func (s *SQLiteStore) LLMContext() string {
	recent := s.Recent(recentWindowDays)
	return renderContext(recent, summarize(recent))
}

// Len reports the number of stored entries.
func (s *SQLiteStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
