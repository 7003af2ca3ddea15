package history

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/agrisense/irrigo/internal/domain/entities"
)

func tempDBPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "history-sqlite-*")
	if err != nil {
		t.Fatalf("mkdir temp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "history.db")
}

func TestSQLiteStore_AppendAndReload(t *testing.T) {
	path := tempDBPath(t)

	store, err := NewSQLiteStore(path, nil)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	err = store.Append(entities.HistoryEntry{
		CropType:      entities.CropMaize,
		CropStage:     entities.StageVegetative,
		FieldSizeHa:   3,
		WaterAppliedL: 105,
		Decision:      entities.DecisionReduce,
	})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	store.Close()

	reloaded, err := NewSQLiteStore(path, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reloaded.Close()

	if reloaded.Len() != 1 {
		t.Fatalf("expected 1 entry after reload, got %d", reloaded.Len())
	}
	recent := reloaded.Recent(7)
	if len(recent) != 1 || recent[0].Decision != entities.DecisionReduce {
		t.Errorf("unexpected entries: %+v", recent)
	}
	if recent[0].WaterAppliedL != 105 {
		t.Errorf("water: %g", recent[0].WaterAppliedL)
	}
}

func TestSQLiteStore_PrunesBeyondCap(t *testing.T) {
	path := tempDBPath(t)

	store, err := NewSQLiteStore(path, nil)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	for i := 0; i < MaxEntries+3; i++ {
		store.Append(entities.HistoryEntry{
			WaterAppliedL: float64(i),
			Decision:      entities.DecisionIrrigate,
		})
	}
	if store.Len() != MaxEntries {
		t.Errorf("mirror cap: %d", store.Len())
	}
	store.Close()

	// The database itself is pruned, not just the mirror.
	reloaded, err := NewSQLiteStore(path, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reloaded.Close()

	if reloaded.Len() != MaxEntries {
		t.Errorf("expected %d rows after prune, got %d", MaxEntries, reloaded.Len())
	}
	recent := reloaded.Recent(7)
	if recent[0].WaterAppliedL != 3 {
		t.Errorf("expected oldest survivor 3, got %g", recent[0].WaterAppliedL)
	}
}

func TestSQLiteStore_SharedAggregation(t *testing.T) {
	store, err := NewSQLiteStore(tempDBPath(t), nil)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer store.Close()

	store.Append(entities.HistoryEntry{WaterAppliedL: 80, Decision: entities.DecisionIrrigate})
	store.Append(entities.HistoryEntry{WaterAppliedL: 0, Decision: entities.DecisionSkip})

	summary := store.WeeklySummary()
	if summary.TotalIrrigations != 2 || summary.SkippedCount != 1 || summary.TotalWaterUsedL != 80 {
		t.Errorf("unexpected summary: %+v", summary)
	}

	result := store.WaterSavings(100)
	if result.TraditionalUsageL != 200 || result.SavedL != 120 {
		t.Errorf("unexpected savings: %+v", result)
	}

	if store.LLMContext() == "No recent irrigation history available." {
		t.Error("context should list the stored entries")
	}
}
