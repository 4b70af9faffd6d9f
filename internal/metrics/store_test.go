package metrics

import (
	"path/filepath"
	"testing"
	"time"

	"food-tourism-assistant/internal/classifier"
	"food-tourism-assistant/internal/database"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "data", "metrics.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db.SQL, "tfserving")
}

func TestStore(t *testing.T) {
	store := newTestStore(t)

	preds := []struct {
		label    string
		conf     float64
		accepted bool
	}{
		{"Rendang", 0.9, true},
		{"Rendang", 0.8, true},
		{"Sate", 0.6, true},
		{"Bakso", 0.2, false},
	}
	for _, p := range preds {
		err := store.RecordClassification(classifier.Prediction{Label: p.label, Confidence: p.conf}, p.accepted, 120*time.Millisecond)
		if err != nil {
			t.Fatalf("Failed to record metric: %v", err)
		}
	}
	old := ClassificationMetric{Label: "Sate", Confidence: 0.5, Accepted: true, Timestamp: time.Now().AddDate(0, 0, -40)}
	if err := store.Record(old); err != nil {
		t.Fatalf("Failed to record old metric: %v", err)
	}

	t.Run("DailyUsage", func(t *testing.T) {
		usage, err := store.GetDailyUsage(7)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(usage) != 1 {
			t.Fatalf("Expected 1 day of usage, got %d", len(usage))
		}
		if usage[0].Total != 4 || usage[0].Accepted != 3 {
			t.Errorf("Expected 4 total / 3 accepted, got %+v", usage[0])
		}
		if usage[0].AvgLatencyMS != 120 {
			t.Errorf("Expected average latency 120ms, got %v", usage[0].AvgLatencyMS)
		}
	})

	t.Run("TopLabels", func(t *testing.T) {
		labels, err := store.TopLabels(7, 5)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(labels) != 2 || labels[0] != "Rendang" || labels[1] != "Sate" {
			t.Errorf("Expected [Rendang Sate], got %v", labels)
		}
	})

	t.Run("Cleanup", func(t *testing.T) {
		affected, err := store.Cleanup(30)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if affected != 1 {
			t.Errorf("Expected 1 removed record, got %d", affected)
		}
	})
}

func TestGetSysHealth(t *testing.T) {
	health := GetSysHealth(t.TempDir(), 3)
	if health.Goroutines == 0 {
		t.Error("Expected at least one goroutine")
	}
	if health.ActiveSessions != 3 {
		t.Errorf("Expected 3 active sessions, got %d", health.ActiveSessions)
	}
	if health.DataDiskSize != "0 B" {
		t.Errorf("Expected empty directory to be '0 B', got '%s'", health.DataDiskSize)
	}
}
