package app

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"food-tourism-assistant/internal/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func testConfig(t *testing.T, tfServingURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		LabelsPath:          writeFile(t, dir, "labels.txt", "Rendang\nSate\nBakso\n\n"),
		KnowledgeBasePath:   writeFile(t, dir, "food_data.json", `{"Rendang": {"origin": "West Sumatra"}, "Sate": {"halal_info": "Usually halal."}}`),
		NutritionDataPath:   writeFile(t, dir, "nutrition.json", `[{"name": "Rendang", "type": "makanan", "nutrition_per_100g": {"calories": 195}}]`),
		DatabasePath:        filepath.Join(dir, "data", "food-guide.db"),
		ClassifierBackend:   config.BackendTFServing,
		TFServingURL:        tfServingURL,
		TFServingModel:      "food",
		ConfidenceThreshold: 0.3,
		DefaultWeightGrams:  100,
		UsePortion:          true,
	}
}

func TestLoadReference(t *testing.T) {
	cfg := testConfig(t, "")

	ref, err := LoadReference(cfg)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(ref.Labels) != 3 {
		t.Errorf("Expected 3 labels, got %v", ref.Labels)
	}
	if ref.KnowledgeBase.Len() != 2 {
		t.Errorf("Expected 2 dishes, got %d", ref.KnowledgeBase.Len())
	}
	if _, ok := ref.Nutrition.Lookup("rendang"); !ok {
		t.Error("Expected nutrition record for Rendang")
	}
	if missing := missingDishes(ref.Labels, ref.KnowledgeBase); len(missing) != 1 || missing[0] != "Bakso" {
		t.Errorf("Expected [Bakso] to be missing, got %v", missing)
	}

	t.Run("OptionalNutrition", func(t *testing.T) {
		cfg := testConfig(t, "")
		cfg.NutritionDataPath = ""
		ref, err := LoadReference(cfg)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if ref.Nutrition != nil {
			t.Error("Expected no nutrition table")
		}
	})

	t.Run("MissingKnowledgeBase", func(t *testing.T) {
		cfg := testConfig(t, "")
		cfg.KnowledgeBasePath = filepath.Join(t.TempDir(), "absent.json")
		if _, err := LoadReference(cfg); err == nil {
			t.Fatal("Expected an error, got nil")
		}
	})
}

func TestApp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/models/food/metadata":
			fmt.Fprintln(w, `{"metadata": {"signature_def": {"signature_def": {
				"serving_default": {"inputs": {"image": {"dtype": "DT_FLOAT",
					"tensor_shape": {"dim": [{"size": "1"}, {"size": "4"}, {"size": "4"}, {"size": "3"}]}}}}}}}}`)
		case "/v1/models/food:predict":
			fmt.Fprintln(w, `{"predictions": [[0.8, 0.15, 0.05]]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	cfg := testConfig(t, server.URL)
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	defer a.Close()

	imgPath := filepath.Join(t.TempDir(), "dish.png")
	f, err := os.Create(imgPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatal(err)
	}
	f.Close()

	pred, err := a.ClassifyFile(context.Background(), imgPath)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if pred.Label != "Rendang" || !a.Accepts(pred) {
		t.Errorf("Expected accepted Rendang, got %+v", pred)
	}

	deps := a.Deps()
	if deps.Threshold != 0.3 || deps.DefaultWeight != 100 || !deps.UsePortion {
		t.Errorf("Unexpected deps %+v", deps)
	}

	// Sessions record into the metrics store.
	if err := a.MetricsStore().RecordClassification(pred, true, 0); err != nil {
		t.Fatalf("Failed to record metric: %v", err)
	}
	usage, err := a.MetricsStore().GetDailyUsage(1)
	if err != nil || len(usage) != 1 {
		t.Errorf("Expected one day of usage, got %v (%v)", usage, err)
	}
}
