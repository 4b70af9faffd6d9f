package knowledge

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadKnowledgeBase(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		path := writeFile(t, "food_data.json", `{
			"Rendang": {
				"origin": "  West Sumatra ",
				"halal_info": "Halal when made with beef.\n",
				"spice_level": "   "
			},
			"Sate": {"origin": "Java"}
		}`)

		kb, err := LoadKnowledgeBase(path)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if kb.Len() != 2 {
			t.Fatalf("Expected 2 dishes, got %d", kb.Len())
		}

		rec, ok := kb.Lookup("Rendang")
		if !ok {
			t.Fatal("Expected Rendang to be found")
		}
		if got := rec.Get(FieldOrigin); got != "West Sumatra" {
			t.Errorf("Expected trimmed origin 'West Sumatra', got '%s'", got)
		}
		if got := rec.Get(FieldHalalInfo); got != "Halal when made with beef." {
			t.Errorf("Expected trimmed halal info, got '%s'", got)
		}
		if got := rec.GetOr(FieldSpiceLevel, "default"); got != "default" {
			t.Errorf("Expected blank field to fall back to default, got '%s'", got)
		}

		names := kb.Names()
		if len(names) != 2 || names[0] != "Rendang" || names[1] != "Sate" {
			t.Errorf("Expected sorted names [Rendang Sate], got %v", names)
		}
	})

	t.Run("MissingDish", func(t *testing.T) {
		kb := New(map[string]DishRecord{})
		rec, ok := kb.Lookup("Gado-gado")
		if ok {
			t.Fatal("Expected Gado-gado to be missing")
		}
		if got := rec.GetOr(FieldDescription, "fallback"); got != "fallback" {
			t.Errorf("Expected fallback for missing dish, got '%s'", got)
		}
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		path := writeFile(t, "food_data.json", `{"Rendang": `)
		if _, err := LoadKnowledgeBase(path); err == nil {
			t.Fatal("Expected an error for malformed JSON, got nil")
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		if _, err := LoadKnowledgeBase(filepath.Join(t.TempDir(), "nope.json")); err == nil {
			t.Fatal("Expected an error for a missing file, got nil")
		}
	})
}

func TestLoadLabels(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		path := writeFile(t, "labels.txt", "Bakso\n Rendang \nSate\n\n")

		labels, err := LoadLabels(path)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(labels) != 3 {
			t.Fatalf("Expected 3 labels, got %d: %v", len(labels), labels)
		}
		if labels[1] != "Rendang" {
			t.Errorf("Expected trimmed label 'Rendang', got '%s'", labels[1])
		}
	})

	t.Run("Empty", func(t *testing.T) {
		path := writeFile(t, "labels.txt", "\n\n")
		if _, err := LoadLabels(path); err == nil {
			t.Fatal("Expected an error for an empty labels file, got nil")
		}
	})
}
