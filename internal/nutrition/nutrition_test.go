package nutrition

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

var (
	apple = Record{
		Name:    "Apel",
		Type:    TypeProduce,
		Per100g: Values{Calories: 52, Protein: 0.3, Fat: 0.2, Carbohydrate: 14},
	}
	nasiGoreng = Record{
		Name:         "Nasi Goreng",
		Type:         "makanan",
		Per100g:      Values{Calories: 168, Protein: 6.3, Fat: 6.2, Carbohydrate: 21},
		PerPortion:   &Values{Calories: 252, Protein: 9.45, Fat: 9.3, Carbohydrate: 31.5},
		PortionSizeG: 150,
	}
)

func TestComputeProduceScalesLinearly(t *testing.T) {
	for _, w := range []float64{1, 50, 100, 137.5, 400} {
		for _, flag := range []bool{true, false} {
			single := Compute(apple, w, flag)
			double := Compute(apple, 2*w, flag)
			if !almostEqual(double.Calories, 2*single.Calories) {
				t.Errorf("w=%v flag=%v: expected %v calories, got %v", w, flag, 2*single.Calories, double.Calories)
			}
			if !almostEqual(double.Carbohydrate, 2*single.Carbohydrate) {
				t.Errorf("w=%v flag=%v: carbohydrate did not scale linearly", w, flag)
			}
			if !strings.HasPrefix(single.Source, "per 100 g") {
				t.Errorf("Expected per 100 g source, got '%s'", single.Source)
			}
		}
	}
}

func TestComputePrepared(t *testing.T) {
	t.Run("PortionMode", func(t *testing.T) {
		res := Compute(nasiGoreng, 300, true)
		if res.Calories != 252 {
			t.Errorf("Expected unscaled portion calories 252, got %v", res.Calories)
		}
		if res.Source != "1 porsi (150 gram)" {
			t.Errorf("Expected source '1 porsi (150 gram)', got '%s'", res.Source)
		}
	})

	t.Run("WeightMode", func(t *testing.T) {
		res := Compute(nasiGoreng, 250, false)
		if !almostEqual(res.Calories, 420) {
			t.Errorf("Expected 420 calories, got %v", res.Calories)
		}
		if res.Source != "per 100 g (250 gram)" {
			t.Errorf("Unexpected source '%s'", res.Source)
		}
	})

	t.Run("NoPortionDataFallsBackToWeight", func(t *testing.T) {
		rec := nasiGoreng
		rec.PerPortion = nil
		res := Compute(rec, 100, true)
		if !almostEqual(res.Calories, 168) {
			t.Errorf("Expected 168 calories, got %v", res.Calories)
		}
	})
}

func TestCalculate(t *testing.T) {
	t.Run("PortionCountMultipliesPortion", func(t *testing.T) {
		res := Calculate(nasiGoreng, "2 porsi berapa kalori", 100, true)
		if !almostEqual(res.Calories, 2*252) {
			t.Errorf("Expected %v calories, got %v", 2*252.0, res.Calories)
		}
		if res.Source != "2 porsi (150 gram x 2)" {
			t.Errorf("Expected source '2 porsi (150 gram x 2)', got '%s'", res.Source)
		}
	})

	t.Run("WeightIgnoredWithPortionCount", func(t *testing.T) {
		res := Calculate(nasiGoreng, "3 porsi 500 gram kalorinya?", 100, true)
		if !almostEqual(res.Calories, 3*252) {
			t.Errorf("Expected %v calories, got %v", 3*252.0, res.Calories)
		}
	})

	t.Run("WeightOverrideWithoutPortionCount", func(t *testing.T) {
		res := Calculate(nasiGoreng, "kalori 200g", 100, true)
		if !almostEqual(res.Calories, 336) {
			t.Errorf("Expected 336 calories, got %v", res.Calories)
		}
	})

	t.Run("PortionModeDefault", func(t *testing.T) {
		res := Calculate(nasiGoreng, "berapa kalori?", 100, true)
		if res.Calories != 252 {
			t.Errorf("Expected 252 calories, got %v", res.Calories)
		}
	})

	t.Run("PortionCountMultipliesWeightWhenFlagOff", func(t *testing.T) {
		res := Calculate(nasiGoreng, "2 porsi 50 gr", 100, false)
		// 50 g x 2 portions = 100 g
		if !almostEqual(res.Calories, 168) {
			t.Errorf("Expected 168 calories, got %v", res.Calories)
		}
		if res.Source != "per 100 g (100 gram)" {
			t.Errorf("Unexpected source '%s'", res.Source)
		}
	})

	t.Run("ProduceUsesDefaultWeight", func(t *testing.T) {
		res := Calculate(apple, "how many calories?", 200, true)
		if !almostEqual(res.Calories, 104) {
			t.Errorf("Expected 104 calories, got %v", res.Calories)
		}
	})
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		text string
		want Quantity
	}{
		{"2 porsi berapa kalori", Quantity{Portions: 2}},
		{"kalori 250 gram", Quantity{Grams: 250}},
		{"kalori 250gr", Quantity{Grams: 250}},
		{"calories in 200 grams?", Quantity{Grams: 200}},
		{"1,5 g protein", Quantity{Grams: 1.5}},
		{"3 PORSI 100 g", Quantity{Portions: 3, Grams: 100}},
		{"2 goreng", Quantity{}},
		{"no numbers here", Quantity{}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := ParseQuantity(tt.text)
			if got != tt.want {
				t.Errorf("ParseQuantity(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

func TestLoadNutritionData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nutrition.json")
	content := `[
		{"name": "Apel", "type": "buah-sayur", "nutrition_per_100g": {"calories": 52, "proteins": 0.3, "fat": 0.2, "carbohydrate": 14}},
		{"name": "Nasi Goreng", "type": "makanan", "nutrition_per_100g": {"calories": 168, "proteins": 6.3, "fat": 6.2, "carbohydrate": 21},
		 "nutrition_per_portion": {"calories": 252, "proteins": 9.45, "fat": 9.3, "carbohydrate": 31.5}, "portion_size_g": 150}
	]`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write nutrition data: %v", err)
	}

	table, err := LoadNutritionData(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	rec, ok := table.Lookup("  nasi goreng ")
	if !ok {
		t.Fatal("Expected case-insensitive lookup to succeed")
	}
	if !rec.HasPortion() || rec.PortionSizeG != 150 {
		t.Errorf("Expected portion data for Nasi Goreng, got %+v", rec)
	}
	if rec.Per100g.Protein != 6.3 {
		t.Errorf("Expected protein 6.3, got %v", rec.Per100g.Protein)
	}

	apel, _ := table.Lookup("Apel")
	if !apel.IsProduce() {
		t.Error("Expected Apel to be produce")
	}

	var nilTable *Table
	if _, ok := nilTable.Lookup("Apel"); ok {
		t.Error("Expected lookup on nil table to miss")
	}
}

func TestResultFormat(t *testing.T) {
	res := Result{Values: Values{Calories: 252, Protein: 9.456}, Source: "1 porsi (150 gram)"}
	out := res.Format()
	if !strings.Contains(out, "Kalori: 252.00 kcal") {
		t.Errorf("Expected two-decimal calories, got:\n%s", out)
	}
	if !strings.Contains(out, "Protein: 9.46 g") {
		t.Errorf("Expected rounded protein at presentation time, got:\n%s", out)
	}
}
