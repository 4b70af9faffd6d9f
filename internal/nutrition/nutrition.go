package nutrition

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// TypeProduce marks fruit and vegetable items, which always scale by weight.
const TypeProduce = "buah-sayur"

// Values holds macro nutrients for a fixed amount of food.
type Values struct {
	Calories     float64 `json:"calories"`
	Protein      float64 `json:"proteins"`
	Fat          float64 `json:"fat"`
	Carbohydrate float64 `json:"carbohydrate"`
}

// Scale multiplies every nutrient by factor.
func (v Values) Scale(factor float64) Values {
	return Values{
		Calories:     v.Calories * factor,
		Protein:      v.Protein * factor,
		Fat:          v.Fat * factor,
		Carbohydrate: v.Carbohydrate * factor,
	}
}

// Record is one entry of the nutrition data file.
type Record struct {
	Name         string  `json:"name"`
	Type         string  `json:"type"`
	Per100g      Values  `json:"nutrition_per_100g"`
	PerPortion   *Values `json:"nutrition_per_portion,omitempty"`
	PortionSizeG float64 `json:"portion_size_g,omitempty"`
}

// IsProduce reports whether the record is a fruit or vegetable.
func (r Record) IsProduce() bool {
	return strings.EqualFold(strings.TrimSpace(r.Type), TypeProduce)
}

// HasPortion reports whether fixed per-portion values are available.
func (r Record) HasPortion() bool {
	return r.PerPortion != nil && r.PortionSizeG > 0
}

// Result is a computed nutrition answer. Values are never rounded.
type Result struct {
	Values
	Source string
}

// Format renders the result with two decimals.
func (r Result) Format() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Kalori: %.2f kcal\n", r.Calories))
	sb.WriteString(fmt.Sprintf("Protein: %.2f g\n", r.Protein))
	sb.WriteString(fmt.Sprintf("Lemak: %.2f g\n", r.Fat))
	sb.WriteString(fmt.Sprintf("Karbohidrat: %.2f g\n", r.Carbohydrate))
	sb.WriteString(fmt.Sprintf("_Sumber: %s_", r.Source))
	return sb.String()
}

// Compute scales a record's nutrients. Produce always scales per 100 g by
// weight. Prepared items return the fixed portion when usePortion is set and
// portion data exists, otherwise they scale per 100 g by weight.
func Compute(rec Record, weightGrams float64, usePortion bool) Result {
	if !rec.IsProduce() && usePortion && rec.HasPortion() {
		return Result{
			Values: *rec.PerPortion,
			Source: fmt.Sprintf("1 porsi (%s gram)", formatGrams(rec.PortionSizeG)),
		}
	}
	return Result{
		Values: rec.Per100g.Scale(weightGrams / 100),
		Source: fmt.Sprintf("per 100 g (%s gram)", formatGrams(weightGrams)),
	}
}

// Calculate answers a free-text nutrition question. An explicit portion count
// multiplies the fixed portion for prepared items in portion mode, ignoring
// any weight override; otherwise it multiplies the effective weight.
func Calculate(rec Record, text string, defaultWeight float64, usePortion bool) Result {
	q := ParseQuantity(text)
	portionMode := !rec.IsProduce() && usePortion && rec.HasPortion()

	if portionMode && q.Portions > 0 {
		n := float64(q.Portions)
		return Result{
			Values: rec.PerPortion.Scale(n),
			Source: fmt.Sprintf("%d porsi (%s gram x %d)", q.Portions, formatGrams(rec.PortionSizeG), q.Portions),
		}
	}

	weight := defaultWeight
	if q.Grams > 0 {
		weight = q.Grams
	}
	if portionMode && q.Grams == 0 {
		return Compute(rec, weight, true)
	}
	if q.Portions > 0 {
		weight *= float64(q.Portions)
	}
	return Compute(rec, weight, false)
}

func formatGrams(g float64) string {
	return strconv.FormatFloat(g, 'f', -1, 64)
}

// Table is the read-only nutrition data loaded at startup.
type Table struct {
	records map[string]Record
}

// NewTable indexes records by case-insensitive name.
func NewTable(records []Record) *Table {
	t := &Table{records: make(map[string]Record, len(records))}
	for _, rec := range records {
		t.records[normalizeName(rec.Name)] = rec
	}
	return t
}

// LoadNutritionData reads the nutrition data file at path.
func LoadNutritionData(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read nutrition data: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal nutrition data %s: %w", path, err)
	}
	for i, rec := range records {
		if strings.TrimSpace(rec.Name) == "" {
			return nil, fmt.Errorf("nutrition record %d has no name", i)
		}
	}
	return NewTable(records), nil
}

// Lookup finds a record by name, ignoring case and surrounding spaces.
func (t *Table) Lookup(name string) (Record, bool) {
	if t == nil {
		return Record{}, false
	}
	rec, ok := t.records[normalizeName(name)]
	return rec, ok
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
