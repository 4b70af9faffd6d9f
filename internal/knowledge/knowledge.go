package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Field names a knowledge base attribute of a dish.
type Field string

const (
	FieldOrigin          Field = "origin"
	FieldIngredients     Field = "ingredients"
	FieldTaste           Field = "taste"
	FieldDescription     Field = "description"
	FieldOneLiner        Field = "one_liner"
	FieldCulture         Field = "culture"
	FieldTips            Field = "tips"
	FieldComparison      Field = "comparison"
	FieldStreetVsHome    Field = "street_vs_home"
	FieldPriceRange      Field = "price_range"
	FieldCulturalMeaning Field = "cultural_meaning"
	FieldSpiceLevel      Field = "spice_level"
	FieldHalalInfo       Field = "halal_info"
	FieldMeatInfo        Field = "meat_info"
	FieldNutrition       Field = "nutrition"
	FieldVariants        Field = "variants"
	FieldGlutenInfo      Field = "gluten_info"
	FieldMealType        Field = "meal_type"
	FieldOrderingIndo    Field = "ordering_indo"
	FieldOrderingTips    Field = "ordering_tips"
	FieldSafety          Field = "safety"
	FieldMealTime        Field = "meal_time"
	FieldWhereToTry      Field = "where_to_try"
)

// DishRecord describes one dish. Every value is trimmed at load time and an
// empty string means the attribute is absent.
type DishRecord struct {
	Origin          string `json:"origin"`
	Ingredients     string `json:"ingredients"`
	Taste           string `json:"taste"`
	Description     string `json:"description"`
	OneLiner        string `json:"one_liner"`
	Culture         string `json:"culture"`
	Tips            string `json:"tips"`
	Comparison      string `json:"comparison"`
	StreetVsHome    string `json:"street_vs_home"`
	PriceRange      string `json:"price_range"`
	CulturalMeaning string `json:"cultural_meaning"`
	SpiceLevel      string `json:"spice_level"`
	HalalInfo       string `json:"halal_info"`
	MeatInfo        string `json:"meat_info"`
	Nutrition       string `json:"nutrition"`
	Variants        string `json:"variants"`
	GlutenInfo      string `json:"gluten_info"`
	MealType        string `json:"meal_type"`
	OrderingIndo    string `json:"ordering_indo"`
	OrderingTips    string `json:"ordering_tips"`
	Safety          string `json:"safety"`
	MealTime        string `json:"meal_time"`
	WhereToTry      string `json:"where_to_try"`
}

// Get returns the trimmed value of field, or "" when the field is absent.
func (d DishRecord) Get(field Field) string {
	var v string
	switch field {
	case FieldOrigin:
		v = d.Origin
	case FieldIngredients:
		v = d.Ingredients
	case FieldTaste:
		v = d.Taste
	case FieldDescription:
		v = d.Description
	case FieldOneLiner:
		v = d.OneLiner
	case FieldCulture:
		v = d.Culture
	case FieldTips:
		v = d.Tips
	case FieldComparison:
		v = d.Comparison
	case FieldStreetVsHome:
		v = d.StreetVsHome
	case FieldPriceRange:
		v = d.PriceRange
	case FieldCulturalMeaning:
		v = d.CulturalMeaning
	case FieldSpiceLevel:
		v = d.SpiceLevel
	case FieldHalalInfo:
		v = d.HalalInfo
	case FieldMeatInfo:
		v = d.MeatInfo
	case FieldNutrition:
		v = d.Nutrition
	case FieldVariants:
		v = d.Variants
	case FieldGlutenInfo:
		v = d.GlutenInfo
	case FieldMealType:
		v = d.MealType
	case FieldOrderingIndo:
		v = d.OrderingIndo
	case FieldOrderingTips:
		v = d.OrderingTips
	case FieldSafety:
		v = d.Safety
	case FieldMealTime:
		v = d.MealTime
	case FieldWhereToTry:
		v = d.WhereToTry
	}
	return strings.TrimSpace(v)
}

// GetOr returns the value of field, or fallback when it is absent or blank.
func (d DishRecord) GetOr(field Field, fallback string) string {
	if v := d.Get(field); v != "" {
		return v
	}
	return fallback
}

func (d *DishRecord) trim() {
	for _, p := range []*string{
		&d.Origin, &d.Ingredients, &d.Taste, &d.Description, &d.OneLiner,
		&d.Culture, &d.Tips, &d.Comparison, &d.StreetVsHome, &d.PriceRange,
		&d.CulturalMeaning, &d.SpiceLevel, &d.HalalInfo, &d.MeatInfo,
		&d.Nutrition, &d.Variants, &d.GlutenInfo, &d.MealType, &d.OrderingIndo,
		&d.OrderingTips, &d.Safety, &d.MealTime, &d.WhereToTry,
	} {
		*p = strings.TrimSpace(*p)
	}
}

// KnowledgeBase is the read-only dish lookup loaded at startup.
type KnowledgeBase struct {
	dishes map[string]DishRecord
}

// New builds a KnowledgeBase from records keyed by exact dish name.
func New(dishes map[string]DishRecord) *KnowledgeBase {
	kb := &KnowledgeBase{dishes: make(map[string]DishRecord, len(dishes))}
	for name, rec := range dishes {
		rec.trim()
		kb.dishes[name] = rec
	}
	return kb
}

// LoadKnowledgeBase reads the JSON knowledge base at path.
func LoadKnowledgeBase(path string) (*KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge base: %w", err)
	}

	var dishes map[string]DishRecord
	if err := json.Unmarshal(data, &dishes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal knowledge base %s: %w", path, err)
	}
	if dishes == nil {
		return nil, fmt.Errorf("knowledge base %s is empty", path)
	}
	return New(dishes), nil
}

// Lookup returns the record for the exact dish name. A missing dish yields a
// zero record, so every field resolves to its default.
func (kb *KnowledgeBase) Lookup(name string) (DishRecord, bool) {
	rec, ok := kb.dishes[name]
	return rec, ok
}

// Names returns the known dish names in sorted order.
func (kb *KnowledgeBase) Names() []string {
	names := make([]string, 0, len(kb.dishes))
	for name := range kb.dishes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of dishes.
func (kb *KnowledgeBase) Len() int {
	return len(kb.dishes)
}
