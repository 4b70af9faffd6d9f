package responder

import (
	"fmt"
	"strings"

	"food-tourism-assistant/internal/knowledge"
)

// FunFacts are appended to introductions.
var FunFacts = []string{
	"Did you know? Rendang was once listed among the world's most delicious foods by CNN Travel!",
	"Fun fact: In Padang restaurants, all dishes are displayed on the table, but you only pay for what you eat!",
	"Many Indonesian foods are traditionally eaten with hands. It's part of the culture!",
	"Spices in Indonesian cuisine reflect the country's history as a major spice trading hub.",
}

// Introduce builds the first message after a dish has been identified.
// pick selects the fun fact index from len(FunFacts).
func Introduce(dish string, confidence float64, rec knowledge.DishRecord, pick func(n int) int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("This is *%s* (%.0f%% sure), a dish from %s. 🍽️\n\n",
		dish, confidence*100, rec.GetOr(knowledge.FieldOrigin, "Indonesia")))
	sb.WriteString(fmt.Sprintf("It's made with %s and usually tastes *%s*.",
		rec.GetOr(knowledge.FieldIngredients, "a mix of local ingredients"),
		rec.GetOr(knowledge.FieldTaste, "savory")))
	if culture := rec.Get(knowledge.FieldCulture); culture != "" {
		sb.WriteString(fmt.Sprintf(" It's often enjoyed like this: %s.", strings.TrimSuffix(culture, ".")))
	}
	sb.WriteString("\n\n")
	if tips := rec.Get(knowledge.FieldTips); tips != "" {
		sb.WriteString(fmt.Sprintf("Tips for you: %s\n\n", tips))
	}
	sb.WriteString(Describe(rec))

	if pick != nil && len(FunFacts) > 0 {
		i := pick(len(FunFacts))
		if i >= 0 && i < len(FunFacts) {
			sb.WriteString("\n\n✨ ")
			sb.WriteString(FunFacts[i])
		}
	}
	sb.WriteString("\n\nAsk me anything about it: spice level, halal status, price, where to try it, nutrition...")
	return sb.String()
}
