package responder

import (
	"fmt"
	"regexp"
	"strings"

	"food-tourism-assistant/internal/intent"
	"food-tourism-assistant/internal/knowledge"
	"food-tourism-assistant/internal/nutrition"
)

// DefaultDescription is used when a dish has neither description nor one-liner.
const DefaultDescription = "A tasty Indonesian dish!"

// Answer binds an intent to the knowledge base fields that answer it, tried in
// order, and the phrase used when all of them are blank.
type Answer struct {
	Intent  intent.Intent
	Fields  []knowledge.Field
	Default string
}

// Answers is the static intent to field table.
var Answers = []Answer{
	{intent.Comparison, []knowledge.Field{knowledge.FieldComparison}, "It's hard to compare directly with Western food, but think of it as comfort food with bold Indonesian spices."},
	{intent.StreetVsHome, []knowledge.Field{knowledge.FieldStreetVsHome}, "Street versions are usually quicker and bolder in flavour, while home-cooked ones are milder and made with more care."},
	{intent.Price, []knowledge.Field{knowledge.FieldPriceRange}, "Prices vary by place: street stalls are cheap, while restaurants in big cities like Jakarta charge more."},
	{intent.Culture, []knowledge.Field{knowledge.FieldCulturalMeaning, knowledge.FieldCulture}, "This dish is part of everyday Indonesian life and often appears at family gatherings and celebrations."},
	{intent.Spice, []knowledge.Field{knowledge.FieldSpiceLevel}, "Spice level depends on the cook. Ask for \"tidak pedas\" (not spicy) if you prefer it mild."},
	{intent.Halal, []knowledge.Field{knowledge.FieldHalalInfo}, "Most Indonesian food is halal, but check with the seller if you are unsure."},
	{intent.Meat, []knowledge.Field{knowledge.FieldMeatInfo, knowledge.FieldIngredients}, "Ingredients vary by region, so ask the seller what goes into their version."},
	{intent.Nutrition, []knowledge.Field{knowledge.FieldNutrition}, "Detailed nutrition information isn't available for this dish yet."},
	{intent.Variants, []knowledge.Field{knowledge.FieldVariants}, "There are many regional variations, and some stalls offer vegetarian versions on request."},
	{intent.Gluten, []knowledge.Field{knowledge.FieldGlutenInfo}, "Gluten content depends on the sauces used. Soy sauce (kecap) often contains wheat."},
	{intent.MealType, []knowledge.Field{knowledge.FieldMealType}, "It can be enjoyed as a main meal or a snack, depending on the portion."},
	{intent.Ordering, []knowledge.Field{knowledge.FieldOrderingIndo, knowledge.FieldOrderingTips}, "Try saying \"Saya mau pesan satu porsi, ya\" (I'd like to order one portion, please)."},
	{intent.Safety, []knowledge.Field{knowledge.FieldSafety}, "Choose busy stalls where food is cooked fresh and served hot."},
	{intent.MealTime, []knowledge.Field{knowledge.FieldMealTime}, "It can be eaten any time of day, but locals have their favourite times."},
	{intent.Where, []knowledge.Field{knowledge.FieldWhereToTry}, "You can try it in local warungs (small restaurants). Traditional food stalls have the most authentic taste!"},
}

var answerByIntent = func() map[intent.Intent]Answer {
	m := make(map[intent.Intent]Answer, len(Answers))
	for _, a := range Answers {
		m[a.Intent] = a
	}
	return m
}()

var whatIsPattern = regexp.MustCompile(`\b(what\s+is\s+(this|it|that)|what'?s\s+(this|it|that)|apa\s+(ini|itu)|(ini|itu)\s+apa)\b`)

// Lookup resolves the answer text for one intent: the first non-blank field,
// else the intent's default.
func Lookup(in intent.Intent, rec knowledge.DishRecord) string {
	a, ok := answerByIntent[in]
	if !ok {
		return ""
	}
	for _, f := range a.Fields {
		if v := rec.Get(f); v != "" {
			return v
		}
	}
	return a.Default
}

// Describe returns the general description of a dish.
func Describe(rec knowledge.DishRecord) string {
	return rec.GetOr(knowledge.FieldDescription, rec.GetOr(knowledge.FieldOneLiner, DefaultDescription))
}

// Respond answers a question about dish. It is deterministic in its inputs.
func Respond(dish, question string, rec knowledge.DishRecord) string {
	return respond(dish, question, rec, nil)
}

// NutritionOptions carries the session's nutrition preferences.
type NutritionOptions struct {
	WeightGrams float64
	UsePortion  bool
}

// Responder answers questions and appends computed nutrition values when
// numeric data exists for the dish.
type Responder struct {
	table *nutrition.Table
}

// New creates a Responder. table may be nil.
func New(table *nutrition.Table) *Responder {
	return &Responder{table: table}
}

// Respond answers question like the package-level Respond, adding the
// nutrition calculation for nutrition questions.
func (r *Responder) Respond(dish, question string, rec knowledge.DishRecord, opts NutritionOptions) string {
	return respond(dish, question, rec, func(part string) string {
		nrec, ok := r.table.Lookup(dish)
		if !ok {
			return part
		}
		res := nutrition.Calculate(nrec, question, opts.WeightGrams, opts.UsePortion)
		calc := fmt.Sprintf("Estimated nutrition for *%s*:\n%s", dish, res.Format())
		if part == "" {
			return calc
		}
		return part + "\n" + calc
	})
}

func respond(dish, question string, rec knowledge.DishRecord, withNutrition func(string) string) string {
	intents := intent.Detect(question)

	if len(intents) == 0 {
		if whatIsPattern.MatchString(intent.Normalize(question)) {
			return fmt.Sprintf("This is *%s*: %s", dish, rec.GetOr(knowledge.FieldOneLiner, Describe(rec)))
		}
		return fmt.Sprintf("Here's more about *%s*: %s", dish, Describe(rec))
	}

	var parts []string
	for _, in := range intents {
		part := Lookup(in, rec)
		if in == intent.Nutrition && withNutrition != nil {
			if rec.Get(knowledge.FieldNutrition) == "" {
				part = ""
			}
			part = withNutrition(part)
			if part == "" {
				part = Lookup(in, rec)
			}
		}
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, "\n\n")
}
