package intent

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Intent is a category of user question inferred from keyword presence.
type Intent string

const (
	Comparison   Intent = "comparison"
	StreetVsHome Intent = "street_vs_home"
	Price        Intent = "price"
	Culture      Intent = "culture"
	Spice        Intent = "spice"
	Halal        Intent = "halal"
	Meat         Intent = "meat"
	Nutrition    Intent = "nutrition"
	Variants     Intent = "variants"
	Gluten       Intent = "gluten"
	MealType     Intent = "meal_type"
	Ordering     Intent = "ordering"
	Safety       Intent = "safety"
	MealTime     Intent = "meal_time"
	Where        Intent = "where"
)

type rule struct {
	intent   Intent
	triggers []string
}

// rules lists the trigger substrings of each intent in English and
// Indonesian. Vocabulary may overlap; every matching intent fires.
var rules = []rule{
	{Comparison, []string{"compare", "comparison", "western", "similar to", "equivalent", "mirip", "bandingkan", "dibanding", "makanan barat"}},
	{StreetVsHome, []string{"street", "homemade", "home-made", "home made", "at home", "kaki lima", "pinggir jalan", "rumahan", "di rumah", "masak sendiri"}},
	{Price, []string{"price", "cost", "how much is", "how much does", "expensive", "cheap", "budget", "harga", "mahal", "murah", "rupiah", "jakarta"}},
	{Culture, []string{"culture", "cultural", "tradition", "festival", "ceremony", "event", "celebrat", "wedding", "history", "how to eat", "how do i eat", "how do you eat", "lebaran", "idul fitri", "budaya", "tradisi", "upacara", "perayaan", "acara", "sejarah", "cara makan"}},
	{Spice, []string{"spicy", "spice", "chili", "chilli", "how hot", "pedas", "pedes", "sambal", "cabai", "cabe"}},
	{Halal, []string{"halal", "haram", "muslim"}},
	{Meat, []string{"meat", "beef", "chicken", "pork", "lamb", "goat", "mutton", "ingredient", "made of", "made with", "daging", "ayam", "sapi", "kambing", "babi", "bahan"}},
	{Nutrition, []string{"calorie", "kalori", "kcal", "nutrition", "nutrisi", "gizi", "protein", "fat", "lemak", "carb", "karbo", "healthy", "sehat", "gram", "porsi"}},
	{Variants, []string{"vegetarian", "vegan", "variant", "variation", "version", "diet", "without meat", "varian", "jenis", "tanpa daging"}},
	{Gluten, []string{"gluten", "wheat", "celiac", "coeliac", "gandum", "terigu"}},
	{MealType, []string{"snack", "main course", "main dish", "side dish", "dessert", "appetizer", "type of dish", "kind of dish", "camilan", "cemilan", "jajanan", "lauk", "hidangan", "makanan utama", "pembuka", "penutup"}},
	{Ordering, []string{"order", "how to ask", "what to say", "phrase", "in indonesian", "pesan", "bilang", "bahasa"}},
	{Safety, []string{"safe", "hygien", "clean", "sick", "stomach", "poisoning", "diarrh", "aman", "bersih", "higienis", "sakit perut"}},
	{MealTime, []string{"when", "what time", "best time", "breakfast", "lunch", "dinner", "morning", "night", "kapan", "jam berapa", "sarapan", "pagi", "siang", "malam"}},
	{Where, []string{"where", "di mana", "dimana", "recommend", "restaurant", "restoran", "warung", "tempat", "find", "cari"}},
}

// Normalize lowercases text and strips diacritics, so accented input matches
// the ASCII trigger lists.
func Normalize(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, text)
	if err != nil {
		out = text
	}
	return strings.ToLower(out)
}

// Detect returns the intents whose triggers occur in text, ordered by the
// position of their earliest match. No scoring and no negation handling.
func Detect(text string) []Intent {
	normalized := Normalize(text)

	type hit struct {
		intent Intent
		pos    int
	}
	var hits []hit
	for _, r := range rules {
		first := -1
		for _, trigger := range r.triggers {
			if i := strings.Index(normalized, trigger); i >= 0 && (first < 0 || i < first) {
				first = i
			}
		}
		if first >= 0 {
			hits = append(hits, hit{intent: r.intent, pos: first})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].pos < hits[j].pos
	})

	intents := make([]Intent, 0, len(hits))
	for _, h := range hits {
		intents = append(intents, h.intent)
	}
	return intents
}

// All returns every intent in table order.
func All() []Intent {
	all := make([]Intent, 0, len(rules))
	for _, r := range rules {
		all = append(all, r.intent)
	}
	return all
}
