// Package imagery picks a stable stock photo for a meal without calling any
// AI service.
package imagery

import (
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/pageza/macrosync/backend/internal/model"
)

const (
	// Endpoint is the stock-photo search service.
	Endpoint = "https://loremflickr.com/400/400"

	maxSubjectTokens = 4
	minTokenLength   = 3
)

// StyleTokens are appended to every query.
var StyleTokens = []string{"dark-background", "minimalist", "food-photography", "topview"}

// fallbackTokens query a generic picture when the meal's own image fails to load.
var fallbackTokens = []string{"healthy", "food", "dark", "minimalist"}

// stopWords are filler, adjective and dish-form words that make poor photo
// search terms on their own.
var stopWords = map[string]struct{}{
	"and": {}, "the": {}, "with": {}, "for": {}, "from": {}, "over": {}, "into": {},
	"style": {}, "fresh": {}, "healthy": {}, "classic": {}, "homemade": {}, "light": {},
	"mixed": {}, "premium": {}, "power": {}, "super": {}, "simple": {}, "quick": {},
	"easy": {}, "lean": {}, "savory": {}, "sweet": {}, "spicy": {}, "zesty": {},
	"mediterranean": {}, "asian": {}, "mexican": {}, "italian": {}, "greek": {},
	"bowl": {}, "plate": {}, "salad": {}, "side": {}, "delight": {}, "special": {},
}

type synonymEntry struct {
	keyword  string
	synonyms []string
}

// synonymTable is consulted in order; order decides which synonyms survive the
// subject-token cap.
var synonymTable = []synonymEntry{
	{"chicken", []string{"grilled-chicken", "poultry", "chicken-breast"}},
	{"salmon", []string{"grilled-salmon", "salmon-fillet", "seafood"}},
	{"steak", []string{"grilled-steak", "beef-fillet"}},
	{"tofu", []string{"grilled-tofu", "tofu-bowl"}},
	{"eggs", []string{"scrambled-eggs", "poached-eggs", "breakfast-eggs"}},
	{"oatmeal", []string{"oatmeal-bowl", "porridge-berries"}},
	{"yogurt", []string{"yogurt-bowl", "berries-yogurt", "yogurt-walnuts"}},
	{"protein shake", []string{"protein-shake", "vanilla-smoothie", "shake-glass"}},
	{"smoothie", []string{"smoothie-glass", "fruit-smoothie"}},
	{"avocado", []string{"avocado-toast", "sliced-avocado"}},
	{"quinoa", []string{"quinoa-bowl", "grain-salad"}},
	{"kale", []string{"kale-salad", "leafy-greens"}},
	{"pasta", []string{"whole-wheat-pasta", "healthy-pasta"}},
	{"salad", []string{"fresh-salad", "garden-salad"}},
}

// Normalize lowercases name, strips punctuation and collapses whitespace.
func Normalize(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// subjectTokens returns the deduplicated, capped search subject for meal.
func subjectTokens(meal model.Meal) []string {
	normalized := Normalize(meal.Name)

	var tokens []string
	for _, tok := range strings.Fields(normalized) {
		if len([]rune(tok)) < minTokenLength {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}

	for _, entry := range synonymTable {
		if strings.Contains(normalized, entry.keyword) {
			tokens = append(tokens, entry.synonyms...)
		}
	}

	for _, kw := range strings.Split(meal.ImagePromptKeywords, ",") {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			tokens = append(tokens, kw)
		}
	}

	tokens = dedupe(tokens)
	if len(tokens) > maxSubjectTokens {
		tokens = tokens[:maxSubjectTokens]
	}
	return tokens
}

// Query builds the comma-separated search query for meal.
func Query(meal model.Meal) string {
	tokens := dedupe(append(subjectTokens(meal), StyleTokens...))
	return joinEscaped(tokens)
}

// Seed is the sum of the character codes of the normalized name followed by
// the context key.
func Seed(name, contextKey string) int {
	seed := 0
	for _, r := range Normalize(name) + contextKey {
		seed += int(r)
	}
	return seed
}

// Resolve returns the display image URL for meal. The same meal and context
// key always give the same URL.
func Resolve(meal model.Meal, contextKey string) string {
	return Endpoint + "/" + Query(meal) + "/all?lock=" + strconv.Itoa(Seed(meal.Name, contextKey))
}

// ResolvePlan resolves every slot of plan.
func ResolvePlan(plan model.MealPlan, contextKey string) map[model.Slot]string {
	urls := make(map[model.Slot]string, len(model.Slots))
	plan.Each(func(slot model.Slot, meal model.Meal) {
		urls[slot] = Resolve(meal, contextKey)
	})
	return urls
}

// FallbackURL is shown when the resolved image cannot be loaded.
func FallbackURL(meal model.Meal) string {
	return Endpoint + "/" + joinEscaped(fallbackTokens) + "?lock=" + strconv.Itoa(len(meal.Name))
}

func dedupe(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0:0]
	for _, tok := range tokens {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

func joinEscaped(tokens []string) string {
	escaped := make([]string, len(tokens))
	for i, tok := range tokens {
		escaped[i] = url.PathEscape(tok)
	}
	return strings.Join(escaped, ",")
}
