package ai

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/fdg312/nutrition-hub/internal/nutrition"
)

const basicConfidence = 0.5

var tokenRe = regexp.MustCompile(`\d+(?:\.\d+)?|[a-z]+`)

var numberWords = map[string]float64{
	"a":       1,
	"an":      1,
	"one":     1,
	"two":     2,
	"three":   3,
	"four":    4,
	"five":    5,
	"half":    0.5,
	"quarter": 0.25,
}

var stopWords = map[string]bool{
	"and": true, "with": true, "of": true, "the": true, "some": true, "i": true, "had": true,
	"ate": true, "have": true, "drank": true, "for": true, "in": true, "at": true, "my": true,
	"plus": true, "then": true, "also": true, "cooked": true, "fresh": true,
}

// food synonyms grouped under a canonical name
var foodSynonyms = map[string][]string{
	"roti":   {"roti", "chapati", "phulka", "tortilla"},
	"dal":    {"dal", "lentils", "pulses", "daal"},
	"rice":   {"rice", "chawal", "bhaat"},
	"curry":  {"curry", "sabzi", "vegetables"},
	"bread":  {"bread", "naan", "paratha", "puri"},
	"yogurt": {"yogurt", "curd", "dahi"},
	"milk":   {"milk", "doodh"},
	"tea":    {"tea", "chai"},
	"coffee": {"coffee", "kaffee"},
}

var defaultUnits = map[string]string{
	"roti":   nutrition.UnitPiece,
	"bread":  nutrition.UnitPiece,
	"dal":    nutrition.UnitBowl,
	"curry":  nutrition.UnitBowl,
	"rice":   nutrition.UnitBowl,
	"yogurt": nutrition.UnitBowl,
	"milk":   nutrition.UnitGlass,
	"tea":    nutrition.UnitGlass,
	"coffee": nutrition.UnitGlass,
	"water":  nutrition.UnitGlass,
	"juice":  nutrition.UnitGlass,
	"apple":  nutrition.UnitPiece,
	"banana": nutrition.UnitPiece,
	"orange": nutrition.UnitPiece,
	"egg":    nutrition.UnitPiece,
}

var synonymIndex = func() map[string]string {
	idx := make(map[string]string)
	for canonical, variants := range foodSynonyms {
		for _, v := range variants {
			idx[v] = canonical
		}
	}
	return idx
}()

// BasicParser is a dependency-free tokenizer: "<qty> [unit] [of] <food>".
type BasicParser struct{}

func NewBasicParser() *BasicParser {
	return &BasicParser{}
}

func (p *BasicParser) Parse(ctx context.Context, text string, mealTypeHint string) (ParsedEntry, error) {
	tokens := tokenRe.FindAllString(strings.ToLower(text), -1)

	entry := ParsedEntry{
		Foods:      []FoodItem{},
		MealType:   mealTypeHint,
		Confidence: basicConfidence,
	}

	var (
		quantity *float64
		unit     string
		seen     = make(map[string]bool)
	)

	for _, tok := range tokens {
		if nutrition.ValidMealType(tok) && tok != nutrition.MealOther {
			if entry.MealType == "" {
				entry.MealType = tok
			}
			continue
		}
		if v, err := strconv.ParseFloat(tok, 64); err == nil {
			quantity = &v
			continue
		}
		if v, ok := numberWords[tok]; ok {
			if quantity != nil && (tok == "a" || tok == "an") {
				continue
			}
			if quantity != nil && tok == "half" {
				// "one and a half"
				q := *quantity + v
				quantity = &q
			} else {
				quantity = &v
			}
			continue
		}
		if nutrition.IsKnownUnit(tok) && tok != nutrition.UnitServing {
			unit = nutrition.NormalizeUnit(tok)
			continue
		}
		if stopWords[tok] || len(tok) < 2 {
			continue
		}

		item := canonicalFood(tok)
		if seen[item] {
			quantity, unit = nil, ""
			continue
		}
		seen[item] = true

		q := 1.0
		if quantity != nil && *quantity > 0 {
			q = *quantity
		}
		u := unit
		if u == "" {
			u = InferUnit(item)
		}
		entry.Foods = append(entry.Foods, FoodItem{Item: item, Quantity: q, Unit: u})
		quantity, unit = nil, ""
	}

	return entry, nil
}

// InferUnit guesses the natural serving unit for a food name.
func InferUnit(item string) string {
	if u, ok := defaultUnits[canonicalFood(item)]; ok {
		return u
	}
	return nutrition.UnitServing
}

func canonicalFood(word string) string {
	if c, ok := synonymIndex[word]; ok {
		return c
	}
	// plural forms: rotis, eggs, tomatoes
	for _, suffix := range []string{"es", "s"} {
		if stem, ok := strings.CutSuffix(word, suffix); ok && len(stem) > 1 {
			if c, ok := synonymIndex[stem]; ok {
				return c
			}
			if _, ok := defaultUnits[stem]; ok {
				return stem
			}
		}
	}
	return word
}
