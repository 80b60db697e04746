package nutrition

import "strings"

// Canonical units.
const (
	UnitPiece      = "piece"
	UnitBowl       = "bowl"
	UnitGlass      = "glass"
	UnitCup        = "cup"
	UnitSpoon      = "spoon"
	UnitGram       = "gram"
	UnitKilogram   = "kilogram"
	UnitMilliliter = "milliliter"
	UnitLiter      = "liter"
	UnitServing    = "serving"
)

// DefaultGrams is used when the unit has no known weight.
const DefaultGrams = 100.0

var unitAliases = map[string]string{
	"piece": UnitPiece, "pieces": UnitPiece, "pc": UnitPiece, "pcs": UnitPiece, "slice": UnitPiece, "slices": UnitPiece,
	"bowl": UnitBowl, "bowls": UnitBowl, "katori": UnitBowl,
	"glass": UnitGlass, "glasses": UnitGlass,
	"cup": UnitCup, "cups": UnitCup,
	"spoon": UnitSpoon, "spoons": UnitSpoon, "tbsp": UnitSpoon, "tsp": UnitSpoon,
	"gram": UnitGram, "grams": UnitGram, "g": UnitGram, "gm": UnitGram,
	"kilogram": UnitKilogram, "kilograms": UnitKilogram, "kg": UnitKilogram,
	"milliliter": UnitMilliliter, "milliliters": UnitMilliliter, "ml": UnitMilliliter,
	"liter": UnitLiter, "liters": UnitLiter, "l": UnitLiter,
	"serving": UnitServing, "servings": UnitServing,
}

var gramsPerUnit = map[string]float64{
	UnitPiece:      50,
	UnitBowl:       150,
	UnitGlass:      200,
	UnitCup:        240,
	UnitSpoon:      15,
	UnitGram:       1,
	UnitKilogram:   1000,
	UnitMilliliter: 1,
	UnitLiter:      1000,
}

// NormalizeUnit maps free-form unit text to a canonical unit.
// Unknown units are returned lower-cased and trimmed.
func NormalizeUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	if canonical, ok := unitAliases[u]; ok {
		return canonical
	}
	return u
}

// IsKnownUnit reports whether the text is a recognised unit or alias.
func IsKnownUnit(unit string) bool {
	_, ok := unitAliases[strings.ToLower(strings.TrimSpace(unit))]
	return ok
}

// GramsPerUnit returns the approximate weight of one unit.
func GramsPerUnit(unit string) float64 {
	if g, ok := gramsPerUnit[NormalizeUnit(unit)]; ok {
		return g
	}
	return DefaultGrams
}

// ResolveWeight prefers an explicit weight, otherwise quantity times the unit weight.
func ResolveWeight(quantity float64, unit string, explicit *float64) float64 {
	if explicit != nil {
		return *explicit
	}
	return quantity * GramsPerUnit(unit)
}
