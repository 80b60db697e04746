package nutrition

import (
	"errors"

	"github.com/fdg312/nutrition-hub/internal/storage"
)

var (
	ErrNegativeWeight  = errors.New("weight_grams must not be negative")
	ErrInvalidMealType = errors.New("meal_type must be one of breakfast, lunch, dinner, snack, other")
)

const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
	MealSnack     = "snack"
	MealOther     = "other"
)

// MealTypes lists every accepted meal type in display order.
var MealTypes = []string{MealBreakfast, MealLunch, MealDinner, MealSnack, MealOther}

func ValidMealType(mealType string) bool {
	for _, m := range MealTypes {
		if m == mealType {
			return true
		}
	}
	return false
}

// IsMeal reports whether the meal type counts as a main meal in daily summaries.
func IsMeal(mealType string) bool {
	return mealType == MealBreakfast || mealType == MealLunch || mealType == MealDinner
}

// NutrientsDTO is the JSON shape of the seven tracked nutrients.
type NutrientsDTO struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
	FiberG   float64 `json:"fiber_g"`
	SugarG   float64 `json:"sugar_g"`
	SodiumMg float64 `json:"sodium_mg"`
}

func ToDTO(n storage.Nutrients) NutrientsDTO {
	return NutrientsDTO{
		Calories: n.Calories,
		ProteinG: n.ProteinG,
		CarbsG:   n.CarbsG,
		FatG:     n.FatG,
		FiberG:   n.FiberG,
		SugarG:   n.SugarG,
		SodiumMg: n.SodiumMg,
	}
}
