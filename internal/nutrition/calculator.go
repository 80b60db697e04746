package nutrition

import (
	"math"

	"github.com/fdg312/nutrition-hub/internal/storage"
)

// Compute scales per-100g catalog values to the consumed weight.
// Missing nutrients count as zero.
func Compute(food *storage.Food, weightGrams float64) (storage.Nutrients, error) {
	if weightGrams < 0 {
		return storage.Nutrients{}, ErrNegativeWeight
	}
	if food == nil {
		return storage.Nutrients{}, nil
	}

	factor := weightGrams / 100
	return storage.Nutrients{
		Calories: deref(food.Calories) * factor,
		ProteinG: deref(food.ProteinG) * factor,
		CarbsG:   deref(food.CarbsG) * factor,
		FatG:     deref(food.FatG) * factor,
		FiberG:   deref(food.FiberG) * factor,
		SugarG:   deref(food.SugarG) * factor,
		SodiumMg: deref(food.SodiumMg) * factor,
	}, nil
}

// Add returns the element-wise sum.
func Add(a, b storage.Nutrients) storage.Nutrients {
	return storage.Nutrients{
		Calories: a.Calories + b.Calories,
		ProteinG: a.ProteinG + b.ProteinG,
		CarbsG:   a.CarbsG + b.CarbsG,
		FatG:     a.FatG + b.FatG,
		FiberG:   a.FiberG + b.FiberG,
		SugarG:   a.SugarG + b.SugarG,
		SodiumMg: a.SodiumMg + b.SodiumMg,
	}
}

// Progress returns min(100, consumed/goal*100), or nil when no positive goal is set.
func Progress(consumed float64, goal *float64) *float64 {
	if goal == nil || *goal <= 0 {
		return nil
	}
	g := *goal
	p := math.Min(consumed*100/g, 100)
	return &p
}

// Round1 rounds to one decimal place for presentation.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
