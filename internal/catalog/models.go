package catalog

import (
	"errors"
	"time"

	"github.com/fdg312/nutrition-hub/internal/storage"
	"github.com/google/uuid"
)

var (
	ErrFoodNotFound        = errors.New("food not found")
	ErrInvalidInput        = errors.New("invalid food input")
	ErrUpstreamUnavailable = errors.New("food database unavailable")
)

// FoodInput - запрос на создание продукта пользователем (значения на 100 г)
type FoodInput struct {
	Name               string   `json:"name"`
	Brand              *string  `json:"brand,omitempty"`
	Calories           *float64 `json:"calories,omitempty"`
	ProteinG           *float64 `json:"protein_g,omitempty"`
	CarbsG             *float64 `json:"carbs_g,omitempty"`
	FatG               *float64 `json:"fat_g,omitempty"`
	FiberG             *float64 `json:"fiber_g,omitempty"`
	SugarG             *float64 `json:"sugar_g,omitempty"`
	SodiumMg           *float64 `json:"sodium_mg,omitempty"`
	ServingSize        *string  `json:"serving_size,omitempty"`
	ServingWeightGrams *float64 `json:"serving_weight_grams,omitempty"`
	Category           *string  `json:"category,omitempty"`
}

// FoodDTO - продукт каталога
type FoodDTO struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Brand              *string   `json:"brand,omitempty"`
	Calories           *float64  `json:"calories"`
	ProteinG           *float64  `json:"protein_g"`
	CarbsG             *float64  `json:"carbs_g"`
	FatG               *float64  `json:"fat_g"`
	FiberG             *float64  `json:"fiber_g"`
	SugarG             *float64  `json:"sugar_g"`
	SodiumMg           *float64  `json:"sodium_mg"`
	ServingSize        *string   `json:"serving_size,omitempty"`
	ServingWeightGrams *float64  `json:"serving_weight_grams,omitempty"`
	Category           *string   `json:"category,omitempty"`
	Source             string    `json:"source"`
	ExternalID         *string   `json:"external_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// FoodsResponse - результат поиска
type FoodsResponse struct {
	Foods []FoodDTO `json:"foods"`
	Total int       `json:"total"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func ToDTO(f *storage.Food) FoodDTO {
	return FoodDTO{
		ID:                 f.ID,
		Name:               f.Name,
		Brand:              f.Brand,
		Calories:           f.Calories,
		ProteinG:           f.ProteinG,
		CarbsG:             f.CarbsG,
		FatG:               f.FatG,
		FiberG:             f.FiberG,
		SugarG:             f.SugarG,
		SodiumMg:           f.SodiumMg,
		ServingSize:        f.ServingSize,
		ServingWeightGrams: f.ServingWeightGrams,
		Category:           f.Category,
		Source:             f.Source,
		ExternalID:         f.ExternalID,
		CreatedAt:          f.CreatedAt,
	}
}
