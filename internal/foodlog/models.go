package foodlog

import (
	"errors"
	"time"

	"github.com/fdg312/nutrition-hub/internal/ai"
	"github.com/fdg312/nutrition-hub/internal/nutrition"
	"github.com/fdg312/nutrition-hub/internal/storage"
	"github.com/google/uuid"
)

var (
	ErrFoodLogNotFound = errors.New("food log not found")
	ErrInvalidInput    = errors.New("invalid food log input")
	ErrNothingParsed   = errors.New("no foods recognised in text")
)

// LogFoodInput - структурированная запись приёма пищи
type LogFoodInput struct {
	FoodID      uuid.UUID  `json:"food_id"`
	Quantity    *float64   `json:"quantity,omitempty"`
	Unit        string     `json:"unit,omitempty"`
	WeightGrams *float64   `json:"weight_grams,omitempty"`
	MealType    string     `json:"meal_type,omitempty"`
	MealTime    *time.Time `json:"meal_time,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
}

// NaturalInput - запись в свободной форме ("2 rotis and dal for lunch")
type NaturalInput struct {
	Text     string     `json:"text"`
	MealType string     `json:"meal_type,omitempty"`
	MealTime *time.Time `json:"meal_time,omitempty"`
}

// FoodLogPatch - явный список редактируемых полей записи
type FoodLogPatch struct {
	Quantity    *float64   `json:"quantity,omitempty"`
	Unit        *string    `json:"unit,omitempty"`
	WeightGrams *float64   `json:"weight_grams,omitempty"`
	MealType    *string    `json:"meal_type,omitempty"`
	MealTime    *time.Time `json:"meal_time,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
}

// ListFilter - фильтр списка записей; Date в формате YYYY-MM-DD
type ListFilter struct {
	Date     string
	MealType string
}

// FailedItem - позиция из текста, которую не удалось записать
type FailedItem struct {
	Item  string `json:"item"`
	Error string `json:"error"`
}

// NaturalResult - итог записи из свободного текста
type NaturalResult struct {
	Entries []storage.FoodLog
	Parsed  ai.ParsedEntry
	Failed  []FailedItem
}

// FoodLogDTO - запись журнала в ответе API
type FoodLogDTO struct {
	ID          uuid.UUID              `json:"id"`
	FoodID      uuid.UUID              `json:"food_id"`
	Quantity    float64                `json:"quantity"`
	Unit        string                 `json:"unit"`
	WeightGrams float64                `json:"weight_grams"`
	MealType    string                 `json:"meal_type"`
	MealTime    time.Time              `json:"meal_time"`
	Notes       *string                `json:"notes,omitempty"`
	Nutrients   nutrition.NutrientsDTO `json:"nutrients"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

type FoodLogsResponse struct {
	Logs  []FoodLogDTO `json:"logs"`
	Total int          `json:"total"`
}

type NaturalResponse struct {
	Logs       []FoodLogDTO  `json:"logs"`
	Parsed     []ai.FoodItem `json:"parsed_foods"`
	Failed     []FailedItem  `json:"failed,omitempty"`
	MealType   string        `json:"meal_type"`
	Confidence float64       `json:"confidence"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func ToDTO(l *storage.FoodLog) FoodLogDTO {
	return FoodLogDTO{
		ID:          l.ID,
		FoodID:      l.FoodID,
		Quantity:    l.Quantity,
		Unit:        l.Unit,
		WeightGrams: l.WeightGrams,
		MealType:    l.MealType,
		MealTime:    l.MealTime,
		Notes:       l.Notes,
		Nutrients:   nutrition.ToDTO(l.Nutrients),
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func toDTOs(logs []storage.FoodLog) []FoodLogDTO {
	dtos := make([]FoodLogDTO, len(logs))
	for i := range logs {
		dtos[i] = ToDTO(&logs[i])
	}
	return dtos
}
