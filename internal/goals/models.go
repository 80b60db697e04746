package goals

import (
	"errors"
	"time"

	"github.com/fdg312/nutrition-hub/internal/storage"
	"github.com/google/uuid"
)

var (
	ErrGoalNotFound = errors.New("goal not found")
	ErrNoActiveGoal = errors.New("no active goal")
	ErrInvalidGoal  = errors.New("invalid goal")
)

const (
	GoalTypeWeightLoss  = "weight_loss"
	GoalTypeWeightGain  = "weight_gain"
	GoalTypeMaintenance = "maintenance"
	GoalTypeMuscleGain  = "muscle_gain"
)

// GoalInput - полный набор перезаписываемых полей цели.
// Поля, которых здесь нет (id, user_id, is_active, start_date), клиент изменить не может.
type GoalInput struct {
	DailyCalories        int      `json:"daily_calories"`
	DailyProteinG        float64  `json:"daily_protein_g"`
	DailyCarbsG          float64  `json:"daily_carbs_g"`
	DailyFatG            float64  `json:"daily_fat_g"`
	DailyFiberG          *float64 `json:"daily_fiber_g,omitempty"`
	DailySugarG          *float64 `json:"daily_sugar_g,omitempty"`
	DailySodiumMg        *float64 `json:"daily_sodium_mg,omitempty"`
	TargetWeightKg       *float64 `json:"target_weight_kg,omitempty"`
	WeeklyWeightChangeKg *float64 `json:"weekly_weight_change_kg,omitempty"`
	DailyWaterMl         *int     `json:"daily_water_ml,omitempty"`
	DailySteps           *int     `json:"daily_steps,omitempty"`
	Description          *string  `json:"description,omitempty"`
	GoalType             string   `json:"goal_type,omitempty"`
	EndDate              *string  `json:"end_date,omitempty"`
}

// GoalDTO - цель в ответе API
type GoalDTO struct {
	ID                   uuid.UUID `json:"id"`
	StartDate            string    `json:"start_date"`
	EndDate              *string   `json:"end_date,omitempty"`
	IsActive             bool      `json:"is_active"`
	DailyCalories        int       `json:"daily_calories"`
	DailyProteinG        float64   `json:"daily_protein_g"`
	DailyCarbsG          float64   `json:"daily_carbs_g"`
	DailyFatG            float64   `json:"daily_fat_g"`
	DailyFiberG          *float64  `json:"daily_fiber_g,omitempty"`
	DailySugarG          *float64  `json:"daily_sugar_g,omitempty"`
	DailySodiumMg        *float64  `json:"daily_sodium_mg,omitempty"`
	TargetWeightKg       *float64  `json:"target_weight_kg,omitempty"`
	WeeklyWeightChangeKg *float64  `json:"weekly_weight_change_kg,omitempty"`
	DailyWaterMl         *int      `json:"daily_water_ml,omitempty"`
	DailySteps           *int      `json:"daily_steps,omitempty"`
	Description          *string   `json:"description,omitempty"`
	GoalType             string    `json:"goal_type,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

type GoalsResponse struct {
	Goals []GoalDTO `json:"goals"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (in GoalInput) targets() storage.GoalTargets {
	return storage.GoalTargets{
		DailyCalories:        in.DailyCalories,
		DailyProteinG:        in.DailyProteinG,
		DailyCarbsG:          in.DailyCarbsG,
		DailyFatG:            in.DailyFatG,
		DailyFiberG:          in.DailyFiberG,
		DailySugarG:          in.DailySugarG,
		DailySodiumMg:        in.DailySodiumMg,
		TargetWeightKg:       in.TargetWeightKg,
		WeeklyWeightChangeKg: in.WeeklyWeightChangeKg,
		DailyWaterMl:         in.DailyWaterMl,
		DailySteps:           in.DailySteps,
		Description:          in.Description,
		GoalType:             in.GoalType,
		EndDate:              in.EndDate,
	}
}

func ToDTO(g *storage.Goal) GoalDTO {
	return GoalDTO{
		ID:                   g.ID,
		StartDate:            g.StartDate,
		EndDate:              g.EndDate,
		IsActive:             g.IsActive,
		DailyCalories:        g.DailyCalories,
		DailyProteinG:        g.DailyProteinG,
		DailyCarbsG:          g.DailyCarbsG,
		DailyFatG:            g.DailyFatG,
		DailyFiberG:          g.DailyFiberG,
		DailySugarG:          g.DailySugarG,
		DailySodiumMg:        g.DailySodiumMg,
		TargetWeightKg:       g.TargetWeightKg,
		WeeklyWeightChangeKg: g.WeeklyWeightChangeKg,
		DailyWaterMl:         g.DailyWaterMl,
		DailySteps:           g.DailySteps,
		Description:          g.Description,
		GoalType:             g.GoalType,
		CreatedAt:            g.CreatedAt,
		UpdatedAt:            g.UpdatedAt,
	}
}
