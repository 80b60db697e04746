package summary

import (
	"errors"
	"time"

	"github.com/fdg312/nutrition-hub/internal/nutrition"
	"github.com/fdg312/nutrition-hub/internal/storage"
	"github.com/google/uuid"
)

var ErrInvalidDate = errors.New("invalid date, use YYYY-MM-DD")

// TargetsDTO - снимок четырёх основных целей на момент расчёта сводки
type TargetsDTO struct {
	Calories *float64 `json:"calories"`
	ProteinG *float64 `json:"protein_g"`
	CarbsG   *float64 `json:"carbs_g"`
	FatG     *float64 `json:"fat_g"`
}

// SummaryDTO - дневная сводка в ответе API
type SummaryDTO struct {
	ID          uuid.UUID              `json:"id"`
	Date        string                 `json:"date"`
	Totals      nutrition.NutrientsDTO `json:"totals"`
	Goals       TargetsDTO             `json:"goals"`
	Progress    TargetsDTO             `json:"progress"`
	TotalMeals  int                    `json:"total_meals"`
	TotalSnacks int                    `json:"total_snacks"`
	CreatedAt   time.Time              `json:"created_at"`
}

func ToDTO(s *storage.DailySummary) SummaryDTO {
	return SummaryDTO{
		ID:     s.ID,
		Date:   s.Date,
		Totals: nutrition.ToDTO(s.Totals),
		Goals: TargetsDTO{
			Calories: s.CaloriesGoal,
			ProteinG: s.ProteinGoal,
			CarbsG:   s.CarbsGoal,
			FatG:     s.FatGoal,
		},
		Progress: TargetsDTO{
			Calories: s.CaloriesProgress,
			ProteinG: s.ProteinProgress,
			CarbsG:   s.CarbsProgress,
			FatG:     s.FatProgress,
		},
		TotalMeals:  s.TotalMeals,
		TotalSnacks: s.TotalSnacks,
		CreatedAt:   s.CreatedAt,
	}
}
