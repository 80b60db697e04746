package insights

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fdg312/nutrition-hub/internal/storage"
)

const (
	windowDays      = 7
	lowIntakeRatio  = 0.8
	maxEatingWindow = 16 * time.Hour
	periodLabel     = "7 days"
)

// LogReader is the slice of the food log store the engine reads.
type LogReader interface {
	ListFoodLogs(ctx context.Context, userID string, filter storage.FoodLogFilter) ([]storage.FoodLog, error)
}

// GoalReader returns storage.ErrNotFound when the user has no active goal.
type GoalReader interface {
	GetActiveGoal(ctx context.Context, userID string) (*storage.Goal, error)
}

var staticTips = []Insight{
	{
		Type:    KindTip,
		Title:   "Stay Hydrated",
		Message: "Remember to drink at least 8 glasses of water daily for optimal health.",
	},
	{
		Type:    KindTip,
		Title:   "Balanced Meals",
		Message: "Try to include protein, healthy fats, and complex carbohydrates in each meal.",
	},
}

// Engine derives warnings and tips from the trailing week of food logs.
type Engine struct {
	logs  LogReader
	goals GoalReader
	now   func() time.Time
}

func NewEngine(logs LogReader, goals GoalReader) *Engine {
	return &Engine{
		logs:  logs,
		goals: goals,
		now:   time.Now,
	}
}

// Derive returns insights in a fixed order: calorie warning, protein
// warning, eating window, then the static tips.
func (e *Engine) Derive(ctx context.Context, userID string) (*InsightsResponse, error) {
	now := e.now().UTC()
	from := now.AddDate(0, 0, -windowDays)
	// the store filter is half-open; include logs stamped exactly now
	to := now.Add(time.Microsecond)

	logs, err := e.logs.ListFoodLogs(ctx, userID, storage.FoodLogFilter{From: &from, To: &to})
	if err != nil {
		return nil, fmt.Errorf("list recent logs: %w", err)
	}

	goal, err := e.goals.GetActiveGoal(ctx, userID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("get active goal: %w", err)
		}
		goal = nil
	}

	insights := make([]Insight, 0, len(staticTips)+3)
	if len(logs) > 0 {
		if goal != nil {
			insights = append(insights, goalWarnings(logs, goal)...)
		}
		if w, ok := eatingWindow(logs); ok {
			insights = append(insights, w)
		}
	}
	insights = append(insights, staticTips...)

	return &InsightsResponse{
		Insights:     insights,
		Period:       periodLabel,
		TotalEntries: len(logs),
	}, nil
}

func goalWarnings(logs []storage.FoodLog, goal *storage.Goal) []Insight {
	var calories, protein float64
	for _, l := range logs {
		calories += l.Nutrients.Calories
		protein += l.Nutrients.ProteinG
	}
	// days without logs count as zero intake
	avgCalories := calories / windowDays
	avgProtein := protein / windowDays

	var out []Insight
	if avgCalories < float64(goal.DailyCalories)*lowIntakeRatio {
		out = append(out, Insight{
			Type:  KindWarning,
			Title: "Low Calorie Intake",
			Message: fmt.Sprintf("Your average daily calories (%.0f) are below your goal (%d). "+
				"Consider adding healthy snacks or increasing portion sizes.", avgCalories, goal.DailyCalories),
		})
	}
	if avgProtein < goal.DailyProteinG*lowIntakeRatio {
		out = append(out, Insight{
			Type:  KindWarning,
			Title: "Low Protein Intake",
			Message: fmt.Sprintf("Your average daily protein (%.1fg) is below your goal (%gg). "+
				"Consider adding more protein-rich foods like eggs, chicken, or legumes.", avgProtein, goal.DailyProteinG),
		})
	}
	return out
}

func eatingWindow(logs []storage.FoodLog) (Insight, bool) {
	earliest, latest := logs[0].MealTime, logs[0].MealTime
	for _, l := range logs[1:] {
		if l.MealTime.Before(earliest) {
			earliest = l.MealTime
		}
		if l.MealTime.After(latest) {
			latest = l.MealTime
		}
	}
	if latest.Sub(earliest) <= maxEatingWindow {
		return Insight{}, false
	}
	return Insight{
		Type:    KindInfo,
		Title:   "Extended Eating Window",
		Message: "Your eating window spans more than 16 hours. Consider reducing this to 12-14 hours for better metabolic health.",
	}, true
}
