package summary

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/fdg312/nutrition-hub/internal/nutrition"
	"github.com/fdg312/nutrition-hub/internal/storage"
)

// LogReader is the slice of the food log store the engine reads.
type LogReader interface {
	ListFoodLogs(ctx context.Context, userID string, filter storage.FoodLogFilter) ([]storage.FoodLog, error)
}

// GoalReader supplies the active goal snapshotted into new summaries.
type GoalReader interface {
	GetActiveGoal(ctx context.Context, userID string) (*storage.Goal, error)
}

// Engine materializes one summary row per (user, date) on first request.
// Rows are removed by the food log service when the day's logs change; the
// engine re-reads the day after inserting so a write racing the insert
// cannot leave a stale row behind.
type Engine struct {
	summaries storage.SummariesStorage
	logs      LogReader
	goals     GoalReader
}

func NewEngine(summaries storage.SummariesStorage, logs LogReader, goals GoalReader) *Engine {
	return &Engine{
		summaries: summaries,
		logs:      logs,
		goals:     goals,
	}
}

// GetOrCompute returns the stored summary for date or computes and stores it.
func (e *Engine) GetOrCompute(ctx context.Context, userID, date string) (*storage.DailySummary, error) {
	day, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	date = day.Format(DateLayout)

	existing, err := e.summaries.GetSummary(ctx, userID, date)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("get summary %s: %w", date, err)
	}

	for attempt := 1; ; attempt++ {
		computed, err := e.compute(ctx, userID, date)
		if err != nil {
			return nil, err
		}

		if err := e.summaries.InsertSummary(ctx, computed); err != nil {
			if !errors.Is(err, storage.ErrDuplicate) {
				return nil, fmt.Errorf("insert summary %s: %w", date, err)
			}
			// A concurrent request stored the row first; return theirs.
			winner, err := e.summaries.GetSummary(ctx, userID, date)
			if err != nil {
				return nil, fmt.Errorf("reread summary %s: %w", date, err)
			}
			return winner, nil
		}

		// A log write that commits between our read and the insert finds no
		// row to delete, so the day is read again once the row exists.
		logs, err := e.dayLogs(ctx, userID, date)
		if err != nil {
			return nil, err
		}
		current := tally(logs)
		if current.matches(computed) {
			return computed, nil
		}

		if err := e.summaries.DeleteSummary(ctx, userID, date); err != nil {
			return nil, fmt.Errorf("drop stale summary %s: %w", date, err)
		}
		if attempt == maxComputeAttempts {
			// Logs keep moving; answer from the latest read without storing it.
			current.apply(computed)
			return computed, nil
		}
	}
}

// maxComputeAttempts bounds recomputation while the day's logs keep changing.
const maxComputeAttempts = 3

// dayTally is the part of a summary derived from the day's logs.
type dayTally struct {
	totals storage.Nutrients
	meals  int
	snacks int
}

func tally(logs []storage.FoodLog) dayTally {
	var t dayTally
	for _, l := range logs {
		t.totals = nutrition.Add(t.totals, l.Nutrients)
		switch {
		case nutrition.IsMeal(l.MealType):
			t.meals++
		case l.MealType == nutrition.MealSnack:
			t.snacks++
		}
	}
	return t
}

func (t dayTally) matches(s *storage.DailySummary) bool {
	if t.meals != s.TotalMeals || t.snacks != s.TotalSnacks {
		return false
	}
	a, b := t.totals, s.Totals
	pairs := [][2]float64{
		{a.Calories, b.Calories},
		{a.ProteinG, b.ProteinG},
		{a.CarbsG, b.CarbsG},
		{a.FatG, b.FatG},
		{a.FiberG, b.FiberG},
		{a.SugarG, b.SugarG},
		{a.SodiumMg, b.SodiumMg},
	}
	for _, p := range pairs {
		// summation order of equal meal times is not stable
		if math.Abs(p[0]-p[1]) > 1e-6 {
			return false
		}
	}
	return true
}

// apply copies the tally into s and refreshes progress against s's goals.
func (t dayTally) apply(s *storage.DailySummary) {
	s.Totals = t.totals
	s.TotalMeals = t.meals
	s.TotalSnacks = t.snacks
	s.CaloriesProgress = nutrition.Progress(s.Totals.Calories, s.CaloriesGoal)
	s.ProteinProgress = nutrition.Progress(s.Totals.ProteinG, s.ProteinGoal)
	s.CarbsProgress = nutrition.Progress(s.Totals.CarbsG, s.CarbsGoal)
	s.FatProgress = nutrition.Progress(s.Totals.FatG, s.FatGoal)
}

func (e *Engine) dayLogs(ctx context.Context, userID, date string) ([]storage.FoodLog, error) {
	day, _ := ParseDate(date)
	from, to := DayBounds(day)

	logs, err := e.logs.ListFoodLogs(ctx, userID, storage.FoodLogFilter{From: &from, To: &to})
	if err != nil {
		return nil, fmt.Errorf("list food logs for %s: %w", date, err)
	}
	return logs, nil
}

func (e *Engine) compute(ctx context.Context, userID, date string) (*storage.DailySummary, error) {
	logs, err := e.dayLogs(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	s := &storage.DailySummary{
		UserID: userID,
		Date:   date,
	}

	goal, err := e.goals.GetActiveGoal(ctx, userID)
	switch {
	case err == nil:
		calories := float64(goal.DailyCalories)
		protein, carbs, fat := goal.DailyProteinG, goal.DailyCarbsG, goal.DailyFatG
		s.CaloriesGoal = &calories
		s.ProteinGoal = &protein
		s.CarbsGoal = &carbs
		s.FatGoal = &fat
	case errors.Is(err, storage.ErrNotFound):
	default:
		return nil, fmt.Errorf("get active goal: %w", err)
	}

	tally(logs).apply(s)
	return s, nil
}
