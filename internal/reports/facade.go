package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/fdg312/nutrition-hub/internal/nutrition"
	"github.com/fdg312/nutrition-hub/internal/storage"
	"github.com/fdg312/nutrition-hub/internal/summary"
)

// SummaryProvider resolves one day's summary, computing it if needed.
type SummaryProvider interface {
	GetOrCompute(ctx context.Context, userID, date string) (*storage.DailySummary, error)
}

type LogReader interface {
	ListFoodLogs(ctx context.Context, userID string, filter storage.FoodLogFilter) ([]storage.FoodLog, error)
}

type SummaryLister interface {
	ListSummaries(ctx context.Context, userID string, from, to string) ([]storage.DailySummary, error)
}

// Facade builds multi-day views over daily summaries and raw logs.
type Facade struct {
	engine    SummaryProvider
	summaries SummaryLister
	logs      LogReader
	maxDays   int
	now       func() time.Time
}

func NewFacade(engine SummaryProvider, summaries SummaryLister, logs LogReader, maxProgressDays int) *Facade {
	if maxProgressDays <= 0 {
		maxProgressDays = 366
	}
	return &Facade{
		engine:    engine,
		summaries: summaries,
		logs:      logs,
		maxDays:   maxProgressDays,
		now:       time.Now,
	}
}

// Weekly returns seven summaries ending on endDate (today when empty), oldest first.
func (f *Facade) Weekly(ctx context.Context, userID, endDate string) (*WeeklySeries, error) {
	end := f.today()
	if endDate != "" {
		d, err := summary.ParseDate(endDate)
		if err != nil {
			return nil, err
		}
		end = d
	}
	start := end.AddDate(0, 0, -6)

	series := &WeeklySeries{
		WeekStart: start.Format(summary.DateLayout),
		WeekEnd:   end.Format(summary.DateLayout),
		Days:      make([]summary.SummaryDTO, 0, 7),
	}

	var totals storage.Nutrients
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		s, err := f.engine.GetOrCompute(ctx, userID, d.Format(summary.DateLayout))
		if err != nil {
			return nil, err
		}
		totals = nutrition.Add(totals, s.Totals)
		series.Days = append(series.Days, summary.ToDTO(s))
	}

	series.Totals = roundDTO(totals)
	series.Averages = roundDTO(scale(totals, 1.0/7))
	return series, nil
}

// Monthly aggregates raw logs of the calendar month; summaries are not used.
func (f *Facade) Monthly(ctx context.Context, userID string, year, month int) (*MonthlyAggregate, error) {
	if month < 1 || month > 12 || year < 1 || year > 9999 {
		return nil, ErrInvalidMonth
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	next := start.AddDate(0, 1, 0)
	last := next.AddDate(0, 0, -1)
	daysInMonth := last.Day()

	logs, err := f.logs.ListFoodLogs(ctx, userID, storage.FoodLogFilter{From: &start, To: &next})
	if err != nil {
		return nil, fmt.Errorf("list month logs: %w", err)
	}

	counts := make(map[string]int, len(nutrition.MealTypes))
	for _, m := range nutrition.MealTypes {
		counts[m] = 0
	}
	var totals storage.Nutrients
	for _, l := range logs {
		totals = nutrition.Add(totals, l.Nutrients)
		counts[l.MealType]++
	}

	return &MonthlyAggregate{
		Year:           year,
		Month:          month,
		StartDate:      start.Format(summary.DateLayout),
		EndDate:        last.Format(summary.DateLayout),
		DaysInMonth:    daysInMonth,
		Totals:         roundDTO(totals),
		DailyAverages:  roundDTO(scale(totals, 1/float64(daysInMonth))),
		MealTypeCounts: counts,
		TotalEntries:   len(logs),
	}, nil
}

// Progress returns exactly days points ending today. Days with neither a
// stored summary nor logs are zero-filled and nothing is persisted for them.
func (f *Facade) Progress(ctx context.Context, userID string, days int) (*ChartSeries, error) {
	if days < 1 || days > f.maxDays {
		return nil, ErrInvalidDays
	}

	end := f.today()
	start := end.AddDate(0, 0, -(days - 1))
	from := start.Format(summary.DateLayout)
	to := end.Format(summary.DateLayout)

	stored, err := f.summaries.ListSummaries(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	byDate := make(map[string]*storage.DailySummary, len(stored))
	for i := range stored {
		byDate[stored[i].Date] = &stored[i]
	}

	logsFrom, logsTo := start, end.AddDate(0, 0, 1)
	logs, err := f.logs.ListFoodLogs(ctx, userID, storage.FoodLogFilter{From: &logsFrom, To: &logsTo})
	if err != nil {
		return nil, fmt.Errorf("list progress logs: %w", err)
	}
	logged := make(map[string]bool)
	for _, l := range logs {
		logged[summary.DateOf(l.MealTime)] = true
	}

	series := &ChartSeries{
		Days:             days,
		Dates:            make([]string, 0, days),
		Labels:           make([]string, 0, days),
		CaloriesConsumed: make([]float64, 0, days),
		CaloriesGoal:     make([]float64, 0, days),
		ProteinConsumed:  make([]float64, 0, days),
		ProteinGoal:      make([]float64, 0, days),
		CarbsConsumed:    make([]float64, 0, days),
		CarbsGoal:        make([]float64, 0, days),
		FatConsumed:      make([]float64, 0, days),
		FatGoal:          make([]float64, 0, days),
	}

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		date := d.Format(summary.DateLayout)

		s := byDate[date]
		if s == nil && logged[date] {
			s, err = f.engine.GetOrCompute(ctx, userID, date)
			if err != nil {
				return nil, err
			}
		}
		if s == nil {
			s = &storage.DailySummary{Date: date}
		}

		series.Dates = append(series.Dates, date)
		series.Labels = append(series.Labels, d.Format("01/02"))
		series.CaloriesConsumed = append(series.CaloriesConsumed, nutrition.Round1(s.Totals.Calories))
		series.CaloriesGoal = append(series.CaloriesGoal, orZero(s.CaloriesGoal))
		series.ProteinConsumed = append(series.ProteinConsumed, nutrition.Round1(s.Totals.ProteinG))
		series.ProteinGoal = append(series.ProteinGoal, orZero(s.ProteinGoal))
		series.CarbsConsumed = append(series.CarbsConsumed, nutrition.Round1(s.Totals.CarbsG))
		series.CarbsGoal = append(series.CarbsGoal, orZero(s.CarbsGoal))
		series.FatConsumed = append(series.FatConsumed, nutrition.Round1(s.Totals.FatG))
		series.FatGoal = append(series.FatGoal, orZero(s.FatGoal))
	}

	return series, nil
}

func (f *Facade) today() time.Time {
	start, _ := summary.DayBounds(f.now())
	return start
}

func scale(n storage.Nutrients, k float64) storage.Nutrients {
	return storage.Nutrients{
		Calories: n.Calories * k,
		ProteinG: n.ProteinG * k,
		CarbsG:   n.CarbsG * k,
		FatG:     n.FatG * k,
		FiberG:   n.FiberG * k,
		SugarG:   n.SugarG * k,
		SodiumMg: n.SodiumMg * k,
	}
}

func roundDTO(n storage.Nutrients) nutrition.NutrientsDTO {
	return nutrition.NutrientsDTO{
		Calories: nutrition.Round1(n.Calories),
		ProteinG: nutrition.Round1(n.ProteinG),
		CarbsG:   nutrition.Round1(n.CarbsG),
		FatG:     nutrition.Round1(n.FatG),
		FiberG:   nutrition.Round1(n.FiberG),
		SugarG:   nutrition.Round1(n.SugarG),
		SodiumMg: nutrition.Round1(n.SodiumMg),
	}
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
