package reports

import (
	"errors"
	"time"

	"github.com/fdg312/nutrition-hub/internal/nutrition"
	"github.com/fdg312/nutrition-hub/internal/summary"
	"github.com/google/uuid"
)

// Constants for validation
const (
	FormatPDF = "pdf"
	FormatCSV = "csv"

	StatusReady  = "ready"
	StatusFailed = "failed"
)

// Errors
var (
	ErrInvalidMonth     = errors.New("month must be 1-12 and year 1-9999")
	ErrInvalidDays      = errors.New("days out of range")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrInvalidDateRange = errors.New("from date must not be after to date")
	ErrRangeTooLarge    = errors.New("date range too large")
	ErrReportNotFound   = errors.New("report not found")
)

// WeeklySeries - семь дневных сводок [end-6, end], от старых к новым
type WeeklySeries struct {
	WeekStart string                 `json:"week_start"`
	WeekEnd   string                 `json:"week_end"`
	Days      []summary.SummaryDTO   `json:"days"`
	Totals    nutrition.NutrientsDTO `json:"totals"`
	Averages  nutrition.NutrientsDTO `json:"daily_averages"`
}

// MonthlyAggregate - агрегат по сырым записям журнала за календарный месяц
type MonthlyAggregate struct {
	Year           int                    `json:"year"`
	Month          int                    `json:"month"`
	StartDate      string                 `json:"start_date"`
	EndDate        string                 `json:"end_date"`
	DaysInMonth    int                    `json:"days_in_month"`
	Totals         nutrition.NutrientsDTO `json:"totals"`
	DailyAverages  nutrition.NutrientsDTO `json:"daily_averages"`
	MealTypeCounts map[string]int         `json:"meal_type_counts"`
	TotalEntries   int                    `json:"total_entries"`
}

// ChartSeries - параллельные массивы для графика прогресса
type ChartSeries struct {
	Days             int       `json:"days"`
	Dates            []string  `json:"dates"`
	Labels           []string  `json:"labels"`
	CaloriesConsumed []float64 `json:"calories_consumed"`
	CaloriesGoal     []float64 `json:"calories_goal"`
	ProteinConsumed  []float64 `json:"protein_consumed"`
	ProteinGoal      []float64 `json:"protein_goal"`
	CarbsConsumed    []float64 `json:"carbs_consumed"`
	CarbsGoal        []float64 `json:"carbs_goal"`
	FatConsumed      []float64 `json:"fat_consumed"`
	FatGoal          []float64 `json:"fat_goal"`
}

// CreateReportRequest is the request to create a new report
type CreateReportRequest struct {
	From   string `json:"from"`   // YYYY-MM-DD
	To     string `json:"to"`     // YYYY-MM-DD
	Format string `json:"format"` // "pdf" or "csv"
}

// ReportDTO is the response representation of a report
type ReportDTO struct {
	ID          uuid.UUID `json:"id"`
	Format      string    `json:"format"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	DownloadURL string    `json:"download_url"`
	SizeBytes   int64     `json:"size_bytes"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// ReportsResponse is the list response
type ReportsResponse struct {
	Reports []ReportDTO `json:"reports"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
