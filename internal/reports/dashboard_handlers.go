package reports

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/fdg312/nutrition-hub/internal/summary"
)

// DashboardHandlers serves the daily, weekly, monthly and progress views.
type DashboardHandlers struct {
	engine *summary.Engine
	facade *Facade
}

func NewDashboardHandlers(engine *summary.Engine, facade *Facade) *DashboardHandlers {
	return &DashboardHandlers{engine: engine, facade: facade}
}

// HandleToday handles GET /v1/dashboard/summary
func (h *DashboardHandlers) HandleToday(w http.ResponseWriter, r *http.Request) {
	h.writeSummary(w, r, summary.DateOf(h.facade.now()))
}

// HandleByDate handles GET /v1/dashboard/summary/{date}
func (h *DashboardHandlers) HandleByDate(w http.ResponseWriter, r *http.Request) {
	h.writeSummary(w, r, r.PathValue("date"))
}

func (h *DashboardHandlers) writeSummary(w http.ResponseWriter, r *http.Request, date string) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	s, err := h.engine.GetOrCompute(r.Context(), userID, date)
	if err != nil {
		writeDashboardError(w, err)
		return
	}

	writeJSON(w, summary.ToDTO(s))
}

// HandleWeekly handles GET /v1/dashboard/weekly-summary?end_date=
func (h *DashboardHandlers) HandleWeekly(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	series, err := h.facade.Weekly(r.Context(), userID, r.URL.Query().Get("end_date"))
	if err != nil {
		writeDashboardError(w, err)
		return
	}

	writeJSON(w, series)
}

// HandleMonthly handles GET /v1/dashboard/monthly-summary?year=&month=
func (h *DashboardHandlers) HandleMonthly(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	now := h.facade.now().UTC()
	year, month := now.Year(), int(now.Month())
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_month", "year must be an integer")
			return
		}
		year = y
	}
	if v := r.URL.Query().Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_month", "month must be an integer")
			return
		}
		month = m
	}

	agg, err := h.facade.Monthly(r.Context(), userID, year, month)
	if err != nil {
		writeDashboardError(w, err)
		return
	}

	writeJSON(w, agg)
}

// defaultProgressDays is the progress window when days is omitted.
const defaultProgressDays = 30

// HandleProgress handles GET /v1/dashboard/progress?days=
func (h *DashboardHandlers) HandleProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	days := defaultProgressDays
	if v := r.URL.Query().Get("days"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_days", "days must be an integer")
			return
		}
		days = d
	}

	series, err := h.facade.Progress(r.Context(), userID, days)
	if err != nil {
		writeDashboardError(w, err)
		return
	}

	writeJSON(w, series)
}

func writeDashboardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, summary.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "invalid_date", "Invalid date format, use YYYY-MM-DD")
	case errors.Is(err, ErrInvalidMonth):
		writeError(w, http.StatusBadRequest, "invalid_month", err.Error())
	case errors.Is(err, ErrInvalidDays):
		writeError(w, http.StatusBadRequest, "invalid_days", err.Error())
	default:
		writeInternalError(w, "dashboard", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

