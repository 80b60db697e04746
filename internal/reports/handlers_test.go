package reports

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fdg312/nutrition-hub/internal/blob"
	"github.com/fdg312/nutrition-hub/internal/storage"
	"github.com/fdg312/nutrition-hub/internal/storage/memory"
	"github.com/fdg312/nutrition-hub/internal/summary"
	"github.com/fdg312/nutrition-hub/internal/userctx"
)

type testEnv struct {
	*fixture
	blob    *blob.MemoryStore
	service *Service
	mux     *http.ServeMux
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	f := newFixture(time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC))
	store := blob.NewMemoryStore()
	service := NewService(f.store.GetReportsStorage(), f.engine, store, ServiceOptions{MaxRangeDays: 90}, nil)

	h := NewHandlers(service)
	dh := NewDashboardHandlers(f.engine, f.facade)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/reports", h.HandleCreate)
	mux.HandleFunc("GET /v1/reports", h.HandleList)
	mux.HandleFunc("GET /v1/reports/{id}/download", h.HandleDownload)
	mux.HandleFunc("DELETE /v1/reports/{id}", h.HandleDelete)
	mux.HandleFunc("GET /v1/dashboard/summary", dh.HandleToday)
	mux.HandleFunc("GET /v1/dashboard/summary/{date}", dh.HandleByDate)
	mux.HandleFunc("GET /v1/dashboard/weekly-summary", dh.HandleWeekly)
	mux.HandleFunc("GET /v1/dashboard/monthly-summary", dh.HandleMonthly)
	mux.HandleFunc("GET /v1/dashboard/progress", dh.HandleProgress)

	return &testEnv{fixture: f, blob: store, service: service, mux: mux}
}

func (e *testEnv) do(method, path, userID string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if userID != "" {
		req = req.WithContext(userctx.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp.Error.Code
}

func TestCreateReportCSVAndDownload(t *testing.T) {
	env := newTestEnv(t)
	env.addLog(t, "u1", "lunch", time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC), 500, 30)

	body, _ := json.Marshal(CreateReportRequest{From: "2024-05-14", To: "2024-05-15", Format: "csv"})
	rec := env.do(http.MethodPost, "/v1/reports", "u1", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var dto ReportDTO
	if err := json.NewDecoder(rec.Body).Decode(&dto); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if dto.Status != StatusReady || dto.SizeBytes == 0 {
		t.Fatalf("unexpected report: %+v", dto)
	}
	wantURL := "http://example.com/v1/reports/" + dto.ID.String() + "/download"
	if dto.DownloadURL != wantURL {
		t.Fatalf("expected download URL %s, got %s", wantURL, dto.DownloadURL)
	}

	rec = env.do(http.MethodGet, "/v1/reports/"+dto.ID.String()+"/download", "u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("expected text/csv, got %s", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "nutrition_2024-05-14_2024-05-15.csv") {
		t.Fatalf("unexpected Content-Disposition: %s", cd)
	}

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "date,calories,protein_g") {
		t.Fatalf("unexpected header: %s", lines[0])
	}
	if lines[1] != "2024-05-14,500,30,0,0,0,0,0,,,,,,1,0" {
		t.Fatalf("unexpected first row: %s", lines[1])
	}
	if !strings.HasPrefix(lines[2], "2024-05-15,0,") {
		t.Fatalf("unexpected second row: %s", lines[2])
	}

	// other users cannot see it
	rec = env.do(http.MethodGet, "/v1/reports/"+dto.ID.String()+"/download", "u2", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign report, got %d", rec.Code)
	}
}

func TestCreateReportPDF(t *testing.T) {
	env := newTestEnv(t)
	env.setGoal(t, "u1", 2000)
	env.addLog(t, "u1", "dinner", time.Date(2024, 5, 10, 19, 0, 0, 0, time.UTC), 800, 40)

	report, err := env.service.CreateReport(context.Background(), "u1", CreateReportRequest{From: "2024-05-10", To: "2024-05-12", Format: "pdf"})
	if err != nil {
		t.Fatalf("CreateReport failed: %v", err)
	}

	data, contentType, err := env.service.ReportData(context.Background(), report)
	if err != nil {
		t.Fatalf("ReportData failed: %v", err)
	}
	if contentType != "application/pdf" {
		t.Fatalf("expected application/pdf, got %s", contentType)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("report is not a PDF")
	}
}

func TestCreateReportValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		req  CreateReportRequest
		code string
	}{
		{"bad format", CreateReportRequest{From: "2024-05-01", To: "2024-05-02", Format: "xlsx"}, "invalid_format"},
		{"bad date", CreateReportRequest{From: "05/01/2024", To: "2024-05-02", Format: "csv"}, "invalid_date"},
		{"reversed", CreateReportRequest{From: "2024-05-03", To: "2024-05-02", Format: "csv"}, "invalid_range"},
		{"too large", CreateReportRequest{From: "2024-01-01", To: "2024-04-01", Format: "csv"}, "range_too_large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.req)
			rec := env.do(http.MethodPost, "/v1/reports", "u1", body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if code := errorCode(t, rec); code != tt.code {
				t.Fatalf("expected %s, got %s", tt.code, code)
			}
		})
	}
}

func TestListAndDeleteReport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	report, err := env.service.CreateReport(ctx, "u1", CreateReportRequest{From: "2024-05-01", To: "2024-05-01", Format: "csv"})
	if err != nil {
		t.Fatalf("CreateReport failed: %v", err)
	}

	rec := env.do(http.MethodGet, "/v1/reports", "u1", nil)
	var list ReportsResponse
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Reports) != 1 || list.Reports[0].ID != report.ID {
		t.Fatalf("unexpected list: %+v", list)
	}

	rec = env.do(http.MethodDelete, "/v1/reports/"+report.ID.String(), "u1", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	if _, err := env.blob.GetObject(ctx, *report.ObjectKey); !errors.Is(err, blob.ErrObjectNotFound) {
		t.Fatalf("expected object to be removed, got %v", err)
	}
	if _, err := env.service.GetReport(ctx, "u1", report.ID); !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}

	rec = env.do(http.MethodDelete, "/v1/reports/"+report.ID.String(), "u1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rec.Code)
	}
}

func TestDownloadRedirectsToPublicURL(t *testing.T) {
	f := newFixture(time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC))
	service := NewService(f.store.GetReportsStorage(), f.engine, blob.NewMemoryStore(), ServiceOptions{
		PublicBaseURL:   "https://cdn.example.com/",
		PreferPublicURL: true,
	}, nil)

	report, err := service.CreateReport(context.Background(), "u1", CreateReportRequest{From: "2024-05-01", To: "2024-05-01", Format: "csv"})
	if err != nil {
		t.Fatalf("CreateReport failed: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/reports/{id}/download", NewHandlers(service).HandleDownload)
	req := httptest.NewRequest(http.MethodGet, "/v1/reports/"+report.ID.String()+"/download", nil)
	req = req.WithContext(userctx.WithUserID(req.Context(), "u1"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "https://cdn.example.com/"+*report.ObjectKey {
		t.Fatalf("unexpected redirect: %s", loc)
	}
}

func TestReportsRequireUser(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/v1/reports", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestDashboardSummaryEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.setGoal(t, "u1", 2000)
	env.addLog(t, "u1", "breakfast", time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC), 500, 20)

	rec := env.do(http.MethodGet, "/v1/dashboard/summary", "u1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var today struct {
		Date     string `json:"date"`
		Totals   struct{ Calories float64 } `json:"totals"`
		Progress struct {
			Calories *float64 `json:"calories"`
		} `json:"progress"`
		TotalMeals int `json:"total_meals"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&today); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if today.Date != "2024-05-20" || today.Totals.Calories != 500 || today.TotalMeals != 1 {
		t.Fatalf("unexpected summary: %+v", today)
	}
	if today.Progress.Calories == nil || *today.Progress.Calories != 25 {
		t.Fatalf("expected 25%% calorie progress, got %v", today.Progress.Calories)
	}

	rec = env.do(http.MethodGet, "/v1/dashboard/summary/2024-13-01", "u1", nil)
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "invalid_date" {
		t.Fatalf("expected invalid_date, got %d", rec.Code)
	}
}

func TestDashboardAggregateEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/v1/dashboard/weekly-summary?end_date=2024-05-10", "u1", nil)
	var weekly WeeklySeries
	if err := json.NewDecoder(rec.Body).Decode(&weekly); err != nil {
		t.Fatalf("decode weekly: %v", err)
	}
	if weekly.WeekStart != "2024-05-04" || len(weekly.Days) != 7 {
		t.Fatalf("unexpected weekly: %+v", weekly)
	}

	rec = env.do(http.MethodGet, "/v1/dashboard/monthly-summary", "u1", nil)
	var monthly MonthlyAggregate
	if err := json.NewDecoder(rec.Body).Decode(&monthly); err != nil {
		t.Fatalf("decode monthly: %v", err)
	}
	if monthly.Year != 2024 || monthly.Month != 5 || monthly.DaysInMonth != 31 {
		t.Fatalf("expected current month by default, got %+v", monthly)
	}

	rec = env.do(http.MethodGet, "/v1/dashboard/monthly-summary?year=2024&month=13", "u1", nil)
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "invalid_month" {
		t.Fatalf("expected invalid_month, got %d", rec.Code)
	}

	rec = env.do(http.MethodGet, "/v1/dashboard/progress", "u1", nil)
	var progress ChartSeries
	if err := json.NewDecoder(rec.Body).Decode(&progress); err != nil {
		t.Fatalf("decode progress: %v", err)
	}
	if progress.Days != 30 || len(progress.Labels) != 30 {
		t.Fatalf("expected 30 days by default, got %+v", progress)
	}

	rec = env.do(http.MethodGet, "/v1/dashboard/progress?days=0", "u1", nil)
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "invalid_days" {
		t.Fatalf("expected invalid_days, got %d", rec.Code)
	}
}

type brokenLogReader struct{}

func (brokenLogReader) ListFoodLogs(context.Context, string, storage.FoodLogFilter) ([]storage.FoodLog, error) {
	return nil, errors.New("dial tcp 10.0.0.5:5432: connection refused")
}

func TestDashboardInternalErrorHidesCause(t *testing.T) {
	store := memory.New()
	engine := summary.NewEngine(store.GetSummariesStorage(), brokenLogReader{}, store.GetGoalsStorage())
	facade := NewFacade(engine, store.GetSummariesStorage(), brokenLogReader{}, 0)
	dh := NewDashboardHandlers(engine, facade)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/dashboard/summary/{date}", dh.HandleByDate)
	mux.HandleFunc("GET /v1/dashboard/monthly-summary", dh.HandleMonthly)

	for _, path := range []string{"/v1/dashboard/summary/2024-05-14", "/v1/dashboard/monthly-summary?year=2024&month=5"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req = req.WithContext(userctx.WithUserID(req.Context(), "u1"))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("%s: expected 500, got %d", path, rec.Code)
		}
		body := rec.Body.String()
		if strings.Contains(body, "10.0.0.5") || strings.Contains(body, "connection refused") {
			t.Fatalf("%s: response leaks the storage error: %s", path, body)
		}
		if code := errorCode(t, rec); code != "internal_error" {
			t.Fatalf("%s: expected internal_error, got %q", path, code)
		}
	}
}
