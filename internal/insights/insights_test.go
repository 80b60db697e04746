package insights

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fdg312/nutrition-hub/internal/storage"
	"github.com/fdg312/nutrition-hub/internal/storage/memory"
	"github.com/fdg312/nutrition-hub/internal/userctx"
	"github.com/google/uuid"
)

var testNow = time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

func newTestEngine() (*Engine, *memory.MemoryStorage) {
	store := memory.New()
	e := NewEngine(store.GetFoodLogsStorage(), store.GetGoalsStorage())
	e.now = func() time.Time { return testNow }
	return e, store
}

func addLog(t *testing.T, store *memory.MemoryStorage, at time.Time, calories, protein float64) {
	t.Helper()
	err := store.GetFoodLogsStorage().CreateFoodLog(context.Background(), &storage.FoodLog{
		UserID:      "u1",
		FoodID:      uuid.New(),
		Quantity:    1,
		Unit:        "gram",
		WeightGrams: 100,
		MealType:    "lunch",
		MealTime:    at,
		Nutrients:   storage.Nutrients{Calories: calories, ProteinG: protein},
	})
	if err != nil {
		t.Fatalf("create food log: %v", err)
	}
}

func setGoal(t *testing.T, store *memory.MemoryStorage, calories int, protein float64) {
	t.Helper()
	_, err := store.GetGoalsStorage().CreateActiveGoal(context.Background(), "u1", "2024-01-01", storage.GoalTargets{
		DailyCalories: calories,
		DailyProteinG: protein,
		DailyCarbsG:   250,
		DailyFatG:     70,
	})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
}

func titles(list []Insight) []string {
	out := make([]string, len(list))
	for i, in := range list {
		out[i] = in.Title
	}
	return out
}

func TestDeriveAllInsightsInOrder(t *testing.T) {
	e, store := newTestEngine()
	setGoal(t, store, 2000, 100)

	// 7000 kcal / 7 = 1000 avg < 1600; 140 g / 7 = 20 avg < 80
	addLog(t, store, testNow.Add(-50*time.Hour), 3500, 70)
	addLog(t, store, testNow.Add(-30*time.Hour), 3500, 70)

	resp, err := e.Derive(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}

	want := []string{"Low Calorie Intake", "Low Protein Intake", "Extended Eating Window", "Stay Hydrated", "Balanced Meals"}
	got := titles(resp.Insights)
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if !strings.Contains(resp.Insights[0].Message, "(1000)") || !strings.Contains(resp.Insights[0].Message, "(2000)") {
		t.Fatalf("calorie message missing values: %s", resp.Insights[0].Message)
	}
	if !strings.Contains(resp.Insights[1].Message, "(20.0g)") || !strings.Contains(resp.Insights[1].Message, "(100g)") {
		t.Fatalf("protein message missing values: %s", resp.Insights[1].Message)
	}
	if resp.Insights[0].Type != KindWarning || resp.Insights[2].Type != KindInfo || resp.Insights[3].Type != KindTip {
		t.Fatalf("unexpected kinds: %+v", resp.Insights)
	}
	if resp.Period != "7 days" || resp.TotalEntries != 2 {
		t.Fatalf("unexpected period/entries: %s %d", resp.Period, resp.TotalEntries)
	}
}

func TestDeriveNoGoalSkipsIntakeChecks(t *testing.T) {
	e, store := newTestEngine()
	addLog(t, store, testNow.Add(-2*time.Hour), 100, 1)

	resp, err := e.Derive(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}

	want := []string{"Stay Hydrated", "Balanced Meals"}
	if got := titles(resp.Insights); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestDeriveOnTrackGoal(t *testing.T) {
	e, store := newTestEngine()
	setGoal(t, store, 2000, 100)

	// 11200 / 7 = 1600 is exactly 80%, not below it
	addLog(t, store, testNow.Add(-10*time.Hour), 11200, 700)

	resp, err := e.Derive(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	if len(resp.Insights) != 2 {
		t.Fatalf("expected only tips, got %v", titles(resp.Insights))
	}
}

func TestDeriveNoLogsReturnsOnlyTips(t *testing.T) {
	e, store := newTestEngine()
	setGoal(t, store, 2000, 100)
	// outside the window
	addLog(t, store, testNow.AddDate(0, 0, -8), 10, 1)

	resp, err := e.Derive(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	if len(resp.Insights) != 2 || resp.Insights[0].Type != KindTip {
		t.Fatalf("expected only tips, got %v", titles(resp.Insights))
	}
	if resp.TotalEntries != 0 {
		t.Fatalf("expected 0 entries, got %d", resp.TotalEntries)
	}
}

func TestDeriveEatingWindowBoundary(t *testing.T) {
	e, store := newTestEngine()
	addLog(t, store, testNow.Add(-16*time.Hour), 100, 1)
	addLog(t, store, testNow, 100, 1)

	resp, err := e.Derive(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}
	if len(resp.Insights) != 2 {
		t.Fatalf("16h exactly must not trigger, got %v", titles(resp.Insights))
	}
	if resp.TotalEntries != 2 {
		t.Fatalf("log at now must be included, got %d entries", resp.TotalEntries)
	}
}

func TestHandleGet(t *testing.T) {
	e, _ := newTestEngine()
	h := HandleGet(e)

	req := httptest.NewRequest(http.MethodGet, "/v1/dashboard/insights", nil)
	rec := httptest.NewRecorder()
	h(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/dashboard/insights", nil)
	req = req.WithContext(userctx.WithUserID(req.Context(), "u1"))
	rec = httptest.NewRecorder()
	h(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp InsightsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Period != "7 days" || len(resp.Insights) != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

type brokenLogReader struct{}

func (brokenLogReader) ListFoodLogs(context.Context, string, storage.FoodLogFilter) ([]storage.FoodLog, error) {
	return nil, errors.New("pq: relation food_logs does not exist")
}

func TestHandleGetHidesStorageError(t *testing.T) {
	e := NewEngine(brokenLogReader{}, memory.New().GetGoalsStorage())
	req := httptest.NewRequest(http.MethodGet, "/v1/dashboard/insights", nil)
	req = req.WithContext(userctx.WithUserID(req.Context(), "u1"))
	rec := httptest.NewRecorder()
	HandleGet(e)(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "food_logs") {
		t.Fatalf("response leaks the storage error: %s", rec.Body.String())
	}
}
