package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fdg312/nutrition-hub/internal/storage"
	"github.com/google/uuid"
)

func TestListFoodLogsHalfOpenWindow(t *testing.T) {
	ctx := context.Background()
	logs := New().GetFoodLogsStorage()

	day := time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC)
	next := day.AddDate(0, 0, 1)
	times := []time.Time{
		day.Add(-time.Nanosecond),
		day,
		day.Add(12 * time.Hour),
		next.Add(-time.Millisecond),
		next,
	}
	for _, mt := range times {
		if err := logs.CreateFoodLog(ctx, &storage.FoodLog{UserID: "u1", FoodID: uuid.New(), MealTime: mt, MealType: "lunch"}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := logs.CreateFoodLog(ctx, &storage.FoodLog{UserID: "u2", FoodID: uuid.New(), MealTime: day.Add(time.Hour)}); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := logs.ListFoodLogs(ctx, "u1", storage.FoodLogFilter{From: &day, To: &next})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 logs in [day, next), got %d", len(got))
	}
	if !got[0].MealTime.Equal(next.Add(-time.Millisecond)) || !got[2].MealTime.Equal(day) {
		t.Fatalf("expected newest first, got %v .. %v", got[0].MealTime, got[2].MealTime)
	}

	got, err = logs.ListFoodLogs(ctx, "u1", storage.FoodLogFilter{MealType: "dinner"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no dinner logs, got %d", len(got))
	}
}

func TestFoodLogOwnership(t *testing.T) {
	ctx := context.Background()
	logs := New().GetFoodLogsStorage()

	entry := &storage.FoodLog{UserID: "u1", FoodID: uuid.New(), MealTime: time.Now()}
	if err := logs.CreateFoodLog(ctx, entry); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := logs.GetFoodLog(ctx, "u2", entry.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other user, got %v", err)
	}
	if err := logs.DeleteFoodLog(ctx, "u2", entry.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting other user's log, got %v", err)
	}
	if err := logs.DeleteFoodLog(ctx, "u1", entry.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestSummaryUniquePerUserAndDate(t *testing.T) {
	ctx := context.Background()
	summaries := New().GetSummariesStorage()

	if err := summaries.InsertSummary(ctx, &storage.DailySummary{UserID: "u1", Date: "2024-05-14"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	err := summaries.InsertSummary(ctx, &storage.DailySummary{UserID: "u1", Date: "2024-05-14"})
	if !errors.Is(err, storage.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if err := summaries.InsertSummary(ctx, &storage.DailySummary{UserID: "u2", Date: "2024-05-14"}); err != nil {
		t.Fatalf("other user insert: %v", err)
	}
	if err := summaries.InsertSummary(ctx, &storage.DailySummary{UserID: "u1", Date: "2024-05-12"}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	list, err := summaries.ListSummaries(ctx, "u1", "2024-05-01", "2024-05-31")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Date != "2024-05-12" {
		t.Fatalf("expected 2 summaries oldest first, got %+v", list)
	}

	if err := summaries.DeleteSummary(ctx, "u1", "2024-05-14"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := summaries.DeleteSummary(ctx, "u1", "2024-05-14"); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}
	if _, err := summaries.GetSummary(ctx, "u1", "2024-05-14"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestUsersEmailIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	users := New().GetUsersStorage()

	if err := users.CreateUser(ctx, &storage.User{ID: "u1", Email: "Alex@Example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := users.CreateUser(ctx, &storage.User{ID: "u2", Email: "alex@example.com"}); !errors.Is(err, storage.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	u, err := users.GetUserByEmail(ctx, "ALEX@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if u.ID != "u1" || u.Email != "alex@example.com" {
		t.Fatalf("unexpected user %+v", u)
	}
}

func TestUserProfileUpdateLeavesNilFieldsAlone(t *testing.T) {
	ctx := context.Background()
	users := New().GetUsersStorage()

	if err := users.CreateUser(ctx, &storage.User{ID: "u1", Email: "u1@example.com", PasswordHash: "h1"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	age, weight := 31, 72.5
	if _, err := users.UpdateUserProfile(ctx, "u1", storage.UserProfileUpdate{Age: &age, WeightKg: &weight}); err != nil {
		t.Fatalf("update: %v", err)
	}
	height := 180.0
	u, err := users.UpdateUserProfile(ctx, "u1", storage.UserProfileUpdate{HeightCm: &height})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if u.Age == nil || *u.Age != 31 || u.WeightKg == nil || *u.WeightKg != 72.5 || u.HeightCm == nil || *u.HeightCm != 180 {
		t.Fatalf("unexpected profile %+v", u)
	}
	if u.PasswordHash != "h1" || u.Email != "u1@example.com" {
		t.Fatalf("profile update touched credentials: %+v", u)
	}

	if _, err := users.UpdateUserProfile(ctx, "ghost", storage.UserProfileUpdate{Age: &age}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeactivateUserKeepsFirstTimestamp(t *testing.T) {
	ctx := context.Background()
	users := New().GetUsersStorage()

	if err := users.CreateUser(ctx, &storage.User{ID: "u1", Email: "u1@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := users.DeactivateUser(ctx, "u1"); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	first, _ := users.GetUser(ctx, "u1")
	if first.Active() {
		t.Fatal("expected user to be inactive")
	}

	if err := users.DeactivateUser(ctx, "u1"); err != nil {
		t.Fatalf("second deactivate: %v", err)
	}
	second, _ := users.GetUser(ctx, "u1")
	if !second.DeactivatedAt.Equal(*first.DeactivatedAt) {
		t.Fatalf("deactivation time moved from %v to %v", first.DeactivatedAt, second.DeactivatedAt)
	}

	if err := users.UpdatePassword(ctx, "ghost", "h"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
