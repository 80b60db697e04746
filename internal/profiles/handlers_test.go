package profiles

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fdg312/nutrition-hub/internal/storage"
	"github.com/fdg312/nutrition-hub/internal/storage/memory"
	"github.com/fdg312/nutrition-hub/internal/userctx"
)

func put(t *testing.T, handler *Handler, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, "/v1/users/profile", bytes.NewBufferString(body))
	if userID != "" {
		req = req.WithContext(userctx.WithUserID(req.Context(), userID))
	}
	w := httptest.NewRecorder()
	handler.HandleUpdate(w, req)
	return w
}

func TestHandleGetCreatesDefaultUser(t *testing.T) {
	store := memory.New()
	handler := NewHandler(NewService(store.GetUsersStorage()))

	req := httptest.NewRequest(http.MethodGet, "/v1/users/profile", nil)
	w := httptest.NewRecorder()
	handler.HandleGet(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp ProfileDTO
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "default" || resp.Email != "default@localhost" || resp.BMI != nil {
		t.Fatalf("unexpected default profile: %+v", resp)
	}

	if _, err := store.GetUsersStorage().GetUser(context.Background(), "default"); err != nil {
		t.Fatalf("expected default user row, got %v", err)
	}
}

func TestHandleGetUnknownUser(t *testing.T) {
	handler := NewHandler(NewService(memory.New().GetUsersStorage()))

	req := httptest.NewRequest(http.MethodGet, "/v1/users/profile", nil)
	req = req.WithContext(userctx.WithUserID(req.Context(), "ghost"))
	w := httptest.NewRecorder()
	handler.HandleGet(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}

func TestHandleUpdate(t *testing.T) {
	store := memory.New()
	users := store.GetUsersStorage()
	if err := users.CreateUser(context.Background(), &storage.User{ID: "u1", Email: "u1@example.com", PasswordHash: "hash"}); err != nil {
		t.Fatal(err)
	}
	handler := NewHandler(NewService(users))

	w := put(t, handler, "u1", `{"first_name":"  Ada ","age":36,"gender":"female","weight_kg":70,"height_cm":175,"activity_level":"very_active"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp ProfileDTO
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.FirstName == nil || *resp.FirstName != "Ada" || resp.Age == nil || *resp.Age != 36 {
		t.Fatalf("unexpected profile: %+v", resp)
	}
	// 70 / 1.75^2 = 22.857...
	if resp.BMI == nil || *resp.BMI != 22.86 {
		t.Fatalf("expected bmi 22.86, got %v", resp.BMI)
	}

	// partial update keeps earlier fields
	w = put(t, handler, "u1", `{"weight_kg":80}`)
	resp = ProfileDTO{}
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Age == nil || *resp.Age != 36 || resp.BMI == nil || *resp.BMI != 26.12 {
		t.Fatalf("unexpected profile after partial update: %+v", resp)
	}

	u, _ := users.GetUser(context.Background(), "u1")
	if u.PasswordHash != "hash" || u.Email != "u1@example.com" {
		t.Fatalf("profile update changed credentials: %+v", u)
	}
}

func TestHandleUpdateValidation(t *testing.T) {
	handler := NewHandler(NewService(memory.New().GetUsersStorage()))

	tests := []struct {
		name string
		body string
		code string
	}{
		{"AgeTooHigh", `{"age":121}`, "invalid_profile"},
		{"NegativeAge", `{"age":-1}`, "invalid_profile"},
		{"UnknownGender", `{"gender":"robot"}`, "invalid_profile"},
		{"WeightTooHigh", `{"weight_kg":500.5}`, "invalid_profile"},
		{"HeightTooHigh", `{"height_cm":301}`, "invalid_profile"},
		{"UnknownActivity", `{"activity_level":"couch"}`, "invalid_profile"},
		{"EmailNotEditable", `{"email":"new@example.com"}`, "invalid_json"},
		{"PasswordNotEditable", `{"password_hash":"x"}`, "invalid_json"},
		{"BrokenJSON", `{`, "invalid_json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := put(t, handler, "", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", w.Code)
			}
			var resp ErrorResponse
			json.NewDecoder(w.Body).Decode(&resp)
			if resp.Error.Code != tt.code {
				t.Fatalf("expected code %s, got %s", tt.code, resp.Error.Code)
			}
		})
	}

	// boundaries are inclusive
	w := put(t, handler, "", `{"age":120,"weight_kg":0,"height_cm":300}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 at boundaries, got %d: %s", w.Code, w.Body.String())
	}
}

func TestBMI(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	if BMI(nil, f(180)) != nil || BMI(f(80), nil) != nil || BMI(f(80), f(0)) != nil {
		t.Fatal("expected nil bmi when weight or height is missing")
	}
	if got := BMI(f(80), f(180)); got == nil || *got != 24.69 {
		t.Fatalf("expected 24.69, got %v", got)
	}
}
