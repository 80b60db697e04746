package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fdg312/nutrition-hub/internal/config"
	"github.com/fdg312/nutrition-hub/internal/storage"
	"github.com/fdg312/nutrition-hub/internal/storage/memory"
	"github.com/fdg312/nutrition-hub/internal/userctx"
)

func setupTestService(mode string, required bool) (*Service, *config.Config) {
	cfg := &config.Config{
		AuthMode:      mode,
		AuthRequired:  required,
		JWTSecret:     "test-secret-key-for-testing-only",
		JWTIssuer:     "nutrition-hub-test",
		JWTTTLMinutes: 60,
	}
	return NewService(cfg, memory.New().GetUsersStorage()), cfg
}

func postJSON(handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", path, bytes.NewReader(data))
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestRegisterAndLogin(t *testing.T) {
	service, _ := setupTestService(config.AuthModePassword, true)
	handler := NewHandlers(service)

	t.Run("Register", func(t *testing.T) {
		w := postJSON(handler.HandleRegister, "/v1/auth/register", RegisterRequest{
			Email:    "Ann@Example.com",
			Password: "Correct-horse1",
			Name:     "Ann",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d. Body: %s", w.Code, w.Body.String())
		}

		var resp TokenResponse
		json.NewDecoder(w.Body).Decode(&resp)
		if resp.AccessToken == "" || resp.UserID == "" {
			t.Fatalf("expected token and user id, got %+v", resp)
		}

		sub, err := service.VerifyJWT(resp.AccessToken)
		if err != nil || sub != resp.UserID {
			t.Fatalf("expected sub %s, got %s (err=%v)", resp.UserID, sub, err)
		}
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		w := postJSON(handler.HandleRegister, "/v1/auth/register", RegisterRequest{
			Email:    "ann@example.com",
			Password: "Another-password1",
		})
		if w.Code != http.StatusConflict {
			t.Fatalf("expected status 409, got %d", w.Code)
		}
	})

	t.Run("InvalidInput", func(t *testing.T) {
		for _, req := range []RegisterRequest{
			{Email: "not-an-email", Password: "Long-enough1"},
			{Email: "bob@example.com", Password: "Short1"},
			{Email: "bob@example.com", Password: "no-upper-case1"},
			{Email: "bob@example.com", Password: "NO-LOWER-CASE1"},
			{Email: "bob@example.com", Password: "No-digits-here"},
		} {
			w := postJSON(handler.HandleRegister, "/v1/auth/register", req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400 for %+v, got %d", req, w.Code)
			}
		}
	})

	t.Run("Login", func(t *testing.T) {
		w := postJSON(handler.HandleLogin, "/v1/auth/login", LoginRequest{Email: "ANN@example.com", Password: "Correct-horse1"})
		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
	})

	t.Run("WrongPassword", func(t *testing.T) {
		w := postJSON(handler.HandleLogin, "/v1/auth/login", LoginRequest{Email: "ann@example.com", Password: "wrong-horse"})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401, got %d", w.Code)
		}
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		w := postJSON(handler.HandleLogin, "/v1/auth/login", LoginRequest{Email: "nobody@example.com", Password: "Correct-horse1"})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401, got %d", w.Code)
		}
	})
}

func TestHandleDevAuthAndMe(t *testing.T) {
	service, cfg := setupTestService(config.AuthModeDev, true)
	handler := NewHandlers(service)
	middleware := NewMiddleware(cfg, service)

	w := postJSON(handler.HandleDevAuth, "/v1/auth/dev", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var resp TokenResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.TokenType != "Bearer" || resp.ExpiresIn != int64((30*24*time.Hour).Seconds()) {
		t.Fatalf("unexpected dev token response: %+v", resp)
	}

	// second call reuses the dev user
	if w := postJSON(handler.HandleDevAuth, "/v1/auth/dev", nil); w.Code != http.StatusOK {
		t.Fatalf("expected status 200 on repeat, got %d", w.Code)
	}

	req := httptest.NewRequest("GET", "/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	w = httptest.NewRecorder()
	middleware.RequireAuth(http.HandlerFunc(handler.HandleMe)).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var me UserDTO
	json.NewDecoder(w.Body).Decode(&me)
	if me.ID != "dev-user" || me.Email != "dev@localhost" {
		t.Fatalf("unexpected user: %+v", me)
	}
}

func TestMiddlewareAuth(t *testing.T) {
	service, cfg := setupTestService(config.AuthModePassword, true)
	middleware := NewMiddleware(cfg, service)

	if err := service.users.CreateUser(context.Background(), &storage.User{ID: "test_user_123", Email: "test@example.com"}); err != nil {
		t.Fatal(err)
	}

	t.Run("ValidToken", func(t *testing.T) {
		token, err := service.generateJWTWithTTL("test_user_123", time.Hour)
		if err != nil {
			t.Fatal(err)
		}

		req := httptest.NewRequest("GET", "/v1/food/logs", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		var calledNext bool
		handler := middleware.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calledNext = true
			userID, ok := userctx.GetUserID(r.Context())
			if !ok || userID != "test_user_123" {
				t.Errorf("expected user id in context")
			}
			w.WriteHeader(http.StatusOK)
		}))

		handler.ServeHTTP(w, req)

		if !calledNext || w.Code != http.StatusOK {
			t.Fatalf("expected next handler with 200, got called=%v status=%d", calledNext, w.Code)
		}
	})

	t.Run("MissingToken", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/food/logs", nil)
		w := httptest.NewRecorder()

		handler := middleware.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("should not call next handler")
		}))

		handler.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", w.Code)
		}
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		token, err := service.generateJWTWithTTL("test_user_123", -time.Minute)
		if err != nil {
			t.Fatal(err)
		}

		req := httptest.NewRequest("GET", "/v1/food/logs", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handler := middleware.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("should not call next handler")
		}))

		handler.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", w.Code)
		}
	})

	t.Run("PublicPath", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/v1/auth/login", nil)
		w := httptest.NewRecorder()

		var calledNext bool
		handler := middleware.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calledNext = true
		}))
		handler.ServeHTTP(w, req)

		if !calledNext {
			t.Error("expected /v1/auth/ to bypass auth")
		}
	})
}

func TestMiddlewareDefaultUser(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		required bool
	}{
		{"AuthModeNone", config.AuthModeNone, false},
		{"TokenOptional", config.AuthModePassword, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, cfg := setupTestService(tt.mode, tt.required)
			middleware := NewMiddleware(cfg, service)

			req := httptest.NewRequest("GET", "/v1/dashboard/summary", nil)
			w := httptest.NewRecorder()

			var got string
			handler := middleware.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = userctx.GetUserID(r.Context())
				w.WriteHeader(http.StatusOK)
			}))
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusOK || got != DefaultUserID {
				t.Fatalf("expected default user, got %q (status %d)", got, w.Code)
			}
		})
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	service, cfg := setupTestService(config.AuthModeDev, false)
	middleware := NewMiddleware(cfg, service)

	t.Run("NoTokenPasses", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/foods/search", nil)
		w := httptest.NewRecorder()

		var called bool
		handler := middleware.OptionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			if _, ok := userctx.GetUserID(r.Context()); ok {
				t.Error("expected no user in context")
			}
			w.WriteHeader(http.StatusOK)
		}))

		handler.ServeHTTP(w, req)

		if !called || w.Code != http.StatusOK {
			t.Fatalf("expected passthrough with 200, got called=%v status=%d", called, w.Code)
		}
	})

	t.Run("InvalidTokenRejected", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/foods/search", nil)
		req.Header.Set("Authorization", "Bearer invalid")
		w := httptest.NewRecorder()

		handler := middleware.OptionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("should not call next handler")
		}))

		handler.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})
}

func TestVerifyJWTRejectsForeignIssuer(t *testing.T) {
	service, _ := setupTestService(config.AuthModePassword, true)
	other, _ := setupTestService(config.AuthModePassword, true)
	other.config.JWTIssuer = "someone-else"

	token, err := other.generateJWTWithTTL("u1", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := service.VerifyJWT(token); err == nil {
		t.Fatal("expected token from another issuer to be rejected")
	}
}

func withUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(userctx.WithUserID(r.Context(), userID))
}

func registerUser(t *testing.T, handler *Handlers, email, password string) TokenResponse {
	t.Helper()
	w := postJSON(handler.HandleRegister, "/v1/auth/register", RegisterRequest{Email: email, Password: password})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp TokenResponse
	json.NewDecoder(w.Body).Decode(&resp)
	return resp
}

func TestPasswordPolicy(t *testing.T) {
	service, _ := setupTestService(config.AuthModePassword, true)

	tests := []struct {
		password string
		ok       bool
	}{
		{"Abcdefg1", true},
		{"Abcdef1", false},
		{"abcdefg1", false},
		{"ABCDEFG1", false},
		{"Abcdefgh", false},
		{"Пароль-надёжный1", true},
	}
	for _, tt := range tests {
		err := service.checkPassword(tt.password)
		if tt.ok && err != nil {
			t.Fatalf("expected %q to pass, got %v", tt.password, err)
		}
		if !tt.ok && !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected %q to be rejected, got %v", tt.password, err)
		}
	}
}

func TestChangePassword(t *testing.T) {
	service, _ := setupTestService(config.AuthModePassword, true)
	handler := NewHandlers(service)
	tok := registerUser(t, handler, "pat@example.com", "Original-pass1")

	change := func(body ChangePasswordRequest) *httptest.ResponseRecorder {
		data, _ := json.Marshal(body)
		req := withUser(httptest.NewRequest("POST", "/v1/users/change-password", bytes.NewReader(data)), tok.UserID)
		w := httptest.NewRecorder()
		handler.HandleChangePassword(w, req)
		return w
	}

	w := change(ChangePasswordRequest{CurrentPassword: "Wrong-pass1", NewPassword: "Replacement-pass1"})
	if w.Code != http.StatusBadRequest || !bytes.Contains(w.Body.Bytes(), []byte("invalid_password")) {
		t.Fatalf("expected 400 invalid_password, got %d: %s", w.Code, w.Body.String())
	}

	w = change(ChangePasswordRequest{CurrentPassword: "Original-pass1", NewPassword: "weak"})
	if w.Code != http.StatusBadRequest || !bytes.Contains(w.Body.Bytes(), []byte("invalid_request")) {
		t.Fatalf("expected 400 invalid_request for weak password, got %d: %s", w.Code, w.Body.String())
	}

	w = change(ChangePasswordRequest{CurrentPassword: "Original-pass1", NewPassword: "Replacement-pass1"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if w := postJSON(handler.HandleLogin, "/v1/auth/login", LoginRequest{Email: "pat@example.com", Password: "Original-pass1"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("old password: expected 401, got %d", w.Code)
	}
	if w := postJSON(handler.HandleLogin, "/v1/auth/login", LoginRequest{Email: "pat@example.com", Password: "Replacement-pass1"}); w.Code != http.StatusOK {
		t.Fatalf("new password: expected 200, got %d", w.Code)
	}
}

func TestDeleteAccountBlocksLoginAndTokens(t *testing.T) {
	service, cfg := setupTestService(config.AuthModePassword, true)
	handler := NewHandlers(service)
	middleware := NewMiddleware(cfg, service)
	tok := registerUser(t, handler, "sam@example.com", "Sam-password1")

	req := httptest.NewRequest("DELETE", "/v1/users/account", nil)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	w := httptest.NewRecorder()
	middleware.RequireAuth(http.HandlerFunc(handler.HandleDeleteAccount)).ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = postJSON(handler.HandleLogin, "/v1/auth/login", LoginRequest{Email: "sam@example.com", Password: "Sam-password1"})
	if w.Code != http.StatusBadRequest || !bytes.Contains(w.Body.Bytes(), []byte("account_inactive")) {
		t.Fatalf("login after delete: expected 400 account_inactive, got %d: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest("GET", "/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	w = httptest.NewRecorder()
	middleware.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not call next handler for a deactivated account")
	})).ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("old token: expected 401, got %d", w.Code)
	}

	// AUTH_MODE=none acts as a user without a row
	w = httptest.NewRecorder()
	handler.HandleDeleteAccount(w, withUser(httptest.NewRequest("DELETE", "/v1/users/account", nil), DefaultUserID))
	if w.Code != http.StatusNotFound {
		t.Fatalf("default user: expected 404, got %d", w.Code)
	}
}

func TestRefresh(t *testing.T) {
	service, cfg := setupTestService(config.AuthModeDev, true)
	handler := NewHandlers(service)
	middleware := NewMiddleware(cfg, service)
	tok := registerUser(t, handler, "kim@example.com", "Kim-password1")

	t.Run("RequiresToken", func(t *testing.T) {
		w := httptest.NewRecorder()
		middleware.RequireAuth(http.HandlerFunc(handler.HandleRefresh)).ServeHTTP(w, httptest.NewRequest("POST", "/v1/auth/refresh", nil))
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 without token, got %d", w.Code)
		}
	})

	t.Run("IssuesNewToken", func(t *testing.T) {
		// a later iat so the new token differs from the original
		service.now = func() time.Time { return time.Now().Add(time.Minute) }
		req := httptest.NewRequest("POST", "/v1/auth/refresh", nil)
		req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
		w := httptest.NewRecorder()
		middleware.RequireAuth(http.HandlerFunc(handler.HandleRefresh)).ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var resp TokenResponse
		json.NewDecoder(w.Body).Decode(&resp)
		if resp.UserID != tok.UserID || resp.AccessToken == tok.AccessToken || resp.ExpiresIn != 3600 {
			t.Fatalf("unexpected refresh response: %+v", resp)
		}
	})

	t.Run("DevUserKeepsLongTTL", func(t *testing.T) {
		if w := postJSON(handler.HandleDevAuth, "/v1/auth/dev", nil); w.Code != http.StatusOK {
			t.Fatalf("dev auth: expected 200, got %d", w.Code)
		}
		resp, err := service.Refresh(context.Background(), devUserID)
		if err != nil {
			t.Fatalf("refresh: %v", err)
		}
		if resp.ExpiresIn != int64(devTTL.Seconds()) {
			t.Fatalf("expected dev ttl, got %d", resp.ExpiresIn)
		}
	})

	t.Run("InactiveRejected", func(t *testing.T) {
		if err := service.DeactivateAccount(context.Background(), tok.UserID); err != nil {
			t.Fatal(err)
		}
		if _, err := service.Refresh(context.Background(), tok.UserID); !errors.Is(err, ErrAccountInactive) {
			t.Fatalf("expected ErrAccountInactive, got %v", err)
		}
	})
}
