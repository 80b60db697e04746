package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/fdg312/nutrition-hub/internal/config"
	"github.com/fdg312/nutrition-hub/internal/userctx"
)

// Middleware - middleware для проверки авторизации
type Middleware struct {
	config  *config.Config
	service *Service
}

func NewMiddleware(cfg *config.Config, service *Service) *Middleware {
	return &Middleware{
		config:  cfg,
		service: service,
	}
}

// RequireAuth - middleware для защиты эндпоинтов.
// With AUTH_MODE=none every request acts as DefaultUserID. When
// AUTH_REQUIRED is off a missing token falls back to DefaultUserID too.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if m.config.AuthMode == config.AuthModeNone {
			next.ServeHTTP(w, r.WithContext(userctx.WithUserID(r.Context(), DefaultUserID)))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if strings.TrimSpace(authHeader) == "" && !m.config.AuthRequired {
			next.ServeHTTP(w, r.WithContext(userctx.WithUserID(r.Context(), DefaultUserID)))
			return
		}

		userID, err := m.authenticateHeader(r.Context(), authHeader)
		if err != nil {
			m.reject(w, r, err, "Unauthorized")
			return
		}

		next.ServeHTTP(w, r.WithContext(userctx.WithUserID(r.Context(), userID)))
	})
}

// OptionalAuth validates Bearer token only when it is provided.
// Without token, requests pass through unchanged.
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if isPublicPath(r.URL.Path) || strings.TrimSpace(authHeader) == "" {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := m.authenticateHeader(r.Context(), authHeader)
		if err != nil {
			m.reject(w, r, err, "Invalid or expired token")
			return
		}

		log.Printf("INFO auth: token_accepted sub=%s method=%s path=%s", userID, r.Method, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(userctx.WithUserID(r.Context(), userID)))
	})
}

// authenticateHeader verifies the Bearer token and that its subject is an active account.
func (m *Middleware) authenticateHeader(ctx context.Context, authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrInvalidToken
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", ErrInvalidToken
	}

	userID, err := m.service.VerifyJWT(parts[1])
	if err != nil {
		return "", err
	}
	if err := m.service.Authorize(ctx, userID); err != nil {
		return "", err
	}
	return userID, nil
}

func (m *Middleware) reject(w http.ResponseWriter, r *http.Request, err error, message string) {
	switch {
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrUserNotFound):
		writeError(w, http.StatusUnauthorized, "unauthorized", message)
	case errors.Is(err, ErrAccountInactive):
		writeError(w, http.StatusUnauthorized, "account_inactive", "Account is deactivated")
	default:
		log.Printf("WARN auth: user_lookup_failed method=%s path=%s err=%v", r.Method, r.URL.Path, err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":{"code":"` + code + `","message":"` + message + `"}}`))
}

func isPublicPath(path string) bool {
	if path == "/v1/auth/refresh" {
		return false
	}
	return path == "/healthz" || strings.HasPrefix(path, "/v1/auth/")
}
