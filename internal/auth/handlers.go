package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/fdg312/nutrition-hub/internal/userctx"
)

type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleRegister handles POST /v1/auth/register
func (h *Handlers) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	resp, err := h.service.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			writeErrorResponse(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, ErrEmailTaken):
			writeErrorResponse(w, http.StatusConflict, "email_taken", err.Error())
		default:
			writeInternalError(w, "auth.HandleRegister", err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// HandleLogin handles POST /v1/auth/login
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			writeErrorResponse(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
		case errors.Is(err, ErrAccountInactive):
			writeErrorResponse(w, http.StatusBadRequest, "account_inactive", err.Error())
		default:
			writeInternalError(w, "auth.HandleLogin", err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// HandleDevAuth handles POST /v1/auth/dev
func (h *Handlers) HandleDevAuth(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.SignInDev(r.Context())
	if err != nil {
		if errors.Is(err, ErrAccountInactive) {
			writeErrorResponse(w, http.StatusBadRequest, "account_inactive", err.Error())
			return
		}
		writeInternalError(w, "auth.HandleDevAuth", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// HandleMe handles GET /v1/users/me
func (h *Handlers) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok || userID == "" {
		writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	user, err := h.service.CurrentUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			writeErrorResponse(w, http.StatusNotFound, "user_not_found", err.Error())
			return
		}
		writeInternalError(w, "auth.HandleMe", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(user)
}

// HandleRefresh handles POST /v1/auth/refresh
func (h *Handlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok || userID == "" {
		writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	resp, err := h.service.Refresh(r.Context(), userID)
	if err != nil {
		writeAccountError(w, "auth.HandleRefresh", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// HandleChangePassword handles POST /v1/users/change-password
func (h *Handlers) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok || userID == "" {
		writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	if err := h.service.ChangePassword(r.Context(), userID, req); err != nil {
		switch {
		case errors.Is(err, ErrWrongPassword):
			writeErrorResponse(w, http.StatusBadRequest, "invalid_password", err.Error())
		case errors.Is(err, ErrInvalidInput):
			writeErrorResponse(w, http.StatusBadRequest, "invalid_request", err.Error())
		default:
			writeAccountError(w, "auth.HandleChangePassword", err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "Password changed successfully"})
}

// HandleDeleteAccount handles DELETE /v1/users/account
func (h *Handlers) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok || userID == "" {
		writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	if err := h.service.DeactivateAccount(r.Context(), userID); err != nil {
		writeAccountError(w, "auth.HandleDeleteAccount", err)
		return
	}

	log.Printf("INFO auth: account_deactivated user=%s", userID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"message": "Account deactivated successfully"})
}

func writeAccountError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		writeErrorResponse(w, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, ErrAccountInactive):
		writeErrorResponse(w, http.StatusUnauthorized, "account_inactive", err.Error())
	default:
		writeInternalError(w, op, err)
	}
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// writeInternalError logs the cause and answers with a generic 500.
func writeInternalError(w http.ResponseWriter, op string, err error) {
	log.Printf("WARN %s: err=%v", op, err)
	writeErrorResponse(w, http.StatusInternalServerError, "internal_error", "Internal server error")
}
