package foodlog

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/fdg312/nutrition-hub/internal/catalog"
	"github.com/fdg312/nutrition-hub/internal/summary"
	"github.com/fdg312/nutrition-hub/internal/userctx"
	"github.com/google/uuid"
)

type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleLog handles POST /v1/food/log
func (h *Handlers) HandleLog(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req LogFoodInput
	if !decodeStrict(w, r, &req) {
		return
	}

	entry, err := h.service.LogFood(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(ToDTO(entry))
}

// HandleParse handles POST /v1/food/parse
func (h *Handlers) HandleParse(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	var req NaturalInput
	if !decodeStrict(w, r, &req) {
		return
	}

	parsed, err := h.service.Parse(r.Context(), req.Text, req.MealType)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(parsed)
}

// HandleLogNatural handles POST /v1/food/log-natural
func (h *Handlers) HandleLogNatural(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req NaturalInput
	if !decodeStrict(w, r, &req) {
		return
	}

	result, err := h.service.LogNatural(r.Context(), userID, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(NaturalResponse{
		Logs:       toDTOs(result.Entries),
		Parsed:     result.Parsed.Foods,
		Failed:     result.Failed,
		MealType:   result.Parsed.MealType,
		Confidence: result.Parsed.Confidence,
	})
}

// HandleList handles GET /v1/food/logs?date=&meal_type=
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	logs, err := h.service.List(r.Context(), userID, ListFilter{
		Date:     r.URL.Query().Get("date"),
		MealType: r.URL.Query().Get("meal_type"),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(FoodLogsResponse{Logs: toDTOs(logs), Total: len(logs)})
}

// HandleGet handles GET /v1/food/logs/{id}
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	entry, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(ToDTO(entry))
}

// HandleUpdate handles PATCH /v1/food/logs/{id}
func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var patch FoodLogPatch
	if !decodeStrict(w, r, &patch) {
		return
	}

	entry, err := h.service.Update(r.Context(), userID, id, patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(ToDTO(entry))
}

// HandleDelete handles DELETE /v1/food/logs/{id}
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func decodeStrict(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid food log ID")
		return uuid.Nil, false
	}
	return id, true
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok || userID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return "", false
	}
	return userID, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrFoodLogNotFound):
		writeError(w, http.StatusNotFound, "food_log_not_found", "Food log not found")
	case errors.Is(err, catalog.ErrFoodNotFound):
		writeError(w, http.StatusNotFound, "food_not_found", "Food not found")
	case errors.Is(err, summary.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
	case errors.Is(err, ErrNothingParsed):
		writeError(w, http.StatusUnprocessableEntity, "nothing_parsed", err.Error())
	case errors.Is(err, ErrInvalidInput), errors.Is(err, catalog.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeInternalError(w, "foodlog", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
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
	writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
}
