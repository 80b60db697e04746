package catalog

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

type Handlers struct {
	service *Service
}

func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleSearch handles GET /v1/foods/search?query=&limit=
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "query is required")
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = l
	}

	foods, err := h.service.Search(r.Context(), query, limit)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		writeInternalError(w, "catalog.HandleSearch", err)
		return
	}

	dtos := make([]FoodDTO, len(foods))
	for i := range foods {
		dtos[i] = ToDTO(&foods[i])
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(FoodsResponse{Foods: dtos, Total: len(dtos)})
}

// HandleCreate handles POST /v1/foods
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req FoodInput
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	food, err := h.service.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		writeInternalError(w, "catalog.HandleCreate", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(ToDTO(food))
}

// HandleGet handles GET /v1/foods/{id}
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid food ID")
		return
	}

	food, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrFoodNotFound) {
			writeError(w, http.StatusNotFound, "food_not_found", "Food not found")
			return
		}
		writeInternalError(w, "catalog.HandleGet", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(ToDTO(food))
}

// HandleBarcode handles GET /v1/foods/barcode/{code}
func (h *Handlers) HandleBarcode(w http.ResponseWriter, r *http.Request) {
	food, err := h.service.LookupBarcode(r.Context(), r.PathValue("code"))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "invalid_request", "barcode is required")
		case errors.Is(err, ErrFoodNotFound):
			writeError(w, http.StatusNotFound, "food_not_found", "No product for this barcode")
		case errors.Is(err, ErrUpstreamUnavailable):
			writeError(w, http.StatusBadGateway, "upstream_unavailable", "Food database is unavailable")
		default:
			writeInternalError(w, "catalog.HandleBarcode", err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(ToDTO(food))
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
