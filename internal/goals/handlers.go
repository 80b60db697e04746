package goals

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/fdg312/nutrition-hub/internal/userctx"
	"github.com/google/uuid"
)

type Handlers struct {
	manager *Manager
}

func NewHandlers(manager *Manager) *Handlers {
	return &Handlers{manager: manager}
}

// HandleCreate handles POST /v1/nutrition/goals
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	in, ok := decodeInput(w, r)
	if !ok {
		return
	}

	goal, err := h.manager.CreateGoal(r.Context(), userID, in)
	if err != nil {
		writeManagerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(ToDTO(goal))
}

// HandleList handles GET /v1/nutrition/goals
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	goals, err := h.manager.ListGoals(r.Context(), userID)
	if err != nil {
		writeManagerError(w, err)
		return
	}

	dtos := make([]GoalDTO, len(goals))
	for i := range goals {
		dtos[i] = ToDTO(&goals[i])
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(GoalsResponse{Goals: dtos})
}

// HandleCurrent handles GET /v1/nutrition/goals/current
func (h *Handlers) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	goal, err := h.manager.GetActiveGoal(r.Context(), userID)
	if err != nil {
		writeManagerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(ToDTO(goal))
}

// HandleUpdate handles PUT /v1/nutrition/goals/{id}
func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	in, ok := decodeInput(w, r)
	if !ok {
		return
	}

	goal, err := h.manager.UpdateGoal(r.Context(), userID, id, in)
	if err != nil {
		writeManagerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(ToDTO(goal))
}

// HandleDeactivate handles DELETE /v1/nutrition/goals/{id}
func (h *Handlers) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.manager.DeactivateGoal(r.Context(), userID, id); err != nil {
		writeManagerError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleActivate handles POST /v1/nutrition/goals/{id}/activate
func (h *Handlers) HandleActivate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.manager.ActivateGoal(r.Context(), userID, id); err != nil {
		writeManagerError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func decodeInput(w http.ResponseWriter, r *http.Request) (GoalInput, bool) {
	var in GoalInput
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body: "+err.Error())
		return GoalInput{}, false
	}
	return in, true
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid goal ID")
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

func writeManagerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidGoal):
		writeError(w, http.StatusBadRequest, "invalid_goal", err.Error())
	case errors.Is(err, ErrGoalNotFound):
		writeError(w, http.StatusNotFound, "goal_not_found", "Goal not found")
	case errors.Is(err, ErrNoActiveGoal):
		writeError(w, http.StatusNotFound, "no_active_goal", "No active goal")
	default:
		writeInternalError(w, "goals", err)
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
