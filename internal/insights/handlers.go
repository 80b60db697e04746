package insights

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/fdg312/nutrition-hub/internal/userctx"
)

// HandleGet handles GET /v1/dashboard/insights
func HandleGet(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userctx.GetUserID(r.Context())
		if !ok || userID == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}

		resp, err := engine.Derive(r.Context(), userID)
		if err != nil {
			writeInternalError(w, "insights.HandleGet", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
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
