package rest

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/clinicdesk/clinicdesk-backend/internal/domain/errors"
)

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			slog.Default().Error("encoding response", "error", err)
		}
	}
}

// writeError maps domain errors onto HTTP statuses. Typed application
// errors carry their own status and code; anything else is a 500.
func writeError(w http.ResponseWriter, err error) {
	code := "INTERNAL_ERROR"
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		code = appErr.Code
	}
	writeJSON(w, errors.GetStatusCode(err), errorResponse{
		Error: errorBody{Code: code, Message: err.Error()},
	})
}

func writeValidationError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Error: errorBody{Code: "VALIDATION_FAILED", Message: err.Error()},
	})
}
