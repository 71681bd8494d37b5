package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"embedd/internal/errs"
	"embedd/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// User-facing messages.
const (
	msgModelNotReady = "Embedding model is still loading, please try again later"
	msgInternal      = "Internal server error occurred during embedding generation"
	msgEmptyText     = "Text field cannot be empty"
	msgMissingText   = "Missing required fields: text"
)

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, code, msg, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: code, Details: details})
}

// writeJSON writes v with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, types.CodeInternalError, "failed to encode response", err.Error())
	}
}

// embedErrorStatus maps a manager error from an embedding call onto the
// HTTP status, code and message returned to the client.
func embedErrorStatus(err error) (status int, code, msg, details string) {
	var he HTTPError
	switch {
	case errors.As(err, &he):
		return he.StatusCode(), types.CodeInternalError, he.Error(), ""
	case errs.IsModelNotFound(err), errs.IsUnavailable(err), errs.IsDependencyUnavailable(err):
		return http.StatusServiceUnavailable, types.CodeModelNotReady, msgModelNotReady, err.Error()
	case errs.IsInvalidInput(err):
		return http.StatusBadRequest, types.CodeInvalidInput, err.Error(), ""
	default:
		return http.StatusInternalServerError, types.CodeInternalError, msgInternal, err.Error()
	}
}

// modelErrorStatus maps errors of the model management endpoints.
func modelErrorStatus(err error) (status int, code string) {
	switch {
	case errs.IsModelNotFound(err):
		return http.StatusNotFound, types.CodeModelNotFound
	case errs.IsConfig(err):
		return http.StatusBadRequest, types.CodeConfigError
	case errs.IsDependencyUnavailable(err):
		return http.StatusServiceUnavailable, types.CodeModelLoadFailed
	case errs.IsModelLoad(err):
		return http.StatusUnprocessableEntity, types.CodeModelLoadFailed
	default:
		return http.StatusInternalServerError, types.CodeInternalError
	}
}
