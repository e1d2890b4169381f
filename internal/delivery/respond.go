package delivery

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/nexcast/internal/domain"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, reason, message string) {
	writeJSON(w, status, errorBody{Error: reason, Message: message})
}

// Classify maps domain errors to a status, a machine-readable reason and a message
// that is safe to show. Causes from the stores never reach the client.
func Classify(err error) (status int, reason, message string) {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		return http.StatusBadRequest, "bad_request", err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized", "Unauthorized"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found", "Session not found"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "conflict", err.Error()
	case errors.Is(err, domain.ErrUpstreamAuth):
		return http.StatusUnauthorized, "upstream_auth_error", "authentication rejected"
	case errors.Is(err, domain.ErrStorage):
		return http.StatusInternalServerError, "storage_error", "frame storage failed"
	case errors.Is(err, domain.ErrPersistence):
		return http.StatusInternalServerError, "persistence_error", "database operation failed"
	default:
		return http.StatusInternalServerError, "internal_error", "internal error"
	}
}

// Fail logs the full cause and writes the classified response.
func Fail(w http.ResponseWriter, r *http.Request, zl *logger.ZapLogger, op string, err error) {
	status, reason, message := Classify(err)
	failWith(w, r, zl, op, err, status, reason, message)
}

func failWith(w http.ResponseWriter, r *http.Request, zl *logger.ZapLogger, op string, err error, status int, reason, message string) {
	level := "warn"
	if status >= http.StatusInternalServerError {
		level = "error"
	}
	zl.Log(logger.LogEntry{
		Level:   level,
		Message: op + " failed",
		Error:   err,
		Fields: map[string]any{
			"path":   r.URL.Path,
			"status": status,
			"reason": reason,
		},
	})
	writeError(w, status, reason, message)
}
