package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/laguz/internal/apperr"
)

// response is the envelope every endpoint answers with, matching the
// shape {success, count?, message?, code?, data?}.
type response struct {
	Success bool   `json:"success"`
	Count   *int   `json:"count,omitempty"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

func okData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, response{Success: true, Data: data})
}

func okList(w http.ResponseWriter, count int, data any) {
	writeJSON(w, http.StatusOK, response{Success: true, Count: &count, Data: data})
}

func okMessage(w http.ResponseWriter, msg string, data any) {
	writeJSON(w, http.StatusOK, response{Success: true, Message: msg, Data: data})
}

func fail(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, response{Success: false, Code: code, Message: msg})
}

// writeError maps a service error to its HTTP status and reason code.
func writeError(w http.ResponseWriter, err error) {
	code := apperr.Code(err)
	var status int
	switch {
	case errors.Is(err, apperr.ErrInvalidRequest),
		errors.Is(err, apperr.ErrMemberInactive),
		errors.Is(err, apperr.ErrBookUnavailable):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrMemberNotFound),
		errors.Is(err, apperr.ErrBookNotFound),
		errors.Is(err, apperr.ErrNoOpenBorrow):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrPersistence):
		status = http.StatusInternalServerError
	default:
		slog.Error("unexpected error", slog.String("error", err.Error()))
		fail(w, http.StatusInternalServerError, code, "internal error")
		return
	}
	fail(w, status, code, err.Error())
}
