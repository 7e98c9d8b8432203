package web

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"yowbook/internal/book"
	"yowbook/internal/personality"
	"yowbook/internal/rules"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, book.ErrBookNotFound),
		errors.Is(err, personality.ErrNotFound),
		errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound
	case errors.Is(err, rules.ErrIllegalMove),
		errors.Is(err, rules.ErrNoLegalMoves),
		errors.Is(err, book.ErrBadBookName),
		errors.Is(err, book.ErrBadFEN):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	http.Error(w, err.Error(), status)
}
