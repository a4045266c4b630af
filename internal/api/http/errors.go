package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mind-engage/mindengage-authoring/internal/exam"
)

// statusFor maps store errors onto HTTP status codes. The body carries the
// error text; clients key off it (e.g. "not from draft to archived").
func statusFor(err error) int {
	var (
		te *exam.TransitionError
		ce *exam.CapError
		ve *exam.ValidationError
	)
	switch {
	case errors.Is(err, exam.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, exam.ErrPublishedFrozen), errors.As(err, &te):
		return http.StatusConflict
	case errors.As(err, &ce):
		return http.StatusUnprocessableEntity
	case errors.As(err, &ve), errors.Is(err, exam.ErrMixedUpdate):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	http.Error(w, msg, code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
