package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/mindengage-authoring/internal/auth/middleware"
	"github.com/mind-engage/mindengage-authoring/internal/exam"
)

type attemptList struct {
	Data []exam.Attempt `json:"data"`
}

// GET /assessment-results?exam_id=...&user_id=...&status=in_progress&limit=50&offset=0
// Mounted behind rbac.RequireAttemptOwner, which pins user_id for callers
// that may only see their own attempts.
func ListAttemptsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		opts := exam.AttemptListOpts{
			ExamID: strings.TrimSpace(q.Get("exam_id")),
			UserID: strings.TrimSpace(q.Get("user_id")),
			Status: strings.TrimSpace(q.Get("status")),
			Limit:  parseIntDefault(q.Get("limit"), 50),
			Offset: parseIntDefault(q.Get("offset"), 0),
		}

		list, err := store.ListAttempts(r.Context(), opts)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, attemptList{Data: list})
	}
}

// POST /exams/{examID}/attempts
// Starts an attempt for the caller. Only published exams can be taken.
func CreateAttemptHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "examID")
		e, err := store.GetExam(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		if e.Status != exam.StatusPublished {
			http.Error(w, "exam is not published", http.StatusConflict)
			return
		}
		a, err := store.NewAttempt(r.Context(), id, auth.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

func parseIntDefault(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return def
	}
	return n
}
