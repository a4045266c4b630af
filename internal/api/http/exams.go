package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-authoring/internal/exam"
)

// POST /exams
func CreateExamHandler(store exam.Store, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var e exam.Exam
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		created, err := store.CreateExam(r.Context(), e)
		if err != nil {
			logFailure(log, r, err)
			writeError(w, err)
			return
		}
		log.WithField("exam_id", created.ID).Info("exam created")
		writeJSON(w, http.StatusCreated, created)
	}
}

type examWithStats struct {
	exam.Exam
	Statistics exam.Stats `json:"statistics"`
}

// GET /exams/{examID}
// The exam with its questions and a per-type summary under "statistics".
func GetExamHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := store.GetExam(r.Context(), chi.URLParam(r, "examID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, examWithStats{Exam: e, Statistics: exam.QuestionStats(e.Questions)})
	}
}

type updateRequest struct {
	exam.ContentPatch
	Questions *[]exam.Question `json:"questions"`
	Status    *exam.Status     `json:"status"`
}

// PUT /exams/{examID}
// Body holds either content fields or {"questions":[...]}, never both.
// Status changes go through /exams/{examID}/status.
func UpdateExamHandler(store exam.Store, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "examID")
		var req updateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.Status != nil {
			http.Error(w, "status is changed through /exams/"+id+"/status", http.StatusBadRequest)
			return
		}
		if req.Questions != nil && !req.ContentPatch.Empty() {
			writeError(w, exam.ErrMixedUpdate)
			return
		}

		var (
			e   exam.Exam
			err error
		)
		if req.Questions != nil {
			e, err = store.PutQuestions(r.Context(), id, *req.Questions)
		} else {
			e, err = store.UpdateContent(r.Context(), id, req.ContentPatch)
		}
		if err != nil {
			logFailure(log, r, err)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

// PUT /exams/{examID}/status  {"status":"published"}
func SetStatusHandler(store exam.Store, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "examID")
		var req struct {
			Status exam.Status `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		e, err := store.SetStatus(r.Context(), id, req.Status)
		if err != nil {
			logFailure(log, r, err)
			writeError(w, err)
			return
		}
		log.WithFields(logrus.Fields{"exam_id": id, "status": e.Status}).Info("exam status changed")
		writeJSON(w, http.StatusOK, e)
	}
}

func logFailure(log logrus.FieldLogger, r *http.Request, err error) {
	entry := log.WithError(err).WithFields(logrus.Fields{
		"method":  r.Method,
		"path":    r.URL.Path,
		"exam_id": chi.URLParam(r, "examID"),
	})
	if statusFor(err) == http.StatusInternalServerError {
		entry.Error("request failed")
		return
	}
	entry.Debug("request rejected")
}
