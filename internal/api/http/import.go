package http

import (
	"bytes"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-authoring/internal/exam"
	"github.com/mind-engage/mindengage-authoring/internal/storage"
	"github.com/mind-engage/mindengage-authoring/internal/txtimport"
)

const maxImportBytes = 10 << 20

// POST /exams/{examID}/import (multipart: file=questions.txt)
// The raw upload is kept in the blob store under imports/{examID}/. Rows
// that fail validation or the score cap are reported, the rest appended.
func ImportQuestionsHandler(store exam.Store, bs storage.BlobStore, log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "examID")
		r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		if ext := strings.ToLower(filepath.Ext(hdr.Filename)); ext != ".txt" && hdr.Header.Get("Content-Type") != "text/plain" {
			http.Error(w, "unsupported file type "+ext+", upload a .txt file", http.StatusBadRequest)
			return
		}
		e, err := store.GetExam(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		if e.Status == exam.StatusPublished {
			writeError(w, exam.ErrPublishedFrozen)
			return
		}

		var buf bytes.Buffer
		key := path.Join("imports", id, uuid.NewString()+".txt")
		if _, err := bs.Put(key, io.TeeReader(f, &buf)); err != nil {
			log.WithError(err).WithField("key", key).Error("store upload")
			http.Error(w, "store error", http.StatusInternalServerError)
			return
		}
		rows, err := txtimport.Parse(&buf)
		if err != nil {
			http.Error(w, "parse: "+err.Error(), http.StatusBadRequest)
			return
		}
		if len(rows) == 0 {
			http.Error(w, "no questions found in file", http.StatusBadRequest)
			return
		}

		res, err := store.AppendImported(r.Context(), id, rows)
		if err != nil {
			logFailure(log, r, err)
			writeError(w, err)
			return
		}
		log.WithFields(logrus.Fields{
			"exam_id": id,
			"file":    hdr.Filename,
			"blob":    key,
			"success": res.SuccessCount,
			"failed":  res.FailedCount,
		}).Info("questions imported")
		writeJSON(w, http.StatusOK, res)
	}
}
