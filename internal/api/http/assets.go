package http

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-authoring/internal/storage"
)

// MountUploads serves raw import uploads back.
func MountUploads(r chi.Router, bs storage.BlobStore) {
	// GET /uploads/*   -> returns the blob at whatever follows /uploads/
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "*")        // everything after /uploads/
		key = strings.TrimPrefix(key, "/") // normalize
		rc, err := bs.Get(key)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.Copy(w, rc)
	})
}
