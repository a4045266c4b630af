package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	syncx "github.com/mind-engage/mindengage-authoring/internal/sync"
)

// EventLister is implemented by stores that keep an audit trail.
type EventLister interface {
	Events(ctx context.Context, examID string) ([]syncx.Event, error)
}

// GET /exams/{examID}/events
func ListEventsHandler(el EventLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := el.Events(r.Context(), chi.URLParam(r, "examID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if events == nil {
			events = []syncx.Event{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": events})
	}
}
