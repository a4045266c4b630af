package authoring

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/mind-engage/mindengage-authoring/internal/exam"
)

// Writer serialises question writes for one exam. At most one PutQuestions
// call is in flight; later callers queue in arrival order. The collection
// is read only once the slot is held, so a queued write can never carry a
// snapshot older than the one written before it.
type Writer struct {
	examID  string
	coll    *Collection
	backend QuestionWriter
	sem     *semaphore.Weighted
	log     logrus.FieldLogger

	mu        sync.Mutex
	persisted uint64
	rename    func(map[string]string)
	onRename  []func(map[string]string)
}

func NewWriter(examID string, coll *Collection, backend QuestionWriter, log logrus.FieldLogger) *Writer {
	_, v := coll.SnapshotVersion()
	return &Writer{
		examID:    examID,
		coll:      coll,
		backend:   backend,
		sem:       semaphore.NewWeighted(1),
		log:       log,
		persisted: v,
		rename:    coll.RenameIDs,
	}
}

// Sync writes the live collection unless that exact version was already
// written successfully.
func (w *Writer) Sync(ctx context.Context) error {
	if err := w.sem.Acquire(ctx, 1); err != nil {
		return &exam.PersistError{Op: "save questions", Err: err}
	}
	defer w.sem.Release(1)

	qs, v := w.coll.SnapshotVersion()
	w.mu.Lock()
	done := v == w.persisted
	w.mu.Unlock()
	if done {
		return nil
	}

	stored, err := w.backend.PutQuestions(ctx, w.examID, qs)
	if err != nil {
		w.log.WithError(err).WithField("version", v).Warn("question save failed")
		return &exam.PersistError{Op: "save questions", Err: err}
	}
	w.mu.Lock()
	w.persisted = v
	rename, hooks := w.rename, w.onRename
	w.mu.Unlock()

	if renames := assignedIDs(qs, stored); len(renames) > 0 {
		rename(renames)
		for _, fn := range hooks {
			fn(renames)
		}
	}
	w.log.WithFields(logrus.Fields{"version": v, "questions": len(qs)}).Debug("questions saved")
	return nil
}

// OnRename registers fn to learn which temp ids the backend replaced.
func (w *Writer) OnRename(fn func(map[string]string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onRename = append(w.onRename, fn)
}

// renameWith replaces the step that swaps ids in the collection itself.
// fn must rename the collection; hooks registered with OnRename run after it.
func (w *Writer) renameWith(fn func(map[string]string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rename = fn
}

func assignedIDs(sent, stored []exam.Question) map[string]string {
	if len(sent) != len(stored) {
		return nil
	}
	out := map[string]string{}
	for i := range sent {
		if exam.IsTempID(sent[i].ID) && stored[i].ID != "" && stored[i].ID != sent[i].ID {
			out[sent[i].ID] = stored[i].ID
		}
	}
	return out
}

// Rebase marks the current collection as already persisted, after it was
// loaded from the backend.
func (w *Writer) Rebase() {
	_, v := w.coll.SnapshotVersion()
	w.mu.Lock()
	w.persisted = v
	w.mu.Unlock()
}
