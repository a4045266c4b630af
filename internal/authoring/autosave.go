package authoring

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-authoring/internal/exam"
)

// DefaultDebounce is the quiet period before pending field edits are saved.
const DefaultDebounce = 500 * time.Millisecond

// Autosave debounces field-level question edits. Edits to the same question
// merge field by field; when the timer expires the merged edits are applied
// to the live collection and one save is issued through the Writer.
type Autosave struct {
	coll    *Collection
	writer  *Writer
	delay   time.Duration
	onError func(error)
	log     logrus.FieldLogger

	mu      sync.Mutex
	pending map[string]exam.QuestionPatch
	timer   *time.Timer
	gen     uint64
	closed  bool
}

func NewAutosave(coll *Collection, w *Writer, delay time.Duration, onError func(error), log logrus.FieldLogger) *Autosave {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	if onError == nil {
		onError = func(error) {}
	}
	a := &Autosave{
		coll:    coll,
		writer:  w,
		delay:   delay,
		onError: onError,
		log:     log,
		pending: map[string]exam.QuestionPatch{},
	}
	w.renameWith(a.rename)
	return a
}

// Schedule records p for question id, merged on top of anything already
// pending for it, and restarts the debounce timer.
func (a *Autosave) Schedule(id string, p exam.QuestionPatch) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.pending[id] = a.pending[id].Merge(p)
	a.restartLocked()
}

func (a *Autosave) restartLocked() {
	a.stopLocked()
	gen := a.gen
	a.timer = time.AfterFunc(a.delay, func() { a.fire(gen) })
}

// stopLocked cancels the timer. Bumping gen also disarms a callback that
// already started and is waiting for the lock.
func (a *Autosave) stopLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.gen++
}

// HasPending reports whether unsaved field edits exist.
func (a *Autosave) HasPending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending) > 0
}

// View returns the live collection with every pending edit applied. The
// collection is read under the autosave lock so a concurrent flush cannot
// slip between the two reads.
func (a *Autosave) View() []exam.Question {
	a.mu.Lock()
	defer a.mu.Unlock()
	return applyPatches(a.coll.Snapshot(), a.pending)
}

func applyPatches(qs []exam.Question, pending map[string]exam.QuestionPatch) []exam.Question {
	if len(pending) == 0 {
		return qs
	}
	out := exam.CloneQuestions(qs)
	for i := range out {
		if p, ok := pending[out[i].ID]; ok {
			out[i] = p.Apply(out[i])
		}
	}
	return out
}

// absorbLocked moves pending edits into the live collection and clears
// them. Edits for questions no longer present are dropped.
func (a *Autosave) absorbLocked() int {
	if len(a.pending) == 0 {
		return 0
	}
	pending := a.pending
	n := len(pending)
	a.pending = map[string]exam.QuestionPatch{}
	_, _ = a.coll.Update(func(qs []exam.Question) ([]exam.Question, error) {
		return applyPatches(qs, pending), nil
	})
	return n
}

// Absorb cancels the timer and folds pending edits into the collection
// without saving. A structural mutation calls this right before it
// changes the collection and saves it itself.
func (a *Autosave) Absorb() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
	a.absorbLocked()
}

func (a *Autosave) fire(gen uint64) {
	a.mu.Lock()
	if gen != a.gen || a.closed {
		a.mu.Unlock()
		return
	}
	a.timer = nil
	n := a.absorbLocked()
	a.mu.Unlock()

	if n == 0 {
		return
	}
	if err := a.writer.Sync(context.Background()); err != nil {
		a.log.WithError(err).WithField("questions", n).Warn("autosave failed")
		a.onError(err)
	}
}

// Flush saves pending edits now instead of waiting for the timer. It also
// queues behind an autosave that is already writing, so on return the
// backend holds the live collection (or the error says why not).
func (a *Autosave) Flush(ctx context.Context) error {
	a.mu.Lock()
	a.stopLocked()
	a.absorbLocked()
	a.mu.Unlock()
	return a.writer.Sync(ctx)
}

// Close flushes and stops accepting edits.
func (a *Autosave) Close(ctx context.Context) error {
	err := a.Flush(ctx)
	a.mu.Lock()
	a.closed = true
	a.stopLocked()
	a.mu.Unlock()
	return err
}

// rename swaps ids in the collection and in the pending edits under one
// lock, so View never sees an edit filed under an id the collection lost.
func (a *Autosave) rename(m map[string]string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.coll.RenameIDs(m)
	for from, to := range m {
		if p, ok := a.pending[from]; ok {
			a.pending[to] = p
			delete(a.pending, from)
		}
	}
}
