package authoring

import (
	"context"
	"math"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-authoring/internal/exam"
)

// DefaultBankScore is given to questions copied in from a bank without a
// usable score.
const DefaultBankScore = 10

// Editor owns the ordered question set of one exam. Every change to score
// or membership passes the score ledger first; a rejected change leaves the
// collection untouched.
//
// Add, Remove, Reorder, Undo and InsertFromExternalSource persist at once.
// Update only queues a field edit on the autosave pipeline.
type Editor struct {
	mu     sync.Mutex
	hdr    *header
	coll   *Collection
	hist   *History
	auto   *Autosave
	writer *Writer
	log    logrus.FieldLogger
}

func NewEditor(hdr *header, coll *Collection, hist *History, auto *Autosave, w *Writer, log logrus.FieldLogger) *Editor {
	w.OnRename(hist.RenameIDs)
	return &Editor{hdr: hdr, coll: coll, hist: hist, auto: auto, writer: w, log: log}
}

// Questions is the collection as the user sees it, pending edits included.
func (e *Editor) Questions() []exam.Question { return e.auto.View() }

func (e *Editor) Add(ctx context.Context, q exam.Question) ([]exam.Question, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.hdr.status() == exam.StatusPublished {
		return nil, exam.ErrPublishedFrozen
	}
	q, err := authored(q)
	if err != nil {
		return nil, err
	}
	if err := exam.CheckCap(e.auto.View(), exam.AddDelta(q.Score), e.hdr.get().TotalScore); err != nil {
		return nil, err
	}

	e.auto.Absorb()
	q.ID = exam.NewTempID()
	_, _ = e.coll.Update(func(qs []exam.Question) ([]exam.Question, error) {
		q.OrderNum = len(qs) + 1
		return append(qs, q), nil
	})
	e.log.WithField("question_id", q.ID).Debug("question added")
	return e.persist(ctx)
}

// InsertFromExternalSource copies q from another collection (a template or
// question bank) into position at, clamped to the collection bounds.
func (e *Editor) InsertFromExternalSource(ctx context.Context, q exam.Question, at int) ([]exam.Question, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.hdr.status() == exam.StatusPublished {
		return nil, exam.ErrPublishedFrozen
	}
	if q.Score <= 0 || math.IsNaN(q.Score) || math.IsInf(q.Score, 0) {
		q.Score = DefaultBankScore
	}
	q, err := authored(q)
	if err != nil {
		return nil, err
	}
	if err := exam.CheckCap(e.auto.View(), exam.AddDelta(q.Score), e.hdr.get().TotalScore); err != nil {
		return nil, err
	}

	e.auto.Absorb()
	q.ID = exam.NewTempID()
	_, _ = e.coll.Update(func(qs []exam.Question) ([]exam.Question, error) {
		at = min(max(at, 0), len(qs))
		q.OrderNum = at + 1
		qs = append(qs, exam.Question{})
		copy(qs[at+1:], qs[at:])
		qs[at] = q
		return qs, nil
	})
	e.log.WithFields(logrus.Fields{"question_id": q.ID, "at": at}).Debug("question inserted")
	return e.persist(ctx)
}

// Update merges p into question id. The change shows up in Questions at
// once and reaches the backend when the autosave timer fires.
func (e *Editor) Update(ctx context.Context, id string, p exam.QuestionPatch) ([]exam.Question, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.hdr.status() == exam.StatusPublished {
		return nil, exam.ErrPublishedFrozen
	}
	view := e.auto.View()
	i := exam.IndexOf(view, id)
	if i < 0 {
		return nil, exam.ErrQuestionNotFound
	}
	if p.Empty() {
		return view, nil
	}
	if p.Score != nil {
		s := *p.Score
		if math.IsNaN(s) || math.IsInf(s, 0) || s <= 0 {
			return nil, &exam.ValidationError{Field: "score", Reason: "must be a positive number"}
		}
	}
	if p.Type != nil && !p.Type.Authored() {
		return nil, &exam.ValidationError{Field: "type", Reason: "cannot author " + string(*p.Type) + " questions"}
	}
	// The edited question must still be one the backend accepts, or every
	// later save of the collection would fail on it.
	next := exam.NormalizeQuestion(p.Apply(view[i]))
	if err := exam.ValidateQuestion(next); err != nil {
		return nil, err
	}
	if p.Score != nil {
		if err := exam.CheckCap(view, exam.UpdateDelta(id, next.Score), e.hdr.get().TotalScore); err != nil {
			return nil, err
		}
	}
	e.auto.Schedule(id, p)
	return e.auto.View(), nil
}

// Remove drops question id. Survivors keep their order numbers until the
// backend renumbers them on save.
func (e *Editor) Remove(ctx context.Context, id string) ([]exam.Question, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.hdr.status() == exam.StatusPublished {
		return nil, exam.ErrPublishedFrozen
	}
	if exam.IndexOf(e.auto.View(), id) < 0 {
		return nil, exam.ErrQuestionNotFound
	}
	e.auto.Absorb()
	_, _ = e.coll.Update(func(qs []exam.Question) ([]exam.Question, error) {
		i := exam.IndexOf(qs, id)
		return append(qs[:i], qs[i+1:]...), nil
	})
	e.log.WithField("question_id", id).Debug("question removed")
	return e.persist(ctx)
}

// Reorder moves the question at index from to index to. The prior order is
// pushed on the undo history.
func (e *Editor) Reorder(ctx context.Context, from, to int) ([]exam.Question, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.hdr.status() == exam.StatusPublished {
		return nil, exam.ErrOrderingFrozen
	}
	n := e.coll.Len()
	if from < 0 || from >= n || to < 0 || to >= n {
		return nil, exam.ErrIndexOutOfRange
	}
	if from == to {
		return e.auto.View(), nil
	}

	e.auto.Absorb()
	e.hist.Push(e.coll.Snapshot())
	_, _ = e.coll.Update(func(qs []exam.Question) ([]exam.Question, error) {
		moved := qs[from]
		qs = append(qs[:from], qs[from+1:]...)
		qs = append(qs[:to], append([]exam.Question{moved}, qs[to:]...)...)
		return qs, nil
	})
	return e.persist(ctx)
}

// Undo restores the ordering recorded before the last reorder. With an
// empty history it does nothing.
func (e *Editor) Undo(ctx context.Context) ([]exam.Question, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.hdr.status() == exam.StatusPublished {
		return nil, exam.ErrOrderingFrozen
	}
	snap, ok := e.hist.Pop()
	if !ok {
		return e.auto.View(), nil
	}

	e.auto.Absorb()
	_, _ = e.coll.Update(func(qs []exam.Question) ([]exam.Question, error) {
		return restoreOrder(qs, snap), nil
	})
	return e.persist(ctx)
}

// CanUndo reports whether Undo has anything to restore.
func (e *Editor) CanUndo() bool { return e.hist.Len() > 0 }

// persist writes the live collection. On failure the local collection is
// kept and returned alongside the error.
func (e *Editor) persist(ctx context.Context) ([]exam.Question, error) {
	err := e.writer.Sync(ctx)
	return e.auto.View(), err
}

// authored normalises q and checks it is a question the editor may create.
func authored(q exam.Question) (exam.Question, error) {
	q = exam.NormalizeQuestion(q)
	if !q.Type.Authored() {
		return q, &exam.ValidationError{Field: "type", Reason: "cannot author " + string(q.Type) + " questions"}
	}
	if err := exam.ValidateQuestion(q); err != nil {
		return q, err
	}
	return q, nil
}
