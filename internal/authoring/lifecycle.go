package authoring

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-authoring/internal/exam"
)

// Lifecycle drives the publication status of one exam. Local checks run
// before any I/O: first the transition table, then the active attempt
// guard, then the backend call.
type Lifecycle struct {
	examID  string
	backend Backend
	hdr     *header
	log     logrus.FieldLogger
}

func NewLifecycle(examID string, b Backend, hdr *header, log logrus.FieldLogger) *Lifecycle {
	return &Lifecycle{examID: examID, backend: b, hdr: hdr, log: log}
}

// Transition moves the exam to status to.
func (l *Lifecycle) Transition(ctx context.Context, to exam.Status) error {
	from := l.hdr.status()
	if err := checkTarget(from, to); err != nil {
		return err
	}
	if err := l.guard(ctx, to); err != nil {
		return err
	}
	return l.putStatus(ctx, from, to)
}

func checkTarget(from, to exam.Status) error {
	if !to.Valid() {
		return &exam.ValidationError{Field: "status", Reason: "unknown status " + string(to)}
	}
	return exam.CheckTransition(from, to)
}

// guard blocks moves into archived or draft while attempts are running.
// When the query itself fails the move is blocked as well.
func (l *Lifecycle) guard(ctx context.Context, to exam.Status) error {
	if !exam.Guarded(to) {
		return nil
	}
	active, err := l.backend.ActiveSessions(ctx, l.examID)
	if err != nil {
		l.log.WithError(err).Warn("active attempt check failed")
		return &exam.GuardError{ExamID: l.examID, Err: err}
	}
	if len(active) > 0 {
		return &exam.ActiveSessionError{ExamID: l.examID, Active: len(active)}
	}
	return nil
}

func (l *Lifecycle) putStatus(ctx context.Context, from, to exam.Status) error {
	if err := l.backend.PutStatus(ctx, l.examID, to); err != nil {
		if te, ok := exam.ParseTransitionMessage(err.Error()); ok {
			return te
		}
		return &exam.PersistError{Op: "change status", Err: err}
	}
	l.hdr.setStatus(to)
	l.log.WithFields(logrus.Fields{"from": from, "to": to}).Info("exam status changed")
	return nil
}

type CallKind int

const (
	CallContent CallKind = iota
	CallStatus
)

func (k CallKind) String() string {
	if k == CallStatus {
		return "status"
	}
	return "content"
}

// Call is one backend write of a commit plan.
type Call struct {
	Kind    CallKind
	Content exam.ContentPatch
	Status  exam.Status
}

// PlanCommit orders the writes for a content edit combined with a status
// change. Leaving published sends the status first so the backend accepts
// the content afterwards; every other move sends content first so a
// publish validates the updated record. Empty parts are omitted.
func PlanCommit(from, to exam.Status, delta exam.ContentPatch) []Call {
	var content, status []Call
	if !delta.Empty() {
		content = []Call{{Kind: CallContent, Content: delta}}
	}
	if to != "" && to != from {
		status = []Call{{Kind: CallStatus, Status: to}}
	}
	if from == exam.StatusPublished && to != "" && to != exam.StatusPublished {
		return append(status, content...)
	}
	return append(content, status...)
}

// Commit applies delta and moves the exam to status to (empty or equal to
// the current status leaves it unchanged). questionTotal is the current
// question total, which the new exam total may not fall below. The plan
// stops at the first failed call; calls already made are not undone.
func (l *Lifecycle) Commit(ctx context.Context, to exam.Status, delta exam.ContentPatch, questionTotal float64) error {
	cur := l.hdr.get()
	from := cur.Status
	if to == "" {
		to = from
	}
	if to != from {
		if err := checkTarget(from, to); err != nil {
			return err
		}
	}
	if !delta.Empty() && from == exam.StatusPublished && to == exam.StatusPublished {
		return exam.ErrPublishedFrozen
	}
	next := delta.Apply(cur)
	if err := exam.ValidateExam(next); err != nil {
		return err
	}
	if questionTotal > next.TotalScore {
		return &exam.CapError{Projected: questionTotal, Allowed: next.TotalScore}
	}
	if to != from {
		if err := l.guard(ctx, to); err != nil {
			return err
		}
	}

	for _, c := range PlanCommit(from, to, delta) {
		var err error
		switch c.Kind {
		case CallContent:
			err = l.putContent(ctx, c.Content)
		case CallStatus:
			err = l.putStatus(ctx, l.hdr.status(), c.Status)
		}
		if err != nil {
			l.log.WithError(err).WithField("call", c.Kind).Warn("commit stopped")
			return err
		}
	}
	return nil
}

func (l *Lifecycle) putContent(ctx context.Context, p exam.ContentPatch) error {
	if err := l.backend.PutContent(ctx, l.examID, p); err != nil {
		var pe *exam.PersistError
		if errors.As(err, &pe) {
			return err
		}
		return &exam.PersistError{Op: "save content", Err: err}
	}
	l.hdr.set(p.Apply(l.hdr.get()))
	return nil
}
