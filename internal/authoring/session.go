package authoring

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-authoring/internal/exam"
)

type Options struct {
	// Delay is the autosave quiet period; zero means DefaultDebounce.
	Delay time.Duration
	// HistoryLimit caps the undo stack; zero means DefaultHistoryLimit and
	// a negative value leaves it unbounded.
	HistoryLimit int
	Logger       logrus.FieldLogger
	// OnError receives failures of background autosaves.
	OnError func(error)
}

// Session is one open editor on one exam. Its editor, autosave pipeline,
// lifecycle and importer all share the same live collection.
type Session struct {
	examID string
	hdr    *header
	coll   *Collection
	auto   *Autosave
	writer *Writer

	editor    *Editor
	lifecycle *Lifecycle
	importer  *Importer
	log       logrus.FieldLogger
}

// Open loads exam examID from b and starts a session on it.
func Open(ctx context.Context, b Backend, examID string, opts Options) (*Session, error) {
	e, err := b.FetchExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("exam_id", examID)
	limit := opts.HistoryLimit
	if limit == 0 {
		limit = DefaultHistoryLimit
	}

	s := &Session{examID: examID, hdr: &header{}, log: log}
	s.hdr.set(e)
	s.coll = NewCollection(e.Questions)
	s.writer = NewWriter(examID, s.coll, b, log)
	s.auto = NewAutosave(s.coll, s.writer, opts.Delay, opts.OnError, log)
	s.editor = NewEditor(s.hdr, s.coll, NewHistory(limit), s.auto, s.writer, log)
	s.lifecycle = NewLifecycle(examID, b, s.hdr, log)
	s.importer = NewImporter(examID, b, s.editor, log)
	log.WithField("questions", len(e.Questions)).Debug("session opened")
	return s, nil
}

func (s *Session) Editor() *Editor { return s.editor }

// Exam returns the header together with the collection as the user sees it.
func (s *Session) Exam() exam.Exam {
	e := s.hdr.get()
	e.Questions = s.editor.Questions()
	e.QuestionCount = len(e.Questions)
	return e
}

func (s *Session) Questions() []exam.Question { return s.editor.Questions() }

// Transition changes the exam status. Pending edits are saved first so a
// publish is validated against the collection the user sees.
func (s *Session) Transition(ctx context.Context, to exam.Status) error {
	s.editor.mu.Lock()
	defer s.editor.mu.Unlock()
	if err := s.settle(ctx, to); err != nil {
		return err
	}
	return s.lifecycle.Transition(ctx, to)
}

// SaveContent applies delta to the exam content and, when to is set,
// changes the status in the same step.
func (s *Session) SaveContent(ctx context.Context, to exam.Status, delta exam.ContentPatch) error {
	s.editor.mu.Lock()
	defer s.editor.mu.Unlock()
	if err := s.settle(ctx, to); err != nil {
		return err
	}
	total := exam.CurrentTotal(s.editor.Questions())
	return s.lifecycle.Commit(ctx, to, delta, total)
}

// settle makes the backend hold the collection the user sees before a
// publish. It also waits out an autosave that already took its edits and is
// still writing; with nothing left to write it costs no call.
func (s *Session) settle(ctx context.Context, to exam.Status) error {
	if to != exam.StatusPublished {
		return nil
	}
	return s.auto.Flush(ctx)
}

func (s *Session) Import(ctx context.Context, filename string, body io.Reader, size int64, progress func(pct int)) (exam.ImportResult, error) {
	return s.importer.ImportFile(ctx, filename, body, size, progress)
}

// Save writes the current collection now. It is the manual retry after a
// failed autosave.
func (s *Session) Save(ctx context.Context) error {
	return s.auto.Flush(ctx)
}

// Close saves pending edits and stops the autosave timer.
func (s *Session) Close(ctx context.Context) error {
	err := s.auto.Close(ctx)
	if err != nil {
		s.log.WithError(err).Warn("pending edits not saved on close")
	}
	return err
}
