// Package authoring is the exam authoring engine: the question set editor,
// the debounced autosave path, the status lifecycle and bulk import, all
// sharing one live question collection per editing session.
package authoring

import (
	"context"
	"io"

	"github.com/mind-engage/mindengage-authoring/internal/exam"
)

// QuestionWriter persists a full question collection and returns it as
// stored, with server ids in place of temp ids, in the order sent.
type QuestionWriter interface {
	PutQuestions(ctx context.Context, examID string, qs []exam.Question) ([]exam.Question, error)
}

// Backend is everything the engine needs from the outside world. Content
// and questions are written through separate calls.
type Backend interface {
	QuestionWriter
	FetchExam(ctx context.Context, examID string) (exam.Exam, error)
	PutContent(ctx context.Context, examID string, p exam.ContentPatch) error
	PutStatus(ctx context.Context, examID string, to exam.Status) error
	// ActiveSessions returns in-progress attempts referencing the exam.
	ActiveSessions(ctx context.Context, examID string) ([]exam.Attempt, error)
	Import(ctx context.Context, examID, filename string, body io.Reader, size int64, progress func(pct int)) (exam.ImportResult, error)
}
