package exam

import "context"

type AttemptListOpts struct {
	ExamID string
	UserID string
	Status string // optional: in_progress|submitted|graded
	Limit  int
	Offset int
}

// ImportRow is one parsed row of an import file, numbered as the file
// numbers it.
type ImportRow struct {
	Row      int
	Question Question
}

type Store interface {
	CreateExam(ctx context.Context, e Exam) (Exam, error)
	GetExam(ctx context.Context, id string) (Exam, error)

	// UpdateContent and PutQuestions are independent writes; neither
	// touches the other's fields.
	UpdateContent(ctx context.Context, id string, p ContentPatch) (Exam, error)
	PutQuestions(ctx context.Context, id string, qs []Question) (Exam, error)

	SetStatus(ctx context.Context, id string, to Status) (Exam, error)
	AppendImported(ctx context.Context, id string, rows []ImportRow) (ImportResult, error)

	NewAttempt(ctx context.Context, examID, userID string) (Attempt, error)
	ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error)
}
