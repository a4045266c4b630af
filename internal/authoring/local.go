package authoring

import (
	"context"
	"io"
	"sync"

	"github.com/mind-engage/mindengage-authoring/internal/exam"
	"github.com/mind-engage/mindengage-authoring/internal/txtimport"
)

// StoreBackend runs a session directly against an exam.Store, without a
// server in between.
type StoreBackend struct {
	Store exam.Store
}

var _ Backend = StoreBackend{}

func (b StoreBackend) FetchExam(ctx context.Context, examID string) (exam.Exam, error) {
	return b.Store.GetExam(ctx, examID)
}

func (b StoreBackend) PutContent(ctx context.Context, examID string, p exam.ContentPatch) error {
	_, err := b.Store.UpdateContent(ctx, examID, p)
	return err
}

func (b StoreBackend) PutQuestions(ctx context.Context, examID string, qs []exam.Question) ([]exam.Question, error) {
	e, err := b.Store.PutQuestions(ctx, examID, qs)
	if err != nil {
		return nil, err
	}
	return e.Questions, nil
}

func (b StoreBackend) PutStatus(ctx context.Context, examID string, to exam.Status) error {
	_, err := b.Store.SetStatus(ctx, examID, to)
	return err
}

func (b StoreBackend) ActiveSessions(ctx context.Context, examID string) ([]exam.Attempt, error) {
	return b.Store.ListAttempts(ctx, exam.AttemptListOpts{ExamID: examID, Status: exam.AttemptInProgress})
}

func (b StoreBackend) Import(ctx context.Context, examID, _ string, body io.Reader, size int64, progress func(pct int)) (exam.ImportResult, error) {
	rows, err := txtimport.Parse(NewProgressReader(body, size, progress))
	if err != nil {
		return exam.ImportResult{}, err
	}
	return b.Store.AppendImported(ctx, examID, rows)
}

// ProgressReader reports how much of a body of known size has been read,
// as a percentage. Each percentage is reported at most once and 100 is
// reported at EOF even when size was wrong.
type ProgressReader struct {
	r        io.Reader
	size     int64
	progress func(pct int)

	mu   sync.Mutex
	read int64
	last int
}

func NewProgressReader(r io.Reader, size int64, progress func(pct int)) *ProgressReader {
	if progress == nil {
		progress = func(int) {}
	}
	return &ProgressReader{r: r, size: size, progress: progress, last: -1}
}

func (p *ProgressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.mu.Lock()
	p.read += int64(n)
	pct := p.last
	switch {
	case err == io.EOF:
		pct = 100
	case p.size > 0:
		pct = min(int(p.read*100/p.size), 99)
	}
	report := pct > p.last
	if report {
		p.last = pct
	}
	p.mu.Unlock()
	if report {
		p.progress(pct)
	}
	return n, err
}
