package authoring

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-authoring/internal/exam"
)

// fakeBackend records every call. PutQuestions assigns "q_<n>" ids to temp
// questions the way the server does.
type fakeBackend struct {
	mu    sync.Mutex
	exam  exam.Exam
	calls []string
	puts  [][]exam.Question

	active    []exam.Attempt
	activeErr error
	putErr    error
	statusErr error
	imported  []exam.Question
	importRes exam.ImportResult

	// gate, when set, holds PutQuestions until it is closed.
	gate        chan struct{}
	inflight    int
	maxInflight int
	nextID      int
}

func newFake(e exam.Exam) *fakeBackend {
	if e.ID == "" {
		e.ID = "exam-1"
	}
	if e.Status == "" {
		e.Status = exam.StatusDraft
	}
	return &fakeBackend{exam: e}
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) Puts() [][]exam.Question {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]exam.Question(nil), f.puts...)
}

func (f *fakeBackend) Inflight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inflight
}

func (f *fakeBackend) set(fn func(f *fakeBackend)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeBackend) FetchExam(_ context.Context, _ string) (exam.Exam, error) {
	f.record("fetch")
	f.mu.Lock()
	defer f.mu.Unlock()
	e := f.exam
	e.Questions = exam.CloneQuestions(f.exam.Questions)
	return e, nil
}

func (f *fakeBackend) PutContent(_ context.Context, _ string, p exam.ContentPatch) error {
	f.record("content")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exam = p.Apply(f.exam)
	return nil
}

func (f *fakeBackend) PutQuestions(_ context.Context, _ string, qs []exam.Question) ([]exam.Question, error) {
	f.record("questions")
	f.mu.Lock()
	f.inflight++
	f.maxInflight = max(f.maxInflight, f.inflight)
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inflight--
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.puts = append(f.puts, exam.CloneQuestions(qs))
	stored := exam.CloneQuestions(qs)
	for i := range stored {
		if exam.IsTempID(stored[i].ID) {
			f.nextID++
			stored[i].ID = fmt.Sprintf("q_%d", f.nextID)
		}
		stored[i].OrderNum = i + 1
	}
	f.exam.Questions = stored
	return exam.CloneQuestions(stored), nil
}

func (f *fakeBackend) PutStatus(_ context.Context, _ string, to exam.Status) error {
	f.record("status")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return f.statusErr
	}
	f.exam.Status = to
	return nil
}

func (f *fakeBackend) ActiveSessions(_ context.Context, _ string) ([]exam.Attempt, error) {
	f.record("sessions")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active, f.activeErr
}

func (f *fakeBackend) Import(_ context.Context, _, _ string, body io.Reader, size int64, progress func(pct int)) (exam.ImportResult, error) {
	f.record("import")
	if _, err := io.Copy(io.Discard, NewProgressReader(body, size, progress)); err != nil {
		return exam.ImportResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exam.Questions = append(f.exam.Questions, f.imported...)
	return f.importRes, nil
}

func quietLog() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func choice(id string, score float64) exam.Question {
	return exam.Question{ID: id, Type: exam.SingleChoice, Content: "question " + id,
		Options: []string{"yes", "no"}, CorrectAnswer: "A", Score: score}
}

func draftExam(total float64, qs ...exam.Question) exam.Exam {
	for i := range qs {
		qs[i].OrderNum = i + 1
	}
	return exam.Exam{ID: "exam-1", Title: "Hazards", DurationMin: 30, TotalScore: total,
		PassScore: total / 2, Status: exam.StatusDraft, Questions: qs}
}

func openSession(t *testing.T, f *fakeBackend, delay time.Duration) *Session {
	t.Helper()
	s, err := Open(context.Background(), f, f.exam.ID, Options{Delay: delay, Logger: quietLog()})
	require.NoError(t, err)
	return s
}
