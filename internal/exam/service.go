package exam

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu       sync.RWMutex
	exams    map[string]Exam
	attempts map[string]Attempt
	order    []string // attempt ids in creation order
}

// NewInMemoryStore returns a Store kept in process memory, for dev and tests.
func NewInMemoryStore() Store {
	return &memoryStore{
		exams:    map[string]Exam{},
		attempts: map[string]Attempt{},
	}
}

func (m *memoryStore) CreateExam(_ context.Context, e Exam) (Exam, error) {
	e.Status = StatusDraft
	if err := ValidateExam(e); err != nil {
		return Exam{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(e.Questions) > 0 {
		qs, err := PrepareQuestions(e, e.Questions)
		if err != nil {
			return Exam{}, err
		}
		e.Questions = qs
	}
	e.QuestionCount = len(e.Questions)
	now := time.Now().Unix()
	e.CreatedAt, e.UpdatedAt = now, now
	m.exams[e.ID] = e
	return cloneExam(e), nil
}

func (m *memoryStore) GetExam(_ context.Context, id string) (Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.exams[id]
	if !ok {
		return Exam{}, ErrNotFound
	}
	return cloneExam(e), nil
}

func (m *memoryStore) UpdateContent(_ context.Context, id string, p ContentPatch) (Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[id]
	if !ok {
		return Exam{}, ErrNotFound
	}
	next, err := ApplyContent(e, p)
	if err != nil {
		return Exam{}, err
	}
	next.UpdatedAt = time.Now().Unix()
	m.exams[id] = next
	return cloneExam(next), nil
}

func (m *memoryStore) PutQuestions(_ context.Context, id string, qs []Question) (Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[id]
	if !ok {
		return Exam{}, ErrNotFound
	}
	prepared, err := PrepareQuestions(e, qs)
	if err != nil {
		return Exam{}, err
	}
	e.Questions = prepared
	e.QuestionCount = len(prepared)
	e.UpdatedAt = time.Now().Unix()
	m.exams[id] = e
	return cloneExam(e), nil
}

func (m *memoryStore) SetStatus(_ context.Context, id string, to Status) (Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[id]
	if !ok {
		return Exam{}, ErrNotFound
	}
	next, err := ApplyStatus(e, to)
	if err != nil {
		return Exam{}, err
	}
	next.UpdatedAt = time.Now().Unix()
	m.exams[id] = next
	return cloneExam(next), nil
}

func (m *memoryStore) AppendImported(_ context.Context, id string, rows []ImportRow) (ImportResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[id]
	if !ok {
		return ImportResult{}, ErrNotFound
	}
	next, res := MergeImport(e, rows)
	next.UpdatedAt = time.Now().Unix()
	m.exams[id] = next
	return res, nil
}

func (m *memoryStore) NewAttempt(_ context.Context, examID, userID string) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exams[examID]; !ok {
		return Attempt{}, ErrNotFound
	}
	a := Attempt{ID: uuid.NewString(), ExamID: examID, UserID: userID, Status: AttemptInProgress}
	m.attempts[a.ID] = a
	m.order = append(m.order, a.ID)
	return a, nil
}

func (m *memoryStore) ListAttempts(_ context.Context, opts AttemptListOpts) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Attempt{}
	skipped := 0
	for _, id := range m.order {
		a := m.attempts[id]
		if opts.ExamID != "" && a.ExamID != opts.ExamID {
			continue
		}
		if opts.UserID != "" && a.UserID != opts.UserID {
			continue
		}
		if opts.Status != "" && a.Status != opts.Status {
			continue
		}
		if skipped < opts.Offset {
			skipped++
			continue
		}
		out = append(out, a)
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}
	return out, nil
}

func cloneExam(e Exam) Exam {
	e.Questions = CloneQuestions(e.Questions)
	if e.Questions == nil {
		e.Questions = []Question{}
	}
	return e
}
