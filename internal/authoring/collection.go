package authoring

import (
	"sync"

	"github.com/mind-engage/mindengage-authoring/internal/exam"
)

// Collection is the single live question set of an editing session. The
// editor and the autosave pipeline both read it at the moment they act,
// never a copy taken earlier.
type Collection struct {
	mu      sync.RWMutex
	qs      []exam.Question
	version uint64
}

func NewCollection(qs []exam.Question) *Collection {
	return &Collection{qs: exam.CloneQuestions(qs)}
}

// Snapshot returns a deep copy of the current questions.
func (c *Collection) Snapshot() []exam.Question {
	qs, _ := c.SnapshotVersion()
	return qs
}

// SnapshotVersion returns a copy together with the version it was taken at.
func (c *Collection) SnapshotVersion() ([]exam.Question, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := exam.CloneQuestions(c.qs)
	if out == nil {
		out = []exam.Question{}
	}
	return out, c.version
}

func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.qs)
}

// Update replaces the collection with fn's result. fn receives a private
// copy; when it returns an error nothing changes.
func (c *Collection) Update(fn func(qs []exam.Question) ([]exam.Question, error)) ([]exam.Question, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := fn(exam.CloneQuestions(c.qs))
	if err != nil {
		return nil, err
	}
	c.qs = next
	c.version++
	return exam.CloneQuestions(next), nil
}

// Replace installs qs wholesale, e.g. after re-fetching from the backend.
func (c *Collection) Replace(qs []exam.Question) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.qs = exam.CloneQuestions(qs)
	c.version++
}

// RenameIDs swaps temp ids for the ids the backend assigned. The version
// is left alone: the backend already holds these questions.
func (c *Collection) RenameIDs(m map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.qs {
		if id, ok := m[c.qs[i].ID]; ok {
			c.qs[i].ID = id
		}
	}
}

// header guards the exam fields outside the question collection.
type header struct {
	mu sync.RWMutex
	e  exam.Exam
}

func (h *header) get() exam.Exam {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.e
}

func (h *header) set(e exam.Exam) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.e = e.Header()
}

func (h *header) status() exam.Status { return h.get().Status }

func (h *header) setStatus(s exam.Status) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.e.Status = s
}
