package authoring

import (
	"sync"

	"github.com/mind-engage/mindengage-authoring/internal/exam"
)

// DefaultHistoryLimit bounds the undo stack of a session.
const DefaultHistoryLimit = 50

// History is a bounded stack of prior collections. When full, the oldest
// snapshot is dropped. A limit of zero or less means unbounded.
type History struct {
	mu    sync.Mutex
	limit int
	stack [][]exam.Question
}

func NewHistory(limit int) *History { return &History{limit: limit} }

func (h *History) Push(qs []exam.Question) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stack = append(h.stack, exam.CloneQuestions(qs))
	if h.limit > 0 && len(h.stack) > h.limit {
		h.stack = append(h.stack[:0:0], h.stack[len(h.stack)-h.limit:]...)
	}
}

func (h *History) Pop() ([]exam.Question, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.stack) == 0 {
		return nil, false
	}
	top := h.stack[len(h.stack)-1]
	h.stack = h.stack[:len(h.stack)-1]
	return top, true
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.stack)
}

func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stack = nil
}

func (h *History) RenameIDs(m map[string]string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, snap := range h.stack {
		for i := range snap {
			if id, ok := m[snap[i].ID]; ok {
				snap[i].ID = id
			}
		}
	}
}

// restoreOrder puts cur into the order recorded in snap. Field values come
// from cur, questions missing from cur are not resurrected, and questions
// added since the snapshot keep their relative order at the end.
func restoreOrder(cur, snap []exam.Question) []exam.Question {
	byID := make(map[string]exam.Question, len(cur))
	for _, q := range cur {
		byID[q.ID] = q
	}
	out := make([]exam.Question, 0, len(cur))
	placed := map[string]bool{}
	for _, s := range snap {
		if q, ok := byID[s.ID]; ok && !placed[s.ID] {
			out = append(out, q)
			placed[s.ID] = true
		}
	}
	for _, q := range cur {
		if !placed[q.ID] {
			out = append(out, q)
		}
	}
	return out
}
