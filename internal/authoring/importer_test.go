package authoring

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-authoring/internal/exam"
)

func TestImportReloadsCollection(t *testing.T) {
	f := newFake(draftExam(100, choice("q_a", 10), choice("q_b", 10)))
	f.imported = []exam.Question{choice("q_x", 20)}
	f.importRes = exam.ImportResult{SuccessCount: 1, FailedCount: 1, TotalQuestions: 3,
		Errors: []exam.ImportRowError{{Row: 2, Message: "question total 110.00 exceeds exam total 100.00"}}}
	s := openSession(t, f, never)
	ctx := context.Background()

	_, err := s.Editor().Reorder(ctx, 0, 1)
	require.NoError(t, err)
	_, err = s.Editor().Update(ctx, "q_a", exam.QuestionPatch{Content: exam.Ptr("pending")})
	require.NoError(t, err)

	var mu sync.Mutex
	var seen []int
	body := strings.Repeat("x", 4096)
	res, err := s.Import(ctx, "questions.txt", strings.NewReader(body), int64(len(body)), func(p int) {
		mu.Lock()
		seen = append(seen, p)
		mu.Unlock()
	})
	require.NoError(t, err)
	assert.True(t, res.Mixed())
	assert.Equal(t, 2, res.Errors[0].Row)

	assert.Equal(t, []string{"fetch", "questions", "questions", "import", "fetch"}, f.Calls())
	assert.Equal(t, []string{"q_b", "q_a", "q_x"}, ids(s.Questions()))
	assert.Equal(t, "pending", s.Questions()[1].Content)
	assert.False(t, s.Editor().CanUndo(), "history does not survive a reload")
	require.NotEmpty(t, seen)
	assert.Equal(t, 100, seen[len(seen)-1])

	require.NoError(t, s.Save(ctx))
	assert.Len(t, f.Puts(), 2, "the reloaded collection counts as saved")
}

func TestImportRejectedWhenPublished(t *testing.T) {
	f := newFake(withStatus(draftExam(100, choice("q_a", 100)), exam.StatusPublished))
	s := openSession(t, f, never)

	_, err := s.Import(context.Background(), "q.txt", bytes.NewReader(nil), 0, nil)
	assert.ErrorIs(t, err, exam.ErrPublishedFrozen)
	assert.Equal(t, []string{"fetch"}, f.Calls())
}

func TestProgressReader(t *testing.T) {
	var got []int
	r := NewProgressReader(strings.NewReader(strings.Repeat("a", 100)), 100, func(p int) { got = append(got, p) })
	buf := make([]byte, 25)
	for {
		if _, err := r.Read(buf); err != nil {
			break
		}
	}
	assert.Equal(t, []int{25, 50, 75, 99, 100}, got)
}

func TestProgressReaderUnknownSize(t *testing.T) {
	var got []int
	r := NewProgressReader(strings.NewReader("abc"), 0, func(p int) { got = append(got, p) })
	buf := make([]byte, 8)
	for {
		if _, err := r.Read(buf); err != nil {
			break
		}
	}
	assert.Equal(t, []int{100}, got)
}

func TestHistoryBounded(t *testing.T) {
	h := NewHistory(2)
	for _, id := range []string{"a", "b", "c"} {
		h.Push([]exam.Question{{ID: id}})
	}
	require.Equal(t, 2, h.Len())
	top, ok := h.Pop()
	require.True(t, ok)
	assert.Equal(t, "c", top[0].ID)
	top, _ = h.Pop()
	assert.Equal(t, "b", top[0].ID)
	_, ok = h.Pop()
	assert.False(t, ok)
}

func TestRestoreOrder(t *testing.T) {
	snap := []exam.Question{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	cur := []exam.Question{{ID: "new"}, {ID: "c", Content: "edited"}, {ID: "a"}}

	got := restoreOrder(cur, snap)
	assert.Equal(t, []string{"a", "c", "new"}, ids(got))
	assert.Equal(t, "edited", got[1].Content)
}
