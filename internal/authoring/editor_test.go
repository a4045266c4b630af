package authoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-authoring/internal/exam"
)

const never = time.Hour

func ids(qs []exam.Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}

func TestAddRejectsOverCap(t *testing.T) {
	f := newFake(draftExam(100))
	s := openSession(t, f, never)
	ctx := context.Background()

	_, err := s.Editor().Add(ctx, choice("", 40))
	require.NoError(t, err)
	_, err = s.Editor().Add(ctx, choice("", 40))
	require.NoError(t, err)

	_, err = s.Editor().Add(ctx, choice("", 30))
	var ce *exam.CapError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 110.0, ce.Projected)
	assert.Equal(t, 100.0, ce.Allowed)

	qs := s.Questions()
	require.Len(t, qs, 2)
	assert.Equal(t, 80.0, exam.CurrentTotal(qs))
	assert.Len(t, f.Puts(), 2, "rejected add must not reach the backend")
}

func TestAddAssignsOrderAndAdoptsServerID(t *testing.T) {
	f := newFake(draftExam(100, choice("q_a", 10)))
	s := openSession(t, f, never)

	qs, err := s.Editor().Add(context.Background(), choice("ignored", 10))
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, 2, qs[1].OrderNum)
	assert.Equal(t, "q_1", qs[1].ID)

	sent := f.Puts()[0]
	assert.True(t, exam.IsTempID(sent[1].ID), "new questions go out with a temp id")
}

func TestAddRejectsInvalidShape(t *testing.T) {
	f := newFake(draftExam(100))
	s := openSession(t, f, never)

	q := choice("", 10)
	q.CorrectAnswer = "C"
	_, err := s.Editor().Add(context.Background(), q)
	var ve *exam.ValidationError
	require.ErrorAs(t, err, &ve)

	essay := exam.Question{Type: exam.Essay, Content: "why", Score: 10}
	_, err = s.Editor().Add(context.Background(), essay)
	require.ErrorAs(t, err, &ve)
	assert.Empty(t, f.Puts())
}

func TestUpdateScoreCap(t *testing.T) {
	f := newFake(draftExam(100, choice("q_a", 10), choice("q_b", 80)))
	s := openSession(t, f, never)
	ctx := context.Background()

	_, err := s.Editor().Update(ctx, "q_a", exam.QuestionPatch{Score: exam.Ptr(30.0)})
	var ce *exam.CapError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 110.0, ce.Projected)

	qs, err := s.Editor().Update(ctx, "q_a", exam.QuestionPatch{Score: exam.Ptr(20.0)})
	require.NoError(t, err)
	assert.Equal(t, 100.0, exam.CurrentTotal(qs))
	assert.Equal(t, 1, qs[0].OrderNum, "update keeps order_num")
	assert.Empty(t, f.Puts(), "field edits wait for autosave")
}

func TestUpdateCapSeesPendingEdits(t *testing.T) {
	f := newFake(draftExam(100, choice("q_a", 10), choice("q_b", 10)))
	s := openSession(t, f, never)
	ctx := context.Background()

	_, err := s.Editor().Update(ctx, "q_a", exam.QuestionPatch{Score: exam.Ptr(60.0)})
	require.NoError(t, err)
	_, err = s.Editor().Update(ctx, "q_b", exam.QuestionPatch{Score: exam.Ptr(50.0)})
	var ce *exam.CapError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 110.0, ce.Projected)

	_, err = s.Editor().Add(ctx, choice("", 35))
	require.ErrorAs(t, err, &ce)
}

func TestUpdateRejectsBadInput(t *testing.T) {
	f := newFake(draftExam(100, choice("q_a", 10)))
	s := openSession(t, f, never)
	ctx := context.Background()

	_, err := s.Editor().Update(ctx, "missing", exam.QuestionPatch{Content: exam.Ptr("x")})
	assert.ErrorIs(t, err, exam.ErrQuestionNotFound)

	var ve *exam.ValidationError
	_, err = s.Editor().Update(ctx, "q_a", exam.QuestionPatch{Score: exam.Ptr(-1.0)})
	assert.ErrorAs(t, err, &ve)
	_, err = s.Editor().Update(ctx, "q_a", exam.QuestionPatch{Type: exam.Ptr(exam.FillBlank)})
	assert.ErrorAs(t, err, &ve)
}

func TestUpdateRejectsBrokenAnswerKey(t *testing.T) {
	multi := choice("q_m", 10)
	multi.Type = exam.MultipleChoice
	multi.Options = []string{"a", "b", "c"}
	multi.CorrectAnswer = "AC"
	ctx := context.Background()
	store := exam.NewInMemoryStore()
	e, err := store.CreateExam(ctx, draftExam(100, choice("q_a", 10), multi))
	require.NoError(t, err)
	s, err := Open(ctx, StoreBackend{Store: store}, e.ID, Options{Delay: never, Logger: quietLog()})
	require.NoError(t, err)

	cases := map[string]struct {
		id string
		p  exam.QuestionPatch
	}{
		"answer outside options":      {"q_a", exam.QuestionPatch{CorrectAnswer: exam.Ptr("Z")}},
		"options cleared":             {"q_a", exam.QuestionPatch{Options: &[]string{}}},
		"single choice with two keys": {"q_m", exam.QuestionPatch{Type: exam.Ptr(exam.SingleChoice)}},
		"options shrunk under answer": {"q_m", exam.QuestionPatch{Options: &[]string{"a", "b"}}},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.Editor().Update(ctx, c.id, c.p)
			var ve *exam.ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
	assert.False(t, s.auto.HasPending(), "rejected edits are not queued")

	_, err = s.Editor().Update(ctx, "q_m", exam.QuestionPatch{
		Type: exam.Ptr(exam.SingleChoice), CorrectAnswer: exam.Ptr("b"),
	})
	require.NoError(t, err, "type and key changed together")

	qs, err := s.Editor().Add(ctx, choice("", 10))
	require.NoError(t, err, "later saves still go through")
	assert.Len(t, qs, 3)
	require.NoError(t, s.Save(ctx))

	stored, err := store.GetExam(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, exam.SingleChoice, stored.Questions[1].Type)
	assert.Equal(t, "B", stored.Questions[1].CorrectAnswer)
}

func TestRemoveKeepsOrderNumbers(t *testing.T) {
	f := newFake(draftExam(100, choice("q_a", 10), choice("q_b", 10), choice("q_c", 10)))
	s := openSession(t, f, never)

	qs, err := s.Editor().Remove(context.Background(), "q_b")
	require.NoError(t, err)
	assert.Equal(t, []string{"q_a", "q_c"}, ids(qs))
	assert.Equal(t, 3, f.Puts()[0][1].OrderNum)

	_, err = s.Editor().Remove(context.Background(), "q_b")
	assert.ErrorIs(t, err, exam.ErrQuestionNotFound)
	assert.Len(t, f.Puts(), 1)
}

func TestReorderUndoRoundTrip(t *testing.T) {
	f := newFake(draftExam(100, choice("q_a", 10), choice("q_b", 20), choice("q_c", 30), choice("q_d", 40)))
	s := openSession(t, f, never)
	ctx := context.Background()
	orig := s.Questions()

	for i := range orig {
		for j := range orig {
			_, err := s.Editor().Reorder(ctx, i, j)
			require.NoError(t, err)
			_, err = s.Editor().Undo(ctx)
			require.NoError(t, err)
			assert.Equal(t, orig, s.Questions(), "reorder(%d,%d) then undo", i, j)
		}
	}
}

func TestReorderMoves(t *testing.T) {
	f := newFake(draftExam(100, choice("q_a", 10), choice("q_b", 20), choice("q_c", 30)))
	s := openSession(t, f, never)
	ctx := context.Background()

	qs, err := s.Editor().Reorder(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"q_b", "q_c", "q_a"}, ids(qs))
	assert.True(t, s.Editor().CanUndo())

	_, err = s.Editor().Reorder(ctx, 0, 3)
	assert.ErrorIs(t, err, exam.ErrIndexOutOfRange)
	_, err = s.Editor().Reorder(ctx, -1, 0)
	assert.ErrorIs(t, err, exam.ErrIndexOutOfRange)
}

func TestUndoEmptyHistoryIsNoop(t *testing.T) {
	f := newFake(draftExam(100, choice("q_a", 10)))
	s := openSession(t, f, never)

	qs, err := s.Editor().Undo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"q_a"}, ids(qs))
	assert.Empty(t, f.Puts())
}

func TestPublishedIsFrozen(t *testing.T) {
	e := draftExam(100, choice("q_a", 50), choice("q_b", 50))
	e.Status = exam.StatusPublished
	f := newFake(e)
	s := openSession(t, f, never)
	ctx := context.Background()

	_, err := s.Editor().Reorder(ctx, 0, 1)
	assert.ErrorIs(t, err, exam.ErrOrderingFrozen)
	_, err = s.Editor().Undo(ctx)
	assert.ErrorIs(t, err, exam.ErrOrderingFrozen)
	_, err = s.Editor().Add(ctx, choice("", 1))
	assert.ErrorIs(t, err, exam.ErrPublishedFrozen)
	_, err = s.Editor().Update(ctx, "q_a", exam.QuestionPatch{Content: exam.Ptr("x")})
	assert.ErrorIs(t, err, exam.ErrPublishedFrozen)
	_, err = s.Editor().Remove(ctx, "q_a")
	assert.ErrorIs(t, err, exam.ErrPublishedFrozen)
	_, err = s.Editor().InsertFromExternalSource(ctx, choice("", 1), 0)
	assert.ErrorIs(t, err, exam.ErrPublishedFrozen)

	assert.Equal(t, []string{"fetch"}, f.Calls())
}

func TestInsertFromExternalSource(t *testing.T) {
	f := newFake(draftExam(100, choice("q_a", 10), choice("q_b", 10)))
	s := openSession(t, f, never)
	ctx := context.Background()

	bank := choice("bank-7", 0)
	qs, err := s.Editor().InsertFromExternalSource(ctx, bank, 1)
	require.NoError(t, err)
	require.Len(t, qs, 3)
	assert.Equal(t, []string{"q_a", "q_1", "q_b"}, ids(qs))
	assert.Equal(t, float64(DefaultBankScore), qs[1].Score)
	assert.Equal(t, 2, f.Puts()[0][1].OrderNum)

	qs, err = s.Editor().InsertFromExternalSource(ctx, choice("bank-8", 5), 99)
	require.NoError(t, err)
	assert.Equal(t, "q_2", qs[3].ID)

	_, err = s.Editor().InsertFromExternalSource(ctx, choice("bank-9", 80), 0)
	var ce *exam.CapError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 115.0, ce.Projected)
}

func TestPersistFailureKeepsLocalState(t *testing.T) {
	f := newFake(draftExam(100))
	f.putErr = errors.New("connection reset")
	s := openSession(t, f, never)
	ctx := context.Background()

	qs, err := s.Editor().Add(ctx, choice("", 10))
	var pe *exam.PersistError
	require.ErrorAs(t, err, &pe)
	require.Len(t, qs, 1)
	assert.True(t, exam.IsTempID(qs[0].ID))
	assert.Len(t, s.Questions(), 1)

	f.set(func(f *fakeBackend) { f.putErr = nil })
	require.NoError(t, s.Save(ctx))
	require.Len(t, f.Puts(), 1)
	assert.Equal(t, "q_1", s.Questions()[0].ID)

	require.NoError(t, s.Save(ctx))
	assert.Len(t, f.Puts(), 1, "an unchanged collection is not written twice")
}
