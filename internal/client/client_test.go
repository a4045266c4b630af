package client_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/mind-engage/mindengage-authoring/internal/api/http"
	auth "github.com/mind-engage/mindengage-authoring/internal/auth/middleware"
	"github.com/mind-engage/mindengage-authoring/internal/authoring"
	"github.com/mind-engage/mindengage-authoring/internal/client"
	"github.com/mind-engage/mindengage-authoring/internal/exam"
	"github.com/mind-engage/mindengage-authoring/internal/storage"
)

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type server struct {
	url   string
	store exam.Store
	auth  *auth.AuthService
}

func newServer(t *testing.T) *server {
	t.Helper()
	bs, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)
	s := &server{store: exam.NewInMemoryStore(), auth: auth.NewAuthService("test")}
	r := chi.NewRouter()
	api.Mount(r, api.Deps{
		Store:     s.store,
		Blobs:     bs,
		Auth:      s.auth,
		Logins:    auth.Logins{DevLogin: true},
		LocalAuth: true,
		Log:       quiet(),
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	s.url = srv.URL
	return s
}

func (s *server) teacher(t *testing.T) *client.Client {
	ts := client.PasswordTokenSource(context.Background(), s.url, "teacher", "teacher")
	return client.New(s.url, ts, client.WithLogger(quiet()))
}

func (s *server) exam(t *testing.T, c *client.Client, total float64) exam.Exam {
	t.Helper()
	e, err := c.CreateExam(context.Background(), exam.Exam{
		Title: "Ladder safety", DurationMin: 20, TotalScore: total, PassScore: total / 2,
	})
	require.NoError(t, err)
	return e
}

func choice(content string, score float64) exam.Question {
	return exam.Question{ID: exam.NewTempID(), Type: exam.SingleChoice, Content: content,
		Options: []string{"yes", "no"}, CorrectAnswer: "A", Score: score}
}

func TestSessionOverHTTP(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	c := srv.teacher(t)
	e := srv.exam(t, c, 20)

	var (
		mu   sync.Mutex
		errs []error
	)
	s, err := authoring.Open(ctx, c, e.ID, authoring.Options{
		Delay:  10 * time.Millisecond,
		Logger: quiet(),
		OnError: func(err error) {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	ed := s.Editor()
	_, err = ed.Add(ctx, choice("Check the feet first?", 10))
	require.NoError(t, err)
	qs, err := ed.Add(ctx, choice("Three points of contact?", 10))
	require.NoError(t, err)
	require.Len(t, qs, 2)
	for _, q := range qs {
		assert.False(t, exam.IsTempID(q.ID), "server id adopted: %s", q.ID)
	}

	_, err = ed.Add(ctx, choice("One too many", 5))
	var ce *exam.CapError
	require.ErrorAs(t, err, &ce)

	content := "Inspect the feet before climbing?"
	_, err = ed.Update(ctx, qs[0].ID, exam.QuestionPatch{Content: &content})
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx))

	stored, err := srv.store.GetExam(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, stored.Questions, 2)
	assert.Equal(t, content, stored.Questions[0].Content)

	_, err = ed.Reorder(ctx, 0, 1)
	require.NoError(t, err)
	back, err := ed.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, qs[0].ID, back[0].ID)

	require.NoError(t, s.Transition(ctx, exam.StatusPublished))
	stored, err = srv.store.GetExam(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, exam.StatusPublished, stored.Status)

	title := "Late rename"
	err = s.SaveContent(ctx, "", exam.ContentPatch{Title: &title})
	assert.ErrorIs(t, err, exam.ErrPublishedFrozen)

	_, err = srv.store.NewAttempt(ctx, e.ID, "student-7")
	require.NoError(t, err)
	err = s.Transition(ctx, exam.StatusArchived)
	var ae *exam.ActiveSessionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 1, ae.Active)

	require.NoError(t, s.Close(ctx))
	mu.Lock()
	assert.Empty(t, errs)
	mu.Unlock()
}

func TestErrorTranslation(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	c := srv.teacher(t)

	_, err := c.FetchExam(ctx, "nope")
	assert.ErrorIs(t, err, exam.ErrNotFound)
	assert.True(t, client.IsStatus(err, http.StatusNotFound))

	e := srv.exam(t, c, 10)
	err = c.PutStatus(ctx, e.ID, exam.StatusArchived)
	require.Error(t, err)
	te, ok := exam.ParseTransitionMessage(err.Error())
	require.True(t, ok, err.Error())
	assert.Equal(t, exam.StatusDraft, te.From)
	assert.Equal(t, exam.StatusArchived, te.To)

	_, err = c.PutQuestions(ctx, e.ID, []exam.Question{choice("only", 10)})
	require.NoError(t, err)
	require.NoError(t, c.PutStatus(ctx, e.ID, exam.StatusPublished))
	title := "x"
	err = c.PutContent(ctx, e.ID, exam.ContentPatch{Title: &title})
	assert.ErrorIs(t, err, exam.ErrPublishedFrozen)
}

func TestRemoteTransitionRejection(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	c := srv.teacher(t)
	e := srv.exam(t, c, 10)

	s, err := authoring.Open(ctx, c, e.ID, authoring.Options{Logger: quiet()})
	require.NoError(t, err)
	defer s.Close(ctx)

	// Another editor publishes behind this session's back.
	_, err = c.PutQuestions(ctx, e.ID, []exam.Question{choice("only", 10)})
	require.NoError(t, err)
	require.NoError(t, c.PutStatus(ctx, e.ID, exam.StatusPublished))

	err = s.Transition(ctx, exam.StatusPublished)
	var te *exam.TransitionError
	require.ErrorAs(t, err, &te)
	assert.True(t, te.Remote)
	assert.Equal(t, exam.StatusPublished, te.From)
}

func TestImportWithProgress(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	c := srv.teacher(t)
	e := srv.exam(t, c, 100)

	s, err := authoring.Open(ctx, c, e.ID, authoring.Options{Logger: quiet()})
	require.NoError(t, err)
	defer s.Close(ctx)

	file := strings.Repeat("Is the ladder rated?\nA. yes\nB. no\nAnswer: A\nScore: 5\n---\n", 4)
	var pcts []int
	res, err := s.Import(ctx, "ladder.txt", strings.NewReader(file), int64(len(file)), func(p int) {
		pcts = append(pcts, p)
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res.SuccessCount)
	assert.Zero(t, res.FailedCount)
	require.NotEmpty(t, pcts)
	assert.Equal(t, 100, pcts[len(pcts)-1])
	assert.IsIncreasing(t, pcts)

	assert.Len(t, s.Questions(), 4)
	assert.False(t, s.Editor().CanUndo())
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)

	bad := client.New(srv.url, client.PasswordTokenSource(ctx, srv.url, "teacher", "guess"), client.WithLogger(quiet()))
	_, err := bad.CreateExam(ctx, exam.Exam{Title: "x"})
	assert.True(t, client.IsStatus(err, http.StatusUnauthorized), "%v", err)

	tok, err := srv.auth.IssueJWT("stu", "student")
	require.NoError(t, err)
	stu := client.New(srv.url, client.StaticToken(tok), client.WithLogger(quiet()))
	_, err = stu.CreateExam(ctx, exam.Exam{Title: "x", DurationMin: 1, TotalScore: 1})
	assert.True(t, client.IsStatus(err, http.StatusForbidden), "%v", err)

	anon := client.New(srv.url, nil, client.WithLogger(quiet()))
	_, err = anon.FetchExam(ctx, "any")
	assert.True(t, client.IsStatus(err, http.StatusUnauthorized))
	assert.False(t, errors.Is(err, exam.ErrNotFound))
}
