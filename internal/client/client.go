// Package client talks to the exam authoring API over HTTP. Client
// implements authoring.Backend, so an editing session can run against a
// remote server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/mind-engage/mindengage-authoring/internal/authoring"
	"github.com/mind-engage/mindengage-authoring/internal/exam"
)

type Client struct {
	base string
	hc   *http.Client
	log  logrus.FieldLogger
}

var _ authoring.Backend = (*Client)(nil)

type Option func(*Client)

func WithLogger(l logrus.FieldLogger) Option { return func(c *Client) { c.log = l } }

// WithHTTPClient sets the transport used underneath the token source.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.hc = hc } }

// New returns a client for the API at baseURL. Requests carry the bearer
// token from ts; a nil ts sends no credentials.
func New(baseURL string, ts oauth2.TokenSource, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimSuffix(baseURL, "/"),
		hc:   &http.Client{Timeout: 60 * time.Second},
		log:  logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(c)
	}
	if ts != nil {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.hc)
		authed := oauth2.NewClient(ctx, ts)
		authed.Timeout = c.hc.Timeout
		c.hc = authed
	}
	return c
}

// HTTPError is a non-2xx answer. Message is the server's error text.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

// Unwrap exposes the exam sentinel the status and text stand for.
func (e *HTTPError) Unwrap() error {
	switch {
	case e.Status == http.StatusNotFound:
		return exam.ErrNotFound
	case e.Status == http.StatusConflict && strings.Contains(e.Message, exam.ErrPublishedFrozen.Error()):
		return exam.ErrPublishedFrozen
	case e.Status == http.StatusBadRequest && strings.Contains(e.Message, exam.ErrMixedUpdate.Error()):
		return exam.ErrMixedUpdate
	}
	return nil
}

func decodeError(res *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	msg := strings.TrimSpace(string(b))
	var wrapped struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(b, &wrapped) == nil && wrapped.Message != "" {
		msg = wrapped.Message
	}
	return &HTTPError{Status: res.StatusCode, Message: msg}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	start := time.Now()
	res, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	c.log.WithFields(logrus.Fields{
		"method":   req.Method,
		"path":     req.URL.Path,
		"status":   res.StatusCode,
		"duration": time.Since(start),
	}).Debug("api call")

	if res.StatusCode/100 != 2 {
		return decodeError(res)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func examPath(id string, rest ...string) string {
	return "/exams/" + url.PathEscape(id) + strings.Join(rest, "")
}

func (c *Client) CreateExam(ctx context.Context, e exam.Exam) (exam.Exam, error) {
	var out exam.Exam
	err := c.do(ctx, http.MethodPost, "/exams", e, &out)
	return out, err
}

func (c *Client) FetchExam(ctx context.Context, examID string) (exam.Exam, error) {
	var out exam.Exam
	err := c.do(ctx, http.MethodGet, examPath(examID), nil, &out)
	return out, err
}

func (c *Client) PutContent(ctx context.Context, examID string, p exam.ContentPatch) error {
	return c.do(ctx, http.MethodPut, examPath(examID), p, nil)
}

func (c *Client) PutQuestions(ctx context.Context, examID string, qs []exam.Question) ([]exam.Question, error) {
	if qs == nil {
		qs = []exam.Question{}
	}
	var out exam.Exam
	in := struct {
		Questions []exam.Question `json:"questions"`
	}{qs}
	if err := c.do(ctx, http.MethodPut, examPath(examID), in, &out); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

func (c *Client) PutStatus(ctx context.Context, examID string, to exam.Status) error {
	in := map[string]exam.Status{"status": to}
	return c.do(ctx, http.MethodPut, examPath(examID, "/status"), in, nil)
}

func (c *Client) ActiveSessions(ctx context.Context, examID string) ([]exam.Attempt, error) {
	q := url.Values{"exam_id": {examID}, "status": {exam.AttemptInProgress}}
	var out struct {
		Data []exam.Attempt `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/assessment-results?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Import streams body as a multipart upload. progress sees the share of
// body handed to the transport.
func (c *Client) Import(ctx context.Context, examID, filename string, body io.Reader, size int64, progress func(pct int)) (exam.ImportResult, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		fw, err := mw.CreateFormFile("file", filename)
		if err == nil {
			_, err = io.Copy(fw, authoring.NewProgressReader(body, size, progress))
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+examPath(examID, "/import"), pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		return exam.ImportResult{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out exam.ImportResult
	if err := c.send(req, &out); err != nil {
		_ = pr.CloseWithError(err)
		return exam.ImportResult{}, err
	}
	return out, nil
}

// IsStatus reports whether err is an HTTPError with the given code.
func IsStatus(err error, code int) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Status == code
}
