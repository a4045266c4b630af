package exam

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewQuestionID returns a server-side question id.
func NewQuestionID() string { return "q_" + uuid.NewString() }

// NewTempID returns a placeholder id for a question not yet persisted.
func NewTempID() string { return TempIDPrefix + uuid.NewString() }

func IsTempID(id string) bool { return id == "" || strings.HasPrefix(id, TempIDPrefix) }

// PrepareQuestions validates a full replacement collection for e and
// returns it normalised: real ids assigned, order_num renumbered by position.
func PrepareQuestions(e Exam, qs []Question) ([]Question, error) {
	if e.Status == StatusPublished {
		return nil, ErrPublishedFrozen
	}
	out := make([]Question, 0, len(qs))
	seen := map[string]bool{}
	for i, q := range qs {
		q = NormalizeQuestion(q)
		if err := ValidateQuestion(q); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		if IsTempID(q.ID) || seen[q.ID] {
			q.ID = NewQuestionID()
		}
		seen[q.ID] = true
		q.OrderNum = i + 1
		out = append(out, q)
	}
	if total := CurrentTotal(out); total > e.TotalScore {
		return nil, &CapError{Projected: total, Allowed: e.TotalScore}
	}
	return out, nil
}

// ApplyContent returns e with p applied, rejecting edits to published exams
// and totals that fall below the questions already assigned.
func ApplyContent(e Exam, p ContentPatch) (Exam, error) {
	if e.Status == StatusPublished {
		return Exam{}, ErrPublishedFrozen
	}
	next := p.Apply(e)
	if err := ValidateExam(next); err != nil {
		return Exam{}, err
	}
	if total := CurrentTotal(next.Questions); total > next.TotalScore {
		return Exam{}, &CapError{Projected: total, Allowed: next.TotalScore}
	}
	return next, nil
}

// ApplyStatus validates moving e into to, including the publish checks.
func ApplyStatus(e Exam, to Status) (Exam, error) {
	if !to.Valid() {
		return Exam{}, &ValidationError{Field: "status", Reason: "unknown status " + string(to)}
	}
	if err := CheckTransition(e.Status, to); err != nil {
		return Exam{}, err
	}
	if to == StatusPublished {
		if err := ValidatePublishable(e); err != nil {
			return Exam{}, err
		}
	}
	e.Status = to
	return e, nil
}

// MergeImport appends every row that validates and fits under the score
// cap. Rejected rows are reported, never fatal.
func MergeImport(e Exam, rows []ImportRow) (Exam, ImportResult) {
	res := ImportResult{Errors: []ImportRowError{}}
	if e.Status == StatusPublished {
		for _, r := range rows {
			res.FailedCount++
			res.Errors = append(res.Errors, ImportRowError{Row: r.Row, Message: ErrPublishedFrozen.Error()})
		}
		res.TotalQuestions = len(e.Questions)
		return e, res
	}
	qs := CloneQuestions(e.Questions)
	for _, r := range rows {
		q := NormalizeQuestion(r.Question)
		if err := ValidateQuestion(q); err != nil {
			res.FailedCount++
			res.Errors = append(res.Errors, ImportRowError{Row: r.Row, Message: err.Error()})
			continue
		}
		if err := CheckCap(qs, AddDelta(q.Score), e.TotalScore); err != nil {
			res.FailedCount++
			res.Errors = append(res.Errors, ImportRowError{Row: r.Row, Message: err.Error()})
			continue
		}
		q.ID = NewQuestionID()
		q.OrderNum = len(qs) + 1
		qs = append(qs, q)
		res.SuccessCount++
	}
	e.Questions = qs
	e.QuestionCount = len(qs)
	res.TotalQuestions = len(qs)
	return e, res
}
