package exam

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func fromValidator(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ValidationError{Field: fe.Field(), Reason: fmt.Sprintf("failed %q (%v)", fe.Tag(), fe.Value())}
	}
	return &ValidationError{Reason: err.Error()}
}

// ValidateExam checks the exam header fields. Questions are not inspected.
func ValidateExam(e Exam) error {
	if err := validate.Struct(e.Header()); err != nil {
		return fromValidator(err)
	}
	if e.Status != "" && !e.Status.Valid() {
		return &ValidationError{Field: "status", Reason: "unknown status " + string(e.Status)}
	}
	return nil
}

// NormalizeQuestion trims text, drops blank options and fills the fixed
// true/false options.
func NormalizeQuestion(q Question) Question {
	q.Content = strings.TrimSpace(q.Content)
	q.CorrectAnswer = strings.ToUpper(strings.TrimSpace(q.CorrectAnswer))
	switch {
	case q.Type == TrueFalse && len(q.Options) == 0:
		q.Options = []string{"True", "False"}
	case q.Type.IsChoice():
		opts := make([]string, 0, len(q.Options))
		for _, o := range q.Options {
			if s := strings.TrimSpace(o); s != "" {
				opts = append(opts, s)
			}
		}
		q.Options = opts
	default:
		q.Options = nil
	}
	return q
}

// ValidateQuestion checks field constraints and that the correct answer
// references existing options.
func ValidateQuestion(q Question) error {
	if err := validate.Struct(q); err != nil {
		return fromValidator(err)
	}
	if math.IsNaN(q.Score) || math.IsInf(q.Score, 0) {
		return &ValidationError{Field: "score", Reason: "not a number"}
	}
	if !q.Type.IsChoice() {
		if len(q.Options) > 0 {
			return &ValidationError{Field: "options", Reason: string(q.Type) + " questions take no options"}
		}
		return nil
	}
	if len(q.Options) < 2 {
		return &ValidationError{Field: "options", Reason: "at least two options required"}
	}
	letters := q.CorrectAnswer
	if letters == "" {
		return &ValidationError{Field: "correct_answer", Reason: "required for choice questions"}
	}
	if q.Type != MultipleChoice && len(letters) != 1 {
		return &ValidationError{Field: "correct_answer", Reason: "exactly one option letter expected"}
	}
	seen := map[rune]bool{}
	for _, r := range letters {
		idx := int(r - 'A')
		if r < 'A' || r > 'Z' || idx >= len(q.Options) {
			return &ValidationError{Field: "correct_answer", Reason: fmt.Sprintf("%q does not reference an option", r)}
		}
		if seen[r] {
			return &ValidationError{Field: "correct_answer", Reason: fmt.Sprintf("%q repeated", r)}
		}
		seen[r] = true
	}
	return nil
}

// ValidatePublishable reports why an exam cannot be published: it needs at
// least one question and a question total matching the exam total.
func ValidatePublishable(e Exam) error {
	if len(e.Questions) == 0 {
		return &ValidationError{Field: "questions", Reason: "exam must contain at least one question"}
	}
	sum := CurrentTotal(e.Questions)
	if math.Abs(sum-e.TotalScore) > 0.01 {
		return &ValidationError{Field: "total_score", Reason: fmt.Sprintf("question total %.2f does not match exam total %.2f", sum, e.TotalScore)}
	}
	return nil
}
