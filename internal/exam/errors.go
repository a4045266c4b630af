package exam

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	ErrNotFound         = errors.New("exam not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrPublishedFrozen  = errors.New("published exams cannot be edited")
	ErrOrderingFrozen   = errors.New("published exams cannot be reordered")
	ErrIndexOutOfRange  = errors.New("question index out of range")
	ErrMixedUpdate      = errors.New("content fields and questions must be saved separately")
)

// CapError reports a mutation rejected by the score ledger.
type CapError struct {
	Projected float64
	Allowed   float64
}

func (e *CapError) Error() string {
	return fmt.Sprintf("question total %.2f exceeds exam total %.2f", e.Projected, e.Allowed)
}

// TransitionError reports a status pair outside the transition table.
// Remote is set when the backend rejected the pair rather than the local check.
type TransitionError struct {
	From   Status
	To     Status
	Remote bool
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("not from %s to %s", e.From, e.To)
}

// Message renders the transition direction for an end user.
func (e *TransitionError) Message() string {
	if e.From == e.To {
		return fmt.Sprintf("exam is already %s, nothing to change", e.From)
	}
	return fmt.Sprintf("cannot change status from %s to %s", e.From, e.To)
}

// ActiveSessionError blocks a transition while attempts are running.
type ActiveSessionError struct {
	ExamID string
	Active int
}

func (e *ActiveSessionError) Error() string {
	return fmt.Sprintf("cannot change status while an attempt is active (exam %s, %d active)", e.ExamID, e.Active)
}

// GuardError means the active-session query itself failed; the transition
// is blocked because activity could not be ruled out.
type GuardError struct {
	ExamID string
	Err    error
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("cannot verify active attempts for exam %s: %v", e.ExamID, e.Err)
}

func (e *GuardError) Unwrap() error { return e.Err }

// PersistError wraps a failed write. Local state is kept as-is.
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *PersistError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

var transitionMsg = regexp.MustCompile(`not from (\w+) to (\w+)`)

// ParseTransitionMessage recovers the status pair from a backend
// "not from X to Y" message.
func ParseTransitionMessage(msg string) (*TransitionError, bool) {
	m := transitionMsg.FindStringSubmatch(msg)
	if m == nil {
		return nil, false
	}
	return &TransitionError{From: Status(m[1]), To: Status(m[2]), Remote: true}, true
}
