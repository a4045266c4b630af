package exam

var transitions = map[Status][]Status{
	StatusDraft:     {StatusPublished},
	StatusPublished: {StatusArchived},
	StatusArchived:  {StatusPublished},
}

// AllowedTransitions lists the statuses reachable from s.
func AllowedTransitions(s Status) []Status {
	return append([]Status(nil), transitions[s]...)
}

// CheckTransition validates from->to against the transition table. A
// same-status request is not a transition and is rejected too.
func CheckTransition(from, to Status) error {
	for _, s := range transitions[from] {
		if s == to {
			return nil
		}
	}
	return &TransitionError{From: from, To: to}
}

// Guarded reports whether moving into to requires the active-attempt check.
// Draft is unreachable through the table but is still guarded.
func Guarded(to Status) bool {
	return to == StatusArchived || to == StatusDraft
}
