package exam

import "math"

// DeltaKind names the hypothetical mutation a Delta describes.
type DeltaKind int

const (
	DeltaAdd DeltaKind = iota
	DeltaUpdate
	DeltaRemove
)

// Delta is a candidate change to a question collection, evaluated by the
// ledger before the editor commits anything.
type Delta struct {
	Kind       DeltaKind
	QuestionID string  // update/remove
	Score      float64 // add: new question's score; update: replacement score
}

func AddDelta(score float64) Delta { return Delta{Kind: DeltaAdd, Score: score} }

func UpdateDelta(id string, score float64) Delta {
	return Delta{Kind: DeltaUpdate, QuestionID: id, Score: score}
}

func RemoveDelta(id string) Delta { return Delta{Kind: DeltaRemove, QuestionID: id} }

func scoreOf(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// CurrentTotal sums question scores; unusable values count as zero.
func CurrentTotal(qs []Question) float64 {
	total := 0.0
	for _, q := range qs {
		total += scoreOf(q.Score)
	}
	return total
}

// Stats summarises a question collection by type.
type Stats struct {
	TotalCount          int     `json:"total_count"`
	SingleChoiceCount   int     `json:"single_choice_count"`
	MultipleChoiceCount int     `json:"multiple_choice_count"`
	TrueFalseCount      int     `json:"true_false_count"`
	FillBlankCount      int     `json:"fill_blank_count"`
	EssayCount          int     `json:"essay_count"`
	TotalScore          float64 `json:"total_score"`
}

// QuestionStats counts qs per type. Questions of an unknown type count only
// toward TotalCount; TotalScore is CurrentTotal.
func QuestionStats(qs []Question) Stats {
	st := Stats{TotalCount: len(qs), TotalScore: CurrentTotal(qs)}
	for _, q := range qs {
		switch q.Type {
		case SingleChoice:
			st.SingleChoiceCount++
		case MultipleChoice:
			st.MultipleChoiceCount++
		case TrueFalse:
			st.TrueFalseCount++
		case FillBlank:
			st.FillBlankCount++
		case Essay:
			st.EssayCount++
		}
	}
	return st
}

// Project returns the total the collection would have after d.
// Update and remove deltas naming an unknown question leave the total as is.
func Project(qs []Question, d Delta) float64 {
	total := CurrentTotal(qs)
	switch d.Kind {
	case DeltaAdd:
		return total + scoreOf(d.Score)
	case DeltaUpdate:
		if i := IndexOf(qs, d.QuestionID); i >= 0 {
			return total - scoreOf(qs[i].Score) + scoreOf(d.Score)
		}
	case DeltaRemove:
		if i := IndexOf(qs, d.QuestionID); i >= 0 {
			return total - scoreOf(qs[i].Score)
		}
	}
	return total
}

// WouldExceed reports whether applying d pushes the total strictly past
// examTotal. Hitting the cap exactly is allowed.
func WouldExceed(qs []Question, d Delta, examTotal float64) bool {
	return Project(qs, d) > scoreOf(examTotal)
}

// CheckCap is WouldExceed returning a *CapError for display.
func CheckCap(qs []Question, d Delta, examTotal float64) error {
	projected := Project(qs, d)
	if projected > scoreOf(examTotal) {
		return &CapError{Projected: projected, Allowed: scoreOf(examTotal)}
	}
	return nil
}
