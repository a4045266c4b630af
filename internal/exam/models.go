package exam

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type QuestionType string

const (
	SingleChoice   QuestionType = "single_choice"
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	FillBlank      QuestionType = "fill_blank" // display only
	Essay          QuestionType = "essay"      // display only
)

// Authored reports whether the editor can create questions of this type.
func (t QuestionType) Authored() bool {
	return t == SingleChoice || t == MultipleChoice || t == TrueFalse
}

func (t QuestionType) IsChoice() bool { return t.Authored() }

// TempIDPrefix marks questions that have not been persisted yet.
const TempIDPrefix = "temp_"

type Question struct {
	ID            string       `json:"id"`
	Type          QuestionType `json:"type" validate:"required,oneof=single_choice multiple_choice true_false fill_blank essay"`
	Content       string       `json:"content" validate:"required"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer,omitempty"`
	Score         float64      `json:"score" validate:"gt=0"`
	Explanation   string       `json:"explanation,omitempty"`
	OrderNum      int          `json:"order_num"`
}

type Exam struct {
	ID            string     `json:"id"`
	Title         string     `json:"title" validate:"required"`
	Description   string     `json:"description,omitempty"`
	CategoryID    string     `json:"category_id,omitempty"`
	Difficulty    Difficulty `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	DurationMin   int        `json:"duration" validate:"gt=0"`
	TotalScore    float64    `json:"total_score" validate:"gt=0"`
	PassScore     float64    `json:"pass_score" validate:"gte=0,ltefield=TotalScore"`
	Status        Status     `json:"status"`
	QuestionCount int        `json:"question_count"`
	Questions     []Question `json:"questions"`

	CreatedAt int64 `json:"created_at,omitempty"`
	UpdatedAt int64 `json:"updated_at,omitempty"`
}

// Header returns the exam without its question collection.
func (e Exam) Header() Exam {
	e.Questions = nil
	return e
}

// Attempt is an assessment session taken against an exam.
type Attempt struct {
	ID     string `json:"id"`
	ExamID string `json:"exam_id"`
	UserID string `json:"user_id"`
	Status string `json:"status"` // in_progress|submitted|graded
}

const AttemptInProgress = "in_progress"

// ContentPatch carries the exam content fields a caller wants to change.
// Nil fields are left untouched.
type ContentPatch struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	CategoryID  *string     `json:"category_id,omitempty"`
	Difficulty  *Difficulty `json:"difficulty,omitempty"`
	DurationMin *int        `json:"duration,omitempty"`
	TotalScore  *float64    `json:"total_score,omitempty"`
	PassScore   *float64    `json:"pass_score,omitempty"`
}

func (p ContentPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.CategoryID == nil &&
		p.Difficulty == nil && p.DurationMin == nil && p.TotalScore == nil && p.PassScore == nil
}

func (p ContentPatch) Apply(e Exam) Exam {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.CategoryID != nil {
		e.CategoryID = *p.CategoryID
	}
	if p.Difficulty != nil {
		e.Difficulty = *p.Difficulty
	}
	if p.DurationMin != nil {
		e.DurationMin = *p.DurationMin
	}
	if p.TotalScore != nil {
		e.TotalScore = *p.TotalScore
	}
	if p.PassScore != nil {
		e.PassScore = *p.PassScore
	}
	return e
}

// QuestionPatch is a field-level delta for one question. Nil fields are
// left untouched.
type QuestionPatch struct {
	Type          *QuestionType `json:"type,omitempty"`
	Content       *string       `json:"content,omitempty"`
	Options       *[]string     `json:"options,omitempty"`
	CorrectAnswer *string       `json:"correct_answer,omitempty"`
	Score         *float64      `json:"score,omitempty"`
	Explanation   *string       `json:"explanation,omitempty"`
}

func (p QuestionPatch) Empty() bool {
	return p.Type == nil && p.Content == nil && p.Options == nil &&
		p.CorrectAnswer == nil && p.Score == nil && p.Explanation == nil
}

// Merge overlays next on top of p. Fields set in next win; fields only set
// in p survive.
func (p QuestionPatch) Merge(next QuestionPatch) QuestionPatch {
	if next.Type != nil {
		p.Type = next.Type
	}
	if next.Content != nil {
		p.Content = next.Content
	}
	if next.Options != nil {
		p.Options = next.Options
	}
	if next.CorrectAnswer != nil {
		p.CorrectAnswer = next.CorrectAnswer
	}
	if next.Score != nil {
		p.Score = next.Score
	}
	if next.Explanation != nil {
		p.Explanation = next.Explanation
	}
	return p
}

func (p QuestionPatch) Apply(q Question) Question {
	if p.Type != nil {
		q.Type = *p.Type
	}
	if p.Content != nil {
		q.Content = *p.Content
	}
	if p.Options != nil {
		q.Options = append([]string(nil), (*p.Options)...)
	}
	if p.CorrectAnswer != nil {
		q.CorrectAnswer = *p.CorrectAnswer
	}
	if p.Score != nil {
		q.Score = *p.Score
	}
	if p.Explanation != nil {
		q.Explanation = *p.Explanation
	}
	return q
}

type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type ImportResult struct {
	SuccessCount   int              `json:"success_count"`
	FailedCount    int              `json:"failed_count"`
	TotalQuestions int              `json:"total_questions"`
	Errors         []ImportRowError `json:"errors"`
}

// Mixed reports a partially successful import.
func (r ImportResult) Mixed() bool { return r.FailedCount > 0 && r.SuccessCount > 0 }

// CloneQuestions returns a deep copy of qs.
func CloneQuestions(qs []Question) []Question {
	if qs == nil {
		return nil
	}
	out := make([]Question, len(qs))
	for i, q := range qs {
		if q.Options != nil {
			q.Options = append([]string(nil), q.Options...)
		}
		out[i] = q
	}
	return out
}

func IndexOf(qs []Question, id string) int {
	for i := range qs {
		if qs[i].ID == id {
			return i
		}
	}
	return -1
}

// Ptr is a small helper for building patches.
func Ptr[T any](v T) *T { return &v }
