package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	syncx "github.com/mind-engage/mindengage-authoring/internal/sync"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

type rowScanner interface {
	Scan(dest ...any) error
}

const examColumns = `id,title,description,category_id,difficulty,duration,total_score,pass_score,status,question_count,questions_json,created_at,updated_at`

func scanExam(row rowScanner) (Exam, error) {
	var e Exam
	var qjson string
	if err := row.Scan(&e.ID, &e.Title, &e.Description, &e.CategoryID, &e.Difficulty, &e.DurationMin,
		&e.TotalScore, &e.PassScore, &e.Status, &e.QuestionCount, &qjson, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Exam{}, ErrNotFound
		}
		return Exam{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &e.Questions); err != nil {
		return Exam{}, fmt.Errorf("exam %s: decode questions: %w", e.ID, err)
	}
	if e.Questions == nil {
		e.Questions = []Question{}
	}
	return e, nil
}

func (s *SQLStore) CreateExam(ctx context.Context, e Exam) (Exam, error) {
	e.Status = StatusDraft
	if err := ValidateExam(e); err != nil {
		return Exam{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Difficulty == "" {
		e.Difficulty = DifficultyMedium
	}
	if len(e.Questions) > 0 {
		qs, err := PrepareQuestions(e, e.Questions)
		if err != nil {
			return Exam{}, err
		}
		e.Questions = qs
	} else {
		e.Questions = []Question{}
	}
	e.QuestionCount = len(e.Questions)
	qj, err := json.Marshal(e.Questions)
	if err != nil {
		return Exam{}, err
	}
	now := time.Now().Unix()
	e.CreatedAt, e.UpdatedAt = now, now
	_, err = s.db.ExecContext(ctx, `INSERT INTO exams (`+examColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		e.ID, e.Title, e.Description, e.CategoryID, string(e.Difficulty), e.DurationMin,
		e.TotalScore, e.PassScore, string(e.Status), e.QuestionCount, string(qj), e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return Exam{}, err
	}
	return e, nil
}

func (s *SQLStore) GetExam(ctx context.Context, id string) (Exam, error) {
	return scanExam(s.db.QueryRowContext(ctx, `SELECT `+examColumns+` FROM exams WHERE id=$1`, id))
}

// mutate runs fn on the stored exam inside a transaction and writes back
// whatever fn returns.
func (s *SQLStore) mutate(ctx context.Context, id string, fn func(tx *sql.Tx, e Exam) (Exam, error)) (Exam, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Exam{}, err
	}
	defer func() { _ = tx.Rollback() }()

	cur, err := scanExam(tx.QueryRowContext(ctx, `SELECT `+examColumns+` FROM exams WHERE id=$1`, id))
	if err != nil {
		return Exam{}, err
	}
	next, err := fn(tx, cur)
	if err != nil {
		return Exam{}, err
	}
	if next.Questions == nil {
		next.Questions = []Question{}
	}
	qj, err := json.Marshal(next.Questions)
	if err != nil {
		return Exam{}, err
	}
	next.QuestionCount = len(next.Questions)
	next.UpdatedAt = time.Now().Unix()
	_, err = tx.ExecContext(ctx, `UPDATE exams SET title=$1, description=$2, category_id=$3, difficulty=$4,
		duration=$5, total_score=$6, pass_score=$7, status=$8, question_count=$9, questions_json=$10, updated_at=$11
		WHERE id=$12`,
		next.Title, next.Description, next.CategoryID, string(next.Difficulty), next.DurationMin,
		next.TotalScore, next.PassScore, string(next.Status), next.QuestionCount, string(qj), next.UpdatedAt, id)
	if err != nil {
		return Exam{}, err
	}
	if err := tx.Commit(); err != nil {
		return Exam{}, err
	}
	return next, nil
}

func (s *SQLStore) UpdateContent(ctx context.Context, id string, p ContentPatch) (Exam, error) {
	return s.mutate(ctx, id, func(_ *sql.Tx, e Exam) (Exam, error) {
		return ApplyContent(e, p)
	})
}

func (s *SQLStore) PutQuestions(ctx context.Context, id string, qs []Question) (Exam, error) {
	return s.mutate(ctx, id, func(tx *sql.Tx, e Exam) (Exam, error) {
		prepared, err := PrepareQuestions(e, qs)
		if err != nil {
			return Exam{}, err
		}
		e.Questions = prepared
		err = syncx.NewEventRepo(tx).AppendJSON(ctx, syncx.TypeQuestionsSaved, id, map[string]any{
			"question_count": len(prepared),
			"total":          CurrentTotal(prepared),
		})
		return e, err
	})
}

func (s *SQLStore) SetStatus(ctx context.Context, id string, to Status) (Exam, error) {
	return s.mutate(ctx, id, func(tx *sql.Tx, e Exam) (Exam, error) {
		from := e.Status
		next, err := ApplyStatus(e, to)
		if err != nil {
			return Exam{}, err
		}
		err = syncx.NewEventRepo(tx).AppendJSON(ctx, syncx.TypeStatusChanged, id, map[string]string{
			"previous_status": string(from),
			"new_status":      string(to),
		})
		return next, err
	})
}

func (s *SQLStore) AppendImported(ctx context.Context, id string, rows []ImportRow) (ImportResult, error) {
	var res ImportResult
	_, err := s.mutate(ctx, id, func(tx *sql.Tx, e Exam) (Exam, error) {
		var next Exam
		next, res = MergeImport(e, rows)
		err := syncx.NewEventRepo(tx).AppendJSON(ctx, syncx.TypeImported, id, map[string]int{
			"success_count": res.SuccessCount,
			"failed_count":  res.FailedCount,
		})
		return next, err
	})
	if err != nil {
		return ImportResult{}, err
	}
	return res, nil
}

func (s *SQLStore) NewAttempt(ctx context.Context, examID, userID string) (Attempt, error) {
	var exist int
	if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM exams WHERE id=$1`, examID).Scan(&exist); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, ErrNotFound
		}
		return Attempt{}, err
	}
	a := Attempt{ID: uuid.NewString(), ExamID: examID, UserID: userID, Status: AttemptInProgress}
	_, err := s.db.ExecContext(ctx, `INSERT INTO attempts (id,exam_id,user_id,status,started_at)
		VALUES ($1,$2,$3,$4,$5)`, a.ID, a.ExamID, a.UserID, a.Status, time.Now().UnixNano())
	if err != nil {
		return Attempt{}, err
	}
	return a, nil
}

func (s *SQLStore) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	q := `SELECT id,exam_id,user_id,status FROM attempts WHERE 1=1`
	args := []any{}
	add := func(cond string, v any) {
		args = append(args, v)
		q += fmt.Sprintf(" AND %s=$%d", cond, len(args))
	}
	if opts.ExamID != "" {
		add("exam_id", opts.ExamID)
	}
	if opts.UserID != "" {
		add("user_id", opts.UserID)
	}
	if opts.Status != "" {
		add("status", opts.Status)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, opts.Offset)
	q += fmt.Sprintf(" ORDER BY started_at LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Attempt{}
	for rows.Next() {
		var a Attempt
		if err := rows.Scan(&a.ID, &a.ExamID, &a.UserID, &a.Status); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Events returns the audit trail of one exam, oldest first.
func (s *SQLStore) Events(ctx context.Context, examID string) ([]syncx.Event, error) {
	return syncx.NewEventRepo(s.db).ListByKey(ctx, examID)
}
