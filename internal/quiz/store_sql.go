package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
	"github.com/mind-engage/mindengage-courses/internal/db"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

const quizColumns = `id,course_id,title,description,questions_json,passing_score,time_limit_minutes,is_active,created_by,created_at,updated_at`

func (s *SQLStore) Create(ctx context.Context, q Quiz) error {
	qj, err := json.Marshal(q.Questions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO quizzes (`+quizColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		q.ID, q.CourseID, q.Title, q.Description, string(qj), q.PassingScore, q.TimeLimitMinutes,
		q.IsActive, q.CreatedBy, q.CreatedAt, q.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: course %s already has a quiz", apperr.ErrConflict, q.CourseID)
	}
	return err
}

func (s *SQLStore) Update(ctx context.Context, q Quiz) error {
	qj, err := json.Marshal(q.Questions)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE quizzes
		SET title=$1, description=$2, questions_json=$3, passing_score=$4, time_limit_minutes=$5, is_active=$6, updated_at=$7
		WHERE id=$8`,
		q.Title, q.Description, string(qj), q.PassingScore, q.TimeLimitMinutes, q.IsActive, q.UpdatedAt, q.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: quiz %s", apperr.ErrNotFound, q.ID)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Quiz, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id=$1`, id)
	return scanQuiz(row, "quiz "+id)
}

func (s *SQLStore) GetByCourse(ctx context.Context, courseID string) (Quiz, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE course_id=$1`, courseID)
	return scanQuiz(row, "quiz for course "+courseID)
}

func scanQuiz(row *sql.Row, what string) (Quiz, error) {
	var q Quiz
	var qjson string
	if err := row.Scan(&q.ID, &q.CourseID, &q.Title, &q.Description, &qjson, &q.PassingScore,
		&q.TimeLimitMinutes, &q.IsActive, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Quiz{}, fmt.Errorf("%w: %s", apperr.ErrNotFound, what)
		}
		return Quiz{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &q.Questions); err != nil {
		return Quiz{}, err
	}
	return q, nil
}
