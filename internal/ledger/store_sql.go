package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
	"github.com/mind-engage/mindengage-courses/internal/grading"
)

type SQLStore struct{ db *sql.DB }

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

const submissionColumns = `id,user_id,quiz_id,course_id,answers_json,score,is_passed,correct_count,total_questions,attempted_count,time_spent_sec,completed_at`

func (s *SQLStore) Insert(ctx context.Context, sub Submission) error {
	answers := sub.Answers
	if answers == nil {
		answers = []grading.Answer{}
	}
	aj, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO submissions (`+submissionColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		sub.ID, sub.UserID, sub.QuizID, sub.CourseID, string(aj), sub.Score, sub.IsPassed,
		sub.CorrectCount, sub.TotalQuestions, sub.AttemptedCount, sub.TimeSpentSeconds, sub.CompletedAt)
	return err
}

func (s *SQLStore) ListByUserQuiz(ctx context.Context, userID, quizID string, limit int) ([]Submission, error) {
	q := `SELECT ` + submissionColumns + ` FROM submissions
		WHERE user_id=$1 AND quiz_id=$2 ORDER BY completed_at DESC, id DESC`
	args := []any{userID, quizID}
	if limit > 0 {
		q += ` LIMIT $3`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *SQLStore) Get(ctx context.Context, id string) (Submission, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id=$1`, id)
	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Submission{}, fmt.Errorf("%w: submission %s", apperr.ErrNotFound, id)
	}
	return sub, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(r scanner) (Submission, error) {
	var sub Submission
	var aj string
	if err := r.Scan(&sub.ID, &sub.UserID, &sub.QuizID, &sub.CourseID, &aj, &sub.Score, &sub.IsPassed,
		&sub.CorrectCount, &sub.TotalQuestions, &sub.AttemptedCount, &sub.TimeSpentSeconds, &sub.CompletedAt); err != nil {
		return Submission{}, err
	}
	if err := json.Unmarshal([]byte(aj), &sub.Answers); err != nil {
		return Submission{}, fmt.Errorf("submission %s answers: %w", sub.ID, err)
	}
	return sub, nil
}
