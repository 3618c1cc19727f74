package certificate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
	"github.com/mind-engage/mindengage-courses/internal/db"
)

type SQLStore struct{ db *sql.DB }

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

const recordColumns = `id,user_id,course_id,issued_at,completed_at,pdf_key`

func (s *SQLStore) Insert(ctx context.Context, r Record) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO certificates (`+recordColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		r.ID, r.UserID, r.CourseID, r.IssuedAt, r.CompletedAt, r.PDFKey)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: certificate %s", apperr.ErrConflict, r.ID)
	}
	return err
}

func (s *SQLStore) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM certificates WHERE id=$1`, id)
	return scanRecord(row, "certificate "+id)
}

func (s *SQLStore) GetByUserCourse(ctx context.Context, userID, courseID string) (Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM certificates
		WHERE user_id=$1 AND course_id=$2`, userID, courseID)
	return scanRecord(row, "certificate for course "+courseID)
}

func (s *SQLStore) UpdatePDFKey(ctx context.Context, id, key string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE certificates SET pdf_key=$1 WHERE id=$2`, key, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: certificate %s", apperr.ErrNotFound, id)
	}
	return nil
}

func (s *SQLStore) ListByUser(ctx context.Context, userID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM certificates
		WHERE user_id=$1 ORDER BY issued_at DESC, id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Record{}
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.UserID, &r.CourseID, &r.IssuedAt, &r.CompletedAt, &r.PDFKey); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRecord(row *sql.Row, what string) (Record, error) {
	var r Record
	err := row.Scan(&r.ID, &r.UserID, &r.CourseID, &r.IssuedAt, &r.CompletedAt, &r.PDFKey)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", apperr.ErrNotFound, what)
	}
	return r, err
}
