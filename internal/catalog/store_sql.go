package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
)

type SQLStore struct{ db *sql.DB }

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) PutCourse(ctx context.Context, c Course) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO courses (id,title,instructor_id,price_paise,created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, instructor_id=EXCLUDED.instructor_id, price_paise=EXCLUDED.price_paise`,
		c.ID, c.Title, c.InstructorID, c.PricePaise, c.CreatedAt)
	return err
}

func (s *SQLStore) GetCourse(ctx context.Context, id string) (Course, error) {
	var c Course
	err := s.db.QueryRowContext(ctx, `SELECT id,title,instructor_id,price_paise,created_at FROM courses WHERE id=$1`, id).
		Scan(&c.ID, &c.Title, &c.InstructorID, &c.PricePaise, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Course{}, fmt.Errorf("%w: course %s", apperr.ErrNotFound, id)
	}
	return c, err
}

func (s *SQLStore) PutUser(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (id,name,email,role,password_hash,created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, email=EXCLUDED.email, role=EXCLUDED.role, password_hash=EXCLUDED.password_hash`,
		u.ID, u.Name, strings.ToLower(strings.TrimSpace(u.Email)), u.Role, u.PasswordHash, u.CreatedAt)
	return err
}

func (s *SQLStore) GetUser(ctx context.Context, id string) (User, error) {
	return s.getUser(ctx, `id=$1`, id)
}

func (s *SQLStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return s.getUser(ctx, `email=$1`, strings.ToLower(strings.TrimSpace(email)))
}

func (s *SQLStore) getUser(ctx context.Context, where string, arg string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `SELECT id,name,email,role,password_hash,created_at FROM users WHERE `+where, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("%w: user %s", apperr.ErrNotFound, arg)
	}
	return u, err
}

func (s *SQLStore) GetProgress(ctx context.Context, userID, courseID string) (Progress, error) {
	p := Progress{UserID: userID, CourseID: courseID, ViewedLectures: []string{}}
	var completedAt sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT completed, completed_at, updated_at
		FROM course_progress WHERE user_id=$1 AND course_id=$2`, userID, courseID).
		Scan(&p.Completed, &completedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, nil
	}
	if err != nil {
		return Progress{}, err
	}
	p.CompletedAt = completedAt.Int64

	rows, err := s.db.QueryContext(ctx, `SELECT lecture_id FROM lecture_views
		WHERE user_id=$1 AND course_id=$2 ORDER BY viewed_at, lecture_id`, userID, courseID)
	if err != nil {
		return Progress{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return Progress{}, err
		}
		p.ViewedLectures = append(p.ViewedLectures, id)
	}
	return p, rows.Err()
}

func (s *SQLStore) MarkCompleted(ctx context.Context, userID, courseID string, at int64) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO course_progress (user_id,course_id,completed,completed_at,updated_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (user_id,course_id) DO UPDATE SET
			completed=EXCLUDED.completed,
			completed_at=COALESCE(course_progress.completed_at, EXCLUDED.completed_at),
			updated_at=EXCLUDED.updated_at`,
		userID, courseID, true, at, at)
	return err
}

// MarkLectureViewed records one view row per lecture; repeats are no-ops.
func (s *SQLStore) MarkLectureViewed(ctx context.Context, userID, courseID, lectureID string, at int64) (Progress, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Progress{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO lecture_views (user_id,course_id,lecture_id,viewed_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (user_id,course_id,lecture_id) DO NOTHING`,
		userID, courseID, lectureID, at); err != nil {
		return Progress{}, err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO course_progress (user_id,course_id,completed,updated_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (user_id,course_id) DO UPDATE SET updated_at=EXCLUDED.updated_at`,
		userID, courseID, false, at); err != nil {
		return Progress{}, err
	}
	if err := tx.Commit(); err != nil {
		return Progress{}, err
	}
	return s.GetProgress(ctx, userID, courseID)
}

func (s *SQLStore) Enroll(ctx context.Context, e Enrollment) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO enrollments (user_id,course_id,payment_id,order_id,created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (user_id,course_id) DO NOTHING`,
		e.UserID, e.CourseID, e.PaymentID, e.OrderID, e.CreatedAt)
	return err
}

func (s *SQLStore) IsEnrolled(ctx context.Context, userID, courseID string) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM enrollments WHERE user_id=$1 AND course_id=$2)`, userID, courseID).Scan(&ok)
	return ok, err
}
