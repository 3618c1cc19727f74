// Package catalog is the course, user, enrollment and progress data the
// quiz and certificate services read. Authoring of courses and lectures
// lives outside this service; only the rows the core needs are modelled.
package catalog

import "context"

type Course struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	InstructorID string `json:"instructorId"`
	PricePaise   int64  `json:"pricePaise"`
	CreatedAt    int64  `json:"createdAt"`
}

type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	PasswordHash string `json:"-"`
	CreatedAt    int64  `json:"createdAt"`
}

type Progress struct {
	UserID         string   `json:"userId"`
	CourseID       string   `json:"courseId"`
	ViewedLectures []string `json:"viewedLectures"`
	Completed      bool     `json:"completed"`
	CompletedAt    int64    `json:"completedAt,omitempty"`
	UpdatedAt      int64    `json:"updatedAt,omitempty"`
}

type Enrollment struct {
	UserID    string `json:"userId"`
	CourseID  string `json:"courseId"`
	PaymentID string `json:"paymentId"`
	OrderID   string `json:"orderId"`
	CreatedAt int64  `json:"createdAt"`
}

type Store interface {
	PutCourse(ctx context.Context, c Course) error
	GetCourse(ctx context.Context, id string) (Course, error)

	PutUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)

	// GetProgress returns an empty, not-completed Progress when the user has none.
	GetProgress(ctx context.Context, userID, courseID string) (Progress, error)
	MarkCompleted(ctx context.Context, userID, courseID string, at int64) error
	MarkLectureViewed(ctx context.Context, userID, courseID, lectureID string, at int64) (Progress, error)

	Enroll(ctx context.Context, e Enrollment) error
	IsEnrolled(ctx context.Context, userID, courseID string) (bool, error)
}
