// Package certificate issues one completion certificate per user and course,
// serves the PDFs and answers public verification lookups for certificates
// and quiz scorecards.
package certificate

import (
	"context"
	"time"
)

// Record is the persisted certificate. Only PDFKey ever changes.
type Record struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	CourseID    string `json:"courseId"`
	IssuedAt    int64  `json:"issuedAt"`
	CompletedAt int64  `json:"completedAt"`
	PDFKey      string `json:"-"`
}

type Store interface {
	// Insert returns apperr.ErrConflict when the id or the (user, course)
	// pair already exists.
	Insert(ctx context.Context, r Record) error
	Get(ctx context.Context, id string) (Record, error)
	GetByUserCourse(ctx context.Context, userID, courseID string) (Record, error)
	UpdatePDFKey(ctx context.Context, id, key string) error
	ListByUser(ctx context.Context, userID string) ([]Record, error)
}

// Verification is the public view of a certificate.
type Verification struct {
	Valid          bool   `json:"valid"`
	StudentName    string `json:"studentName"`
	CourseName     string `json:"courseName"`
	IssuedDate     string `json:"issuedDate"`
	CompletionDate string `json:"completionDate"`
}

// ScorecardVerification is the public view of one graded attempt.
type ScorecardVerification struct {
	Valid        bool    `json:"valid"`
	StudentName  string  `json:"studentName"`
	CourseName   string  `json:"courseName"`
	QuizTitle    string  `json:"quizTitle"`
	Score        float64 `json:"score"`
	IsPassed     bool    `json:"isPassed"`
	PassingScore float64 `json:"passingScore"`
	CompletedAt  string  `json:"completedAt"`
}

// Listing is a certificate as shown to its holder.
type Listing struct {
	ID          string `json:"id"`
	CourseID    string `json:"courseId"`
	CourseTitle string `json:"courseTitle"`
	IssuedAt    int64  `json:"issuedAt"`
	CompletedAt int64  `json:"completedAt"`
	DownloadURL string `json:"downloadUrl"`
	VerifyURL   string `json:"verifyUrl"`
}

const dateLayout = "2006-01-02"

func day(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(dateLayout)
}
