// Package ledger records graded quiz attempts and derives the per-user
// history, best score and pass state from them.
package ledger

import (
	"context"

	"github.com/mind-engage/mindengage-courses/internal/grading"
)

// Submission is one graded attempt. Rows are append-only.
type Submission struct {
	ID               string           `json:"id"`
	UserID           string           `json:"userId"`
	QuizID           string           `json:"quizId"`
	CourseID         string           `json:"courseId"`
	Answers          []grading.Answer `json:"answers"`
	Score            float64          `json:"score"`
	IsPassed         bool             `json:"isPassed"`
	CorrectCount     int              `json:"correctCount"`
	TotalQuestions   int              `json:"totalQuestions"`
	AttemptedCount   int              `json:"attemptedCount"`
	TimeSpentSeconds int              `json:"timeSpentSeconds"`
	CompletedAt      int64            `json:"completedAt"`
}

type Store interface {
	Insert(ctx context.Context, s Submission) error
	// ListByUserQuiz returns newest first. limit <= 0 means all.
	ListByUserQuiz(ctx context.Context, userID, quizID string, limit int) ([]Submission, error)
	Get(ctx context.Context, id string) (Submission, error)
}

// Result is what a student sees after submitting.
type Result struct {
	Submission        Submission `json:"submission"`
	Score             float64    `json:"score"`
	IsPassed          bool       `json:"isPassed"`
	CorrectCount      int        `json:"correctCount"`
	TotalQuestions    int        `json:"totalQuestions"`
	AttemptedCount    int        `json:"attemptedCount"`
	PassingScore      float64    `json:"passingScore"`
	PreviousBestScore float64    `json:"previousBestScore"`
	Improved          bool       `json:"improved"`
	CertificateID     string     `json:"certificateId,omitempty"`
	Message           string     `json:"message"`
}

type Summary struct {
	Submissions []Submission `json:"submissions"`
	BestScore   float64      `json:"bestScore"`
	HasPassed   bool         `json:"hasPassed"`
	Attempts    int          `json:"attempts"`
}
