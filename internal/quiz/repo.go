package quiz

import "context"

type Store interface {
	Create(ctx context.Context, q Quiz) error // apperr.ErrConflict when the course already has a quiz
	Update(ctx context.Context, q Quiz) error
	Get(ctx context.Context, id string) (Quiz, error)               // full quiz, answer keys included
	GetByCourse(ctx context.Context, courseID string) (Quiz, error) // full quiz, answer keys included
}
