package catalog

import (
	"context"
	"fmt"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
)

// Gate decides who may work through a course: anyone for free courses, and
// for paid ones the instructor and enrolled students.
type Gate struct{ store Store }

func NewGate(s Store) *Gate { return &Gate{store: s} }

// CanAccess loads the course and checks userID against it. Missing courses
// report apperr.ErrNotFound.
func (g *Gate) CanAccess(ctx context.Context, userID, courseID string) error {
	c, err := g.store.GetCourse(ctx, courseID)
	if err != nil {
		return err
	}
	return g.Check(ctx, userID, c)
}

func (g *Gate) Check(ctx context.Context, userID string, c Course) error {
	if c.PricePaise <= 0 || c.InstructorID == userID {
		return nil
	}
	ok, err := g.store.IsEnrolled(ctx, userID, c.ID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: enrollment required for course %s", apperr.ErrForbidden, c.ID)
	}
	return nil
}
