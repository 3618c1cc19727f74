package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
	"github.com/mind-engage/mindengage-courses/internal/catalog"
)

// Actor is the authenticated caller as seen by the quiz service.
type Actor struct {
	ID   string
	Role string
}

// Input is the author-supplied quiz body for create and update.
type Input struct {
	CourseID         string     `json:"courseId" validate:"required"`
	Title            string     `json:"title" validate:"required,max=200"`
	Description      string     `json:"description" validate:"max=2000"`
	Questions        []Question `json:"questions" validate:"required,min=1,dive"`
	PassingScore     *float64   `json:"passingScore" validate:"omitempty,gte=0,lte=100"`
	TimeLimitMinutes int        `json:"timeLimitMinutes" validate:"gte=0,lte=600"`
	IsActive         *bool      `json:"isActive"`
}

type Service struct {
	store   Store
	catalog catalog.Store
	valid   *validator.Validate
	now     func() time.Time
}

func NewService(store Store, cat catalog.Store) *Service {
	return &Service{store: store, catalog: cat, valid: newValidator(), now: time.Now}
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("has_correct", func(fl validator.FieldLevel) bool {
		opts, ok := fl.Field().Interface().([]Option)
		if !ok {
			return false
		}
		for _, o := range opts {
			if o.IsCorrect {
				return true
			}
		}
		return false
	})
	return v
}

// Create adds the quiz for a course. Only the course owner (or an admin) may
// author it, and a course carries at most one quiz.
func (s *Service) Create(ctx context.Context, actor Actor, in Input) (Quiz, error) {
	if err := s.validate(in); err != nil {
		return Quiz{}, err
	}
	if _, err := s.ownedCourse(ctx, actor, in.CourseID); err != nil {
		return Quiz{}, err
	}
	if existing, err := s.store.GetByCourse(ctx, in.CourseID); err == nil {
		return Quiz{}, fmt.Errorf("%w: course already has quiz %s", apperr.ErrConflict, existing.ID)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return Quiz{}, err
	}

	now := s.now().Unix()
	q := Quiz{
		ID:        uuid.NewString(),
		CourseID:  in.CourseID,
		CreatedBy: actor.ID,
		CreatedAt: now,

		PassingScore: DefaultPassingScore,
		IsActive:     true,
	}
	apply(&q, in, now)
	if err := s.store.Create(ctx, q); err != nil {
		return Quiz{}, err
	}
	return q, nil
}

// Update replaces the quiz body. The owning course cannot change.
func (s *Service) Update(ctx context.Context, actor Actor, quizID string, in Input) (Quiz, error) {
	q, err := s.store.Get(ctx, quizID)
	if err != nil {
		return Quiz{}, err
	}
	in.CourseID = q.CourseID
	if err := s.validate(in); err != nil {
		return Quiz{}, err
	}
	if _, err := s.ownedCourse(ctx, actor, q.CourseID); err != nil {
		return Quiz{}, err
	}
	apply(&q, in, s.now().Unix())
	if err := s.store.Update(ctx, q); err != nil {
		return Quiz{}, err
	}
	return q, nil
}

// ForTaking returns the course quiz. Callers other than the course owner or
// an admin get the student view without answer keys.
func (s *Service) ForTaking(ctx context.Context, actor Actor, courseID string) (Quiz, error) {
	q, err := s.store.GetByCourse(ctx, courseID)
	if err != nil {
		return Quiz{}, err
	}
	c, err := s.ownedCourse(ctx, actor, courseID)
	if err == nil {
		return q, nil
	}
	if !errors.Is(err, apperr.ErrForbidden) {
		return Quiz{}, err
	}
	if err := catalog.NewGate(s.catalog).Check(ctx, actor.ID, c); err != nil {
		return Quiz{}, err
	}
	if !q.IsActive {
		return Quiz{}, fmt.Errorf("%w: quiz is not active", apperr.ErrPreconditionFailed)
	}
	return q.ForStudent(), nil
}

// ownedCourse returns the course even when actor does not own it.
func (s *Service) ownedCourse(ctx context.Context, actor Actor, courseID string) (catalog.Course, error) {
	c, err := s.catalog.GetCourse(ctx, courseID)
	if err != nil {
		return catalog.Course{}, err
	}
	if actor.Role != "admin" && c.InstructorID != actor.ID {
		return c, fmt.Errorf("%w: only the course owner can manage its quiz", apperr.ErrForbidden)
	}
	return c, nil
}

func (s *Service) validate(in Input) error {
	err := s.valid.Struct(in)
	if err == nil {
		questionIDs := make(map[string]struct{}, len(in.Questions))
		for i, q := range in.Questions {
			if err := s.valid.Var(q.Options, "has_correct"); err != nil {
				return fmt.Errorf("%w: question %d needs at least one correct option", apperr.ErrInvalid, i+1)
			}
			if !claim(questionIDs, q.ID) {
				return fmt.Errorf("%w: question %d reuses id %q", apperr.ErrInvalid, i+1, q.ID)
			}
			optionIDs := make(map[string]struct{}, len(q.Options))
			for j, o := range q.Options {
				if !claim(optionIDs, o.ID) {
					return fmt.Errorf("%w: question %d option %d reuses id %q", apperr.ErrInvalid, i+1, j+1, o.ID)
				}
			}
		}
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Namespace()+" ("+fe.Tag()+")")
		}
		return fmt.Errorf("%w: %s", apperr.ErrInvalid, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %v", apperr.ErrInvalid, err)
}

// claim records id in seen and reports false if it was already there. Empty
// ids are assigned later and never clash.
func claim(seen map[string]struct{}, id string) bool {
	if id == "" {
		return true
	}
	if _, dup := seen[id]; dup {
		return false
	}
	seen[id] = struct{}{}
	return true
}

// apply copies the author input onto q, assigning ids to new questions and options.
func apply(q *Quiz, in Input, now int64) {
	q.Title = strings.TrimSpace(in.Title)
	q.Description = in.Description
	q.TimeLimitMinutes = in.TimeLimitMinutes
	if in.PassingScore != nil {
		q.PassingScore = *in.PassingScore
	}
	if in.IsActive != nil {
		q.IsActive = *in.IsActive
	}
	q.Questions = make([]Question, len(in.Questions))
	for i, qu := range in.Questions {
		if qu.ID == "" {
			qu.ID = uuid.NewString()
		}
		opts := make([]Option, len(qu.Options))
		for j, o := range qu.Options {
			if o.ID == "" {
				o.ID = uuid.NewString()
			}
			opts[j] = o
		}
		qu.Options = opts
		q.Questions[i] = qu
	}
	q.UpdatedAt = now
}
