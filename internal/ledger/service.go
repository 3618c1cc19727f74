package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
	"github.com/mind-engage/mindengage-courses/internal/grading"
	"github.com/mind-engage/mindengage-courses/internal/metrics"
	"github.com/mind-engage/mindengage-courses/internal/quiz"
)

// ProgressMarker is the part of the course progress store the ledger writes to.
type ProgressMarker interface {
	MarkCompleted(ctx context.Context, userID, courseID string, at int64) error
}

// AccessChecker reports apperr.ErrForbidden when userID may not take the
// course's quiz.
type AccessChecker interface {
	CanAccess(ctx context.Context, userID, courseID string) error
}

// Issuer hands a passed (user, course) pair to certificate issuance. It
// returns the certificate id when issuance finished inline.
type Issuer interface {
	Submit(ctx context.Context, userID, courseID string) (string, error)
}

type Service struct {
	store    Store
	quizzes  quiz.Store
	progress ProgressMarker
	access   AccessChecker
	issuer   Issuer
	log      *logrus.Entry
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewService wires the ledger. A nil access checker leaves every quiz open.
func NewService(store Store, quizzes quiz.Store, progress ProgressMarker, access AccessChecker, issuer Issuer, log *logrus.Entry, m *metrics.Metrics) *Service {
	if m == nil {
		m = metrics.Nop()
	}
	return &Service{
		store:    store,
		quizzes:  quizzes,
		progress: progress,
		access:   access,
		issuer:   issuer,
		log:      log.WithField("component", "ledger"),
		metrics:  m,
		now:      time.Now,
	}
}

// SubmitAttempt grades answers, records the attempt and, on a pass, marks the
// course complete and triggers certificate issuance. Issuance failures are
// logged and never fail the submission.
func (s *Service) SubmitAttempt(ctx context.Context, userID, quizID string, answers []grading.Answer, timeSpentSeconds int) (Result, error) {
	q, err := s.quizzes.Get(ctx, quizID)
	if err != nil {
		return Result{}, err
	}
	if s.access != nil {
		if err := s.access.CanAccess(ctx, userID, q.CourseID); err != nil {
			return Result{}, err
		}
	}
	if !q.IsActive {
		return Result{}, fmt.Errorf("%w: quiz is not active", apperr.ErrPreconditionFailed)
	}
	if len(q.Questions) == 0 {
		return Result{}, fmt.Errorf("%w: quiz has no questions", apperr.ErrPreconditionFailed)
	}
	if timeSpentSeconds < 0 {
		timeSpentSeconds = 0
	}

	g := grading.Grade(q, answers)
	passed := grading.Passed(g.Score, q.PassingScore)

	// Must be read before the new row is written.
	prior, err := s.store.ListByUserQuiz(ctx, userID, quizID, 0)
	if err != nil {
		return Result{}, err
	}
	prevBest, priorPassed := best(prior)

	sub := Submission{
		ID:               uuid.NewString(),
		UserID:           userID,
		QuizID:           q.ID,
		CourseID:         q.CourseID,
		Answers:          answers,
		Score:            g.Score,
		IsPassed:         passed,
		CorrectCount:     g.CorrectCount,
		TotalQuestions:   g.TotalQuestions,
		AttemptedCount:   g.AttemptedCount,
		TimeSpentSeconds: timeSpentSeconds,
		CompletedAt:      s.now().Unix(),
	}
	if err := s.store.Insert(ctx, sub); err != nil {
		return Result{}, err
	}
	s.metrics.ObserveSubmission(passed)

	res := Result{
		Submission:        sub,
		Score:             g.Score,
		IsPassed:          passed,
		CorrectCount:      g.CorrectCount,
		TotalQuestions:    g.TotalQuestions,
		AttemptedCount:    g.AttemptedCount,
		PassingScore:      q.PassingScore,
		PreviousBestScore: prevBest,
		Improved:          len(prior) > 0 && g.Score > prevBest,
	}

	if passed {
		if err := s.progress.MarkCompleted(ctx, userID, q.CourseID, sub.CompletedAt); err != nil {
			return Result{}, err
		}
		if (g.Score > prevBest || !priorPassed) && s.issuer != nil {
			certID, err := s.issuer.Submit(ctx, userID, q.CourseID)
			if err != nil {
				s.log.WithError(err).WithFields(logrus.Fields{
					"user_id":       userID,
					"course_id":     q.CourseID,
					"submission_id": sub.ID,
				}).Warn("certificate issuance deferred")
			}
			res.CertificateID = certID
		}
	}
	res.Message = message(res)
	return res, nil
}

// ResultsSummary lists the user's attempts at a quiz, newest first.
func (s *Service) ResultsSummary(ctx context.Context, userID, quizID string) (Summary, error) {
	subs, err := s.store.ListByUserQuiz(ctx, userID, quizID, 0)
	if err != nil {
		return Summary{}, err
	}
	bestScore, passed := best(subs)
	return Summary{Submissions: subs, BestScore: bestScore, HasPassed: passed, Attempts: len(subs)}, nil
}

// ResultsForCourse resolves the course quiz and summarizes it.
func (s *Service) ResultsForCourse(ctx context.Context, userID, courseID string) (Summary, error) {
	q, err := s.quizzes.GetByCourse(ctx, courseID)
	if err != nil {
		return Summary{}, err
	}
	return s.ResultsSummary(ctx, userID, q.ID)
}

func best(subs []Submission) (score float64, anyPassed bool) {
	for _, sub := range subs {
		if sub.Score > score {
			score = sub.Score
		}
		if sub.IsPassed {
			anyPassed = true
		}
	}
	return score, anyPassed
}

func message(r Result) string {
	var msg string
	if r.IsPassed {
		msg = fmt.Sprintf("Congratulations! You passed with %.1f%%.", r.Score)
	} else {
		msg = fmt.Sprintf("You scored %.1f%%. %.1f%% is required to pass.", r.Score, r.PassingScore)
	}
	if r.Improved {
		msg += fmt.Sprintf(" New best score: %.1f%% (previous best %.1f%%).", r.Score, r.PreviousBestScore)
	}
	return msg
}
