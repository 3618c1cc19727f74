package certificate

import (
	"context"
	"fmt"
	"time"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
	"github.com/mind-engage/mindengage-courses/internal/render"
)

// DownloadScorecard renders the scorecard for one submission on demand,
// including the holder's most recent attempts at the same quiz.
func (s *Service) DownloadScorecard(ctx context.Context, submissionID string) ([]byte, error) {
	sub, err := s.submissions.Get(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	q, err := s.quizzes.Get(ctx, sub.QuizID)
	if err != nil {
		return nil, err
	}
	user, err := s.catalog.GetUser(ctx, sub.UserID)
	if err != nil {
		return nil, err
	}
	recent, err := s.submissions.ListByUserQuiz(ctx, sub.UserID, sub.QuizID, s.history)
	if err != nil {
		return nil, err
	}

	data := render.ScorecardData{
		SubmissionID:     sub.ID,
		StudentName:      user.Name,
		QuizTitle:        q.Title,
		Score:            sub.Score,
		PassingScore:     q.PassingScore,
		Passed:           sub.IsPassed,
		CorrectCount:     sub.CorrectCount,
		TotalQuestions:   sub.TotalQuestions,
		AttemptedCount:   sub.AttemptedCount,
		TimeSpentSeconds: sub.TimeSpentSeconds,
		CompletedAt:      time.Unix(sub.CompletedAt, 0),
	}
	if c, err := s.catalog.GetCourse(ctx, sub.CourseID); err == nil {
		data.CourseTitle = c.Title
	}
	for _, r := range recent {
		data.History = append(data.History, render.Attempt{
			CompletedAt: time.Unix(r.CompletedAt, 0),
			Score:       r.Score,
			Passed:      r.IsPassed,
		})
	}

	pdf, err := s.renderer.Scorecard(data)
	s.metrics.ObserveRender(render.KindScorecard, err)
	if err != nil {
		s.log.WithError(err).WithField("submission_id", sub.ID).Error("scorecard render failed")
		return nil, fmt.Errorf("%w: %v", apperr.ErrRenderFailure, err)
	}
	return pdf, nil
}

// VerifyScorecard returns the redacted summary of one submission.
func (s *Service) VerifyScorecard(ctx context.Context, submissionID string) (ScorecardVerification, error) {
	key := "scorecard:" + submissionID
	var v ScorecardVerification
	if hit, err := s.cache.Get(ctx, key, &v); err != nil {
		s.log.WithError(err).Warn("verification cache read")
	} else if hit {
		return v, nil
	}

	sub, err := s.submissions.Get(ctx, submissionID)
	if err != nil {
		return ScorecardVerification{}, redact(err, "scorecard not found")
	}
	q, err := s.quizzes.Get(ctx, sub.QuizID)
	if err != nil {
		return ScorecardVerification{}, redact(err, "scorecard not found")
	}
	user, err := s.catalog.GetUser(ctx, sub.UserID)
	if err != nil {
		return ScorecardVerification{}, redact(err, "scorecard not found")
	}

	v = ScorecardVerification{
		Valid:        true,
		StudentName:  user.Name,
		QuizTitle:    q.Title,
		Score:        sub.Score,
		IsPassed:     sub.IsPassed,
		PassingScore: q.PassingScore,
		CompletedAt:  day(sub.CompletedAt),
	}
	if c, err := s.catalog.GetCourse(ctx, sub.CourseID); err == nil {
		v.CourseName = c.Title
	}
	if err := s.cache.Set(ctx, key, v); err != nil {
		s.log.WithError(err).Warn("verification cache write")
	}
	return v, nil
}
