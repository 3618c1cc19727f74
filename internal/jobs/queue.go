package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
	"github.com/mind-engage/mindengage-courses/internal/metrics"
)

// IssueFunc issues (or fetches) the certificate for a pair and returns its id.
type IssueFunc func(ctx context.Context, userID, courseID string) (string, error)

type Clock func() time.Time

const drainBatch = 50

type Queue struct {
	Store       Store
	Issue       IssueFunc
	MaxAttempts int
	Log         *logrus.Entry
	Metrics     *metrics.Metrics
	Now         Clock
}

func New(store Store, issue IssueFunc, maxAttempts int, log *logrus.Entry, m *metrics.Metrics) *Queue {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if m == nil {
		m = metrics.Nop()
	}
	return &Queue{
		Store:       store,
		Issue:       issue,
		MaxAttempts: maxAttempts,
		Log:         log.WithField("component", "issuance-queue"),
		Metrics:     m,
		Now:         time.Now,
	}
}

// Submit issues inline. A retryable failure is persisted as a pending job
// and still returned so the caller can log it.
func (q *Queue) Submit(ctx context.Context, userID, courseID string) (string, error) {
	id, err := q.Issue(ctx, userID, courseID)
	if err == nil {
		return id, nil
	}
	if !retryable(err) {
		return "", err
	}
	if qerr := q.Store.Enqueue(ctx, userID, courseID, q.Now().Unix()); qerr != nil {
		q.Log.WithError(qerr).WithFields(logrus.Fields{"user_id": userID, "course_id": courseID}).
			Error("enqueue certificate issuance")
	}
	return "", err
}

// Drain retries pending jobs once each and reports how many succeeded.
func (q *Queue) Drain(ctx context.Context) (int, error) {
	pending, err := q.Store.Pending(ctx, drainBatch)
	if err != nil {
		return 0, err
	}
	done := 0
	for _, j := range pending {
		if ctx.Err() != nil {
			return done, ctx.Err()
		}
		log := q.Log.WithFields(logrus.Fields{"job_id": j.ID, "user_id": j.UserID, "course_id": j.CourseID})

		certID, err := q.Issue(ctx, j.UserID, j.CourseID)
		if err == nil {
			if err := q.Store.MarkDone(ctx, j.ID, q.Now().Unix()); err != nil {
				return done, err
			}
			q.Metrics.IssuanceRetries.WithLabelValues("ok").Inc()
			log.WithField("certificate_id", certID).Info("queued issuance succeeded")
			done++
			continue
		}

		limit := q.MaxAttempts
		if !retryable(err) {
			limit = j.Attempts + 1
		}
		if merr := q.Store.MarkFailed(ctx, j.ID, err.Error(), limit, q.Now().Unix()); merr != nil {
			return done, merr
		}
		if j.Attempts+1 >= limit {
			q.Metrics.IssuanceRetries.WithLabelValues("gave_up").Inc()
			log.WithError(err).Error("queued issuance gave up")
		} else {
			q.Metrics.IssuanceRetries.WithLabelValues("failed").Inc()
			log.WithError(err).Warn("queued issuance failed")
		}
	}
	return done, nil
}

// Schedule runs Drain on c at spec.
func (q *Queue) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if n, err := q.Drain(ctx); err != nil {
			q.Log.WithError(err).Error("drain issuance queue")
		} else if n > 0 {
			q.Log.WithField("issued", n).Info("drained issuance queue")
		}
	})
}

// Missing data or an incomplete course will not fix itself on retry.
func retryable(err error) bool {
	return !errors.Is(err, apperr.ErrPreconditionFailed) &&
		!errors.Is(err, apperr.ErrNotFound) &&
		!errors.Is(err, apperr.ErrForbidden)
}
