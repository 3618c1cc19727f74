package certificate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
	"github.com/mind-engage/mindengage-courses/internal/cache"
	"github.com/mind-engage/mindengage-courses/internal/catalog"
	"github.com/mind-engage/mindengage-courses/internal/ledger"
	"github.com/mind-engage/mindengage-courses/internal/metrics"
	"github.com/mind-engage/mindengage-courses/internal/quiz"
	"github.com/mind-engage/mindengage-courses/internal/render"
	"github.com/mind-engage/mindengage-courses/internal/storage"
)

const maxIDAttempts = 5

type Renderer interface {
	Certificate(render.CertificateData) ([]byte, error)
	Scorecard(render.ScorecardData) ([]byte, error)
}

type Deps struct {
	Store       Store
	Catalog     catalog.Store
	Submissions ledger.Store
	Quizzes     quiz.Store
	Blobs       storage.BlobStore
	Renderer    Renderer
	Cache       cache.VerifyCache // optional
	Log         *logrus.Entry
	Metrics     *metrics.Metrics // optional

	PublicURL        string
	ScorecardHistory int
}

type Service struct {
	store       Store
	catalog     catalog.Store
	submissions ledger.Store
	quizzes     quiz.Store
	blobs       storage.BlobStore
	renderer    Renderer
	cache       cache.VerifyCache
	log         *logrus.Entry
	metrics     *metrics.Metrics

	publicURL string
	history   int
	now       func() time.Time
	newID     func() (string, error)
}

func NewService(d Deps) *Service {
	s := &Service{
		store:       d.Store,
		catalog:     d.Catalog,
		submissions: d.Submissions,
		quizzes:     d.Quizzes,
		blobs:       d.Blobs,
		renderer:    d.Renderer,
		cache:       d.Cache,
		log:         d.Log.WithField("component", "certificate"),
		metrics:     d.Metrics,
		publicURL:   d.PublicURL,
		history:     d.ScorecardHistory,
		now:         time.Now,
		newID:       NewID,
	}
	if s.cache == nil {
		s.cache = cache.Nop{}
	}
	if s.metrics == nil {
		s.metrics = metrics.Nop()
	}
	if s.history <= 0 {
		s.history = 5
	}
	return s
}

// IssueOrFetch returns the user's certificate for the course, issuing it on
// first call. The unique (user, course) index decides races: the loser
// drops its render and returns the winner's record.
func (s *Service) IssueOrFetch(ctx context.Context, userID, courseID string) (Record, error) {
	rec, err := s.store.GetByUserCourse(ctx, userID, courseID)
	if err == nil {
		return s.ensurePDF(ctx, rec)
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return Record{}, err
	}

	prog, err := s.catalog.GetProgress(ctx, userID, courseID)
	if err != nil {
		return Record{}, err
	}
	if !prog.Completed {
		return Record{}, fmt.Errorf("%w: course not yet completed", apperr.ErrPreconditionFailed)
	}
	data, err := s.documentFor(ctx, userID, courseID)
	if err != nil {
		return Record{}, err
	}

	issuedAt := s.now().Unix()
	completedAt := prog.CompletedAt
	if completedAt == 0 {
		completedAt = issuedAt
	}

	for attempt := 1; attempt <= maxIDAttempts; attempt++ {
		id, err := s.newID()
		if err != nil {
			return Record{}, err
		}
		if _, err := s.store.Get(ctx, id); err == nil {
			continue
		} else if !errors.Is(err, apperr.ErrNotFound) {
			return Record{}, err
		}

		rec := Record{
			ID:          id,
			UserID:      userID,
			CourseID:    courseID,
			IssuedAt:    issuedAt,
			CompletedAt: completedAt,
			PDFKey:      blobKey(id),
		}
		pdf, err := s.renderPDF(rec, data)
		if err != nil {
			return Record{}, err
		}

		// The blob key is only written once the insert has claimed the id.
		err = s.store.Insert(ctx, rec)
		if err == nil {
			s.metrics.CertificatesIssued.Inc()
			s.log.WithFields(logrus.Fields{"certificate_id": id, "user_id": userID, "course_id": courseID}).
				Info("certificate issued")
			if err := s.storePDF(rec, pdf); err != nil {
				return Record{}, err
			}
			return rec, nil
		}
		if !errors.Is(err, apperr.ErrConflict) {
			return Record{}, err
		}

		winner, ferr := s.store.GetByUserCourse(ctx, userID, courseID)
		if ferr == nil {
			return winner, nil
		}
		if !errors.Is(ferr, apperr.ErrNotFound) {
			return Record{}, ferr
		}
		s.log.WithField("attempt", attempt).Warn("certificate id collision, retrying")
	}
	return Record{}, fmt.Errorf("certificate id generation failed after %d attempts", maxIDAttempts)
}

// Download streams the certificate PDF, regenerating it when the file is gone.
func (s *Service) Download(ctx context.Context, certificateID string) (io.ReadCloser, Record, error) {
	rec, err := s.store.Get(ctx, certificateID)
	if err != nil {
		return nil, Record{}, err
	}
	rec, err = s.ensurePDF(ctx, rec)
	if err != nil {
		return nil, Record{}, err
	}
	rc, err := s.blobs.Get(rec.PDFKey)
	if err != nil {
		return nil, Record{}, fmt.Errorf("%w: %v", apperr.ErrRenderFailure, err)
	}
	return rc, rec, nil
}

// Verify returns the redacted certificate summary.
func (s *Service) Verify(ctx context.Context, certificateID string) (Verification, error) {
	key := "certificate:" + certificateID
	var v Verification
	if hit, err := s.cache.Get(ctx, key, &v); err != nil {
		s.log.WithError(err).Warn("verification cache read")
	} else if hit {
		return v, nil
	}

	rec, err := s.store.Get(ctx, certificateID)
	if err != nil {
		return Verification{}, redact(err, "certificate not found")
	}
	user, err := s.catalog.GetUser(ctx, rec.UserID)
	if err != nil {
		return Verification{}, redact(err, "certificate not found")
	}
	course, err := s.catalog.GetCourse(ctx, rec.CourseID)
	if err != nil {
		return Verification{}, redact(err, "certificate not found")
	}

	v = Verification{
		Valid:          true,
		StudentName:    user.Name,
		CourseName:     course.Title,
		IssuedDate:     day(rec.IssuedAt),
		CompletionDate: day(rec.CompletedAt),
	}
	if err := s.cache.Set(ctx, key, v); err != nil {
		s.log.WithError(err).Warn("verification cache write")
	}
	return v, nil
}

// ListForUser returns the caller's certificates, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Listing, error) {
	recs, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]Listing, 0, len(recs))
	for _, r := range recs {
		l := Listing{
			ID:          r.ID,
			CourseID:    r.CourseID,
			IssuedAt:    r.IssuedAt,
			CompletedAt: r.CompletedAt,
			DownloadURL: s.publicURL + "/certificates/" + r.ID + "/download",
			VerifyURL:   s.publicURL + "/certificates/" + r.ID + "/verify",
		}
		if c, err := s.catalog.GetCourse(ctx, r.CourseID); err == nil {
			l.CourseTitle = c.Title
		}
		out = append(out, l)
	}
	return out, nil
}

// ensurePDF regenerates a missing PDF under the same id.
func (s *Service) ensurePDF(ctx context.Context, rec Record) (Record, error) {
	if rec.PDFKey != "" {
		ok, err := s.blobs.Exists(rec.PDFKey)
		if err != nil {
			return Record{}, err
		}
		if ok {
			return rec, nil
		}
	}

	s.log.WithField("certificate_id", rec.ID).Warn("certificate file missing, regenerating")
	data, err := s.documentFor(ctx, rec.UserID, rec.CourseID)
	if err != nil {
		return Record{}, err
	}
	key := blobKey(rec.ID)
	fixed := Record{ID: rec.ID, IssuedAt: rec.IssuedAt, CompletedAt: rec.CompletedAt, PDFKey: key}
	pdf, err := s.renderPDF(fixed, data)
	if err != nil {
		return Record{}, err
	}
	if err := s.storePDF(fixed, pdf); err != nil {
		return Record{}, err
	}
	if key != rec.PDFKey {
		if err := s.store.UpdatePDFKey(ctx, rec.ID, key); err != nil {
			return Record{}, err
		}
		rec.PDFKey = key
	}
	return rec, nil
}

// documentFor loads the names printed on a certificate.
func (s *Service) documentFor(ctx context.Context, userID, courseID string) (render.CertificateData, error) {
	user, err := s.catalog.GetUser(ctx, userID)
	if err != nil {
		return render.CertificateData{}, err
	}
	course, err := s.catalog.GetCourse(ctx, courseID)
	if err != nil {
		return render.CertificateData{}, err
	}
	data := render.CertificateData{StudentName: user.Name, CourseTitle: course.Title}
	if inst, err := s.catalog.GetUser(ctx, course.InstructorID); err == nil {
		data.InstructorName = inst.Name
	}
	return data, nil
}

func (s *Service) renderPDF(rec Record, data render.CertificateData) ([]byte, error) {
	data.CertificateID = rec.ID
	data.IssuedAt = time.Unix(rec.IssuedAt, 0)
	data.CompletedAt = time.Unix(rec.CompletedAt, 0)

	pdf, err := s.renderer.Certificate(data)
	s.metrics.ObserveRender(render.KindCertificate, err)
	if err != nil {
		s.log.WithError(err).WithField("certificate_id", rec.ID).Error("certificate render failed")
		return nil, fmt.Errorf("%w: %v", apperr.ErrRenderFailure, err)
	}
	return pdf, nil
}

// storePDF writes pdf under rec.PDFKey. A record whose write failed is
// repaired by ensurePDF on the next read.
func (s *Service) storePDF(rec Record, pdf []byte) error {
	if _, err := s.blobs.Put(rec.PDFKey, bytes.NewReader(pdf)); err != nil {
		s.log.WithError(err).WithField("certificate_id", rec.ID).Error("certificate write failed")
		return fmt.Errorf("%w: %v", apperr.ErrRenderFailure, err)
	}
	return nil
}

// redact keeps the error kind but drops the store's message, which can name
// internal ids.
func redact(err error, msg string) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("%w: %s", apperr.ErrNotFound, msg)
	}
	return err
}
