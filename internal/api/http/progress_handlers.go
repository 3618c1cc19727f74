package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-courses/internal/catalog"
	"github.com/mind-engage/mindengage-courses/internal/ledger"
	"github.com/mind-engage/mindengage-courses/internal/logging"
)

// POST /progress/{courseId}/lectures/{lectureId}
func LectureViewedHandler(store catalog.Store) http.HandlerFunc {
	gate := catalog.NewGate(store)
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseId")
		if err := gate.CanAccess(r.Context(), subject(r), courseID); err != nil {
			writeError(w, r, err)
			return
		}
		p, err := store.MarkLectureViewed(r.Context(), subject(r), courseID, chi.URLParam(r, "lectureId"), time.Now().Unix())
		if err != nil {
			writeError(w, r, err)
			return
		}
		ok(w, "", p)
	}
}

// POST /progress/{courseId}/complete marks the course complete and issues the
// certificate. Paid courses need an enrollment. Issuance failures are queued and do not fail the request.
func CompleteCourseHandler(store catalog.Store, issuer ledger.Issuer) http.HandlerFunc {
	gate := catalog.NewGate(store)
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, courseID := subject(r), chi.URLParam(r, "courseId")
		if err := gate.CanAccess(ctx, userID, courseID); err != nil {
			writeError(w, r, err)
			return
		}
		if err := store.MarkCompleted(ctx, userID, courseID, time.Now().Unix()); err != nil {
			writeError(w, r, err)
			return
		}
		p, err := store.GetProgress(ctx, userID, courseID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		msg := "course completed"
		certID, err := issuer.Submit(ctx, userID, courseID)
		if err != nil {
			logging.FromContext(ctx).WithError(err).WithField("course_id", courseID).Warn("certificate issuance deferred")
			msg = "course completed; certificate will be issued shortly"
		}
		ok(w, msg, map[string]any{"progress": p, "certificateId": certID})
	}
}
