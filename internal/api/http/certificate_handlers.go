package http

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-courses/internal/certificate"
	"github.com/mind-engage/mindengage-courses/internal/logging"
)

// POST /certificates/{courseId}/generate
func GenerateCertificateHandler(svc *certificate.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.IssueOrFetch(r.Context(), subject(r), chi.URLParam(r, "courseId"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		ok(w, "certificate ready", rec)
	}
}

// GET /certificates
func ListCertificatesHandler(svc *certificate.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListForUser(r.Context(), subject(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		ok(w, "", list)
	}
}

// GET /certificates/{certificateId}/download (public)
func DownloadCertificateHandler(svc *certificate.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc, rec, err := svc.Download(r.Context(), chi.URLParam(r, "certificateId"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		defer rc.Close()
		pdfHeaders(w, "certificate-"+rec.ID+".pdf", -1)
		if _, err := io.Copy(w, rc); err != nil {
			logging.FromContext(r.Context()).WithError(err).Warn("certificate stream interrupted")
		}
	}
}

// GET /certificates/{certificateId}/verify (public)
func VerifyCertificateHandler(svc *certificate.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := svc.Verify(r.Context(), chi.URLParam(r, "certificateId"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		ok(w, "certificate is valid", v)
	}
}

// GET /quiz/scorecard/{resultId}/download (public)
func DownloadScorecardHandler(svc *certificate.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "resultId")
		pdf, err := svc.DownloadScorecard(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		pdfHeaders(w, "scorecard-"+id+".pdf", len(pdf))
		_, _ = io.Copy(w, bytes.NewReader(pdf))
	}
}

// GET /quiz/scorecard/{resultId}/verify (public)
func VerifyScorecardHandler(svc *certificate.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := svc.VerifyScorecard(r.Context(), chi.URLParam(r, "resultId"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		ok(w, "scorecard is valid", v)
	}
}

func pdfHeaders(w http.ResponseWriter, filename string, size int) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if size >= 0 {
		w.Header().Set("Content-Length", strconv.Itoa(size))
	}
}
