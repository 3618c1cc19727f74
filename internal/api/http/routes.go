package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/mind-engage/mindengage-courses/internal/auth/middleware"
	"github.com/mind-engage/mindengage-courses/internal/catalog"
	"github.com/mind-engage/mindengage-courses/internal/certificate"
	"github.com/mind-engage/mindengage-courses/internal/ledger"
	"github.com/mind-engage/mindengage-courses/internal/payment"
	"github.com/mind-engage/mindengage-courses/internal/quiz"
	"github.com/mind-engage/mindengage-courses/internal/rbac"
)

type Deps struct {
	Auth         *auth.AuthService
	Catalog      catalog.Store
	Quizzes      *quiz.Service
	Ledger       *ledger.Service
	Certificates *certificate.Service
	Issuer       ledger.Issuer
	Payments     *payment.Service

	EnableLocalAuth    bool
	AllowClaimFallback bool
	Ready              map[string]Pinger
	Metrics            http.Handler // optional
}

// Mount registers the public and authenticated routes on r.
func Mount(r chi.Router, d Deps) {
	r.Get("/healthz", HealthzHandler())
	r.Get("/readyz", ReadyzHandler(d.Ready))
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	if d.EnableLocalAuth {
		r.Post("/auth/login", LoginHandler(d.Auth, d.Catalog))
	}

	// Public: shareable documents and their verification.
	r.Get("/certificates/{certificateId}/download", DownloadCertificateHandler(d.Certificates))
	r.Get("/certificates/{certificateId}/verify", VerifyCertificateHandler(d.Certificates))
	r.Get("/quiz/scorecard/{resultId}/download", DownloadScorecardHandler(d.Certificates))
	r.Get("/quiz/scorecard/{resultId}/verify", VerifyScorecardHandler(d.Certificates))

	// Protected API (JWT → stored role → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))
		pr.Use(auth.AttachRoleFromStore(d.Catalog, d.AllowClaimFallback))

		pr.With(rbac.Require(rbac.PermQuizCreate)).
			Post("/quiz", CreateQuizHandler(d.Quizzes))
		pr.With(rbac.Require(rbac.PermQuizUpdate)).
			Put("/quiz/{quizId}", UpdateQuizHandler(d.Quizzes))
		pr.With(rbac.Require(rbac.PermQuizTake)).
			Get("/quiz/course/{courseId}", GetCourseQuizHandler(d.Quizzes))
		pr.With(rbac.Require(rbac.PermQuizTake)).
			Post("/quiz/submit", SubmitQuizHandler(d.Ledger))
		pr.With(rbac.Require(rbac.PermQuizResults)).
			Get("/quiz/results/{courseId}", QuizResultsHandler(d.Ledger))

		pr.With(rbac.Require(rbac.PermCertificateIssue)).
			Post("/certificates/{courseId}/generate", GenerateCertificateHandler(d.Certificates))
		pr.With(rbac.Require(rbac.PermCertificateList)).
			Get("/certificates", ListCertificatesHandler(d.Certificates))

		pr.With(rbac.Require(rbac.PermProgressUpdate)).
			Post("/progress/{courseId}/lectures/{lectureId}", LectureViewedHandler(d.Catalog))
		pr.With(rbac.Require(rbac.PermProgressUpdate)).
			Post("/progress/{courseId}/complete", CompleteCourseHandler(d.Catalog, d.Issuer))

		pr.With(rbac.Require(rbac.PermPaymentVerify)).
			Post("/payments/verify", VerifyPaymentHandler(d.Payments))
	})
}
